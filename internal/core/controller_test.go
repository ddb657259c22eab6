//go:build unit

package core

import (
	"book-catalog/internal/adapter"
	"book-catalog/internal/core/model"
	"book-catalog/internal/metrics"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quietLog = slog.New(slog.NewTextHandler(io.Discard, nil))

type recordingNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (n *recordingNotifier) Notify(no Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, no)
}

func (n *recordingNotifier) all() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notice(nil), n.notices...)
}

func (n *recordingNotifier) last() Notice {
	all := n.all()
	if len(all) == 0 {
		return Notice{}
	}
	return all[len(all)-1]
}

type fixture struct {
	ctl      *Controller
	repo     *adapter.BookRepo
	client   *adapter.CatalogClient
	notifier *recordingNotifier
	registry *prometheus.Registry
}

// newFixture wires a controller to the in-memory reference service over a
// real HTTP server seeded with n books.
func newFixture(t *testing.T, n int) *fixture {
	t.Helper()
	repo := adapter.NewBookRepo()
	require.NoError(t, adapter.Seed(context.Background(), repo, n))
	srv := httptest.NewServer(adapter.HandlerFromMux(adapter.NewHandler(repo, quietLog), chi.NewRouter()))
	t.Cleanup(srv.Close)

	client := adapter.NewCatalogClient(srv.URL, srv.Client(), quietLog)
	reg := prometheus.NewRegistry()
	rec := metrics.New(reg)
	notifier := &recordingNotifier{}
	ctl := NewController(client, Options{
		Initial:  model.DefaultQueryParams(),
		Logger:   quietLog,
		Metrics:  rec,
		Notifier: notifier,
	})
	t.Cleanup(ctl.Close)
	return &fixture{ctl: ctl, repo: repo, client: client, notifier: notifier, registry: reg}
}

func TestMount_LoadsFirstPage(t *testing.T) {
	f := newFixture(t, 25)

	require.NoError(t, f.ctl.Mount(context.Background()))

	st := f.ctl.ListState()
	assert.Equal(t, model.StatusLoaded, st.Status)
	assert.Equal(t, 25, st.TotalCount)
	require.Len(t, st.Records, 10)
	assert.Equal(t, 25, st.Records[0].ID)
	assert.Empty(t, st.ErrorMessage)
}

func TestMount_FailureKeepsPreviousPageAndNotifies(t *testing.T) {
	f := newFixture(t, 25)
	require.NoError(t, f.ctl.Mount(context.Background()))

	f.client.BaseURL = "http://127.0.0.1:1"
	err := f.ctl.Refresh(context.Background())
	require.ErrorIs(t, err, model.ErrTransport)

	st := f.ctl.ListState()
	assert.Equal(t, model.StatusFailed, st.Status)
	assert.Equal(t, model.FetchFailedMessage, st.ErrorMessage)
	assert.Len(t, st.Records, 10, "previous page stays visible")
	assert.Equal(t, 25, st.TotalCount)

	last := f.notifier.last()
	assert.Equal(t, NoticeError, last.Level)
	assert.Equal(t, model.FetchFailedMessage, last.Message)
}

func TestSaveEdit_RefetchesWithNewTitle(t *testing.T) {
	f := newFixture(t, 25)
	ctx := context.Background()
	require.NoError(t, f.ctl.Mount(ctx))
	require.NoError(t, f.ctl.ChangePage(ctx, 3, 10))

	require.NoError(t, f.ctl.BeginEdit(5))
	require.NoError(t, f.ctl.UpdateDraftField(model.FieldTitle, "New Title"))
	require.NoError(t, f.ctl.SaveEdit(ctx))

	assert.Equal(t, model.EditIdle, f.ctl.EditState().Status)
	rec, ok := f.ctl.ListState().Find(5)
	require.True(t, ok)
	assert.Equal(t, "New Title", rec.Title)
	assert.Equal(t, NoticeSuccess, f.notifier.last().Level)
	n, err := testutil.GatherAndCount(f.registry, "book_catalog_client_edit_commits_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSaveEdit_ValidationFailureKeepsDraft(t *testing.T) {
	f := newFixture(t, 25)
	ctx := context.Background()
	require.NoError(t, f.ctl.ChangePage(ctx, 3, 10))

	require.NoError(t, f.ctl.BeginEdit(5))
	require.NoError(t, f.ctl.UpdateDraftField(model.FieldTitle, "New Title"))
	require.NoError(t, f.ctl.UpdateDraftField(model.FieldYear, "not a year"))

	err := f.ctl.SaveEdit(ctx)
	require.ErrorIs(t, err, model.ErrValidation)

	es := f.ctl.EditState()
	assert.Equal(t, model.EditEditing, es.Status)
	assert.Equal(t, 5, es.ActiveID)
	require.NotNil(t, es.Draft)
	assert.Equal(t, "New Title", es.Draft.Title)

	last := f.notifier.last()
	assert.Equal(t, NoticeError, last.Level)
	assert.Equal(t, "must be a number", last.Details["year"])

	stored, err := f.repo.GetByID(ctx, 5)
	require.NoError(t, err)
	assert.NotEqual(t, "New Title", stored.Title, "server copy untouched")
}

func TestSaveEdit_NoOpCommitRoundTrips(t *testing.T) {
	f := newFixture(t, 25)
	ctx := context.Background()
	require.NoError(t, f.ctl.Mount(ctx))
	before := f.ctl.ListState()

	require.NoError(t, f.ctl.BeginEdit(20))
	require.NoError(t, f.ctl.SaveEdit(ctx))

	after := f.ctl.ListState()
	assert.Equal(t, before.Records, after.Records)
	assert.Equal(t, before.TotalCount, after.TotalCount)
}

func TestSaveEdit_UsesLatestParams(t *testing.T) {
	f := newFixture(t, 25)
	ctx := context.Background()
	require.NoError(t, f.ctl.Mount(ctx))
	require.NoError(t, f.ctl.BeginEdit(25))
	require.NoError(t, f.ctl.UpdateDraftField(model.FieldAuthor, "Someone"))

	// the page changes while the row is open
	require.NoError(t, f.ctl.ChangePage(ctx, 1, 5))
	require.NoError(t, f.ctl.SaveEdit(ctx))

	st := f.ctl.ListState()
	assert.Equal(t, 5, st.Params.PageSize)
	assert.Len(t, st.Records, 5)
}

func TestBeginEdit_Exclusive(t *testing.T) {
	f := newFixture(t, 25)
	require.NoError(t, f.ctl.Mount(context.Background()))

	require.NoError(t, f.ctl.BeginEdit(25))
	require.NoError(t, f.ctl.BeginEdit(25), "same row is a no-op")
	err := f.ctl.BeginEdit(24)
	require.ErrorIs(t, err, model.ErrEditInProgress)
	assert.Equal(t, 25, f.ctl.EditState().ActiveID)

	require.NoError(t, f.ctl.CancelEdit())
	require.NoError(t, f.ctl.BeginEdit(24))
}

func TestBeginEdit_RecordNotOnPage(t *testing.T) {
	f := newFixture(t, 25)
	require.NoError(t, f.ctl.Mount(context.Background()))

	err := f.ctl.BeginEdit(1)
	assert.ErrorIs(t, err, model.ErrRecordNotOnPage)
	assert.Equal(t, model.EditIdle, f.ctl.EditState().Status)
}

func TestCancelEdit_DiscardsDraftWithoutRequest(t *testing.T) {
	f := newFixture(t, 25)
	ctx := context.Background()
	require.NoError(t, f.ctl.Mount(ctx))
	require.NoError(t, f.ctl.BeginEdit(25))
	require.NoError(t, f.ctl.UpdateDraftField(model.FieldTitle, "Draft only"))

	require.NoError(t, f.ctl.CancelEdit())
	assert.Nil(t, f.ctl.EditState().Draft)

	stored, _ := f.repo.GetByID(ctx, 25)
	assert.NotEqual(t, "Draft only", stored.Title)
}

func TestSubmitSearch_ResetsPageAndClears(t *testing.T) {
	f := newFixture(t, 25)
	ctx := context.Background()
	require.NoError(t, f.ctl.ChangePage(ctx, 2, 10))

	require.NoError(t, f.ctl.SubmitSearch(ctx, "the", SearchInput))
	q := f.ctl.Params()
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, "the", q.TitleFilter)
	st := f.ctl.ListState()
	assert.Less(t, st.TotalCount, 25)
	assert.Positive(t, st.TotalCount)

	require.NoError(t, f.ctl.SubmitSearch(ctx, "ignored", SearchClear))
	assert.Empty(t, f.ctl.Params().TitleFilter)
	assert.Equal(t, 25, f.ctl.ListState().TotalCount)
}

func TestChangeTable_SortChangeResetsPage(t *testing.T) {
	f := newFixture(t, 25)
	ctx := context.Background()

	require.NoError(t, f.ctl.ChangeTable(ctx, TableChange{Page: 2, PageSize: 10, SortField: "id", SortOrder: "descend"}))
	assert.Equal(t, 2, f.ctl.Params().Page)
	assert.Equal(t, 15, f.ctl.ListState().Records[0].ID)

	require.NoError(t, f.ctl.ChangeTable(ctx, TableChange{Page: 2, PageSize: 10, SortField: "Title", SortOrder: "ascend"}))
	q := f.ctl.Params()
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, "title", q.SortField)
	assert.Equal(t, model.SortAsc, q.SortDirection)
	assert.Equal(t, "Berlin Alexanderplatz", f.ctl.ListState().Records[0].Title)
}

func TestNavigate_SingleFetchKeepsRequestedPage(t *testing.T) {
	f := newFixture(t, 25)
	ctx := context.Background()

	want := model.QueryParams{Page: 2, PageSize: 3, TitleFilter: "the", SortField: "Title", SortDirection: model.SortAsc}
	require.NoError(t, f.ctl.Navigate(ctx, want))

	q := f.ctl.Params()
	assert.Equal(t, 2, q.Page, "sort and filter do not reset the page here")
	assert.Equal(t, "title", q.SortField)
	assert.Equal(t, "the", q.TitleFilter)
	st := f.ctl.ListState()
	assert.Equal(t, model.StatusLoaded, st.Status)
	assert.Len(t, st.Records, 3)

	expected := `
# HELP book_catalog_client_list_fetches_total List fetches that settled the store, by outcome
# TYPE book_catalog_client_list_fetches_total counter
book_catalog_client_list_fetches_total{outcome="success"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(f.registry, strings.NewReader(expected), "book_catalog_client_list_fetches_total"))
}

func TestNavigate_UnknownSortFieldSendsNothing(t *testing.T) {
	f := newFixture(t, 25)
	before := f.ctl.Params()

	err := f.ctl.Navigate(context.Background(), model.QueryParams{SortField: "isbn"})
	assert.ErrorIs(t, err, model.ErrUnknownField)
	assert.Equal(t, before, f.ctl.Params())
	assert.Equal(t, model.StatusIdle, f.ctl.ListState().Status)
}

func TestChangeSort_UnknownField(t *testing.T) {
	f := newFixture(t, 3)
	err := f.ctl.ChangeSort(context.Background(), "isbn", model.SortAsc)
	assert.ErrorIs(t, err, model.ErrUnknownField)
	assert.Equal(t, "id", f.ctl.Params().SortField)
	assert.Equal(t, model.StatusIdle, f.ctl.ListState().Status, "nothing fetched")
}

func TestAddRecord(t *testing.T) {
	f := newFixture(t, 25)
	ctx := context.Background()
	require.NoError(t, f.ctl.Mount(ctx))

	form := model.NewRecordForm(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	form.Title = "Brand New"
	form.Author = "Writer"
	form.Language = "English"
	form.Country = "Canada"
	form.Pages = "300"

	require.NoError(t, f.ctl.AddRecord(ctx, form))
	st := f.ctl.ListState()
	assert.Equal(t, 26, st.TotalCount)
	assert.Equal(t, "Brand New", st.Records[0].Title)
	assert.Equal(t, "2024", st.Records[0].Year)
	assert.Equal(t, NoticeSuccess, f.notifier.last().Level)
}

func TestAddRecord_InvalidFormNeverReachesService(t *testing.T) {
	f := newFixture(t, 25)
	ctx := context.Background()

	form := model.NewRecordForm(time.Now())
	form.Title = "Bad"
	form.Author = "Writer"
	form.Language = "English"
	form.Country = "Canada"
	form.Pages = "many"

	err := f.ctl.AddRecord(ctx, form)
	require.ErrorIs(t, err, model.ErrValidation)
	assert.Equal(t, 25, f.repo.Len())

	last := f.notifier.last()
	assert.Equal(t, NoticeError, last.Level)
	assert.Contains(t, last.Details, "pages")
}

func TestAddRecord_ServiceFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	notifier := &recordingNotifier{}
	ctl := NewController(adapter.NewCatalogClient(srv.URL, srv.Client(), quietLog), Options{Logger: quietLog, Notifier: notifier})
	defer ctl.Close()

	form := model.NewRecordForm(time.Now())
	form.RecordInput = model.RecordInput{Title: "T", Author: "A", Year: "2000", Language: "L", Country: "C", Pages: "1"}
	err := ctl.AddRecord(context.Background(), form)
	require.ErrorIs(t, err, model.ErrTransport)
	assert.Equal(t, msgCreateFailed, notifier.last().Message)
}
