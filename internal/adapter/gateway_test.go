//go:build unit

package adapter

import (
	"book-catalog/internal/core/model"
	"book-catalog/internal/metrics"
	"book-catalog/pkg/http_client"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/h2non/gock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mockHost = "http://catalog.test"

var quietLog = slog.New(slog.NewTextHandler(io.Discard, nil))

// referenceServer runs the in-memory catalog service seeded with n books.
func referenceServer(t *testing.T, n int) (*httptest.Server, *BookRepo) {
	t.Helper()
	repo := NewBookRepo()
	require.NoError(t, Seed(context.Background(), repo, n))
	srv := httptest.NewServer(HandlerFromMux(NewHandler(repo, quietLog), chi.NewRouter()))
	t.Cleanup(srv.Close)
	return srv, repo
}

// gockClient returns a client whose transport is intercepted by gock.
func gockClient(t *testing.T) *CatalogClient {
	t.Helper()
	hc := &http.Client{}
	gock.InterceptClient(hc)
	t.Cleanup(func() {
		gock.RestoreClient(hc)
		gock.Off()
	})
	return NewCatalogClient(mockHost, hc, quietLog)
}

func TestListRecords_FirstPage(t *testing.T) {
	srv, _ := referenceServer(t, 25)
	c := NewCatalogClient(srv.URL, srv.Client(), quietLog)

	res, err := c.ListRecords(context.Background(), model.DefaultQueryParams())
	require.NoError(t, err)
	assert.Equal(t, 25, res.TotalCount)
	assert.Equal(t, 3, res.TotalPages)
	assert.Equal(t, 1, res.CurrentPage)
	assert.Equal(t, model.SortDesc, res.SortDirection)
	require.Len(t, res.Records, 10)
	assert.Equal(t, 25, res.Records[0].ID)
	assert.Equal(t, 16, res.Records[9].ID)
}

func TestListRecords_LastPartialPage(t *testing.T) {
	srv, _ := referenceServer(t, 25)
	c := NewCatalogClient(srv.URL, srv.Client(), quietLog)

	res, err := c.ListRecords(context.Background(), model.DefaultQueryParams().WithPage(3, 10))
	require.NoError(t, err)
	assert.Len(t, res.Records, 5)
	assert.Equal(t, 25, res.TotalCount)
}

func TestListRecords_QueryEncoding(t *testing.T) {
	var got http.Header
	var query map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		query = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"pagination":{"sortDirection":"ASC","totalPages":0,"pageSize":5,"currentPage":2,"totalElements":0},"data":[]}`)
	}))
	defer srv.Close()

	c := NewCatalogClient(srv.URL, srv.Client(), quietLog)
	q := model.QueryParams{Page: 2, PageSize: 5, TitleFilter: "war & peace", SortField: "title", SortDirection: model.SortAsc}
	res, err := c.ListRecords(context.Background(), q)
	require.NoError(t, err)
	assert.Empty(t, res.Records)

	assert.Equal(t, []string{"2"}, query["page"])
	assert.Equal(t, []string{"5"}, query["pageSize"])
	assert.Equal(t, []string{"war & peace"}, query["title"])
	assert.Equal(t, []string{"title"}, query["sortBy"])
	assert.Equal(t, []string{"ASC"}, query["DIR"])
	assert.NotEmpty(t, got.Get(http_client.RequestIDHeader))
	assert.Equal(t, "application/json", got.Get("Accept"))
}

func TestListRecords_LooseNumbers(t *testing.T) {
	c := gockClient(t)
	gock.New(mockHost).
		Get("/books").
		MatchParam("page", "1").
		Reply(200).
		JSON(map[string]any{
			"pagination": map[string]any{"sortDirection": "DESC", "totalPages": 1, "pageSize": 10, "currentPage": 1, "totalElements": 1},
			"data": []map[string]any{
				{"id": 7, "title": "Numbers", "author": "A", "year": 1999, "language": "L", "country": "C", "pages": nil},
			},
		})

	res, err := c.ListRecords(context.Background(), model.DefaultQueryParams())
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "1999", res.Records[0].Year)
	assert.Equal(t, "", res.Records[0].Pages)
	assert.True(t, gock.IsDone())
}

func TestListRecords_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"server error", 500, `{"error":{"code":"INTERNAL","message":"boom"}}`, model.ErrTransport},
		{"not found is transport for lists", 404, `nope`, model.ErrTransport},
		{"malformed body", 200, `{"pagination":`, model.ErrDecode},
		{"missing data", 200, `{"pagination":{"totalElements":3}}`, model.ErrDecode},
		{"missing pagination", 200, `{"data":[]}`, model.ErrDecode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := gockClient(t)
			gock.New(mockHost).Get("/books").Reply(tt.status).BodyString(tt.body)

			_, err := c.ListRecords(context.Background(), model.DefaultQueryParams())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestListRecords_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewCatalogClient(url, nil, quietLog)
	_, err := c.ListRecords(context.Background(), model.DefaultQueryParams())
	require.ErrorIs(t, err, model.ErrTransport)

	var gwErr *model.GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, 0, gwErr.Status)
}

func TestUpdateRecord_RoundTrip(t *testing.T) {
	srv, repo := referenceServer(t, 25)
	c := NewCatalogClient(srv.URL, srv.Client(), quietLog)

	rec, err := repo.GetByID(context.Background(), 25)
	require.NoError(t, err)
	rec.Title = "Edited"
	require.NoError(t, c.UpdateRecord(context.Background(), rec))

	got, _ := repo.GetByID(context.Background(), 25)
	assert.Equal(t, rec, got)
}

func TestUpdateRecord_SendsEveryField(t *testing.T) {
	var (
		method, path string
		body         map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	c := NewCatalogClient(srv.URL, srv.Client(), quietLog)

	cleared := model.Record{ID: 5, Title: "T", Author: "A", Year: "1999", Language: "L", Country: "C"}
	require.NoError(t, c.UpdateRecord(context.Background(), cleared))

	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/books/5", path)
	for _, key := range []string{"title", "author", "year", "language", "country", "pages", "link"} {
		assert.Contains(t, body, key)
	}
	assert.NotContains(t, body, "id")
	assert.Equal(t, "", body["pages"])
	assert.Equal(t, "", body["link"])
}

func TestUpdateRecord_ErrorMapping(t *testing.T) {
	srv, _ := referenceServer(t, 3)
	c := NewCatalogClient(srv.URL, srv.Client(), quietLog)

	err := c.UpdateRecord(context.Background(), model.Record{ID: 99, Title: "T", Author: "A", Year: "1", Language: "L", Country: "C", Pages: "1"})
	assert.ErrorIs(t, err, model.ErrNotFound)

	err = c.UpdateRecord(context.Background(), model.Record{ID: 1, Title: "T", Author: "A", Year: "soon", Language: "L", Country: "C", Pages: "1"})
	require.ErrorIs(t, err, model.ErrValidation)
	var gwErr *model.GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, http.StatusBadRequest, gwErr.Status)
	assert.Equal(t, "must be a number", gwErr.Details["year"])
}

func TestWrite_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{422, model.ErrValidation},
		{409, model.ErrTransport},
		{503, model.ErrTransport},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := gockClient(t)
			gock.New(mockHost).Post("/books").Reply(tt.status).BodyString("nope")

			err := c.CreateRecord(context.Background(), model.RecordInput{Title: "x"})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreateRecord(t *testing.T) {
	srv, repo := referenceServer(t, 2)
	c := NewCatalogClient(srv.URL, srv.Client(), quietLog)
	in := model.RecordInput{Title: "New", Author: "A", Year: "2024", Language: "L", Country: "C", Pages: "10"}
	require.NoError(t, c.CreateRecord(context.Background(), in))
	assert.Equal(t, 3, repo.Len())

	got, err := repo.GetByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, in.WithID(3), got)
}

func TestRateLimiter(t *testing.T) {
	assert.Nil(t, NewRateLimiter(0))
	assert.Nil(t, NewRateLimiter(-1))

	l := NewRateLimiter(0.5)
	require.NotNil(t, l)
	assert.Equal(t, 1, l.Burst())

	c := gockClient(t)
	c.Limiter = l
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.ListRecords(ctx, model.DefaultQueryParams())
	assert.ErrorIs(t, err, model.ErrTransport)
	assert.True(t, gock.IsDone(), "no request is sent when the limiter wait fails")
}

func TestGatewayRequestsAreCounted(t *testing.T) {
	srv, _ := referenceServer(t, 1)
	c := NewCatalogClient(srv.URL, srv.Client(), quietLog)
	reg := prometheus.NewRegistry()
	c.Metrics = metrics.New(reg)

	_, err := c.ListRecords(context.Background(), model.DefaultQueryParams())
	require.NoError(t, err)
	err = c.UpdateRecord(context.Background(), model.Record{ID: 404, Title: "T", Author: "A", Year: "1", Language: "L", Country: "C"})
	require.ErrorIs(t, err, model.ErrNotFound)

	n, err := testutil.GatherAndCount(reg, "book_catalog_client_gateway_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "one series per op and status code")
}
