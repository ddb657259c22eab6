package core

import (
	"book-catalog/internal/core/edit"
	"book-catalog/internal/core/model"
	"book-catalog/internal/core/query"
	"book-catalog/internal/core/store"
	"book-catalog/internal/metrics"
	"book-catalog/internal/validation"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Gateway is everything the controller needs from the catalog service.
type Gateway interface {
	store.Lister
	edit.Updater
	CreateRecord(ctx context.Context, in model.RecordInput) error
}

type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

const (
	msgUpdated      = "Book updated."
	msgUpdateFailed = "Failed to update book."
	msgCreated      = "Book added."
	msgCreateFailed = "Failed to add book."
	msgInvalidForm  = "Please fix the highlighted fields."
)

type Notice struct {
	Level   NoticeLevel
	Message string
	// Details maps a field to what is wrong with it, when known.
	Details map[string]string
}

// Notifier shows toasts. Notify must not block.
type Notifier interface {
	Notify(n Notice)
}

// LogNotifier writes notices to a logger. It is the default Notifier.
type LogNotifier struct {
	Log *slog.Logger
}

func (n LogNotifier) Notify(no Notice) {
	lvl := slog.LevelInfo
	if no.Level == NoticeError {
		lvl = slog.LevelWarn
	}
	n.Log.Log(context.Background(), lvl, no.Message, "details", no.Details)
}

// SearchSource says where a search event came from. Clearing the search box
// removes the filter.
type SearchSource string

const (
	SearchInput SearchSource = "input"
	SearchClear SearchSource = "clear"
)

// TableChange is the change event of a paginated, sortable table. SortOrder
// accepts ASC/DESC or ascend/descend; empty means descending.
type TableChange struct {
	Page      int
	PageSize  int
	SortField string
	SortOrder string
}

type Options struct {
	Initial  model.QueryParams
	Logger   *slog.Logger
	Metrics  *metrics.Recorder
	Notifier Notifier
}

// Controller turns UI events into query changes, list fetches and edit
// commits. It owns the query model, the list store and the edit session;
// views read state from it and subscribe to list changes.
type Controller struct {
	gateway  Gateway
	query    *query.Model
	list     *store.ListStore
	session  *edit.Session
	validate *validation.Validator
	notifier Notifier
	metrics  *metrics.Recorder
	log      *slog.Logger

	closeOnce   sync.Once
	unsubscribe func()
}

func NewController(gw Gateway, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = LogNotifier{Log: logger.With("component", "notifier")}
	}
	c := &Controller{
		gateway:  gw,
		query:    query.NewModel(opts.Initial),
		list:     store.NewListStore(gw, logger, opts.Metrics),
		session:  edit.NewSession(gw, logger, opts.Metrics),
		validate: validation.New(),
		notifier: notifier,
		metrics:  opts.Metrics,
		log:      logger.With("component", "controller"),
	}
	c.unsubscribe = c.list.Subscribe(c.onListState)
	return c
}

// Close detaches the controller from its list store.
func (c *Controller) Close() {
	c.closeOnce.Do(c.unsubscribe)
}

func (c *Controller) Params() model.QueryParams {
	return c.query.Current()
}

func (c *Controller) ListState() model.ListState {
	return c.list.State()
}

func (c *Controller) EditState() model.EditState {
	return c.session.State()
}

// Subscribe forwards list state changes to fn.
func (c *Controller) Subscribe(fn func(model.ListState)) func() {
	return c.list.Subscribe(fn)
}

// Mount loads the first page.
func (c *Controller) Mount(ctx context.Context) error {
	return c.fetch(ctx, c.query.Current())
}

func (c *Controller) Refresh(ctx context.Context) error {
	return c.fetch(ctx, c.query.Current())
}

func (c *Controller) SubmitSearch(ctx context.Context, text string, source SearchSource) error {
	if source == SearchClear {
		text = ""
	}
	return c.fetch(ctx, c.query.SetFilter(text))
}

func (c *Controller) ChangeTable(ctx context.Context, ch TableChange) error {
	field, err := sortField(ch.SortField)
	if err != nil {
		return err
	}
	q := c.query.SetTable(ch.Page, ch.PageSize, field, model.ParseSortDirection(ch.SortOrder))
	return c.fetch(ctx, q)
}

// Navigate shows q with a single fetch. Page resets do not apply: q is taken
// as given apart from normalization.
func (c *Controller) Navigate(ctx context.Context, q model.QueryParams) error {
	field, err := sortField(q.SortField)
	if err != nil {
		return err
	}
	q.SortField = field
	return c.fetch(ctx, c.query.Set(q))
}

func (c *Controller) ChangePage(ctx context.Context, page, pageSize int) error {
	return c.fetch(ctx, c.query.SetPage(page, pageSize))
}

func (c *Controller) ChangeSort(ctx context.Context, field string, dir model.SortDirection) error {
	field, err := sortField(field)
	if err != nil {
		return err
	}
	return c.fetch(ctx, c.query.SetSort(field, dir))
}

// BeginEdit opens the row with the given id for editing. The row must be on
// the page currently shown.
func (c *Controller) BeginEdit(id int) error {
	rec, ok := c.list.State().Find(id)
	if !ok {
		return fmt.Errorf("begin edit %d: %w", id, model.ErrRecordNotOnPage)
	}
	return c.session.BeginEdit(rec)
}

func (c *Controller) UpdateDraftField(f model.Field, value string) error {
	return c.session.UpdateDraftField(f, value)
}

func (c *Controller) CancelEdit() error {
	return c.session.Cancel()
}

// SaveEdit commits the open edit. On success the list is refetched with the
// parameters current at that moment, not the ones the edit started under.
// On failure the row stays in edit mode and the user is notified.
func (c *Controller) SaveEdit(ctx context.Context) error {
	rec, err := c.session.Commit(ctx)
	if err != nil {
		if errors.Is(err, model.ErrNotEditing) || errors.Is(err, model.ErrCommitPending) {
			return err
		}
		c.notifyFailure(msgUpdateFailed, err)
		return err
	}
	c.notifier.Notify(Notice{Level: NoticeSuccess, Message: msgUpdated})
	c.log.Debug("edit saved, refetching", "id", rec.ID)
	return c.fetch(ctx, c.query.Current())
}

// AddRecord validates the form, creates the record and reloads the list.
// An invalid form never reaches the service.
func (c *Controller) AddRecord(ctx context.Context, form model.RecordForm) error {
	in := form.RecordInput
	if err := c.validate.Validate(in); err != nil {
		c.notifyFailure(msgInvalidForm, err)
		return fmt.Errorf("add record: %w", err)
	}
	err := c.gateway.CreateRecord(ctx, in)
	c.metrics.Create(err)
	if err != nil {
		c.notifyFailure(msgCreateFailed, err)
		return fmt.Errorf("add record: %w", err)
	}
	c.notifier.Notify(Notice{Level: NoticeSuccess, Message: msgCreated})
	return c.fetch(ctx, c.query.Current())
}

// fetch hands q to the store. Being superseded by a newer fetch is not an
// error for the caller.
func (c *Controller) fetch(ctx context.Context, q model.QueryParams) error {
	err := c.list.Fetch(ctx, q)
	if errors.Is(err, model.ErrStaleResponse) {
		return nil
	}
	return err
}

func (c *Controller) onListState(st model.ListState) {
	if st.Status == model.StatusFailed {
		c.notifier.Notify(Notice{Level: NoticeError, Message: st.ErrorMessage})
	}
}

func (c *Controller) notifyFailure(msg string, err error) {
	n := Notice{Level: NoticeError, Message: msg}
	var gwErr *model.GatewayError
	if errors.As(err, &gwErr) {
		n.Details = gwErr.Details
	}
	c.log.Warn(msg, "error", err)
	c.notifier.Notify(n)
}

// sortField canonicalizes a sort field name. Empty stays empty and means the
// default sort.
func sortField(name string) (string, error) {
	if name == "" {
		return "", nil
	}
	f, ok := model.ParseField(name)
	if !ok {
		return "", fmt.Errorf("sort by %q: %w", name, model.ErrUnknownField)
	}
	return string(f), nil
}
