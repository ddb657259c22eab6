package adapter

import (
	"book-catalog/internal/core/model"
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
)

var (
	errNotFound = errors.New("not found")
	errConflict = errors.New("conflict")
)

type Page[T any] struct {
	Data     []T
	Page     int
	PageSize int
	Total    int
}

func (p Page[T]) TotalPages() int {
	if p.PageSize < 1 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

// BookRepo is the in-memory store behind the reference catalog service.
type BookRepo struct {
	mu     sync.RWMutex
	byID   map[int]model.Record
	nextID int
}

func NewBookRepo() *BookRepo {
	return &BookRepo{byID: make(map[int]model.Record), nextID: 1}
}

// Create stores in under the next free id.
func (r *BookRepo) Create(_ context.Context, in model.RecordInput) (model.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := in.WithID(r.nextID)
	r.nextID++
	r.byID[b.ID] = b
	return b, nil
}

// Put stores b under its own id. Seed uses it so seeded ids are stable.
func (r *BookRepo) Put(_ context.Context, b model.Record) (model.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b.ID < 1 {
		return model.Record{}, errConflict
	}
	if _, ok := r.byID[b.ID]; ok {
		return model.Record{}, errConflict
	}
	r.byID[b.ID] = b
	if b.ID >= r.nextID {
		r.nextID = b.ID + 1
	}
	return b, nil
}

func (r *BookRepo) GetByID(_ context.Context, id int) (model.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.byID[id]
	if !ok {
		return model.Record{}, errNotFound
	}
	return b, nil
}

// Update replaces every field of the record except its id.
func (r *BookRepo) Update(_ context.Context, id int, in model.RecordInput) (model.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return model.Record{}, errNotFound
	}
	b := in.WithID(id)
	r.byID[id] = b
	return b, nil
}

// List returns a paginated slice of books matching the query.
// The flow is:
//
//  1. Snapshot all books from the in-memory store.
//  2. Keep books whose title contains the filter (case-insensitive).
//  3. Sort by the requested field and direction, id ascending on ties.
//  4. Apply pagination (page / pageSize).
func (r *BookRepo) List(_ context.Context, q model.QueryParams) (Page[model.Record], error) {
	q = q.Normalize()
	field, ok := model.ParseField(q.SortField)
	if !ok {
		field = model.FieldID
	}

	r.mu.RLock()
	items := make([]model.Record, 0, len(r.byID))
	for _, b := range r.byID {
		items = append(items, b)
	}
	r.mu.RUnlock()

	needle := strings.ToLower(q.TitleFilter)
	out := items[:0]
	for _, b := range items {
		if needle != "" && !strings.Contains(strings.ToLower(b.Title), needle) {
			continue
		}
		out = append(out, b)
	}

	sortBooks(out, field, q.SortDirection == model.SortDesc)

	total := len(out)
	start := (q.Page - 1) * q.PageSize
	if start > total {
		start = total
	}
	end := start + q.PageSize
	if end > total {
		end = total
	}
	paged := make([]model.Record, end-start)
	copy(paged, out[start:end])

	return Page[model.Record]{Data: paged, Page: q.Page, PageSize: q.PageSize, Total: total}, nil
}

func (r *BookRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// sortBooks sorts in place by one field. Values that both parse as numbers
// compare numerically, everything else case-insensitively as text.
func sortBooks(bs []model.Record, f model.Field, desc bool) {
	sort.SliceStable(bs, func(i, j int) bool {
		c := compareField(bs[i], bs[j], f)
		if c == 0 {
			return bs[i].ID < bs[j].ID
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func compareField(a, b model.Record, f model.Field) int {
	if f == model.FieldID {
		return a.ID - b.ID
	}
	av, _ := a.Get(f)
	bv, _ := b.Get(f)
	an, aErr := strconv.ParseFloat(av, 64)
	bn, bErr := strconv.ParseFloat(bv, 64)
	if aErr == nil && bErr == nil {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		}
		return 0
	}
	return strings.Compare(strings.ToLower(av), strings.ToLower(bv))
}
