// Package query holds the current list query: page, page size, title filter
// and sort. Every setter swaps in a new immutable model.QueryParams.
package query

import (
	"book-catalog/internal/core/model"
	"sync"
)

type Model struct {
	mu      sync.RWMutex
	current model.QueryParams
	initial model.QueryParams
}

func NewModel(initial model.QueryParams) *Model {
	initial = initial.Normalize()
	return &Model{current: initial, initial: initial}
}

func (m *Model) Current() model.QueryParams {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// SetFilter sets the title filter. Empty means no filter. Page resets to 1.
func (m *Model) SetFilter(text string) model.QueryParams {
	return m.update(func(q model.QueryParams) model.QueryParams { return q.WithFilter(text) })
}

// SetSort sets the sort field and direction. An empty field falls back to
// the default sort. Page resets to 1.
func (m *Model) SetSort(field string, dir model.SortDirection) model.QueryParams {
	return m.update(func(q model.QueryParams) model.QueryParams { return q.WithSort(field, dir) })
}

func (m *Model) SetPage(page, pageSize int) model.QueryParams {
	return m.update(func(q model.QueryParams) model.QueryParams { return q.WithPage(page, pageSize) })
}

// SetTable applies one table change event carrying both paging and sort.
// When the sort differs from the current one the requested page is ignored
// and the page goes back to 1.
func (m *Model) SetTable(page, pageSize int, field string, dir model.SortDirection) model.QueryParams {
	return m.update(func(q model.QueryParams) model.QueryParams {
		next := q.WithPage(page, pageSize)
		if field == "" {
			field = model.DefaultSortField
		}
		if field != q.SortField || dir != q.SortDirection {
			next = next.WithSort(field, dir)
		}
		return next
	})
}

// Set replaces every parameter at once, e.g. when a caller already knows the
// full query it wants shown.
func (m *Model) Set(q model.QueryParams) model.QueryParams {
	return m.update(func(model.QueryParams) model.QueryParams { return q.Normalize() })
}

// Reset restores the parameters the model was created with.
func (m *Model) Reset() model.QueryParams {
	return m.update(func(model.QueryParams) model.QueryParams { return m.initial })
}

func (m *Model) update(fn func(model.QueryParams) model.QueryParams) model.QueryParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = fn(m.current)
	return m.current
}
