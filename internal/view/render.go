package view

import (
	"book-catalog/internal/core/model"
	"fmt"
	"strings"
)

const linkScheme = "https://"

// Action labels shown in the actions column.
const (
	ActionEdit   = "edit"
	ActionSave   = "save"
	ActionCancel = "cancel"
)

// Span is a half-open byte range [Start, End) of a cell's text.
type Span struct {
	Start, End int
}

type Action struct {
	Label    string
	Disabled bool
}

type Cell struct {
	Text string
	// Href is set for link cells with a value.
	Href       string
	Highlights []Span
	// Editing marks a cell whose text comes from the edit draft.
	Editing bool
	Actions []Action
}

type Row struct {
	ID      int
	Editing bool
	Cells   []Cell
}

type Header struct {
	Title    string
	Field    model.Field
	Sortable bool
	// Sorted is the current direction when the list is sorted by this
	// column, empty otherwise.
	Sorted model.SortDirection
}

type Table struct {
	Headers []Header
	Rows    []Row
	Loading bool
	Error   string
	Summary string
}

// Options carries the local column search. Matches of SearchText are
// highlighted in SearchedColumn only.
type Options struct {
	SearchText     string
	SearchedColumn model.Field
}

// Render lays out the current page. The row being edited shows the draft
// values and save/cancel; while any row is open or a commit is pending every
// other row's edit action is disabled.
func Render(list model.ListState, edit model.EditState, cols []Column, opts Options) Table {
	t := Table{
		Loading: list.Status == model.StatusLoading,
		Error:   list.ErrorMessage,
		Summary: Summary(list.Params.Page, list.Params.PageSize, list.TotalCount),
		Headers: make([]Header, 0, len(cols)),
		Rows:    make([]Row, 0, len(list.Records)),
	}
	for _, c := range cols {
		h := Header{Title: c.Title, Field: c.Field, Sortable: c.Sortable}
		if c.Sortable && c.Field != "" && string(c.Field) == list.Params.SortField {
			h.Sorted = list.Params.SortDirection
		}
		t.Headers = append(t.Headers, h)
	}

	editing := edit.Status == model.EditEditing || edit.CommitPending()
	for _, rec := range list.Records {
		row := Row{ID: rec.ID, Editing: editing && edit.Draft != nil && edit.ActiveID == rec.ID}
		src := rec
		if row.Editing {
			src = *edit.Draft
		}
		for _, c := range cols {
			row.Cells = append(row.Cells, renderCell(c, src, row.Editing, edit, opts))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func renderCell(c Column, rec model.Record, rowEditing bool, edit model.EditState, opts Options) Cell {
	if c.Renderer == RenderActions {
		if rowEditing {
			pending := edit.CommitPending()
			return Cell{Actions: []Action{
				{Label: ActionSave, Disabled: pending},
				{Label: ActionCancel, Disabled: pending},
			}}
		}
		busy := edit.Status == model.EditEditing || edit.CommitPending()
		return Cell{Actions: []Action{{Label: ActionEdit, Disabled: busy}}}
	}

	v, _ := rec.Get(c.Field)
	cell := Cell{Text: v, Editing: rowEditing}
	if rowEditing {
		return cell
	}
	if c.Renderer == RenderLink && v != "" {
		cell.Href = linkScheme + v
	}
	if c.Field == opts.SearchedColumn {
		cell.Highlights = highlight(v, opts.SearchText)
	}
	return cell
}

// highlight finds every case-insensitive, non-overlapping occurrence of
// needle in s.
func highlight(s, needle string) []Span {
	if needle == "" || len(needle) > len(s) {
		return nil
	}
	var spans []Span
	for i := 0; i+len(needle) <= len(s); {
		if strings.EqualFold(s[i:i+len(needle)], needle) {
			spans = append(spans, Span{Start: i, End: i + len(needle)})
			i += len(needle)
			continue
		}
		i++
	}
	return spans
}

// FilterRecords is the local per-column search over the current page:
// records whose field contains text, ignoring case. Empty values never
// match; empty text keeps everything.
func FilterRecords(records []model.Record, f model.Field, text string) []model.Record {
	if text == "" {
		return append([]model.Record(nil), records...)
	}
	needle := strings.ToLower(text)
	var out []model.Record
	for _, r := range records {
		v, err := r.Get(f)
		if err != nil || v == "" {
			continue
		}
		if strings.Contains(strings.ToLower(v), needle) {
			out = append(out, r)
		}
	}
	return out
}

// Summary is the pagination caption, e.g. "1-10 of 25 records".
func Summary(page, pageSize, total int) string {
	if total <= 0 || page < 1 || pageSize < 1 {
		return fmt.Sprintf("0-0 of %d records", max(total, 0))
	}
	start := (page-1)*pageSize + 1
	end := min(page*pageSize, total)
	if start > total {
		return fmt.Sprintf("0-0 of %d records", total)
	}
	return fmt.Sprintf("%d-%d of %d records", start, end, total)
}
