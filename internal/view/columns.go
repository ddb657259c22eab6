// Package view turns list and edit state into a plain grid of cells. It knows
// nothing about terminals or HTTP; Draw is the only place that styles output.
package view

import "book-catalog/internal/core/model"

// Renderer selects how a column's cells are produced.
type Renderer string

const (
	RenderText    Renderer = "text"
	RenderNumber  Renderer = "number"
	RenderLink    Renderer = "link"
	RenderActions Renderer = "actions"
)

// Column describes one table column. Actions columns have no Field.
type Column struct {
	Field      model.Field
	Title      string
	Renderer   Renderer
	Sortable   bool
	Searchable bool
}

// DefaultColumns is the book table: every editable field plus row actions.
func DefaultColumns() []Column {
	return []Column{
		{Field: model.FieldTitle, Title: "Title", Renderer: RenderText, Sortable: true, Searchable: true},
		{Field: model.FieldAuthor, Title: "Author", Renderer: RenderText, Sortable: true, Searchable: true},
		{Field: model.FieldYear, Title: "Year", Renderer: RenderNumber, Sortable: true, Searchable: true},
		{Field: model.FieldLanguage, Title: "Language", Renderer: RenderText, Sortable: true, Searchable: true},
		{Field: model.FieldCountry, Title: "Country", Renderer: RenderText, Sortable: true, Searchable: true},
		{Field: model.FieldPages, Title: "Pages", Renderer: RenderNumber, Sortable: true, Searchable: true},
		{Field: model.FieldLink, Title: "Link", Renderer: RenderLink, Sortable: true, Searchable: true},
		{Title: "Actions", Renderer: RenderActions},
	}
}
