package model

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// All core models live here together for simplicity.

const (
	DefaultPage      = 1
	DefaultPageSize  = 10
	DefaultSortField = "id"

	// FetchFailedMessage is what the list shows when a fetch fails. The raw
	// error is logged, never displayed.
	FetchFailedMessage = "Failed to fetch books."
)

var (
	ErrUnknownField    = errors.New("unknown or read-only field")
	ErrEditInProgress  = errors.New("another record is being edited")
	ErrNotEditing      = errors.New("no record is being edited")
	ErrCommitPending   = errors.New("commit in progress")
	ErrStaleResponse   = errors.New("response superseded by a newer fetch")
	ErrRecordNotOnPage = errors.New("record is not on the current page")
)

type Field string

const (
	FieldID       Field = "id"
	FieldTitle    Field = "title"
	FieldAuthor   Field = "author"
	FieldYear     Field = "year"
	FieldLanguage Field = "language"
	FieldCountry  Field = "country"
	FieldPages    Field = "pages"
	FieldLink     Field = "link"
)

// EditableFields is every user-editable field in display order.
var EditableFields = []Field{FieldTitle, FieldAuthor, FieldYear, FieldLanguage, FieldCountry, FieldPages, FieldLink}

func ParseField(s string) (Field, bool) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	if f == FieldID {
		return f, true
	}
	for _, e := range EditableFields {
		if e == f {
			return f, true
		}
	}
	return "", false
}

// Record is one catalog entry. Year and Pages are kept as the strings the
// service sends; they are numeric-ish, not guaranteed numeric.
type Record struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Year     string `json:"year"`
	Language string `json:"language"`
	Country  string `json:"country"`
	Pages    string `json:"pages,omitempty"`
	Link     string `json:"link,omitempty"`
}

// RecordInput is a record without its server-assigned id: the body of both
// update and create requests.
type RecordInput struct {
	Title    string `json:"title" validate:"required"`
	Author   string `json:"author" validate:"required"`
	Year     string `json:"year" validate:"required,numeric"`
	Language string `json:"language" validate:"required"`
	Country  string `json:"country" validate:"required"`
	Pages    string `json:"pages,omitempty" validate:"required,numeric"`
	Link     string `json:"link,omitempty"`
}

func (r Record) Input() RecordInput {
	return RecordInput{
		Title:    r.Title,
		Author:   r.Author,
		Year:     r.Year,
		Language: r.Language,
		Country:  r.Country,
		Pages:    r.Pages,
		Link:     r.Link,
	}
}

func (in RecordInput) WithID(id int) Record {
	return Record{
		ID:       id,
		Title:    in.Title,
		Author:   in.Author,
		Year:     in.Year,
		Language: in.Language,
		Country:  in.Country,
		Pages:    in.Pages,
		Link:     in.Link,
	}
}

// Get returns the string value of f. The id is rendered in base 10.
func (r Record) Get(f Field) (string, error) {
	switch f {
	case FieldID:
		return strconv.Itoa(r.ID), nil
	case FieldTitle:
		return r.Title, nil
	case FieldAuthor:
		return r.Author, nil
	case FieldYear:
		return r.Year, nil
	case FieldLanguage:
		return r.Language, nil
	case FieldCountry:
		return r.Country, nil
	case FieldPages:
		return r.Pages, nil
	case FieldLink:
		return r.Link, nil
	}
	return "", ErrUnknownField
}

// Set assigns an editable field. The id can never be set this way.
func (r *Record) Set(f Field, v string) error {
	switch f {
	case FieldTitle:
		r.Title = v
	case FieldAuthor:
		r.Author = v
	case FieldYear:
		r.Year = v
	case FieldLanguage:
		r.Language = v
	case FieldCountry:
		r.Country = v
	case FieldPages:
		r.Pages = v
	case FieldLink:
		r.Link = v
	default:
		return ErrUnknownField
	}
	return nil
}

// RecordForm is the add-record form. Year defaults to the current year.
type RecordForm struct {
	RecordInput
}

func NewRecordForm(now time.Time) RecordForm {
	return RecordForm{RecordInput{Year: strconv.Itoa(now.Year())}}
}

type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// ParseSortDirection accepts ASC/DESC and the table widget's ascend/descend.
// Anything else, including an empty string, is DESC.
func ParseSortDirection(s string) SortDirection {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascend":
		return SortAsc
	default:
		return SortDesc
	}
}

// QueryParams describes which page of data is wanted. Values are immutable:
// every With* method returns a copy.
type QueryParams struct {
	Page          int
	PageSize      int
	TitleFilter   string
	SortField     string
	SortDirection SortDirection
}

func DefaultQueryParams() QueryParams {
	return QueryParams{
		Page:          DefaultPage,
		PageSize:      DefaultPageSize,
		SortField:     DefaultSortField,
		SortDirection: SortDesc,
	}
}

// Normalize clamps page and size to at least 1 and fills an empty sort.
func (q QueryParams) Normalize() QueryParams {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.SortField == "" {
		q.SortField = DefaultSortField
	}
	if q.SortDirection != SortAsc && q.SortDirection != SortDesc {
		q.SortDirection = SortDesc
	}
	return q
}

// WithFilter sets the title filter and goes back to the first page.
func (q QueryParams) WithFilter(text string) QueryParams {
	q.TitleFilter = text
	q.Page = DefaultPage
	return q.Normalize()
}

// WithSort sets the sort and goes back to the first page.
func (q QueryParams) WithSort(field string, dir SortDirection) QueryParams {
	q.SortField = field
	q.SortDirection = dir
	q.Page = DefaultPage
	return q.Normalize()
}

func (q QueryParams) WithPage(page, pageSize int) QueryParams {
	q.Page = page
	q.PageSize = pageSize
	return q.Normalize()
}

// ListResult is one page as returned by the catalog service.
type ListResult struct {
	Records       []Record
	TotalCount    int
	TotalPages    int
	PageSize      int
	CurrentPage   int
	SortDirection SortDirection
}

type ListStatus string

const (
	StatusIdle    ListStatus = "idle"
	StatusLoading ListStatus = "loading"
	StatusLoaded  ListStatus = "loaded"
	StatusFailed  ListStatus = "failed"
)

type ListState struct {
	Records      []Record
	TotalCount   int
	Status       ListStatus
	ErrorMessage string
	// Params the visible Records were fetched with.
	Params QueryParams
	// Seq of the fetch that last settled the state.
	Seq uint64
}

// Clone returns a copy that shares nothing with s.
func (s ListState) Clone() ListState {
	s.Records = append([]Record(nil), s.Records...)
	return s
}

// Find returns the record with the given id on the current page.
func (s ListState) Find(id int) (Record, bool) {
	for _, r := range s.Records {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}

type EditStatus string

const (
	EditIdle       EditStatus = "idle"
	EditEditing    EditStatus = "editing"
	EditCommitting EditStatus = "committing"
)

type EditState struct {
	Status   EditStatus
	ActiveID int
	Draft    *Record
}

func (s EditState) CommitPending() bool {
	return s.Status == EditCommitting
}
