package adapter

import (
	"book-catalog/internal/core/model"
	"encoding/json"
	"strings"
)

// Wire types shared by the catalog client and the reference service.

type paginationDTO struct {
	SortDirection string `json:"sortDirection"`
	TotalPages    int    `json:"totalPages"`
	PageSize      int    `json:"pageSize"`
	CurrentPage   int    `json:"currentPage"`
	TotalElements int    `json:"totalElements"`
}

type listResponse struct {
	Pagination *paginationDTO `json:"pagination"`
	Data       []recordDTO    `json:"data"`
}

func (lr listResponse) toModel() model.ListResult {
	out := model.ListResult{
		Records:       make([]model.Record, 0, len(lr.Data)),
		TotalCount:    lr.Pagination.TotalElements,
		TotalPages:    lr.Pagination.TotalPages,
		PageSize:      lr.Pagination.PageSize,
		CurrentPage:   lr.Pagination.CurrentPage,
		SortDirection: model.ParseSortDirection(lr.Pagination.SortDirection),
	}
	for _, d := range lr.Data {
		out.Records = append(out.Records, d.toModel())
	}
	return out
}

// looseString accepts a JSON string, number or null. The service is not
// consistent about year and pages.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	switch {
	case string(b) == "null":
		*s = ""
	case len(b) > 0 && b[0] == '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = looseString(v)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*s = looseString(n.String())
	}
	return nil
}

type recordDTO struct {
	ID       int         `json:"id"`
	Title    string      `json:"title"`
	Author   string      `json:"author"`
	Year     looseString `json:"year"`
	Language string      `json:"language"`
	Country  string      `json:"country"`
	Pages    looseString `json:"pages,omitempty"`
	Link     string      `json:"link,omitempty"`
}

func (d recordDTO) toModel() model.Record {
	return model.Record{
		ID:       d.ID,
		Title:    d.Title,
		Author:   d.Author,
		Year:     string(d.Year),
		Language: d.Language,
		Country:  d.Country,
		Pages:    string(d.Pages),
		Link:     d.Link,
	}
}

func recordToDTO(r model.Record) recordDTO {
	d := recordDTO{ID: r.ID}
	d.setInput(r.Input())
	return d
}

func (d *recordDTO) setInput(in model.RecordInput) {
	d.Title = in.Title
	d.Author = in.Author
	d.Year = looseString(in.Year)
	d.Language = in.Language
	d.Country = in.Country
	d.Pages = looseString(in.Pages)
	d.Link = in.Link
}

// recordInputDTO is the update/create body: a record without its id. Every
// key is always sent so a cleared field reaches the service as "".
type recordInputDTO struct {
	Title    string      `json:"title"`
	Author   string      `json:"author"`
	Year     looseString `json:"year"`
	Language string      `json:"language"`
	Country  string      `json:"country"`
	Pages    looseString `json:"pages"`
	Link     string      `json:"link"`
}

func recordInputToDTO(in model.RecordInput) recordInputDTO {
	return recordInputDTO{
		Title:    in.Title,
		Author:   in.Author,
		Year:     looseString(in.Year),
		Language: in.Language,
		Country:  in.Country,
		Pages:    looseString(in.Pages),
		Link:     in.Link,
	}
}

func (d recordInputDTO) toModel() model.RecordInput {
	return model.RecordInput{
		Title:    strings.TrimSpace(d.Title),
		Author:   strings.TrimSpace(d.Author),
		Year:     strings.TrimSpace(string(d.Year)),
		Language: strings.TrimSpace(d.Language),
		Country:  strings.TrimSpace(d.Country),
		Pages:    strings.TrimSpace(string(d.Pages)),
		Link:     strings.TrimSpace(d.Link),
	}
}

type apiError struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}
