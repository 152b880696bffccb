package query

import (
	"net/url"
	"strconv"

	m "github.com/amitalon123/Video-Streaming-Project/models"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// Page is a parsed page/limit pair.
type Page struct {
	Number int
	Limit  int
}

// Offset is the number of rows to skip before this page starts.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// ParsePage reads "page" and "limit" with their defaults. A non-numeric value
// is rejected, as is limit <= 0 (the page math divides by limit). A numeric
// page below 1 is coerced to 1.
func ParsePage(values url.Values) (Page, error) {
	p := Page{Number: DefaultPage, Limit: DefaultLimit}

	if raw := values.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Page{}, &MalformedParameterError{Param: "page", Value: raw}
		}
		if n > 0 {
			p.Number = n
		}
	}

	if raw := values.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return Page{}, &MalformedParameterError{Param: "limit", Value: raw}
		}
		p.Limit = n
	}

	return p, nil
}

// ParseLimit reads a bare "limit" parameter for the endpoints that take no
// page (popular, newest, recommendations).
func ParseLimit(values url.Values, def int) (int, error) {
	raw := values.Get("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, &MalformedParameterError{Param: "limit", Value: raw}
	}
	return n, nil
}

// BuildPagination computes the navigation block for a page of a result set
// with the given unpaged total.
func BuildPagination(page Page, total int) m.Pagination {
	totalPages := (total + page.Limit - 1) / page.Limit
	return m.Pagination{
		CurrentPage: page.Number,
		TotalPages:  totalPages,
		Limit:       page.Limit,
		HasNextPage: page.Number < totalPages,
		HasPrevPage: page.Number > 1,
	}
}
