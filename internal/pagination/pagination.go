// Package pagination implements page-number pagination with clamping:
// out-of-range or malformed page numbers resolve to the nearest valid page.
package pagination

import (
	"strconv"
	"strings"
)

// DefaultPerPage is the feed page size.
const DefaultPerPage = 10

// Page describes one resolved page of a listing.
type Page struct {
	Number      int   `json:"number"`
	PerPage     int   `json:"per_page"`
	NumPages    int   `json:"num_pages"`
	Count       int64 `json:"count"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

// Offset returns the number of rows to skip for this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// ParseNumber converts a raw query value into a page number; anything that
// is not a positive integer becomes 1.
func ParseNumber(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Resolve clamps requested into [1, NumPages] for count rows. An empty
// listing still has one (empty) page.
func Resolve(requested int, count int64, perPage int) Page {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	numPages := 1
	if count > 0 {
		numPages = int((count + int64(perPage) - 1) / int64(perPage))
	}

	number := requested
	if number < 1 {
		number = 1
	}
	if number > numPages {
		number = numPages
	}

	return Page{
		Number:      number,
		PerPage:     perPage,
		NumPages:    numPages,
		Count:       count,
		HasNext:     number < numPages,
		HasPrevious: number > 1,
	}
}
