package search

import (
	"fmt"
	"strings"
)

// Result is one venue row returned by a search. Rows are read-only; the
// client only filters and sorts them for display.
type Result struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Locality       string   `json:"locality,omitempty"`
	Region         string   `json:"region,omitempty"`
	Neighborhood   string   `json:"neighborhood,omitempty"`
	PriceRange     int      `json:"price_range,omitempty"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	ImageURL       string   `json:"image_url,omitempty"`
	AvailableTimes []string `json:"available_times,omitempty"`
	Availability   string   `json:"availability_status,omitempty"`
}

// PriceLabel renders the tier as dollar signs.
func (r Result) PriceLabel() string {
	if r.PriceRange < 1 || r.PriceRange > 4 {
		return ""
	}
	return strings.Repeat("$", r.PriceRange)
}

// HasCoordinates reports whether the row can be placed on a map.
func (r Result) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// Pagination describes where a page sits in the full result set.
type Pagination struct {
	Offset     int  `json:"offset"`
	PerPage    int  `json:"perPage"`
	NextOffset *int `json:"nextOffset"`
	HasMore    bool `json:"hasMore"`
	Total      *int `json:"total,omitempty"`
	IsFiltered bool `json:"isFiltered,omitempty"`
	FoundSoFar *int `json:"foundSoFar,omitempty"`
}

// DefaultPagination is used when the backend omits pagination.
func DefaultPagination() Pagination {
	return Pagination{Offset: 0, PerPage: DefaultPerPage, NextOffset: nil, HasMore: false}
}

// Summary renders the result count line. Filtered sets without an exact
// total report progressively.
func (p Pagination) Summary(shown int) string {
	switch {
	case p.Total != nil:
		return fmt.Sprintf("%d found", *p.Total)
	case p.IsFiltered && p.HasMore:
		n := shown
		if p.FoundSoFar != nil {
			n = *p.FoundSoFar
		}
		return fmt.Sprintf("%d+ found, loading more…", n)
	case p.HasMore:
		return fmt.Sprintf("%d+ found", p.Offset+shown)
	default:
		return fmt.Sprintf("%d found", p.Offset+shown)
	}
}

// Page is one fetched page of results.
type Page struct {
	Results    []Result   `json:"results"`
	Pagination Pagination `json:"pagination"`
}
