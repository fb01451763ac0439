package search

import (
	"net/url"
	"strconv"
	"strings"
)

// BuildQuery builds the query string for a list search. It fails before any
// request is made when the filters are inconsistent.
func BuildQuery(f SearchFilters, offset, perPage int) (url.Values, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	q := url.Values{}
	addCommon(q, f)
	addPaging(q, offset, perPage)
	return q, nil
}

// BuildMapQuery builds the query string for a viewport-bounded search.
func BuildMapQuery(f MapSearchFilters) (url.Values, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("sw_lat", formatCoord(f.Bounds.SWLat))
	q.Set("sw_lng", formatCoord(f.Bounds.SWLng))
	q.Set("ne_lat", formatCoord(f.Bounds.NELat))
	q.Set("ne_lng", formatCoord(f.Bounds.NELng))
	addCommon(q, f.SearchFilters)
	addPaging(q, f.Offset, f.PerPage)
	return q, nil
}

func addCommon(q url.Values, f SearchFilters) {
	if s := strings.TrimSpace(f.Query); s != "" {
		q.Set("query", s)
	}
	if c := sortedSet(f.Cuisines); len(c) > 0 {
		q.Set("cuisines", strings.Join(c, ","))
	}
	if p := sortedSet(f.PriceRanges); len(p) > 0 {
		q.Set("price_ranges", strings.Join(p, ","))
	}
	if s := strings.TrimSpace(f.City); s != "" {
		q.Set("city", s)
	}
	if f.BookmarkedOnly || f.Mode == ModeBookmarks {
		q.Set("bookmarked_only", "true")
	}

	// Availability lookups are expensive on the backend; the form values are
	// only forwarded when the user asked for availability.
	if !f.AvailabilityRequested() {
		return
	}
	if f.AvailableOnly {
		q.Set("available_only", "true")
	}
	if f.NotReleasedOnly {
		q.Set("not_released_only", "true")
	}
	q.Set("available_day", strings.TrimSpace(f.Day))
	q.Set("available_party_size", strings.TrimSpace(f.PartySize))
	if t := strings.TrimSpace(f.DesiredTime); t != "" {
		q.Set("desired_time", t)
	}
}

func addPaging(q url.Values, offset, perPage int) {
	if offset < 0 {
		offset = 0
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("per_page", strconv.Itoa(perPage))
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
