package search

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects which backend list endpoint serves a search.
type Mode string

const (
	ModeBrowse    Mode = "browse"
	ModeTrending  Mode = "trending"
	ModeTopRated  Mode = "top-rated"
	ModeBookmarks Mode = "bookmarks"
)

// ParseMode accepts the mode names used on the command line and in the web API.
// An empty string is browse.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeBrowse:
		return ModeBrowse, nil
	case ModeTrending, "climbing":
		return ModeTrending, nil
	case ModeTopRated, "top_rated", "toprated":
		return ModeTopRated, nil
	case ModeBookmarks, "bookmarked":
		return ModeBookmarks, nil
	}
	return "", fmt.Errorf("unknown search mode %q", s)
}

// Endpoint is the backend path for the mode's list search.
func (m Mode) Endpoint() string {
	switch m {
	case ModeTrending:
		return "/climbing"
	case ModeTopRated:
		return "/top_rated"
	default:
		return "/search"
	}
}

// ErrInvalidFilterCombination is returned before any request is made when
// the availability facets cannot be satisfied.
var ErrInvalidFilterCombination = errors.New("invalid filter combination")

// SearchFilters is the state of the filter controls. Day, PartySize and
// DesiredTime come from the reservation form and are only sent when an
// availability facet is on.
type SearchFilters struct {
	Query           string
	Cuisines        []string
	PriceRanges     []string
	AvailableOnly   bool
	NotReleasedOnly bool
	BookmarkedOnly  bool
	Mode            Mode

	Day         string // YYYY-MM-DD
	PartySize   string
	DesiredTime string // HH:MM
	City        string
}

// DefaultFilters is the state a search page starts with.
func DefaultFilters() SearchFilters {
	return SearchFilters{Mode: ModeBrowse}
}

// AvailabilityRequested reports whether the backend has to compute slot availability.
func (f SearchFilters) AvailabilityRequested() bool {
	return f.AvailableOnly || f.NotReleasedOnly
}

// Validate enforces the availability invariant. Both facets on at once is
// rejected; the UI clears one when the other is toggled, and the backend
// has no defined behavior for the pair.
func (f SearchFilters) Validate() error {
	if f.AvailableOnly && f.NotReleasedOnly {
		return fmt.Errorf("%w: available_only and not_released_only are mutually exclusive", ErrInvalidFilterCombination)
	}
	if !f.AvailabilityRequested() {
		return nil
	}
	var missing []string
	if strings.TrimSpace(f.Day) == "" {
		missing = append(missing, "day")
	}
	if strings.TrimSpace(f.PartySize) == "" {
		missing = append(missing, "party size")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: availability filter requires %s", ErrInvalidFilterCombination, strings.Join(missing, " and "))
	}
	return nil
}

// Bounds is a map viewport.
type Bounds struct {
	SWLat float64 `json:"swLat"`
	SWLng float64 `json:"swLng"`
	NELat float64 `json:"neLat"`
	NELng float64 `json:"neLng"`
}

// IsZero reports whether no viewport has been set.
func (b Bounds) IsZero() bool {
	return b == Bounds{}
}

// Contains reports whether the point lies inside the viewport.
func (b Bounds) Contains(lat, lng float64) bool {
	return lat >= b.SWLat && lat <= b.NELat && lng >= b.SWLng && lng <= b.NELng
}

// MapSearchFilters is a search bounded by the map viewport.
type MapSearchFilters struct {
	SearchFilters
	Bounds  Bounds
	Offset  int
	PerPage int
}

func (f MapSearchFilters) Validate() error {
	if f.Bounds.IsZero() {
		return fmt.Errorf("%w: map search requires bounds", ErrInvalidFilterCombination)
	}
	if f.Bounds.SWLat > f.Bounds.NELat {
		return fmt.Errorf("%w: south-west latitude above north-east latitude", ErrInvalidFilterCombination)
	}
	return f.SearchFilters.Validate()
}

// DefaultPerPage is the page size used when a caller does not pick one.
const DefaultPerPage = 20

// OffsetForPage converts a 1-based page number to a result offset.
func OffsetForPage(page, perPage int) int {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	return (page - 1) * perPage
}
