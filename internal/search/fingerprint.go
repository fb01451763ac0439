package search

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// boundsPrecision is the number of decimal places kept when fingerprinting a
// viewport. Four places is roughly 11m, so sub-meter pan jitter reuses the cache.
const boundsPrecision = 4

// fingerprint is the normalized form that gets serialized. Field order is
// fixed by the struct, so encoding/json output is stable.
type fingerprint struct {
	Mode            Mode     `json:"mode"`
	City            string   `json:"city"`
	Query           string   `json:"query"`
	Cuisines        []string `json:"cuisines"`
	PriceRanges     []string `json:"priceRanges"`
	AvailableOnly   bool     `json:"availableOnly"`
	NotReleasedOnly bool     `json:"notReleasedOnly"`
	BookmarkedOnly  bool     `json:"bookmarkedOnly"`
	Day             string   `json:"day"`
	PartySize       string   `json:"partySize"`
	DesiredTime     string   `json:"desiredTime"`
	Bounds          *Bounds  `json:"bounds"`
	PerPage         int      `json:"perPage"`
}

// Fingerprint derives the cache key for a list search.
func Fingerprint(f SearchFilters, perPage int) string {
	return encode(normalize(f, nil, perPage))
}

// MapFingerprint derives the cache key for a map search. Offset is not part
// of it; pages are distinguished by PageKey.
func MapFingerprint(f MapSearchFilters) string {
	b := roundBounds(f.Bounds)
	return encode(normalize(f.SearchFilters, &b, f.PerPage))
}

// PageKey appends the page suffix to a fingerprint.
func PageKey(fp string, page int) string {
	return fp + "#page=" + strconv.Itoa(page)
}

func normalize(f SearchFilters, b *Bounds, perPage int) fingerprint {
	mode := f.Mode
	if mode == "" {
		mode = ModeBrowse
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	return fingerprint{
		Mode:            mode,
		City:            strings.TrimSpace(f.City),
		Query:           strings.TrimSpace(f.Query),
		Cuisines:        sortedSet(f.Cuisines),
		PriceRanges:     sortedSet(f.PriceRanges),
		AvailableOnly:   f.AvailableOnly,
		NotReleasedOnly: f.NotReleasedOnly,
		BookmarkedOnly:  f.BookmarkedOnly,
		Day:             strings.TrimSpace(f.Day),
		PartySize:       strings.TrimSpace(f.PartySize),
		DesiredTime:     strings.TrimSpace(f.DesiredTime),
		Bounds:          b,
		PerPage:         perPage,
	}
}

func encode(fp fingerprint) string {
	b, err := json.Marshal(fp)
	if err != nil {
		return ""
	}
	return string(b)
}

// sortedSet returns a sorted, de-duplicated copy. nil and empty both become
// an empty, non-nil slice so they serialize identically as [].
func sortedSet(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func roundBounds(b Bounds) Bounds {
	return Bounds{
		SWLat: round(b.SWLat),
		SWLng: round(b.SWLng),
		NELat: round(b.NELat),
		NELng: round(b.NELng),
	}
}

func round(v float64) float64 {
	p := math.Pow10(boundsPrecision)
	r := math.Round(v*p) / p
	if r == 0 {
		// collapse -0 so it does not serialize differently from 0
		return 0
	}
	return r
}
