package search

import (
	"fmt"
	"sort"
	"strings"
)

// City is a selectable market with the viewport a map search starts from.
type City struct {
	ID       string
	Name     string
	Timezone string
	Bounds   Bounds
}

// DefaultCity is used when nothing has been selected yet.
const DefaultCity = "nyc"

var cities = map[string]City{
	"nyc": {
		ID: "nyc", Name: "New York", Timezone: "America/New_York",
		Bounds: Bounds{SWLat: 40.6800, SWLng: -74.0300, NELat: 40.8000, NELng: -73.9200},
	},
	"la": {
		ID: "la", Name: "Los Angeles", Timezone: "America/Los_Angeles",
		Bounds: Bounds{SWLat: 33.9800, SWLng: -118.5000, NELat: 34.1200, NELng: -118.2000},
	},
	"sf": {
		ID: "sf", Name: "San Francisco", Timezone: "America/Los_Angeles",
		Bounds: Bounds{SWLat: 37.7000, SWLng: -122.5200, NELat: 37.8100, NELng: -122.3600},
	},
	"chi": {
		ID: "chi", Name: "Chicago", Timezone: "America/Chicago",
		Bounds: Bounds{SWLat: 41.8400, SWLng: -87.7200, NELat: 41.9600, NELng: -87.5800},
	},
	"mia": {
		ID: "mia", Name: "Miami", Timezone: "America/New_York",
		Bounds: Bounds{SWLat: 25.7000, SWLng: -80.3000, NELat: 25.8700, NELng: -80.1200},
	},
	"dc": {
		ID: "dc", Name: "Washington, D.C.", Timezone: "America/New_York",
		Bounds: Bounds{SWLat: 38.8600, SWLng: -77.0800, NELat: 38.9500, NELng: -76.9700},
	},
}

// LookupCity resolves a city id, case-insensitively.
func LookupCity(id string) (City, error) {
	c, ok := cities[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return City{}, fmt.Errorf("unknown city %q", id)
	}
	return c, nil
}

// Cities lists the catalogue ordered by name.
func Cities() []City {
	out := make([]City, 0, len(cities))
	for _, c := range cities {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
