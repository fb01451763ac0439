package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
)

// Venue is the detail record behind a search row.
type Venue struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Locality     string   `json:"locality,omitempty"`
	Region       string   `json:"region,omitempty"`
	Neighborhood string   `json:"neighborhood,omitempty"`
	Address      string   `json:"address,omitempty"`
	Cuisine      []string `json:"cuisine,omitempty"`
	PriceRange   int      `json:"price_range,omitempty"`
	Rating       float64  `json:"rating,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	ImageURL     string   `json:"image_url,omitempty"`
	Description  string   `json:"description,omitempty"`
	URL          string   `json:"url,omitempty"`
}

// VenueLinks are the venue's pages on other platforms. Empty fields mean
// no match was found.
type VenueLinks struct {
	Resy       string `json:"resy,omitempty"`
	OpenTable  string `json:"opentable,omitempty"`
	GoogleMaps string `json:"google_maps,omitempty"`
	Beli       string `json:"beli,omitempty"`
	Website    string `json:"website,omitempty"`
	Instagram  string `json:"instagram,omitempty"`
}

var errVenueIDRequired = errors.New("venue id required")

// GetVenue fetches venue detail.
func (c *Client) GetVenue(ctx context.Context, id string) (Venue, error) {
	if id == "" {
		return Venue{}, errVenueIDRequired
	}
	var v Venue
	err := c.call(ctx, http.MethodGet, "/venue", url.Values{"id": {id}}, nil, &v, "Failed to load venue")
	if err != nil {
		return Venue{}, err
	}
	if v.ID == "" {
		v.ID = id
	}
	return v, nil
}

// GetVenueLinks looks the venue up on other reservation and map platforms.
func (c *Client) GetVenueLinks(ctx context.Context, id string) (VenueLinks, error) {
	if id == "" {
		return VenueLinks{}, errVenueIDRequired
	}
	var l VenueLinks
	err := c.call(ctx, http.MethodGet, "/venue_links", url.Values{"id": {id}}, nil, &l, "Failed to load venue links")
	return l, err
}

// CalendarDay is one day of a venue's availability calendar.
type CalendarDay struct {
	Date   string `json:"date"`
	Status string `json:"status"` // available, sold-out, closed, not-released
}

// Available reports whether the day has bookable inventory.
func (d CalendarDay) Available() bool { return d.Status == "available" }

// Calendar returns a venue's day-by-day availability for a party size.
func (c *Client) Calendar(ctx context.Context, venueID string, partySize int) ([]CalendarDay, error) {
	if venueID == "" {
		return nil, errVenueIDRequired
	}
	q := url.Values{
		"venue_id":   {venueID},
		"party_size": {strconv.Itoa(partySize)},
	}
	var days []CalendarDay
	if err := c.call(ctx, http.MethodGet, "/calendar", q, nil, &days, "Failed to load calendar"); err != nil {
		return nil, err
	}
	return days, nil
}

// Slot is a bookable time on a given day.
type Slot struct {
	Time string `json:"time"` // "2026-02-14 19:30:00" or "19:30"
	Type string `json:"type,omitempty"`
}

// Slots returns the bookable times for one day.
func (c *Client) Slots(ctx context.Context, venueID, day string, partySize int) ([]Slot, error) {
	if venueID == "" {
		return nil, errVenueIDRequired
	}
	q := url.Values{
		"venue_id":   {venueID},
		"day":        {day},
		"party_size": {strconv.Itoa(partySize)},
	}
	var slots []Slot
	if err := c.call(ctx, http.MethodGet, "/slots", q, nil, &slots, "Failed to load time slots"); err != nil {
		return nil, err
	}
	return slots, nil
}
