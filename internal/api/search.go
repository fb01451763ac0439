package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/example/snipe/internal/search"
)

// SearchRestaurants runs a list search for the filters' mode.
func (c *Client) SearchRestaurants(ctx context.Context, f search.SearchFilters, offset, perPage int) (search.Page, error) {
	q, err := search.BuildQuery(f, offset, perPage)
	if err != nil {
		return search.Page{}, err
	}
	if f.BookmarkedOnly || f.Mode == search.ModeBookmarks {
		c.addUser(q)
	}
	env, err := c.do(ctx, http.MethodGet, f.Mode.Endpoint(), q, nil, "Failed to search restaurants")
	if err != nil {
		return search.Page{}, err
	}
	return normalizePage(env)
}

// SearchRestaurantsByMap runs a viewport-bounded search.
func (c *Client) SearchRestaurantsByMap(ctx context.Context, f search.MapSearchFilters) (search.Page, error) {
	q, err := search.BuildMapQuery(f)
	if err != nil {
		return search.Page{}, err
	}
	if f.BookmarkedOnly || f.Mode == search.ModeBookmarks {
		c.addUser(q)
	}
	env, err := c.do(ctx, http.MethodGet, "/search_map", q, nil, "Failed to search restaurants")
	if err != nil {
		return search.Page{}, err
	}
	return normalizePage(env)
}

func (c *Client) addUser(q url.Values) {
	if c.creds.UserID != "" {
		q.Set("user_id", c.creds.UserID)
	}
}

// normalizePage accepts the shapes the search functions have returned over
// time: data as a bare array, or data as {results|venues, pagination}, with
// pagination possibly beside data.
func normalizePage(env envelope) (search.Page, error) {
	page := search.Page{Pagination: search.DefaultPagination()}

	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || string(data) == "null" {
		page.Results = []search.Result{}
		return withPagination(page, env.Pagination)
	}

	if data[0] == '[' {
		if err := json.Unmarshal(data, &page.Results); err != nil {
			return search.Page{}, fmt.Errorf("decode search results: %w", err)
		}
		return withPagination(page, env.Pagination)
	}

	var obj struct {
		Results    []search.Result `json:"results"`
		Venues     []search.Result `json:"venues"`
		Pagination json.RawMessage `json:"pagination"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return search.Page{}, fmt.Errorf("decode search results: %w", err)
	}
	page.Results = obj.Results
	if page.Results == nil {
		page.Results = obj.Venues
	}
	if page.Results == nil {
		page.Results = []search.Result{}
	}
	pag := obj.Pagination
	if len(pag) == 0 || string(pag) == "null" {
		pag = env.Pagination
	}
	return withPagination(page, pag)
}

// rawPagination tolerates both camelCase and snake_case keys.
type rawPagination struct {
	Offset      *int  `json:"offset"`
	PerPage     *int  `json:"perPage"`
	PerPageS    *int  `json:"per_page"`
	NextOffset  *int  `json:"nextOffset"`
	NextOffsetS *int  `json:"next_offset"`
	HasMore     *bool `json:"hasMore"`
	HasMoreS    *bool `json:"has_more"`
	Total       *int  `json:"total"`
	IsFiltered  *bool `json:"isFiltered"`
	FoundSoFar  *int  `json:"foundSoFar"`
}

func withPagination(page search.Page, raw json.RawMessage) (search.Page, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return page, nil
	}
	var rp rawPagination
	if err := json.Unmarshal(raw, &rp); err != nil {
		return search.Page{}, fmt.Errorf("decode pagination: %w", err)
	}
	p := search.DefaultPagination()
	if rp.Offset != nil {
		p.Offset = *rp.Offset
	}
	if v := firstInt(rp.PerPage, rp.PerPageS); v != nil && *v > 0 {
		p.PerPage = *v
	}
	p.NextOffset = firstInt(rp.NextOffset, rp.NextOffsetS)
	if v := firstBool(rp.HasMore, rp.HasMoreS); v != nil {
		p.HasMore = *v
	} else {
		p.HasMore = p.NextOffset != nil
	}
	p.Total = rp.Total
	if rp.IsFiltered != nil {
		p.IsFiltered = *rp.IsFiltered
	}
	p.FoundSoFar = rp.FoundSoFar
	page.Pagination = p
	return page, nil
}

func firstInt(vs ...*int) *int {
	for _, v := range vs {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstBool(vs ...*bool) *bool {
	for _, v := range vs {
		if v != nil {
			return v
		}
	}
	return nil
}

// pageQuery is shared by the curated list endpoints.
func pageQuery(city string, offset, perPage int) url.Values {
	q := url.Values{}
	if city != "" {
		q.Set("city", city)
	}
	q.Set("offset", strconv.Itoa(offset))
	if perPage > 0 {
		q.Set("per_page", strconv.Itoa(perPage))
	}
	return q
}

// Climbing lists venues trending upward.
func (c *Client) Climbing(ctx context.Context, city string, offset, perPage int) (search.Page, error) {
	env, err := c.do(ctx, http.MethodGet, "/climbing", pageQuery(city, offset, perPage), nil, "Failed to load trending restaurants")
	if err != nil {
		return search.Page{}, err
	}
	return normalizePage(env)
}

// TopRated lists the highest rated venues.
func (c *Client) TopRated(ctx context.Context, city string, offset, perPage int) (search.Page, error) {
	env, err := c.do(ctx, http.MethodGet, "/top_rated", pageQuery(city, offset, perPage), nil, "Failed to load top rated restaurants")
	if err != nil {
		return search.Page{}, err
	}
	return normalizePage(env)
}
