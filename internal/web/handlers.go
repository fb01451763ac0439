package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/example/snipe/internal/api"
	"github.com/example/snipe/internal/reservation"
	"github.com/example/snipe/internal/search"
)

type errorBody struct {
	Error     string                     `json:"error"`
	Field     string                     `json:"field,omitempty"`
	Reconnect bool                       `json:"reconnect,omitempty"`
	Stale     bool                       `json:"stale,omitempty"`
	Created   []reservation.Confirmation `json:"created,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy onto status codes. An expired upstream
// session is answered with 419 so the front end can ask the user to reconnect.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		verr   *reservation.ValidationError
		serr   *reservation.SubmitError
		apiErr *api.APIError
	)
	// A failed submit reports the jobs it already created, whatever the cause.
	if errors.As(err, &serr) {
		status := http.StatusBadGateway
		if api.IsSessionExpired(err) {
			status = api.StatusSessionExpired
		}
		writeJSON(w, status, errorBody{Error: serr.Error(), Reconnect: status == api.StatusSessionExpired, Created: serr.Created})
		return
	}
	switch {
	case api.IsSessionExpired(err):
		writeJSON(w, api.StatusSessionExpired, errorBody{Error: err.Error(), Reconnect: true})
	case errors.Is(err, search.ErrStaleResult):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error(), Stale: true})
	case errors.Is(err, search.ErrInvalidFilterCombination):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: verr.Err.Error(), Field: verr.Field})
	case errors.As(err, &apiErr):
		writeJSON(w, http.StatusBadGateway, errorBody{Error: apiErr.Message})
	default:
		s.logger().WithError(err).Error("web: unhandled error")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (browserSession, bool) {
	bs, ok := sessionFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "no session"})
	}
	return bs, ok
}

type cityBody struct {
	ID       string        `json:"id"`
	Name     string        `json:"name,omitempty"`
	Timezone string        `json:"timezone,omitempty"`
	Bounds   search.Bounds `json:"bounds"`
}

func toCityBody(c search.City) cityBody {
	return cityBody{ID: c.ID, Name: c.Name, Timezone: c.Timezone, Bounds: c.Bounds}
}

func (s *Server) handleCities(w http.ResponseWriter, r *http.Request) {
	cities := search.Cities()
	out := make([]cityBody, 0, len(cities))
	for _, c := range cities {
		out = append(out, toCityBody(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetCity(w http.ResponseWriter, r *http.Request) {
	bs, ok := s.session(w, r)
	if !ok {
		return
	}
	c, err := search.LookupCity(bs.City)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toCityBody(c))
}

func (s *Server) handleSetCity(w http.ResponseWriter, r *http.Request) {
	bs, ok := s.session(w, r)
	if !ok {
		return
	}
	var body struct {
		City string `json:"city"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	c, err := search.LookupCity(body.City)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if _, err := s.Sessions.SetCity(w, r, bs, c.ID); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCityBody(c))
}

type searchResponse struct {
	Results    []search.Result   `json:"results"`
	Pagination search.Pagination `json:"pagination"`
	Summary    string            `json:"summary"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	bs, ok := s.session(w, r)
	if !ok {
		return
	}
	q, err := queryFromValues(r.URL.Query())
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	page, err := s.Sessions.searchSession(bs).Search(r.Context(), q)
	if err != nil {
		s.writeError(w, err)
		return
	}
	results := page.Results
	if results == nil {
		results = []search.Result{}
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Results:    results,
		Pagination: page.Pagination,
		Summary:    page.Pagination.Summary(len(results)),
	})
}

// queryFromValues reads the same parameter names the backend uses.
func queryFromValues(v url.Values) (search.Query, error) {
	mode, err := search.ParseMode(v.Get("mode"))
	if err != nil {
		return search.Query{}, err
	}
	q := search.Query{
		Filters: search.SearchFilters{
			Query:           strings.TrimSpace(v.Get("query")),
			Cuisines:        splitList(v["cuisines"]),
			PriceRanges:     splitList(v["price_ranges"]),
			AvailableOnly:   truthy(v.Get("available_only")),
			NotReleasedOnly: truthy(v.Get("not_released_only")),
			BookmarkedOnly:  truthy(v.Get("bookmarked_only")),
			Mode:            mode,
			Day:             strings.TrimSpace(v.Get("available_day")),
			PartySize:       strings.TrimSpace(v.Get("available_party_size")),
			DesiredTime:     strings.TrimSpace(v.Get("desired_time")),
		},
	}
	if q.Page, err = optionalInt(v, "page"); err != nil {
		return search.Query{}, err
	}
	if q.PerPage, err = optionalInt(v, "per_page"); err != nil {
		return search.Query{}, err
	}
	if v.Has("sw_lat") || v.Has("ne_lat") {
		var b search.Bounds
		for _, f := range []struct {
			key string
			dst *float64
		}{{"sw_lat", &b.SWLat}, {"sw_lng", &b.SWLng}, {"ne_lat", &b.NELat}, {"ne_lng", &b.NELng}} {
			x, err := strconv.ParseFloat(v.Get(f.key), 64)
			if err != nil {
				return search.Query{}, errors.New("invalid " + f.key)
			}
			*f.dst = x
		}
		q.Bounds = &b
	}
	return q, nil
}

func splitList(vals []string) []string {
	var out []string
	for _, v := range vals {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func truthy(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}

func optionalInt(v url.Values, key string) (int, error) {
	s := strings.TrimSpace(v.Get(key))
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}

func (s *Server) handleVenue(w http.ResponseWriter, r *http.Request) {
	v, err := s.Backend.GetVenue(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleVenueLinks(w http.ResponseWriter, r *http.Request) {
	links, err := s.Backend.GetVenueLinks(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}

func partySize(v url.Values) (int, error) {
	n, err := optionalInt(v, "party_size")
	if err != nil {
		return 0, err
	}
	if n == 0 {
		n = 2
	}
	return n, nil
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	ps, err := partySize(r.URL.Query())
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	days, err := s.Backend.Calendar(r.Context(), r.PathValue("id"), ps)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, days)
}

func (s *Server) handleSlots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ps, err := partySize(q)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	day := strings.TrimSpace(q.Get("day"))
	if day == "" {
		badRequest(w, "day is required")
		return
	}
	slots, err := s.Backend.Slots(r.Context(), r.PathValue("id"), day, ps)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

func decodeForm(r *http.Request) (reservation.FormState, error) {
	var f reservation.FormState
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		return reservation.FormState{}, errors.New("invalid JSON body")
	}
	return f, nil
}

func (s *Server) handleCreateSnipes(w http.ResponseWriter, r *http.Request) {
	f, err := decodeForm(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	confs, err := s.Scheduler.Submit(r.Context(), f)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, confs)
}

func (s *Server) handleUpdateSnipe(w http.ResponseWriter, r *http.Request) {
	f, err := decodeForm(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	conf, err := s.Scheduler.Update(r.Context(), r.PathValue("id"), f)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conf)
}

func (s *Server) handleCancelSnipe(w http.ResponseWriter, r *http.Request) {
	if err := s.Scheduler.Cancel(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReservations(w http.ResponseWriter, r *http.Request) {
	views, err := s.Jobs.List(r.Context(), s.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}
