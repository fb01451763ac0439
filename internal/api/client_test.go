package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/snipe/internal/search"
)

type recorded struct {
	method string
	path   string
	query  url.Values
	auth   string
	userID string
	body   []byte
}

type backend struct {
	mu   sync.Mutex
	reqs []recorded
	n    atomic.Int32
}

func (b *backend) last() recorded {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reqs[len(b.reqs)-1]
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...ClientOption) (*Client, *backend) {
	t.Helper()
	b := &backend{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.reqs = append(b.reqs, recorded{method: r.Method, path: r.URL.Path, query: r.URL.Query(), auth: r.Header.Get("Authorization"), userID: r.Header.Get("X-User-Id"), body: body})
		b.mu.Unlock()
		b.n.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	log := logrus.New()
	log.SetOutput(io.Discard)
	opts = append([]ClientOption{WithLogger(log), WithRateLimit(0)}, opts...)
	return New(srv.URL+"/", Credentials{UserID: "u1", IDToken: "tok"}, opts...), b
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func TestSearchFailsFastWithoutRequest(t *testing.T) {
	c, b := newTestClient(t, respond(200, `[]`))

	_, err := c.SearchRestaurantsByMap(context.Background(), search.MapSearchFilters{
		SearchFilters: search.SearchFilters{AvailableOnly: true},
		Bounds:        search.Bounds{SWLat: 40.7, SWLng: -74, NELat: 40.8, NELng: -73.9},
	})
	assert.ErrorIs(t, err, search.ErrInvalidFilterCombination)

	_, err = c.SearchRestaurants(context.Background(), search.SearchFilters{NotReleasedOnly: true, Day: "2026-02-14"}, 0, 20)
	assert.ErrorIs(t, err, search.ErrInvalidFilterCombination)
	assert.Zero(t, b.n.Load())
}

func TestSearchRestaurantsEnvelope(t *testing.T) {
	c, b := newTestClient(t, respond(200, `{"success":true,"data":{"results":[{"id":"1505","name":"Carbone","price_range":4}],"pagination":{"offset":20,"per_page":20,"next_offset":40}}}`))

	f := search.SearchFilters{Cuisines: []string{"Italian"}, PriceRanges: []string{"4", "2"}, Day: "2026-02-14", PartySize: "2", Mode: search.ModeTopRated}
	p, err := c.SearchRestaurants(context.Background(), f, 20, 20)
	require.NoError(t, err)
	require.Len(t, p.Results, 1)
	assert.Equal(t, "Carbone", p.Results[0].Name)
	assert.Equal(t, 20, p.Pagination.Offset)
	require.NotNil(t, p.Pagination.NextOffset)
	assert.Equal(t, 40, *p.Pagination.NextOffset)
	assert.True(t, p.Pagination.HasMore)

	req := b.last()
	assert.Equal(t, "/top_rated", req.path)
	assert.Equal(t, "Bearer tok", req.auth)
	assert.Equal(t, "u1", req.userID)
	assert.Equal(t, "2,4", req.query.Get("price_ranges"))
	assert.False(t, req.query.Has("available_day"))
	assert.False(t, req.query.Has("user_id"))
}

func TestSearchRestaurantsBareArray(t *testing.T) {
	c, b := newTestClient(t, respond(200, `[{"id":"1","name":"Lilia"},{"id":"2","name":"Via Carota"}]`))

	p, err := c.SearchRestaurants(context.Background(), search.SearchFilters{Mode: search.ModeBookmarks}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, p.Results, 2)
	assert.Equal(t, search.DefaultPagination(), p.Pagination)
	assert.Equal(t, "u1", b.last().query.Get("user_id"))
	assert.Equal(t, "/search", b.last().path)
}

func TestSearchByMapPaginationBesideData(t *testing.T) {
	c, b := newTestClient(t, respond(200, `{"success":true,"data":{"venues":[{"id":"9"}]},"pagination":{"hasMore":true,"isFiltered":true,"foundSoFar":7}}`))

	p, err := c.SearchRestaurantsByMap(context.Background(), search.MapSearchFilters{
		SearchFilters: search.SearchFilters{AvailableOnly: true, Day: "2026-02-14", PartySize: "2"},
		Bounds:        search.Bounds{SWLat: 40.7, SWLng: -74, NELat: 40.8, NELng: -73.9},
	})
	require.NoError(t, err)
	require.Len(t, p.Results, 1)
	assert.True(t, p.Pagination.HasMore)
	assert.True(t, p.Pagination.IsFiltered)
	assert.Equal(t, "7+ found, loading more…", p.Pagination.Summary(1))

	q := b.last().query
	assert.Equal(t, "/search_map", b.last().path)
	assert.Equal(t, "2026-02-14", q.Get("available_day"))
	assert.Equal(t, "2", q.Get("available_party_size"))
	assert.Equal(t, "40.8", q.Get("ne_lat"))
}

func TestSessionExpiredNotifiesHandlers(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"419", 419, `{"success":false,"error":"Resy token expired"}`},
		{"500 with upstream 419", 500, `{"success":false,"error":"upstream returned 419"}`},
		{"500 unauthorized", 500, `{"success":false,"error":"Unauthorized"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []error
			c, _ := newTestClient(t, respond(tt.status, tt.body), WithSessionExpiredHandler(func(err error) { got = append(got, err) }))
			var late int
			c.OnSessionExpired(func(error) { late++ })

			_, err := c.GetVenue(context.Background(), "1")
			require.Error(t, err)
			assert.True(t, IsSessionExpired(err))
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Len(t, got, 1)
			assert.Equal(t, 1, late)
		})
	}
}

func TestPlainServerErrorIsNotExpiry(t *testing.T) {
	called := false
	c, _ := newTestClient(t, respond(500, `{"success":false,"error":{"message":"database unavailable"}}`), WithSessionExpiredHandler(func(error) { called = true }))

	_, err := c.GetVenue(context.Background(), "1")
	require.Error(t, err)
	assert.False(t, IsSessionExpired(err))
	assert.False(t, called)
	assert.Equal(t, "database unavailable (status=500)", err.Error())
}

func TestErrorMessageFallback(t *testing.T) {
	c, _ := newTestClient(t, respond(502, `<html>bad gateway</html>`))
	_, err := c.Calendar(context.Background(), "1505", 2)
	assert.EqualError(t, err, "Failed to load calendar (status=502)")

	c, _ = newTestClient(t, respond(200, `{"success":false}`))
	_, err = c.Slots(context.Background(), "1505", "2026-02-14", 2)
	assert.EqualError(t, err, "Failed to load time slots (status=200)")

	c, _ = newTestClient(t, respond(200, `{"success":false,"message":"venue not found"}`))
	_, err = c.GetVenueLinks(context.Background(), "1505")
	assert.EqualError(t, err, "venue not found (status=200)")
}

func TestCreateSnipe(t *testing.T) {
	c, b := newTestClient(t, respond(200, `{"success":true,"data":{"job_id":"job-9","target_timestamp":1768489200000}}`))

	ack, err := c.CreateSnipe(context.Background(), CreateSnipeRequest{VenueID: "1505", PartySize: 2, Date: "2026-02-14", Hour: 19, Minute: 30, DropDate: "2026-01-15", DropAtMilli: 1768489200000})
	require.NoError(t, err)
	assert.Equal(t, "job-9", ack.JobID)
	assert.Equal(t, int64(1768489200000), ack.Target().UnixMilli())

	req := b.last()
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "/create_snipe", req.path)
	var sent map[string]any
	require.NoError(t, json.Unmarshal(req.body, &sent))
	assert.Equal(t, "u1", sent["user_id"])
	assert.Equal(t, "1505", sent["venue_id"])
	assert.Equal(t, float64(19), sent["hour"])
}

func TestCreateSnipeWithoutJobID(t *testing.T) {
	c, _ := newTestClient(t, respond(200, `{"success":true,"data":{}}`))
	_, err := c.CreateSnipe(context.Background(), CreateSnipeRequest{VenueID: "1"})
	assert.Error(t, err)
}

func TestUpdateAndCancelRequireJobID(t *testing.T) {
	c, b := newTestClient(t, respond(200, `{"success":true}`))
	_, err := c.UpdateSnipe(context.Background(), UpdateSnipeRequest{})
	assert.Error(t, err)
	assert.Error(t, c.CancelSnipe(context.Background(), ""))
	assert.Zero(t, b.n.Load())

	ack, err := c.UpdateSnipe(context.Background(), UpdateSnipeRequest{JobID: "job-1"})
	require.NoError(t, err)
	assert.Equal(t, "job-1", ack.JobID)
	require.NoError(t, c.CancelSnipe(context.Background(), "job-1"))
	assert.Equal(t, "/cancel_snipe", b.last().path)
}

func TestGetVenueDefaultsID(t *testing.T) {
	c, b := newTestClient(t, respond(200, `{"name":"Carbone","price_range":4}`))
	v, err := c.GetVenue(context.Background(), "1505")
	require.NoError(t, err)
	assert.Equal(t, "1505", v.ID)
	assert.Equal(t, "Carbone", v.Name)
	assert.Equal(t, "1505", b.last().query.Get("id"))

	_, err = c.GetVenue(context.Background(), "")
	assert.Error(t, err)
}

func TestSummarizeSnipeLogs(t *testing.T) {
	c, _ := newTestClient(t, respond(200, `{"success":true,"data":{"text":"No tables were released at the drop time."}}`))
	s, err := c.SummarizeSnipeLogs(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, "No tables were released at the drop time.", s)
}

func TestTransportError(t *testing.T) {
	c := New("http://127.0.0.1:1", Credentials{}, WithRateLimit(0), WithLogger(logrus.New()))
	_, err := c.GetVenue(context.Background(), "1")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Failed to load venue", apiErr.Message)
	assert.Zero(t, apiErr.Status)
}

func TestResyAccount(t *testing.T) {
	c, b := newTestClient(t, respond(200, `{"success":true,"data":{"linked":true,"email":"a@b.co","payment_methods":[{"id":7,"display":"Visa 4242","is_default":true}]}}`))

	_, err := c.LinkResyAccount(context.Background(), "a@b.co", "")
	assert.Error(t, err)
	assert.Zero(t, b.n.Load())

	acct, err := c.LinkResyAccount(context.Background(), "a@b.co", "secret")
	require.NoError(t, err)
	assert.True(t, acct.Linked)
	require.Len(t, acct.PaymentMethods, 1)
	assert.True(t, acct.PaymentMethods[0].Default)
	var sent LinkResyRequest
	require.NoError(t, json.Unmarshal(b.last().body, &sent))
	assert.Equal(t, "u1", sent.UserID)

	require.NoError(t, c.UnlinkResyAccount(context.Background()))
	assert.Equal(t, http.MethodDelete, b.last().method)
	assert.Equal(t, "u1", b.last().query.Get("user_id"))
}

func TestAnonymousClientSendsNoIdentity(t *testing.T) {
	b := &backend{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.reqs = append(b.reqs, recorded{auth: r.Header.Get("Authorization"), userID: r.Header.Get("X-User-Id")})
		b.mu.Unlock()
		respond(200, `[]`)(w, r)
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, Credentials{}, WithRateLimit(0))
	_, err := c.Calendar(context.Background(), "1505", 2)
	require.NoError(t, err)
	assert.Empty(t, b.last().auth)
	assert.Empty(t, b.last().userID)
}
