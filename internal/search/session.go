package search

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrStaleResult is returned alongside a page whose query was superseded
// while it was in flight. The page is valid but must not be shown.
var ErrStaleResult = errors.New("search superseded by a newer query")

// DefaultDebounce delays scheduled searches until input settles.
const DefaultDebounce = 400 * time.Millisecond

// Fetcher performs the network side of a search.
type Fetcher interface {
	SearchRestaurants(ctx context.Context, f SearchFilters, offset, perPage int) (Page, error)
	SearchRestaurantsByMap(ctx context.Context, f MapSearchFilters) (Page, error)
}

// Query is one search request as issued by a search screen.
type Query struct {
	Filters SearchFilters
	Bounds  *Bounds // nil for list searches
	Page    int     // 1-based
	PerPage int
}

func (q Query) normalized(city string) Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = DefaultPerPage
	}
	if q.Filters.City == "" {
		q.Filters.City = city
	}
	if q.Filters.Mode == "" {
		q.Filters.Mode = ModeBrowse
	}
	return q
}

func (q Query) mapFilters() MapSearchFilters {
	return MapSearchFilters{
		SearchFilters: q.Filters,
		Bounds:        *q.Bounds,
		Offset:        OffsetForPage(q.Page, q.PerPage),
		PerPage:       q.PerPage,
	}
}

func (q Query) validate() error {
	if q.Bounds != nil {
		return q.mapFilters().Validate()
	}
	return q.Filters.Validate()
}

func (q Query) fingerprint() string {
	if q.Bounds != nil {
		return MapFingerprint(q.mapFilters())
	}
	return Fingerprint(q.Filters, q.PerPage)
}

// Session is the state behind one search screen: the page cache, the active
// city and the token of the latest query. The cache only ever holds pages for
// the current query context; any change to filters, reservation-form inputs
// or city clears it before the next fetch.
type Session struct {
	fetcher  Fetcher
	cache    *PageCache
	log      logrus.FieldLogger
	debounce time.Duration

	mu      sync.Mutex
	city    string
	context string
	token   uint64
	current Page
	timer   *time.Timer
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) SessionOption {
	return func(s *Session) { s.debounce = d }
}

// WithSessionLogger sets the logger.
func WithSessionLogger(l logrus.FieldLogger) SessionOption {
	return func(s *Session) { s.log = l }
}

func NewSession(f Fetcher, city string, opts ...SessionOption) *Session {
	s := &Session{
		fetcher:  f,
		cache:    NewPageCache(),
		log:      logrus.StandardLogger(),
		debounce: DefaultDebounce,
		city:     city,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// City returns the active city.
func (s *Session) City() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.city
}

// SetCity switches city, clearing the cache if it changed.
func (s *Session) SetCity(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == s.city {
		return
	}
	s.city = id
	s.context = ""
	s.cache.InvalidateAll()
	s.log.WithField("city", id).Debug("search: city changed, cache cleared")
}

// Current returns the page most recently applied to the screen.
func (s *Session) Current() Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// CachedPages reports how many pages the cache holds.
func (s *Session) CachedPages() int {
	return s.cache.Len()
}

// Search serves a query from the cache or the backend. When a newer query was
// started while this one was in flight, the page is returned with
// ErrStaleResult and is not applied; a failure of such a query is also
// reported as ErrStaleResult.
func (s *Session) Search(ctx context.Context, q Query) (Page, error) {
	s.mu.Lock()
	q = q.normalized(s.city)
	if err := q.validate(); err != nil {
		s.mu.Unlock()
		return Page{}, err
	}
	fp := q.fingerprint()
	if fp != s.context {
		s.cache.InvalidateAll()
		s.context = fp
	}
	s.token++
	token := s.token
	if p, ok := s.cache.Get(fp, q.Page); ok {
		s.current = p
		s.mu.Unlock()
		s.log.WithFields(logrus.Fields{"page": q.Page, "mode": q.Filters.Mode}).Debug("search: cache hit")
		return p, nil
	}
	s.mu.Unlock()

	p, err := s.fetch(ctx, q)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		if s.token != token {
			s.log.WithError(err).Debug("search: discarding stale failure")
			return Page{}, ErrStaleResult
		}
		return Page{}, err
	}
	// A context change while in flight means this page belongs to a cache
	// that no longer exists.
	if s.context == fp {
		s.cache.Put(fp, q.Page, p.Results, p.Pagination)
	}
	if s.token != token {
		s.log.WithField("page", q.Page).Debug("search: discarding stale result")
		return p, ErrStaleResult
	}
	s.current = p
	return p, nil
}

func (s *Session) fetch(ctx context.Context, q Query) (Page, error) {
	if q.Bounds != nil {
		return s.fetcher.SearchRestaurantsByMap(ctx, q.mapFilters())
	}
	return s.fetcher.SearchRestaurants(ctx, q.Filters, OffsetForPage(q.Page, q.PerPage), q.PerPage)
}

// Schedule runs Search after the debounce delay. Calls made before the delay
// elapses replace the pending one. fn is not called for stale results.
func (s *Session) Schedule(ctx context.Context, q Query, fn func(Page, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		p, err := s.Search(ctx, q)
		if errors.Is(err, ErrStaleResult) {
			return
		}
		fn(p, err)
	})
}

// Stop cancels a pending scheduled search.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
