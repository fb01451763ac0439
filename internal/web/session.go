package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/sirupsen/logrus"

	"github.com/example/snipe/internal/search"
)

const (
	cookieName   = "snipe_session"
	cookieMaxAge = 30 * 24 * time.Hour

	// DefaultIdleTimeout drops a browser's search state after this long unused.
	DefaultIdleTimeout = 30 * time.Minute
	// DefaultMaxSessions caps the search states held at once; the least
	// recently used one is dropped to make room.
	DefaultMaxSessions = 512
)

// browserSession is what the cookie carries: a stable id and the selected city.
type browserSession struct {
	ID   string
	City string
}

type ctxKey string

const sessionKey ctxKey = "session"

// Sessions maps browser sessions to their search state. Each browser gets its
// own page cache and query token. Idle entries are swept on lookup.
type Sessions struct {
	sc          *securecookie.SecureCookie
	fetcher     search.Fetcher
	defaultCity string
	log         logrus.FieldLogger
	idle        time.Duration
	max         int
	now         func() time.Time

	mu     sync.Mutex
	search map[string]*searchEntry
}

type searchEntry struct {
	sess *search.Session
	used time.Time
}

// SessionsOption configures Sessions.
type SessionsOption func(*Sessions)

// WithIdleTimeout overrides DefaultIdleTimeout.
func WithIdleTimeout(d time.Duration) SessionsOption {
	return func(s *Sessions) { s.idle = d }
}

// WithMaxSessions overrides DefaultMaxSessions.
func WithMaxSessions(n int) SessionsOption {
	return func(s *Sessions) { s.max = n }
}

func withClock(now func() time.Time) SessionsOption {
	return func(s *Sessions) { s.now = now }
}

func NewSessions(hashKey, blockKey []byte, fetcher search.Fetcher, defaultCity string, log logrus.FieldLogger, opts ...SessionsOption) *Sessions {
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(int(cookieMaxAge.Seconds()))
	if defaultCity == "" {
		defaultCity = search.DefaultCity
	}
	s := &Sessions{
		sc:          sc,
		fetcher:     fetcher,
		defaultCity: defaultCity,
		log:         log,
		idle:        DefaultIdleTimeout,
		max:         DefaultMaxSessions,
		now:         time.Now,
		search:      make(map[string]*searchEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sessions) read(r *http.Request) (browserSession, bool) {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return browserSession{}, false
	}
	val := map[string]string{}
	if err := s.sc.Decode(cookieName, c.Value, &val); err != nil {
		return browserSession{}, false
	}
	if val["sid"] == "" {
		return browserSession{}, false
	}
	city := val["city"]
	if _, err := search.LookupCity(city); err != nil {
		city = s.defaultCity
	}
	return browserSession{ID: val["sid"], City: city}, true
}

func (s *Sessions) write(w http.ResponseWriter, r *http.Request, bs browserSession) error {
	encoded, err := s.sc.Encode(cookieName, map[string]string{"sid": bs.ID, "city": bs.City})
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
		MaxAge:   int(cookieMaxAge.Seconds()),
	})
	return nil
}

// searchSession returns the search state for a browser session, creating it
// on first use and keeping its city in step with the cookie.
func (s *Sessions) searchSession(bs browserSession) *search.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweep(now)

	e, ok := s.search[bs.ID]
	if !ok {
		if s.max > 0 && len(s.search) >= s.max {
			s.evictOldest()
		}
		e = &searchEntry{sess: search.NewSession(s.fetcher, bs.City, search.WithSessionLogger(s.log.WithField("session", bs.ID)))}
		s.search[bs.ID] = e
	} else {
		e.sess.SetCity(bs.City)
	}
	e.used = now
	return e.sess
}

// sweep drops entries unused for longer than the idle timeout. Callers hold mu.
func (s *Sessions) sweep(now time.Time) {
	if s.idle <= 0 {
		return
	}
	for id, e := range s.search {
		if now.Sub(e.used) > s.idle {
			e.sess.Stop()
			delete(s.search, id)
		}
	}
}

func (s *Sessions) evictOldest() {
	var (
		oldest string
		at     time.Time
	)
	for id, e := range s.search {
		if oldest == "" || e.used.Before(at) {
			oldest, at = id, e.used
		}
	}
	if e, ok := s.search[oldest]; ok {
		e.sess.Stop()
		delete(s.search, oldest)
		s.log.WithField("session", oldest).Debug("web: evicted search session")
	}
}

// Middleware makes sure every request has a browser session, issuing a new
// cookie when the request has none.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bs, ok := s.read(r)
		if !ok {
			bs = browserSession{ID: uuid.NewString(), City: s.defaultCity}
			if err := s.write(w, r, bs); err != nil {
				s.log.WithError(err).Error("web: issue session cookie")
				http.Error(w, "session error", http.StatusInternalServerError)
				return
			}
		}
		ctx := context.WithValue(r.Context(), sessionKey, bs)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(ctx context.Context) (browserSession, bool) {
	bs, ok := ctx.Value(sessionKey).(browserSession)
	return bs, ok
}

// SetCity stores the new city in the cookie and clears that session's cache.
func (s *Sessions) SetCity(w http.ResponseWriter, r *http.Request, bs browserSession, city string) (browserSession, error) {
	bs.City = city
	if err := s.write(w, r, bs); err != nil {
		return bs, err
	}
	s.searchSession(bs)
	return bs, nil
}

// Len reports how many search sessions are held.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.search)
}

// Close stops pending debounced searches.
func (s *Sessions) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.search {
		e.sess.Stop()
	}
}
