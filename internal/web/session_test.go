package web

import (
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestCookielessRequestsDoNotGrowSessions(t *testing.T) {
	s := newServer(t, &fakeBackend{}, WithMaxSessions(10))
	h := s.Routes()

	for i := 0; i < 100; i++ {
		rec := do(t, h, http.MethodGet, "/api/search?query=x", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 10, s.Sessions.Len())
}

func TestIdleSessionsAreSwept(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)}
	s := newServer(t, &fakeBackend{}, WithIdleTimeout(time.Minute), withClock(clock.now))
	sessions := s.Sessions

	a := sessions.searchSession(browserSession{ID: "a", City: "nyc"})
	sessions.searchSession(browserSession{ID: "b", City: "nyc"})
	assert.Equal(t, 2, sessions.Len())

	clock.advance(50 * time.Second)
	assert.Same(t, a, sessions.searchSession(browserSession{ID: "a", City: "nyc"}))

	// b has now been idle for 100s, a for 50s.
	clock.advance(50 * time.Second)
	sessions.searchSession(browserSession{ID: "c", City: "nyc"})
	assert.Equal(t, 2, sessions.Len())

	clock.advance(2 * time.Minute)
	b := sessions.searchSession(browserSession{ID: "b", City: "la"})
	assert.Equal(t, 1, sessions.Len())
	assert.Equal(t, "la", b.City())
}

func TestMaxSessionsEvictsLeastRecentlyUsed(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)}
	s := newServer(t, &fakeBackend{}, WithMaxSessions(3), withClock(clock.now))
	sessions := s.Sessions

	first := sessions.searchSession(browserSession{ID: "s0", City: "nyc"})
	for i := 1; i < 3; i++ {
		clock.advance(time.Second)
		sessions.searchSession(browserSession{ID: fmt.Sprint("s", i), City: "nyc"})
	}
	clock.advance(time.Second)
	sessions.searchSession(browserSession{ID: "s0", City: "nyc"})

	clock.advance(time.Second)
	sessions.searchSession(browserSession{ID: "s3", City: "nyc"})
	assert.Equal(t, 3, sessions.Len())
	assert.Same(t, first, sessions.searchSession(browserSession{ID: "s0", City: "nyc"}))
	assert.Equal(t, 3, sessions.Len())
}
