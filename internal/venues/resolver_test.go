package venues

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/snipe/internal/api"
)

type countingFetcher struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]bool
}

func newCountingFetcher() *countingFetcher {
	return &countingFetcher{calls: map[string]int{}, fail: map[string]bool{}}
}

func (f *countingFetcher) GetVenue(_ context.Context, id string) (api.Venue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[id]++
	if f.fail[id] {
		return api.Venue{}, errors.New("venue unavailable")
	}
	return api.Venue{ID: id, Name: "venue-" + id}, nil
}

func (f *countingFetcher) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func quiet() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestResolveFetchesEachDistinctVenueOnce(t *testing.T) {
	f := newCountingFetcher()
	r := &Resolver{Fetch: f, Cache: NewMemoryCache(), Concurrency: 2, Log: quiet()}

	// Seven jobs over three venues.
	ids := []string{"1", "2", "1", "3", "2", "1", "3"}
	got := r.Resolve(context.Background(), ids)

	assert.Equal(t, 3, f.total())
	require.Len(t, got, 3)
	assert.Equal(t, "venue-2", got["2"].Name)

	// Everything is cached now.
	r.Resolve(context.Background(), ids)
	assert.Equal(t, 3, f.total())
}

func TestResolveSwallowsPerVenueFailures(t *testing.T) {
	f := newCountingFetcher()
	f.fail["bad"] = true
	cache := NewMemoryCache()
	r := &Resolver{Fetch: f, Cache: cache, Log: quiet()}

	got := r.Resolve(context.Background(), []string{"good", "bad", ""})
	require.Contains(t, got, "bad")
	assert.Nil(t, got["bad"])
	require.NotNil(t, got["good"])
	assert.NotContains(t, got, "")

	_, cached := cache.Get(context.Background(), "bad")
	assert.False(t, cached)

	// Failed venues are retried on the next resolution.
	r.Resolve(context.Background(), []string{"bad"})
	assert.Equal(t, 2, f.calls["bad"])
}

func TestResolveWithoutCache(t *testing.T) {
	f := newCountingFetcher()
	r := &Resolver{Fetch: f, Log: quiet()}
	got := r.Resolve(context.Background(), []string{"a", "a"})
	assert.Equal(t, 1, f.total())
	assert.Equal(t, "venue-a", got["a"].Name)
}
