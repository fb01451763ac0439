package watcher

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/snipe/internal/jobs"
)

type scriptedStore struct {
	mu    sync.Mutex
	polls [][]jobs.Job
	calls int
}

func (s *scriptedStore) ListByUser(_ context.Context, _ string) ([]jobs.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	if i >= len(s.polls) {
		i = len(s.polls) - 1
	}
	s.calls++
	return s.polls[i], nil
}

func (s *scriptedStore) Get(context.Context, string) (jobs.Job, error) { return jobs.Job{}, jobs.ErrNotFound }
func (s *scriptedStore) Close() error                                   { return nil }

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestObserveReportsTransitionsAfterBaseline(t *testing.T) {
	w := &Watcher{}

	baseline := []jobs.Job{{ID: "a", Status: "pending"}, {ID: "b", Status: "pending"}}
	assert.Empty(t, w.Observe(baseline))

	next := []jobs.Job{{ID: "a", Status: "done"}, {ID: "b", Status: "pending"}, {ID: "c", Status: "pending"}}
	changes := w.Observe(next)
	require.Len(t, changes, 2)
	assert.Equal(t, "a", changes[0].Job.ID)
	assert.Equal(t, "pending", changes[0].From)
	assert.Equal(t, "done", changes[0].To)
	assert.Equal(t, "c", changes[1].Job.ID)
	assert.Equal(t, "", changes[1].From)

	assert.Empty(t, w.Observe(next))
}

func TestRunStopsWhenSettled(t *testing.T) {
	store := &scriptedStore{polls: [][]jobs.Job{
		{{ID: "a", Status: "pending"}},
		{{ID: "a", Status: "failed"}},
	}}
	var got []Change
	w := &Watcher{
		Store:        store,
		UserID:       "u1",
		Interval:     5 * time.Millisecond,
		Log:          quietLogger(),
		UntilSettled: true,
		OnChange:     func(c Change) { got = append(got, c) },
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, w.Run(ctx))

	require.Len(t, got, 1)
	assert.Equal(t, "failed", got[0].To)
}

func TestRunReturnsOnCancel(t *testing.T) {
	store := &scriptedStore{polls: [][]jobs.Job{{{ID: "a", Status: "pending"}}}}
	w := &Watcher{Store: store, Interval: time.Hour, Log: quietLogger()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, w.Run(ctx), context.Canceled)
}
