// Package watcher polls a job store and reports status transitions.
package watcher

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/snipe/internal/jobs"
)

const DefaultInterval = 30 * time.Second

// Change is one observed status transition.
type Change struct {
	Job  jobs.Job
	From string
	To   string
}

// Watcher polls the store for one user's jobs. The first poll records a
// baseline; later polls report every job whose status differs from it.
type Watcher struct {
	Store    jobs.Store
	UserID   string
	Interval time.Duration
	Log      logrus.FieldLogger
	OnChange func(Change)

	// UntilSettled stops Run once every job is terminal.
	UntilSettled bool

	mu   sync.Mutex
	seen map[string]string
}

func (w *Watcher) Run(ctx context.Context) error {
	interval := w.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	if done := w.tick(ctx); done {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if done := w.tick(ctx); done {
				return nil
			}
		}
	}
}

// tick polls once and reports whether Run should stop.
func (w *Watcher) tick(ctx context.Context) bool {
	js, err := w.Store.ListByUser(ctx, w.UserID)
	if err != nil {
		w.logger().WithError(err).Warn("watcher: list jobs failed")
		return false
	}
	for _, c := range w.Observe(js) {
		w.logger().WithFields(logrus.Fields{
			"job_id":   c.Job.ID,
			"venue_id": c.Job.VenueID,
			"from":     c.From,
			"to":       c.To,
		}).Info("watcher: status changed")
		if w.OnChange != nil {
			w.OnChange(c)
		}
	}
	return w.UntilSettled && settled(js)
}

// Observe records the statuses in js and returns the transitions since the
// previous call. New jobs seen after the baseline are reported with an empty From.
func (w *Watcher) Observe(js []jobs.Job) []Change {
	w.mu.Lock()
	defer w.mu.Unlock()

	first := w.seen == nil
	if first {
		w.seen = make(map[string]string, len(js))
	}
	var out []Change
	for _, j := range js {
		prev, known := w.seen[j.ID]
		w.seen[j.ID] = j.Status
		if first || (known && prev == j.Status) {
			continue
		}
		out = append(out, Change{Job: j, From: prev, To: j.Status})
	}
	return out
}

func settled(js []jobs.Job) bool {
	for _, j := range js {
		if !j.Terminal() {
			return false
		}
	}
	return true
}

func (w *Watcher) logger() logrus.FieldLogger {
	if w.Log == nil {
		return logrus.StandardLogger()
	}
	return w.Log
}
