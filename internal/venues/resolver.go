// Package venues resolves venue metadata for lists that reference venues by id.
package venues

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/example/snipe/internal/api"
)

// DefaultConcurrency bounds parallel venue fetches.
const DefaultConcurrency = 4

// Fetcher loads one venue from the backend.
type Fetcher interface {
	GetVenue(ctx context.Context, id string) (api.Venue, error)
}

// Cache stores venue metadata between resolutions.
type Cache interface {
	Get(ctx context.Context, id string) (api.Venue, bool)
	Set(ctx context.Context, v api.Venue)
}

// Resolver looks venues up cache-first and fetches only the ids it is
// missing, once per distinct id.
type Resolver struct {
	Fetch       Fetcher
	Cache       Cache
	Concurrency int
	Log         logrus.FieldLogger
}

// Resolve returns metadata keyed by venue id. A venue that cannot be fetched
// maps to nil; one failure never fails the whole list.
func (r *Resolver) Resolve(ctx context.Context, ids []string) map[string]*api.Venue {
	out := make(map[string]*api.Venue, len(ids))
	var missing []string
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, seen := out[id]; seen {
			continue
		}
		if v, ok := r.cacheGet(ctx, id); ok {
			v := v
			out[id] = &v
			continue
		}
		out[id] = nil
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return out
	}

	limit := r.Concurrency
	if limit < 1 {
		limit = DefaultConcurrency
	}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, id := range missing {
		id := id
		g.Go(func() error {
			v, err := r.Fetch.GetVenue(gctx, id)
			if err != nil {
				r.logger().WithField("venue_id", id).WithError(err).Warn("venues: lookup failed")
				return nil
			}
			if r.Cache != nil {
				r.Cache.Set(gctx, v)
			}
			mu.Lock()
			out[id] = &v
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (r *Resolver) cacheGet(ctx context.Context, id string) (api.Venue, bool) {
	if r.Cache == nil {
		return api.Venue{}, false
	}
	return r.Cache.Get(ctx, id)
}

func (r *Resolver) logger() logrus.FieldLogger {
	if r.Log == nil {
		return logrus.StandardLogger()
	}
	return r.Log
}
