package jobs

import (
	"context"
	"fmt"
)

// Upserter accepts jobs copied from another store.
type Upserter interface {
	Upsert(ctx context.Context, j Job) error
}

// Sync copies a user's jobs from src into dst and returns how many were written.
func Sync(ctx context.Context, src Store, dst Upserter, userID string) (int, error) {
	js, err := src.ListByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	for i, j := range js {
		if err := dst.Upsert(ctx, j); err != nil {
			return i, fmt.Errorf("upsert job %s: %w", j.ID, err)
		}
	}
	return len(js), nil
}
