package jobs

import (
	"context"
	"errors"
	"strings"
)

// SummaryBackend asks the backend to explain a job's run logs.
type SummaryBackend interface {
	SummarizeSnipeLogs(ctx context.Context, jobID string) (string, error)
}

var ErrNotFailed = errors.New("job has not failed")

// Summarize returns the failure summary for a failed job, asking the backend
// only when the job does not carry one yet.
func Summarize(ctx context.Context, b SummaryBackend, j Job) (string, error) {
	if MapStatus(j.Status) != Failed {
		return "", ErrNotFailed
	}
	if j.Summary != nil && strings.TrimSpace(*j.Summary) != "" {
		return *j.Summary, nil
	}
	return b.SummarizeSnipeLogs(ctx, j.ID)
}
