package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/snipe/internal/api"
)

// ErrNoBackend is returned when a Scheduler has no Backend.
var ErrNoBackend = errors.New("reservation: backend is nil")

// Backend is the part of the API client the scheduler needs.
type Backend interface {
	CreateSnipe(ctx context.Context, req api.CreateSnipeRequest) (api.SnipeAck, error)
	UpdateSnipe(ctx context.Context, req api.UpdateSnipeRequest) (api.SnipeAck, error)
	CancelSnipe(ctx context.Context, jobID string) error
}

// Confirmation is shown to the user once a job is accepted.
type Confirmation struct {
	JobID    string    `json:"jobId"`
	DropDate string    `json:"dropDate"`
	Target   time.Time `json:"targetTimestamp"`
}

// SubmitError reports which schedule failed. Jobs created before the failure
// are kept; the form stays editable for a manual retry.
type SubmitError struct {
	Schedule int
	Created  []Confirmation
	Err      error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("schedule %d: %v", e.Schedule+1, e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }

// Scheduler submits reservation forms as snipe jobs.
type Scheduler struct {
	Backend Backend
	UserID  string
	Log     logrus.FieldLogger
}

func (s Scheduler) logger() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}

// Submit validates the form and creates one job per drop schedule. It stops
// at the first backend failure. Nothing is retried.
func (s Scheduler) Submit(ctx context.Context, f FormState) ([]Confirmation, error) {
	if s.Backend == nil {
		return nil, ErrNoBackend
	}
	reqs, err := BuildRequests(f, s.UserID)
	if err != nil {
		return nil, err
	}

	out := make([]Confirmation, 0, len(reqs))
	for i, req := range reqs {
		ack, err := s.Backend.CreateSnipe(ctx, req)
		if err != nil {
			s.logger().WithFields(logrus.Fields{
				"venue_id":  req.VenueID,
				"drop_date": req.DropDate,
			}).WithError(err).Warn("snipe: create failed")
			return out, &SubmitError{Schedule: i, Created: out, Err: err}
		}
		out = append(out, confirmation(ack, req))
		s.logger().WithFields(logrus.Fields{
			"job_id":   ack.JobID,
			"venue_id": req.VenueID,
			"drop_at":  req.DropAt().Format(time.RFC3339),
		}).Info("snipe: scheduled")
	}
	return out, nil
}

// Update replaces a pending job with the form's first drop schedule.
func (s Scheduler) Update(ctx context.Context, jobID string, f FormState) (Confirmation, error) {
	if s.Backend == nil {
		return Confirmation{}, ErrNoBackend
	}
	if jobID == "" {
		return Confirmation{}, errors.New("job id required")
	}
	reqs, err := BuildRequests(f, s.UserID)
	if err != nil {
		return Confirmation{}, err
	}
	req := reqs[0]
	ack, err := s.Backend.UpdateSnipe(ctx, api.UpdateSnipeRequest{JobID: jobID, CreateSnipeRequest: req})
	if err != nil {
		return Confirmation{}, err
	}
	return confirmation(ack, req), nil
}

// Cancel cancels a pending job.
func (s Scheduler) Cancel(ctx context.Context, jobID string) error {
	if s.Backend == nil {
		return ErrNoBackend
	}
	if err := s.Backend.CancelSnipe(ctx, jobID); err != nil {
		return err
	}
	s.logger().WithField("job_id", jobID).Info("snipe: cancelled")
	return nil
}

func confirmation(ack api.SnipeAck, req api.CreateSnipeRequest) Confirmation {
	target := ack.Target()
	if target.IsZero() {
		target = req.DropAt()
	}
	return Confirmation{JobID: ack.JobID, DropDate: req.DropDate, Target: target.In(Eastern)}
}
