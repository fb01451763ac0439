package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"
	_ "time/tzdata"
)

// Backend status values.
const (
	StatusPending = "pending"
	StatusDone    = "done"
	StatusFailed  = "failed"
	StatusError   = "error"
)

// DisplayStatus is what the reservation list shows.
type DisplayStatus string

const (
	Scheduled DisplayStatus = "Scheduled"
	Succeeded DisplayStatus = "Succeeded"
	Failed    DisplayStatus = "Failed"
)

var ErrNotFound = errors.New("job not found")

// Job is a snipe job as the backend stores it.
type Job struct {
	ID              string
	UserID          string
	VenueID         string
	Date            string // YYYY-MM-DD
	Hour            int
	Minute          int
	PartySize       int
	Status          string
	Note            *string
	Summary         *string
	TargetTimestamp time.Time
	CreatedAt       time.Time
}

// Store reads jobs for a user.
type Store interface {
	ListByUser(ctx context.Context, userID string) ([]Job, error)
	Get(ctx context.Context, id string) (Job, error)
	Close() error
}

var eastern = mustLoad("America/New_York")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("load %s: %v", name, err))
	}
	return loc
}

// MapStatus maps a backend status to its display status. Unknown values are
// treated as not yet terminal.
func MapStatus(status string) DisplayStatus {
	switch status {
	case StatusDone:
		return Succeeded
	case StatusFailed, StatusError:
		return Failed
	default:
		return Scheduled
	}
}

// TimeLabel renders when the job runs or ran, in Eastern.
func TimeLabel(j Job) string {
	if j.TargetTimestamp.IsZero() {
		return ""
	}
	at := j.TargetTimestamp.In(eastern).Format("Mon Jan 2, 2006 3:04 PM MST")
	if MapStatus(j.Status) == Scheduled {
		return "Scheduled for " + at
	}
	return "Ran at " + at
}

// Terminal reports whether the job will not change status again.
func (j Job) Terminal() bool {
	return MapStatus(j.Status) != Scheduled
}

// ReservationTime is the target seating time as HH:MM.
func (j Job) ReservationTime() string {
	return fmt.Sprintf("%02d:%02d", j.Hour, j.Minute)
}
