package api

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// CreateSnipeRequest asks the backend to attempt a booking at the drop instant.
type CreateSnipeRequest struct {
	UserID      string  `json:"user_id"`
	VenueID     string  `json:"venue_id"`
	PartySize   int     `json:"party_size"`
	Date        string  `json:"date"` // target reservation date, YYYY-MM-DD
	Hour        int     `json:"hour"`
	Minute      int     `json:"minute"`
	WindowHours float64 `json:"window_hours"`
	SeatingType string  `json:"seating_type,omitempty"`
	DropDate    string  `json:"drop_date"`
	DropHour    int     `json:"drop_hour"`
	DropMinute  int     `json:"drop_minute"`
	DropAtMilli int64   `json:"target_timestamp"`
}

// DropAt is the instant the backend should fire the attempt.
func (r CreateSnipeRequest) DropAt() time.Time {
	return time.UnixMilli(r.DropAtMilli)
}

// SnipeAck is the backend's acknowledgement of a created or updated job.
type SnipeAck struct {
	JobID           string `json:"job_id"`
	TargetTimestamp int64  `json:"target_timestamp"` // epoch millis
}

// Target returns the acknowledged drop instant.
func (a SnipeAck) Target() time.Time {
	if a.TargetTimestamp == 0 {
		return time.Time{}
	}
	return time.UnixMilli(a.TargetTimestamp)
}

// UpdateSnipeRequest replaces the parameters of a pending job.
type UpdateSnipeRequest struct {
	JobID string `json:"job_id"`
	CreateSnipeRequest
}

var errJobIDRequired = errors.New("job id required")

// CreateSnipe schedules a snipe job.
func (c *Client) CreateSnipe(ctx context.Context, req CreateSnipeRequest) (SnipeAck, error) {
	if req.UserID == "" {
		req.UserID = c.creds.UserID
	}
	var ack SnipeAck
	if err := c.call(ctx, http.MethodPost, "/create_snipe", nil, req, &ack, "Failed to schedule reservation"); err != nil {
		return SnipeAck{}, err
	}
	if ack.JobID == "" {
		return SnipeAck{}, &APIError{Message: "backend did not return a job id"}
	}
	return ack, nil
}

// UpdateSnipe changes a pending job.
func (c *Client) UpdateSnipe(ctx context.Context, req UpdateSnipeRequest) (SnipeAck, error) {
	if req.JobID == "" {
		return SnipeAck{}, errJobIDRequired
	}
	if req.UserID == "" {
		req.UserID = c.creds.UserID
	}
	var ack SnipeAck
	if err := c.call(ctx, http.MethodPost, "/update_snipe", nil, req, &ack, "Failed to update reservation"); err != nil {
		return SnipeAck{}, err
	}
	if ack.JobID == "" {
		ack.JobID = req.JobID
	}
	return ack, nil
}

// CancelSnipe cancels a pending job.
func (c *Client) CancelSnipe(ctx context.Context, jobID string) error {
	if jobID == "" {
		return errJobIDRequired
	}
	body := map[string]string{"job_id": jobID, "user_id": c.creds.UserID}
	return c.call(ctx, http.MethodPost, "/cancel_snipe", nil, body, nil, "Failed to cancel reservation")
}
