package api

import (
	"context"
	"net/http"
)

type summaryResponse struct {
	Summary string `json:"summary"`
	Text    string `json:"text"`
}

func (s summaryResponse) text() string {
	if s.Summary != "" {
		return s.Summary
	}
	return s.Text
}

// VenueInsight asks the backend for a generated write-up of a venue.
func (c *Client) VenueInsight(ctx context.Context, venueName, city string) (string, error) {
	body := map[string]string{"venue_name": venueName, "city": city}
	var out summaryResponse
	if err := c.call(ctx, http.MethodPost, "/gemini_search", nil, body, &out, "Failed to load venue insight"); err != nil {
		return "", err
	}
	return out.text(), nil
}

// SummarizeSnipeLogs asks the backend to explain why a job failed.
func (c *Client) SummarizeSnipeLogs(ctx context.Context, jobID string) (string, error) {
	if jobID == "" {
		return "", errJobIDRequired
	}
	body := map[string]string{"job_id": jobID, "user_id": c.creds.UserID}
	var out summaryResponse
	if err := c.call(ctx, http.MethodPost, "/summarize_snipe_logs", nil, body, &out, "Failed to summarize snipe logs"); err != nil {
		return "", err
	}
	return out.text(), nil
}
