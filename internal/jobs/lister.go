package jobs

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/example/snipe/internal/api"
)

// VenueResolver returns venue metadata keyed by id; unresolved ids map to nil.
type VenueResolver interface {
	Resolve(ctx context.Context, ids []string) map[string]*api.Venue
}

// View is one row of the reservation list.
type View struct {
	Job       Job           `json:"job"`
	Venue     *api.Venue    `json:"venue,omitempty"`
	Status    DisplayStatus `json:"status"`
	TimeLabel string        `json:"timeLabel"`
}

// VenueName falls back to the venue id when metadata is missing.
func (v View) VenueName() string {
	if v.Venue != nil && v.Venue.Name != "" {
		return v.Venue.Name
	}
	return "Venue " + v.Job.VenueID
}

// Lister builds the reservation list for a user.
type Lister struct {
	Store  Store
	Venues VenueResolver
	Log    logrus.FieldLogger
}

// List loads the user's jobs, attaches venue metadata and derived status, and
// sorts newest target first. Venue lookups happen once per distinct venue.
func (l *Lister) List(ctx context.Context, userID string) ([]View, error) {
	js, err := l.Store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return l.Views(ctx, js), nil
}

// Views transforms already-loaded jobs.
func (l *Lister) Views(ctx context.Context, js []Job) []View {
	ids := make([]string, 0, len(js))
	for _, j := range js {
		ids = append(ids, j.VenueID)
	}
	var venues map[string]*api.Venue
	if l.Venues != nil && len(ids) > 0 {
		venues = l.Venues.Resolve(ctx, ids)
	}

	out := make([]View, 0, len(js))
	for _, j := range js {
		out = append(out, View{
			Job:       j,
			Venue:     venues[j.VenueID],
			Status:    MapStatus(j.Status),
			TimeLabel: TimeLabel(j),
		})
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Job.TargetTimestamp.After(out[b].Job.TargetTimestamp)
	})
	return out
}
