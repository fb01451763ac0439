package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/snipe/internal/api"
)

func TestMapStatus(t *testing.T) {
	tests := []struct {
		in   string
		want DisplayStatus
	}{
		{"pending", Scheduled},
		{"done", Succeeded},
		{"failed", Failed},
		{"error", Failed},
		{"", Scheduled},
		{"queued", Scheduled},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, MapStatus(tt.in))
		})
	}
}

func TestTimeLabelUsesEastern(t *testing.T) {
	// 2026-03-01 14:00 UTC is 09:00 EST.
	at := time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)

	pending := Job{Status: StatusPending, TargetTimestamp: at}
	assert.Equal(t, "Scheduled for Sun Mar 1, 2026 9:00 AM EST", TimeLabel(pending))

	done := Job{Status: StatusDone, TargetTimestamp: at}
	assert.Equal(t, "Ran at Sun Mar 1, 2026 9:00 AM EST", TimeLabel(done))

	assert.Empty(t, TimeLabel(Job{Status: StatusPending}))
}

type memStore struct{ jobs []Job }

func (m memStore) ListByUser(_ context.Context, userID string) ([]Job, error) {
	var out []Job
	for _, j := range m.jobs {
		if j.UserID == userID {
			out = append(out, j)
		}
	}
	return out, nil
}

func (m memStore) Get(_ context.Context, id string) (Job, error) {
	for _, j := range m.jobs {
		if j.ID == id {
			return j, nil
		}
	}
	return Job{}, ErrNotFound
}

func (m memStore) Close() error { return nil }

type countingResolver struct {
	mu    sync.Mutex
	calls [][]string
}

func (r *countingResolver) Resolve(_ context.Context, ids []string) map[string]*api.Venue {
	r.mu.Lock()
	r.calls = append(r.calls, ids)
	r.mu.Unlock()
	out := map[string]*api.Venue{}
	for _, id := range ids {
		if id == "missing" {
			out[id] = nil
			continue
		}
		out[id] = &api.Venue{ID: id, Name: "Venue " + id + " Name"}
	}
	return out
}

func TestListerSortsAndAttachesVenues(t *testing.T) {
	base := time.Date(2026, 2, 1, 5, 0, 0, 0, time.UTC)
	store := memStore{jobs: []Job{
		{ID: "1", UserID: "u", VenueID: "10", Status: "pending", TargetTimestamp: base},
		{ID: "2", UserID: "u", VenueID: "20", Status: "done", TargetTimestamp: base.Add(48 * time.Hour)},
		{ID: "3", UserID: "u", VenueID: "missing", Status: "error", TargetTimestamp: base.Add(24 * time.Hour)},
		{ID: "4", UserID: "other", VenueID: "10", Status: "pending", TargetTimestamp: base},
	}}
	res := &countingResolver{}
	l := &Lister{Store: store, Venues: res}

	views, err := l.List(context.Background(), "u")
	require.NoError(t, err)
	require.Len(t, views, 3)

	assert.Equal(t, []string{"2", "3", "1"}, []string{views[0].Job.ID, views[1].Job.ID, views[2].Job.ID})
	assert.Equal(t, Succeeded, views[0].Status)
	assert.Equal(t, Failed, views[1].Status)
	assert.Equal(t, Scheduled, views[2].Status)

	assert.Nil(t, views[1].Venue)
	assert.Equal(t, "Venue missing", views[1].VenueName())
	assert.Equal(t, "Venue 10 Name", views[2].VenueName())

	require.Len(t, res.calls, 1)
}

type fakeSummary struct {
	calls int
	err   error
}

func (f *fakeSummary) SummarizeSnipeLogs(_ context.Context, jobID string) (string, error) {
	f.calls++
	return "summary for " + jobID, f.err
}

func TestSummarize(t *testing.T) {
	ctx := context.Background()
	b := &fakeSummary{}

	_, err := Summarize(ctx, b, Job{ID: "1", Status: "pending"})
	assert.ErrorIs(t, err, ErrNotFailed)

	existing := "no tables released"
	got, err := Summarize(ctx, b, Job{ID: "2", Status: "failed", Summary: &existing})
	require.NoError(t, err)
	assert.Equal(t, existing, got)
	assert.Zero(t, b.calls)

	got, err = Summarize(ctx, b, Job{ID: "3", Status: "error"})
	require.NoError(t, err)
	assert.Equal(t, "summary for 3", got)
	assert.Equal(t, 1, b.calls)

	b.err = errors.New("boom")
	_, err = Summarize(ctx, b, Job{ID: "4", Status: "failed"})
	assert.Error(t, err)
}

func TestJobDocConversion(t *testing.T) {
	note := "table for two"
	d := jobDoc{
		UserID:          "u1",
		VenueID:         int64(1505),
		Date:            "2026-02-14",
		Hour:            19,
		Minute:          30,
		PartySize:       2,
		Status:          "pending",
		Note:            &note,
		TargetTimestamp: time.Date(2026, 1, 15, 15, 0, 0, 0, time.UTC).UnixMilli(),
	}
	j := d.toJob("job-1")
	assert.Equal(t, "job-1", j.ID)
	assert.Equal(t, "1505", j.VenueID)
	assert.Equal(t, "19:30", j.ReservationTime())
	assert.Equal(t, time.Date(2026, 1, 15, 15, 0, 0, 0, time.UTC), j.TargetTimestamp)
	assert.Equal(t, &note, j.Note)

	assert.Equal(t, "abc", venueIDString("abc"))
	assert.Equal(t, "42", venueIDString(float64(42)))
	assert.Equal(t, "", venueIDString(nil))
	assert.True(t, jobDoc{}.toJob("x").TargetTimestamp.IsZero())
}

type recordingUpserter struct {
	got    []string
	failOn string
}

func (r *recordingUpserter) Upsert(_ context.Context, j Job) error {
	if j.ID == r.failOn {
		return errors.New("write failed")
	}
	r.got = append(r.got, j.ID)
	return nil
}

func TestSync(t *testing.T) {
	src := memStore{jobs: []Job{{ID: "1", UserID: "u"}, {ID: "2", UserID: "u"}, {ID: "3", UserID: "v"}}}

	dst := &recordingUpserter{}
	n, err := Sync(context.Background(), src, dst, "u")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"1", "2"}, dst.got)

	dst = &recordingUpserter{failOn: "2"}
	n, err = Sync(context.Background(), src, dst, "u")
	assert.Error(t, err)
	assert.Equal(t, 1, n)
}
