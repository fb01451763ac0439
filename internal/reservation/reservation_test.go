package reservation

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/snipe/internal/api"
)

func validForm() FormState {
	f := DefaultForm("1505")
	f.Date = "2026-02-14"
	f.TimeSlot = "19:30"
	f.DropSchedules = []DropSchedule{{DropDate: "2026-01-15", DropTime: "10:00"}}
	return f
}

func fieldOf(t *testing.T, err error) string {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "want *ValidationError, got %v", err)
	return verr.Field
}

func TestValidateRequiresDateThenDrop(t *testing.T) {
	f := DefaultForm("1505")
	err := f.Validate()
	assert.ErrorIs(t, err, ErrMissingTargetDate)
	assert.Equal(t, "date", fieldOf(t, err))

	f.Date = "2026-02-14"
	err = f.Validate()
	assert.ErrorIs(t, err, ErrMissingDropDate)
	assert.Equal(t, "dropSchedules", fieldOf(t, err))

	f.DropSchedules = append(f.DropSchedules, DropSchedule{DropDate: "2026-01-15"})
	assert.NoError(t, f.Validate())
}

func TestValidateFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*FormState)
		field  string
	}{
		{"venue", func(f *FormState) { f.VenueID = "" }, "venueId"},
		{"party size", func(f *FormState) { f.PartySize = 0 }, "partySize"},
		{"bad date", func(f *FormState) { f.Date = "14/02/2026" }, "date"},
		{"window", func(f *FormState) { f.WindowHours = 24 }, "windowHours"},
		{"bad drop date", func(f *FormState) { f.DropSchedules[0].DropDate = "2026-1-15" }, "dropSchedules[0].dropDate"},
		{"slot", func(f *FormState) { f.TimeSlot = "dinner" }, "timeSlot"},
		{"drop time", func(f *FormState) { f.DropSchedules[0].DropTime = "25:00" }, "dropSchedules[0].dropTime"},
		{"drop after target", func(f *FormState) { f.DropSchedules[0].DropDate = "2026-03-01" }, "dropSchedules[0].dropDate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validForm()
			tt.mutate(&f)
			assert.Equal(t, tt.field, fieldOf(t, f.Validate()))
		})
	}

	f := validForm()
	f.DropSchedules[0].DropDate = "2026-03-01"
	assert.ErrorIs(t, f.Validate(), ErrDropAfterTarget)
}

func TestDropTimestampIsEastern(t *testing.T) {
	at, err := DropTimestamp(DropSchedule{DropDate: "2026-01-15", DropTime: "10:00"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 15, 15, 0, 0, 0, time.UTC), at.UTC())

	// Summer is EDT and the time defaults to midnight.
	at, err = DropTimestamp(DropSchedule{DropDate: "2026-07-01"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 7, 1, 4, 0, 0, 0, time.UTC), at.UTC())

	_, err = DropTimestamp(DropSchedule{DropDate: "soon"})
	assert.Error(t, err)
	_, err = DropTimestamp(DropSchedule{DropDate: "2026-07-01", DropTime: "7pm"})
	assert.ErrorIs(t, err, ErrInvalidDropTime)
}

func TestParseSlot(t *testing.T) {
	tests := []struct {
		in         string
		hour, mins int
	}{
		{"19:30", 19, 30},
		{"19:30:00", 19, 30},
		{"2026-02-14 19:30:00", 19, 30},
		{"2026-02-14T20:15", 20, 15},
		{"7:30 pm", 19, 30},
		{"9PM", 21, 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			h, m, err := ParseSlot(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.hour, h)
			assert.Equal(t, tt.mins, m)
		})
	}
	_, _, err := ParseSlot("noon")
	assert.ErrorIs(t, err, ErrInvalidTimeSlot)
}

func TestBuildRequestsSkipsUndatedSchedules(t *testing.T) {
	f := validForm()
	f.SeatingType = " Bar "
	f.DropSchedules = append(f.DropSchedules, DropSchedule{DropTime: "09:00"}, DropSchedule{DropDate: "2026-01-16"})

	reqs, err := BuildRequests(f, "u1")
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, "u1", reqs[0].UserID)
	assert.Equal(t, 19, reqs[0].Hour)
	assert.Equal(t, 30, reqs[0].Minute)
	assert.Equal(t, "Bar", reqs[0].SeatingType)
	assert.Equal(t, 10, reqs[0].DropHour)
	assert.Equal(t, "2026-01-16", reqs[1].DropDate)
	assert.Equal(t, 0, reqs[1].DropHour)
	assert.Equal(t, time.Date(2026, 1, 16, 5, 0, 0, 0, time.UTC), reqs[1].DropAt().UTC())
}

type fakeBackend struct {
	created  []api.CreateSnipeRequest
	failAt   int
	updated  []api.UpdateSnipeRequest
	canceled []string
}

func (b *fakeBackend) CreateSnipe(_ context.Context, req api.CreateSnipeRequest) (api.SnipeAck, error) {
	if b.failAt > 0 && len(b.created)+1 == b.failAt {
		return api.SnipeAck{}, &api.APIError{Status: 500, Message: "Failed to schedule reservation"}
	}
	b.created = append(b.created, req)
	return api.SnipeAck{JobID: "job-" + req.DropDate}, nil
}

func (b *fakeBackend) UpdateSnipe(_ context.Context, req api.UpdateSnipeRequest) (api.SnipeAck, error) {
	b.updated = append(b.updated, req)
	return api.SnipeAck{JobID: req.JobID, TargetTimestamp: req.DropAtMilli}, nil
}

func (b *fakeBackend) CancelSnipe(_ context.Context, id string) error {
	b.canceled = append(b.canceled, id)
	return nil
}

func quietLog() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestSubmitCreatesOneJobPerSchedule(t *testing.T) {
	b := &fakeBackend{}
	s := Scheduler{Backend: b, UserID: "u1", Log: quietLog()}
	f := validForm()
	f.DropSchedules = append(f.DropSchedules, DropSchedule{DropDate: "2026-01-16", DropTime: "10:00"})

	confs, err := s.Submit(context.Background(), f)
	require.NoError(t, err)
	require.Len(t, confs, 2)
	assert.Equal(t, "job-2026-01-15", confs[0].JobID)
	assert.Equal(t, Eastern, confs[0].Target.Location())
	assert.Equal(t, 10, confs[0].Target.Hour())
	assert.Len(t, b.created, 2)
}

func TestSubmitStopsAtFirstFailure(t *testing.T) {
	b := &fakeBackend{failAt: 2}
	s := Scheduler{Backend: b, UserID: "u1", Log: quietLog()}
	f := validForm()
	f.DropSchedules = append(f.DropSchedules,
		DropSchedule{DropDate: "2026-01-16"},
		DropSchedule{DropDate: "2026-01-17"},
	)

	confs, err := s.Submit(context.Background(), f)
	var serr *SubmitError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, 1, serr.Schedule)
	assert.Len(t, serr.Created, 1)
	assert.Len(t, confs, 1)
	assert.Len(t, b.created, 1)
	assert.Contains(t, err.Error(), "schedule 2")

	var apiErr *api.APIError
	assert.True(t, errors.As(err, &apiErr))
}

func TestSubmitInvalidFormMakesNoCalls(t *testing.T) {
	b := &fakeBackend{}
	s := Scheduler{Backend: b, Log: quietLog()}
	_, err := s.Submit(context.Background(), DefaultForm("1505"))
	assert.ErrorIs(t, err, ErrMissingTargetDate)
	assert.Empty(t, b.created)

	_, err = Scheduler{}.Submit(context.Background(), validForm())
	assert.ErrorIs(t, err, ErrNoBackend)
}

func TestUpdateAndCancelWithoutBackend(t *testing.T) {
	_, err := Scheduler{}.Update(context.Background(), "job-1", validForm())
	assert.ErrorIs(t, err, ErrNoBackend)
	assert.ErrorIs(t, Scheduler{}.Cancel(context.Background(), "job-1"), ErrNoBackend)
}

func TestUpdateAndCancel(t *testing.T) {
	b := &fakeBackend{}
	s := Scheduler{Backend: b, UserID: "u1", Log: quietLog()}

	_, err := s.Update(context.Background(), "", validForm())
	assert.Error(t, err)

	conf, err := s.Update(context.Background(), "job-1", validForm())
	require.NoError(t, err)
	assert.Equal(t, "job-1", conf.JobID)
	assert.Equal(t, time.Date(2026, 1, 15, 15, 0, 0, 0, time.UTC), conf.Target.UTC())
	require.Len(t, b.updated, 1)
	assert.Equal(t, "job-1", b.updated[0].JobID)

	require.NoError(t, s.Cancel(context.Background(), "job-1"))
	assert.Equal(t, []string{"job-1"}, b.canceled)
}

func TestChooseSlot(t *testing.T) {
	slots := []api.Slot{
		{Time: "2026-02-14 17:00:00"},
		{Time: "2026-02-14 18:45:00"},
		{Time: "2026-02-14 20:15:00"},
		{Time: "late"},
	}
	s, ok := ChooseSlot("19:30", 1, slots)
	require.True(t, ok)
	assert.Equal(t, "2026-02-14 18:45:00", s.Time)

	_, ok = ChooseSlot("22:30", 1, slots)
	assert.False(t, ok)
	_, ok = ChooseSlot("dinner", 1, slots)
	assert.False(t, ok)

	assert.Equal(t, "18:30-20:30", SlotWindow("19:30", 1))
	assert.Equal(t, "00:00-01:30", SlotWindow("00:30", 1))
}
