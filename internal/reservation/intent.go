package reservation

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/example/snipe/internal/api"
)

// DefaultDropTime is used when a schedule has a date but no time.
const DefaultDropTime = "00:00"

// Eastern is the reference zone for drop times, independent of the local zone.
var Eastern = mustLoad("America/New_York")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("load %s: %v", name, err))
	}
	return loc
}

func (s DropSchedule) dropTime() string {
	if t := strings.TrimSpace(s.DropTime); t != "" {
		return t
	}
	return DefaultDropTime
}

// DropTimestamp resolves a schedule to an instant, reading the date and time
// in Eastern.
func DropTimestamp(s DropSchedule) (time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s.DropDate), Eastern)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid drop date %q (want YYYY-MM-DD)", s.DropDate)
	}
	h, m, err := parseClock(s.dropTime())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDropTime, s.DropTime)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, Eastern), nil
}

var slotLayouts = []string{
	"15:04",
	"15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"3:04 PM",
	"3:04PM",
	"3 PM",
	"3PM",
}

// ParseSlot extracts hour and minute from a slot string such as "19:30",
// "2026-02-14 19:30:00" or "7:30 PM".
func ParseSlot(slot string) (hour, minute int, err error) {
	s := strings.ToUpper(strings.TrimSpace(slot))
	for _, layout := range slotLayouts {
		if t, perr := time.Parse(layout, s); perr == nil {
			return t.Hour(), t.Minute(), nil
		}
	}
	return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeSlot, slot)
}

func parseClock(s string) (int, int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}

// BuildRequests validates the form and produces one job request per drop
// schedule that has a date.
func BuildRequests(f FormState, userID string) ([]api.CreateSnipeRequest, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	hour, minute, err := ParseSlot(f.TimeSlot)
	if err != nil {
		return nil, &ValidationError{Field: "timeSlot", Err: err}
	}

	var out []api.CreateSnipeRequest
	for i, s := range f.DropSchedules {
		if strings.TrimSpace(s.DropDate) == "" {
			continue
		}
		at, err := DropTimestamp(s)
		if err != nil {
			return nil, &ValidationError{Field: fmt.Sprintf("dropSchedules[%d]", i), Err: err}
		}
		out = append(out, api.CreateSnipeRequest{
			UserID:      userID,
			VenueID:     strings.TrimSpace(f.VenueID),
			PartySize:   f.PartySize,
			Date:        strings.TrimSpace(f.Date),
			Hour:        hour,
			Minute:      minute,
			WindowHours: f.WindowHours,
			SeatingType: strings.TrimSpace(f.SeatingType),
			DropDate:    strings.TrimSpace(s.DropDate),
			DropHour:    at.Hour(),
			DropMinute:  at.Minute(),
			DropAtMilli: at.UnixMilli(),
		})
	}
	return out, nil
}
