package reservation

import (
	"time"

	"github.com/example/snipe/internal/api"
)

// ChooseSlot returns the slot closest to target ("HH:MM") that lies within
// windowHours of it. Ties go to the earlier slot. Slots that cannot be
// parsed are ignored.
func ChooseSlot(target string, windowHours float64, slots []api.Slot) (api.Slot, bool) {
	th, tm, err := ParseSlot(target)
	if err != nil || len(slots) == 0 {
		return api.Slot{}, false
	}
	want := th*60 + tm
	limit := int(windowHours * 60)

	var (
		best     api.Slot
		bestDist = -1
		bestMin  int
	)
	for _, s := range slots {
		h, m, err := ParseSlot(s.Time)
		if err != nil {
			continue
		}
		at := h*60 + m
		d := at - want
		if d < 0 {
			d = -d
		}
		if d > limit {
			continue
		}
		if bestDist < 0 || d < bestDist || (d == bestDist && at < bestMin) {
			best, bestDist, bestMin = s, d, at
		}
	}
	return best, bestDist >= 0
}

// SlotWindow renders the acceptable range around target, e.g. "18:30-20:30".
func SlotWindow(target string, windowHours float64) string {
	h, m, err := ParseSlot(target)
	if err != nil {
		return ""
	}
	base := time.Date(2000, 1, 1, h, m, 0, 0, time.UTC)
	w := time.Duration(windowHours * float64(time.Hour))
	from, to := base.Add(-w), base.Add(w)
	if from.Day() != base.Day() {
		from = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if to.Day() != base.Day() {
		to = time.Date(2000, 1, 1, 23, 59, 0, 0, time.UTC)
	}
	return from.Format("15:04") + "-" + to.Format("15:04")
}
