// Package reservation turns the reservation form into snipe jobs.
package reservation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrMissingTargetDate = errors.New("reservation date is required")
	ErrMissingDropDate   = errors.New("at least one drop date is required")
	ErrDropAfterTarget   = errors.New("drop date is after the reservation date")
	ErrInvalidTimeSlot   = errors.New("invalid time slot")
	ErrInvalidDropTime   = errors.New("invalid drop time")
)

// ValidationError points at the form field that blocked submission.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// DropSchedule is one moment the backend should try to book.
type DropSchedule struct {
	DropDate string `json:"dropDate" validate:"omitempty,datetime=2006-01-02"`
	DropTime string `json:"dropTime"` // HH:MM Eastern, defaults to DefaultDropTime
}

// FormState is the reservation form.
type FormState struct {
	VenueID       string         `json:"venueId" validate:"required"`
	PartySize     int            `json:"partySize" validate:"min=1,max=20"`
	Date          string         `json:"date" validate:"omitempty,datetime=2006-01-02"`
	TimeSlot      string         `json:"timeSlot" validate:"required"`
	WindowHours   float64        `json:"windowHours" validate:"gte=0,lte=12"`
	SeatingType   string         `json:"seatingType" validate:"omitempty,max=64"`
	DropSchedules []DropSchedule `json:"dropSchedules" validate:"dive"`
}

// DefaultForm is what the form shows before the user edits it.
func DefaultForm(venueID string) FormState {
	return FormState{
		VenueID:       venueID,
		PartySize:     2,
		TimeSlot:      "19:00",
		WindowHours:   1,
		DropSchedules: []DropSchedule{{DropTime: DefaultDropTime}},
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the form before anything is sent. The returned error is a
// *ValidationError.
func (f FormState) Validate() error {
	if strings.TrimSpace(f.Date) == "" {
		return &ValidationError{Field: "date", Err: ErrMissingTargetDate}
	}
	if !f.hasDropDate() {
		return &ValidationError{Field: "dropSchedules", Err: ErrMissingDropDate}
	}

	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &ValidationError{Field: fieldPath(fe), Err: fmt.Errorf("failed %q check", fe.Tag())}
		}
		return err
	}

	if _, _, err := ParseSlot(f.TimeSlot); err != nil {
		return &ValidationError{Field: "timeSlot", Err: err}
	}
	for i, s := range f.DropSchedules {
		if strings.TrimSpace(s.DropDate) == "" {
			continue
		}
		field := fmt.Sprintf("dropSchedules[%d]", i)
		if _, _, err := parseClock(s.dropTime()); err != nil {
			return &ValidationError{Field: field + ".dropTime", Err: fmt.Errorf("%w: %q", ErrInvalidDropTime, s.DropTime)}
		}
		// Both are YYYY-MM-DD, so string order is date order.
		if s.DropDate > f.Date {
			return &ValidationError{Field: field + ".dropDate", Err: ErrDropAfterTarget}
		}
	}
	return nil
}

func (f FormState) hasDropDate() bool {
	for _, s := range f.DropSchedules {
		if strings.TrimSpace(s.DropDate) != "" {
			return true
		}
	}
	return false
}

// fieldPath strips the struct name from the validator namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}
