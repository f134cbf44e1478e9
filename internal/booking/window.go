package booking

import (
	"fmt"
	"time"

	"github.com/campushub/booking-core/internal/pkg/apperror"
)

const (
	DefaultMinDuration = 30 * time.Minute
	DefaultMaxDuration = 8 * time.Hour
)

// Field keys used in ValidationResult.FieldErrors.
const (
	FieldStart          = "start"
	FieldEnd            = "end"
	FieldAttendeesCount = "attendeesCount"
	FieldResource       = "resource"
)

// ValidationResult lists every violated rule of a proposed booking.
type ValidationResult struct {
	OK          bool
	FieldErrors map[string]string
}

// Err returns a *apperror.ValidationError, or nil when the result is OK.
func (r ValidationResult) Err() error {
	if r.OK {
		return nil
	}
	return apperror.NewValidationError(r.FieldErrors)
}

// Validator checks a proposed window against structural rules and the
// single resource being booked. It holds no state besides its limits.
type Validator struct {
	MinDuration time.Duration
	MaxDuration time.Duration
}

// NewValidator returns a validator with the 30 minute / 8 hour limits.
func NewValidator() *Validator {
	return &Validator{MinDuration: DefaultMinDuration, MaxDuration: DefaultMaxDuration}
}

// Validate evaluates every rule independently. The duration rules only run
// when the window is well ordered; otherwise "end" already carries the
// ordering error.
func (v *Validator) Validate(w Window, attendees *int, res Resource, now time.Time) ValidationResult {
	errs := make(map[string]string)

	ordered := w.Start.Before(w.End)
	if !ordered {
		errs[FieldEnd] = "end time must be after start time"
	}

	if w.Start.Before(now) {
		errs[FieldStart] = "start time cannot be in the past"
	}

	if ordered {
		d := w.Duration()
		if d < v.MinDuration {
			errs[FieldEnd] = fmt.Sprintf("minimum booking duration is %s", humanDuration(v.MinDuration))
		} else if d > v.MaxDuration {
			errs[FieldEnd] = fmt.Sprintf("maximum booking duration is %s", humanDuration(v.MaxDuration))
		}
	}

	if res.Capacity != nil && attendees != nil {
		switch {
		case *attendees < 1:
			errs[FieldAttendeesCount] = "attendees count must be at least 1"
		case *attendees > *res.Capacity:
			errs[FieldAttendeesCount] = fmt.Sprintf("attendees count exceeds resource capacity of %d", *res.Capacity)
		}
	}

	if !res.Available {
		errs[FieldResource] = "resource is not available for booking"
	}

	return ValidationResult{OK: len(errs) == 0, FieldErrors: errs}
}

// humanDuration renders whole hours and minutes the way users read them.
func humanDuration(d time.Duration) string {
	if d%time.Hour == 0 {
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	}
	m := int(d / time.Minute)
	if m == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", m)
}
