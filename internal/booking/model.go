package booking

import (
	"net/http"
	"time"

	"github.com/campushub/booking-core/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.New(http.StatusNotFound, "booking not found")
	ErrResourceNotFound = apperror.New(http.StatusNotFound, "resource not found")
	ErrInvalidStatus    = apperror.New(http.StatusBadRequest, "invalid booking status")
	ErrInvalidTimeRange = apperror.New(http.StatusBadRequest, "start time must be before end time")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// transitions is the whole state machine; terminal states have no entry.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled, StatusCompleted},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// IsActive reports whether a booking in this status blocks its time slot.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

// IsTerminal reports whether no transition leaves this status.
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s Status) CanTransitionTo(next Status) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// ActiveStatuses are the statuses that take part in conflict checks.
var ActiveStatuses = []Status{StatusPending, StatusConfirmed}

// Window is a half-open time interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Duration is End - Start; it is non-positive for malformed windows.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Booking is a time-bounded reservation of one resource by one requester.
type Booking struct {
	ID             string
	ResourceID     string
	RequesterID    string
	StartTime      time.Time
	EndTime        time.Time
	Status         Status
	Purpose        *string
	AttendeesCount *int
	TotalCost      *float64

	CancellationReason *string
	CancelledAt        *time.Time
	ConfirmedBy        *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Window returns the booked interval.
func (b *Booking) Window() Window {
	return Window{Start: b.StartTime, End: b.EndTime}
}

// Clone returns a deep copy so stores never hand out shared pointers.
func (b *Booking) Clone() *Booking {
	cp := *b
	if b.Purpose != nil {
		v := *b.Purpose
		cp.Purpose = &v
	}
	if b.AttendeesCount != nil {
		v := *b.AttendeesCount
		cp.AttendeesCount = &v
	}
	if b.TotalCost != nil {
		v := *b.TotalCost
		cp.TotalCost = &v
	}
	if b.CancellationReason != nil {
		v := *b.CancellationReason
		cp.CancellationReason = &v
	}
	if b.CancelledAt != nil {
		v := *b.CancelledAt
		cp.CancelledAt = &v
	}
	if b.ConfirmedBy != nil {
		v := *b.ConfirmedBy
		cp.ConfirmedBy = &v
	}
	return &cp
}

// Resource is the part of a catalog resource the booking core reads.
type Resource struct {
	ID         string
	Capacity   *int
	Available  bool
	HourlyRate *float64
}

type Filter struct {
	RequesterID string
	ResourceID  string
	Status      string
	StartTime   *time.Time // Bookings ending after this instant
	EndTime     *time.Time // Bookings starting before this instant
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}
