package booking

import (
	"context"
	"time"
)

// Store persists bookings. Implementations must reject an insert or window
// update that would make two active bookings of one resource overlap,
// returning *apperror.ConflictError.
type Store interface {
	// WithTx runs fn in one transaction; nested calls join the outer one.
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	ListActiveForResource(ctx context.Context, resourceID string) ([]*Booking, error)
	// ListDue returns confirmed bookings with end <= now and pending
	// bookings with start <= now.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*Booking, error)

	Insert(ctx context.Context, b *Booking) error
	// UpdateStatus writes status, cancellation and confirmation fields.
	UpdateStatus(ctx context.Context, b *Booking) error
	// UpdateWindow writes start, end, attendees, cost, status and
	// confirmation.
	UpdateWindow(ctx context.Context, b *Booking) error
}
