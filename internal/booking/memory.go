package booking

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campushub/booking-core/internal/pkg/apperror"
)

// MemoryStore keeps bookings in process. It is used when no database is
// configured and in tests.
type MemoryStore struct {
	mu       sync.RWMutex
	bookings map[string]*Booking
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bookings: make(map[string]*Booking),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithTx has no rollback; the overlap invariant is checked on each write.
func (m *MemoryStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *MemoryStore) GetByID(_ context.Context, id string) (*Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return b.Clone(), nil
}

func (m *MemoryStore) List(_ context.Context, filter Filter) ([]*Booking, int, error) {
	m.mu.RLock()
	var matched []*Booking
	for _, b := range m.bookings {
		if filter.RequesterID != "" && b.RequesterID != filter.RequesterID {
			continue
		}
		if filter.ResourceID != "" && b.ResourceID != filter.ResourceID {
			continue
		}
		if filter.Status != "" && string(b.Status) != filter.Status {
			continue
		}
		if filter.StartTime != nil && b.EndTime.Before(*filter.StartTime) {
			continue
		}
		if filter.EndTime != nil && b.StartTime.After(*filter.EndTime) {
			continue
		}
		matched = append(matched, b.Clone())
	}
	m.mu.RUnlock()

	desc := !strings.EqualFold(filter.SortOrder, "asc")
	sort.Slice(matched, func(i, j int) bool {
		a, b := sortKey(matched[i], filter.SortBy), sortKey(matched[j], filter.SortBy)
		if a.Equal(b) {
			return matched[i].ID < matched[j].ID
		}
		if desc {
			return a.After(b)
		}
		return a.Before(b)
	})

	total := len(matched)
	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	start := (page - 1) * size
	if start >= total {
		return []*Booking{}, total, nil
	}
	end := start + size
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func sortKey(b *Booking, field string) time.Time {
	switch field {
	case "end_time":
		return b.EndTime
	case "created_at":
		return b.CreatedAt
	default:
		return b.StartTime
	}
}

func (m *MemoryStore) ListActiveForResource(_ context.Context, resourceID string) ([]*Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Booking
	for _, b := range m.bookings {
		if b.ResourceID == resourceID && b.Status.IsActive() {
			out = append(out, b.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (m *MemoryStore) ListDue(_ context.Context, now time.Time, limit int) ([]*Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Booking
	for _, b := range m.bookings {
		switch {
		case b.Status == StatusConfirmed && !b.EndTime.After(now):
		case b.Status == StatusPending && !b.StartTime.After(now):
		default:
			continue
		}
		out = append(out, b.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) Insert(_ context.Context, b *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b.Status.IsActive() {
		if err := m.checkOverlapLocked(b); err != nil {
			return err
		}
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := m.now()
	b.CreatedAt = now
	b.UpdatedAt = now
	m.bookings[b.ID] = b.Clone()
	return nil
}

func (m *MemoryStore) UpdateStatus(_ context.Context, b *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.bookings[b.ID]
	if !ok {
		return ErrNotFound
	}
	if b.Status.IsActive() && !cur.Status.IsActive() {
		if err := m.checkOverlapLocked(b); err != nil {
			return err
		}
	}
	cur.Status = b.Status
	cur.CancellationReason = b.Clone().CancellationReason
	cur.CancelledAt = b.Clone().CancelledAt
	cur.ConfirmedBy = b.Clone().ConfirmedBy
	cur.UpdatedAt = m.now()
	b.UpdatedAt = cur.UpdatedAt
	return nil
}

func (m *MemoryStore) UpdateWindow(_ context.Context, b *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.bookings[b.ID]
	if !ok {
		return ErrNotFound
	}
	if b.Status.IsActive() {
		if err := m.checkOverlapLocked(b); err != nil {
			return err
		}
	}
	cp := b.Clone()
	cur.StartTime = cp.StartTime
	cur.EndTime = cp.EndTime
	cur.AttendeesCount = cp.AttendeesCount
	cur.TotalCost = cp.TotalCost
	cur.Status = cp.Status
	cur.ConfirmedBy = cp.ConfirmedBy
	cur.UpdatedAt = m.now()
	b.UpdatedAt = cur.UpdatedAt
	return nil
}

// checkOverlapLocked plays the role of the database exclusion constraint.
func (m *MemoryStore) checkOverlapLocked(b *Booking) error {
	var others []*Booking
	for _, o := range m.bookings {
		others = append(others, o)
	}
	if conflicts := FindConflicts(b.ResourceID, b.Window(), others, b.ID); len(conflicts) > 0 {
		return &apperror.ConflictError{BookingIDs: IDs(conflicts)}
	}
	return nil
}
