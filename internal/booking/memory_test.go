package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/booking-core/internal/pkg/apperror"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first := &Booking{ResourceID: "r1", RequesterID: "u1", StartTime: jan10(10, 0), EndTime: jan10(11, 0), Status: StatusPending}
	require.NoError(t, store.Insert(ctx, first))
	require.NotEmpty(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	t.Run("insert rejects overlap", func(t *testing.T) {
		dup := &Booking{ResourceID: "r1", RequesterID: "u2", StartTime: jan10(10, 30), EndTime: jan10(11, 30), Status: StatusPending}
		err := store.Insert(ctx, dup)
		var conflict *apperror.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, []string{first.ID}, conflict.BookingIDs)
	})

	t.Run("returned bookings are copies", func(t *testing.T) {
		got, err := store.GetByID(ctx, first.ID)
		require.NoError(t, err)
		got.Status = StatusCancelled

		again, err := store.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, again.Status)
	})

	t.Run("window update rejects overlap", func(t *testing.T) {
		second := &Booking{ResourceID: "r1", RequesterID: "u2", StartTime: jan10(12, 0), EndTime: jan10(13, 0), Status: StatusPending}
		require.NoError(t, store.Insert(ctx, second))

		second.StartTime = jan10(10, 45)
		var conflict *apperror.ConflictError
		require.ErrorAs(t, store.UpdateWindow(ctx, second), &conflict)
	})

	t.Run("list filters and paginates", func(t *testing.T) {
		list, total, err := store.List(ctx, Filter{ResourceID: "r1", SortOrder: "asc", PageSize: 1})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		require.Len(t, list, 1)
		assert.Equal(t, first.ID, list[0].ID)

		list, _, err = store.List(ctx, Filter{RequesterID: "u2"})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "u2", list[0].RequesterID)

		list, total, err = store.List(ctx, Filter{Page: 5})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Empty(t, list)
	})

	t.Run("list due", func(t *testing.T) {
		due, err := store.ListDue(ctx, jan10(12, 0), 0)
		require.NoError(t, err)
		assert.Len(t, due, 2, "both pending bookings have started")

		due, err = store.ListDue(ctx, jan10(9, 0), 0)
		require.NoError(t, err)
		assert.Empty(t, due)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := store.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, store.UpdateStatus(ctx, &Booking{ID: "missing"}), ErrNotFound)
	})

}
