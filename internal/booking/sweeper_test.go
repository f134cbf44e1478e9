package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweeper_RunOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ended := f.create(t, alice, "room-1", jan10(9, 0), jan10(10, 0))
	_, err := f.svc.Confirm(ctx, staff, ended.ID)
	require.NoError(t, err)
	stale := f.create(t, bob, "room-2", jan10(9, 30), jan10(11, 0))
	future := f.create(t, alice, "room-1", jan10(15, 0), jan10(16, 0))
	_, err = f.svc.Confirm(ctx, staff, future.ID)
	require.NoError(t, err)

	f.clock.Set(jan10(10, 0).Add(time.Second))
	sweeper := NewSweeper(f.store, f.svc, f.clock, time.Minute, nil)

	report, err := sweeper.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepReport{Completed: 1, Expired: 1}, report)

	got, err := f.store.GetByID(ctx, ended.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)

	got, err = f.store.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	require.NotNil(t, got.CancellationReason)
	assert.Equal(t, ReasonExpired, *got.CancellationReason)

	got, err = f.store.GetByID(ctx, future.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, got.Status)

	// Nothing left to do on the second pass.
	report, err = sweeper.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepReport{}, report)
}

func TestSweeper_RunStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	sweeper := NewSweeper(f.store, f.svc, f.clock, 5*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after context cancellation")
	}
}
