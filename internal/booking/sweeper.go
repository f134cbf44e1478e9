package booking

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/campushub/booking-core/internal/auth"
	"github.com/campushub/booking-core/internal/clock"
	"github.com/campushub/booking-core/internal/metrics"
)

const defaultSweepBatch = 200

// SweepReport counts what one sweep did.
type SweepReport struct {
	Completed int
	Expired   int
	Failed    int
}

// Sweeper completes confirmed bookings that have ended and expires pending
// bookings whose start has passed, acting as the system actor.
type Sweeper struct {
	store    Store
	svc      Service
	clock    clock.Clock
	interval time.Duration
	batch    int
	logger   *zerolog.Logger
}

func NewSweeper(store Store, svc Service, clk clock.Clock, interval time.Duration, logger *zerolog.Logger) *Sweeper {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if interval <= 0 {
		interval = time.Minute
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &Sweeper{store: store, svc: svc, clock: clk, interval: interval, batch: defaultSweepBatch, logger: logger}
}

// Run sweeps on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Msg("booking sweeper started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("booking sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error().Err(err).Msg("booking sweep failed")
			}
		}
	}
}

// RunOnce processes one batch of due bookings. Per-item failures are logged
// and counted; only a failure to list due bookings is returned.
func (s *Sweeper) RunOnce(ctx context.Context) (SweepReport, error) {
	var report SweepReport

	due, err := s.store.ListDue(ctx, s.clock.Now(), s.batch)
	if err != nil {
		return report, err
	}

	system := auth.System()
	for _, b := range due {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}

		var (
			action string
			err    error
		)
		switch b.Status {
		case StatusConfirmed:
			action = "complete"
			_, err = s.svc.Complete(ctx, system, b.ID)
		case StatusPending:
			action = "expire"
			_, err = s.svc.Cancel(ctx, system, b.ID, ReasonExpired)
		default:
			continue
		}

		if err != nil {
			report.Failed++
			metrics.IncSweep(action, metrics.OutcomeError)
			s.logger.Warn().Err(err).Str("booking_id", b.ID).Str("action", action).Msg("sweep item failed")
			continue
		}
		metrics.IncSweep(action, metrics.OutcomeOK)
		if action == "complete" {
			report.Completed++
		} else {
			report.Expired++
		}
	}

	if report.Completed+report.Expired+report.Failed > 0 {
		s.logger.Info().
			Int("completed", report.Completed).
			Int("expired", report.Expired).
			Int("failed", report.Failed).
			Msg("booking sweep finished")
	}
	return report, nil
}
