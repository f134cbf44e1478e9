package review

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/campushub/booking-core/internal/auth"
	"github.com/campushub/booking-core/internal/metrics"
	"github.com/campushub/booking-core/internal/pkg/apperror"
	"github.com/campushub/booking-core/internal/pkg/bulk"
)

const (
	stateHidden  = "hidden"
	stateVisible = "visible"
)

// Gate decides who may hide, unhide and flag reviews. Persistence is
// delegated to the Store.
type Gate struct {
	store  Store
	logger *zerolog.Logger
}

func NewGate(store Store, logger *zerolog.Logger) *Gate {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Gate{store: store, logger: logger}
}

// Resolve hides a review.
func (g *Gate) Resolve(ctx context.Context, actor auth.Actor, id string) error {
	return g.ResolveWithNotes(ctx, actor, id, nil)
}

// ResolveWithNotes hides a review and records why.
func (g *Gate) ResolveWithNotes(ctx context.Context, actor auth.Actor, id string, notes *string) error {
	err := g.resolve(ctx, actor, id, notes)
	g.record("hide", err)
	return err
}

func (g *Gate) resolve(ctx context.Context, actor auth.Actor, id string, notes *string) error {
	if err := authorize(g.logger, actor, auth.OpHideReview, auth.NoTarget); err != nil {
		return err
	}
	r, err := g.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if r.IsHidden {
		return &apperror.InvalidStateError{Entity: "review", Current: stateHidden, Attempted: "hide"}
	}
	if err := g.store.SetHidden(ctx, id, true, notes); err != nil {
		return err
	}
	g.logger.Info().Str("review_id", id).Str("by", actor.ID).Bool("was_flagged", r.IsFlagged).Msg("review hidden")
	return nil
}

// ResolveMany hides every review independently; one failure never stops
// the rest.
func (g *Gate) ResolveMany(ctx context.Context, actor auth.Actor, ids []string, notes *string) bulk.Result {
	res := bulk.Run(ctx, ids, func(ctx context.Context, id string) error {
		return g.ResolveWithNotes(ctx, actor, id, notes)
	})
	if len(res.Failed) > 0 {
		g.logger.Warn().Int("failed", len(res.Failed)).Int("total", len(ids)).Msg("bulk review hide partially failed")
	}
	return res
}

// Unhide restores a hidden review and clears its flag.
func (g *Gate) Unhide(ctx context.Context, actor auth.Actor, id string) error {
	err := g.unhide(ctx, actor, id)
	g.record("unhide", err)
	return err
}

func (g *Gate) unhide(ctx context.Context, actor auth.Actor, id string) error {
	if err := authorize(g.logger, actor, auth.OpUnhideReview, auth.NoTarget); err != nil {
		return err
	}
	r, err := g.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !r.IsHidden {
		return &apperror.InvalidStateError{Entity: "review", Current: stateVisible, Attempted: "unhide"}
	}
	if err := g.store.SetHidden(ctx, id, false, nil); err != nil {
		return err
	}
	g.logger.Info().Str("review_id", id).Str("by", actor.ID).Msg("review unhidden")
	return nil
}

// Flag marks a review for moderator attention.
func (g *Gate) Flag(ctx context.Context, actor auth.Actor, id string) error {
	err := g.flag(ctx, actor, id)
	g.record("flag", err)
	return err
}

func (g *Gate) flag(ctx context.Context, actor auth.Actor, id string) error {
	if err := authorize(g.logger, actor, auth.OpFlagReview, auth.NoTarget); err != nil {
		return err
	}
	r, err := g.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if r.ReviewerID == actor.ID {
		return &apperror.PolicyError{Reason: "you cannot flag your own review"}
	}
	if r.IsHidden {
		return &apperror.InvalidStateError{Entity: "review", Current: stateHidden, Attempted: "flag"}
	}
	return g.store.SetFlagged(ctx, id, actor.ID)
}

// ListFlagged returns every flagged review, hidden or not, most recently
// touched first.
func (g *Gate) ListFlagged(ctx context.Context, actor auth.Actor, page, pageSize int) ([]*Review, int, error) {
	if err := authorize(g.logger, actor, auth.OpListFlaggedReview, auth.NoTarget); err != nil {
		return nil, 0, err
	}
	return g.store.List(ctx, Filter{
		FlaggedOnly:   true,
		IncludeHidden: true,
		Page:          page,
		PageSize:      pageSize,
		SortBy:        "updated_at",
		SortOrder:     "desc",
	})
}

func (g *Gate) record(action string, err error) {
	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeError
	}
	metrics.IncModeration(action, outcome)
}
