package review

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/campushub/booking-core/internal/auth"
	"github.com/campushub/booking-core/internal/booking"
	"github.com/campushub/booking-core/internal/metrics"
	"github.com/campushub/booking-core/internal/pkg/apperror"
)

type CreateRequest struct {
	ResourceID string
	Rating     int
	Comment    *string
}

// Service handles review creation and reads. Moderation lives in Gate.
type Service struct {
	store   Store
	catalog booking.ResourceCatalog
	logger  *zerolog.Logger
}

func NewService(store Store, catalog booking.ResourceCatalog, logger *zerolog.Logger) *Service {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Service{store: store, catalog: catalog, logger: logger}
}

func validate(req *CreateRequest) error {
	fields := map[string]string{}
	if req.Rating < MinRating || req.Rating > MaxRating {
		fields["rating"] = fmt.Sprintf("rating must be between %d and %d", MinRating, MaxRating)
	}
	if req.Comment != nil {
		c := strings.TrimSpace(*req.Comment)
		switch n := len([]rune(c)); {
		case n == 0:
			req.Comment = nil
		case n < MinCommentLength:
			fields["comment"] = fmt.Sprintf("comment must be at least %d characters", MinCommentLength)
		case n > MaxCommentLength:
			fields["comment"] = fmt.Sprintf("comment cannot exceed %d characters", MaxCommentLength)
		default:
			req.Comment = &c
		}
	}
	if len(fields) > 0 {
		return apperror.NewValidationError(fields)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, actor auth.Actor, req CreateRequest) (*Review, error) {
	if err := authorize(s.logger, actor, auth.OpCreateReview, auth.NoTarget); err != nil {
		return nil, err
	}
	if err := validate(&req); err != nil {
		return nil, err
	}

	res, err := s.catalog.GetResource(ctx, req.ResourceID)
	if err != nil {
		if errors.Is(err, booking.ErrResourceNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}
	if !res.Available {
		return nil, ErrResourceClosed
	}

	r := &Review{
		ResourceID: req.ResourceID,
		ReviewerID: actor.ID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	}
	if err := s.store.Create(ctx, r); err != nil {
		return nil, err
	}

	s.logger.Info().Str("review_id", r.ID).Str("resource_id", r.ResourceID).Int("rating", r.Rating).Msg("review created")
	return r, nil
}

// GetByID hides moderated reviews from everyone but their author and staff.
func (s *Service) GetByID(ctx context.Context, actor auth.Actor, id string) (*Review, error) {
	r, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.IsHidden && r.ReviewerID != actor.ID && !auth.HasRole(actor, auth.RoleStaff) {
		return nil, ErrNotFound
	}
	return r, nil
}

// List returns reviews matching filter. Hidden reviews are only listed for staff.
func (s *Service) List(ctx context.Context, actor auth.Actor, filter Filter) ([]*Review, int, error) {
	if !auth.HasRole(actor, auth.RoleStaff) {
		filter.IncludeHidden = false
	}
	return s.store.List(ctx, filter)
}

func (s *Service) Summary(ctx context.Context, resourceID string) (Summary, error) {
	return s.store.Summary(ctx, resourceID)
}

func authorize(logger *zerolog.Logger, actor auth.Actor, op auth.Operation, target auth.OwnerHint) error {
	d := auth.Authorize(actor, op, target)
	if d.Allowed {
		return nil
	}
	metrics.IncAuthzDenied(string(op))
	logger.Warn().
		Str("actor_id", actor.ID).
		Str("role", string(actor.Role)).
		Str("operation", string(op)).
		Str("reason", d.Reason).
		Msg("authorization denied")
	return d.Err()
}
