package booking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/campushub/booking-core/internal/auth"
	"github.com/campushub/booking-core/internal/clock"
	"github.com/campushub/booking-core/internal/events"
	"github.com/campushub/booking-core/internal/metrics"
	"github.com/campushub/booking-core/internal/pkg/apperror"
)

// DefaultCancellationWindow is how long before start a requester may still
// cancel or move their own booking.
const DefaultCancellationWindow = 2 * time.Hour

// ReasonExpired is recorded on pending bookings the sweeper cancels.
const ReasonExpired = "expired"

// ResourceCatalog resolves the resource a booking targets. Unknown ids must
// yield an error matching ErrResourceNotFound.
type ResourceCatalog interface {
	GetResource(ctx context.Context, id string) (Resource, error)
}

type CreateRequest struct {
	ResourceID     string
	StartTime      time.Time
	EndTime        time.Time
	Purpose        *string
	AttendeesCount *int
}

type RescheduleRequest struct {
	StartTime      time.Time
	EndTime        time.Time
	AttendeesCount *int
}

type Service interface {
	Create(ctx context.Context, actor auth.Actor, req CreateRequest) (*Booking, error)
	Cancel(ctx context.Context, actor auth.Actor, id string, reason string) (*Booking, error)
	Confirm(ctx context.Context, actor auth.Actor, id string) (*Booking, error)
	Complete(ctx context.Context, actor auth.Actor, id string) (*Booking, error)
	Reschedule(ctx context.Context, actor auth.Actor, id string, req RescheduleRequest) (*Booking, error)
	GetByID(ctx context.Context, actor auth.Actor, id string) (*Booking, error)
	List(ctx context.Context, actor auth.Actor, filter Filter) ([]*Booking, int, error)
	Availability(ctx context.Context, resourceID string, day time.Time, openStr, closeStr string) ([]TimeSlot, error)
}

type service struct {
	store        Store
	catalog      ResourceCatalog
	locker       Locker
	clock        clock.Clock
	validator    *Validator
	events       events.Publisher
	logger       *zerolog.Logger
	autoConfirm  bool
	cancelWindow time.Duration
}

type Option func(*service)

func WithEvents(p events.Publisher) Option {
	return func(s *service) { s.events = p }
}

func WithLogger(l *zerolog.Logger) Option {
	return func(s *service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAutoConfirm makes Create confirm new bookings on behalf of the system.
func WithAutoConfirm(on bool) Option {
	return func(s *service) { s.autoConfirm = on }
}

func WithValidator(v *Validator) Option {
	return func(s *service) {
		if v != nil {
			s.validator = v
		}
	}
}

func WithCancellationWindow(d time.Duration) Option {
	return func(s *service) {
		if d > 0 {
			s.cancelWindow = d
		}
	}
}

func NewService(store Store, catalog ResourceCatalog, locker Locker, clk clock.Clock, opts ...Option) Service {
	nop := zerolog.Nop()
	s := &service{
		store:        store,
		catalog:      catalog,
		locker:       locker,
		clock:        clk,
		validator:    NewValidator(),
		logger:       &nop,
		cancelWindow: DefaultCancellationWindow,
	}
	if s.locker == nil {
		s.locker = NewLocalLocker()
	}
	if s.clock == nil {
		s.clock = clock.NewSystem()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Create(ctx context.Context, actor auth.Actor, req CreateRequest) (*Booking, error) {
	b, err := s.create(ctx, actor, req)
	s.record("create", err)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.BookingCreated, b, actor, "")
	if b.Status == StatusConfirmed {
		s.record("confirm", nil)
		s.publish(ctx, events.BookingConfirmed, b, auth.System(), "auto-confirm")
	}
	return b, nil
}

func (s *service) create(ctx context.Context, actor auth.Actor, req CreateRequest) (*Booking, error) {
	if _, err := s.authorize(actor, auth.OpCreateBooking, auth.NoTarget); err != nil {
		return nil, err
	}

	res, err := s.catalog.GetResource(ctx, req.ResourceID)
	if err != nil {
		return nil, err
	}

	w := Window{Start: req.StartTime.UTC(), End: req.EndTime.UTC()}
	if err := s.validator.Validate(w, req.AttendeesCount, res, s.clock.Now()).Err(); err != nil {
		return nil, err
	}

	b := &Booking{
		ResourceID:     res.ID,
		RequesterID:    actor.ID,
		StartTime:      w.Start,
		EndTime:        w.End,
		Status:         StatusPending,
		Purpose:        req.Purpose,
		AttendeesCount: req.AttendeesCount,
		TotalCost:      TotalCost(res.HourlyRate, w),
	}
	if s.autoConfirm {
		system := auth.System().ID
		b.Status = StatusConfirmed
		b.ConfirmedBy = &system
	}

	err = s.withResourceLock(ctx, res.ID, func(ctx context.Context) error {
		active, err := s.store.ListActiveForResource(ctx, res.ID)
		if err != nil {
			return err
		}
		if conflicts := FindConflicts(res.ID, w, active); len(conflicts) > 0 {
			return &apperror.ConflictError{BookingIDs: IDs(conflicts)}
		}
		return s.store.Insert(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("booking_id", b.ID).
		Str("resource_id", b.ResourceID).
		Str("requester_id", b.RequesterID).
		Str("status", string(b.Status)).
		Msg("booking created")
	return b, nil
}

func (s *service) Cancel(ctx context.Context, actor auth.Actor, id string, reason string) (*Booking, error) {
	b, err := s.transition(ctx, actor, id, auth.OpCancelBooking, "cancel", func(d auth.Decision, b *Booking, now time.Time) error {
		if !b.Status.CanTransitionTo(StatusCancelled) {
			return &apperror.InvalidStateError{Current: string(b.Status), Attempted: "cancel"}
		}
		if d.ViaOwnership && b.StartTime.Sub(now) <= s.cancelWindow {
			return &apperror.PolicyError{Reason: fmt.Sprintf("cannot cancel within %s of start", humanDuration(s.cancelWindow))}
		}
		b.Status = StatusCancelled
		b.CancelledAt = &now
		if reason != "" {
			r := reason
			b.CancellationReason = &r
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.BookingCancelled, b, actor, reason)
	return b, nil
}

func (s *service) Confirm(ctx context.Context, actor auth.Actor, id string) (*Booking, error) {
	b, err := s.transition(ctx, actor, id, auth.OpConfirmBooking, "confirm", func(_ auth.Decision, b *Booking, _ time.Time) error {
		if !b.Status.CanTransitionTo(StatusConfirmed) {
			return &apperror.InvalidStateError{Current: string(b.Status), Attempted: "confirm"}
		}
		confirmedBy := actor.ID
		b.Status = StatusConfirmed
		b.ConfirmedBy = &confirmedBy
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.BookingConfirmed, b, actor, "")
	return b, nil
}

func (s *service) Complete(ctx context.Context, actor auth.Actor, id string) (*Booking, error) {
	b, err := s.transition(ctx, actor, id, auth.OpCompleteBooking, "complete", func(_ auth.Decision, b *Booking, now time.Time) error {
		if !b.Status.CanTransitionTo(StatusCompleted) {
			return &apperror.InvalidStateError{Current: string(b.Status), Attempted: "complete"}
		}
		if now.Before(b.EndTime) {
			return &apperror.PolicyError{Reason: "cannot complete a booking before it ends"}
		}
		b.Status = StatusCompleted
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.BookingCompleted, b, actor, "")
	return b, nil
}

// transition loads the booking, authorizes against its owner, and applies
// mutate under the resource lock before persisting the status fields.
func (s *service) transition(
	ctx context.Context,
	actor auth.Actor,
	id string,
	op auth.Operation,
	name string,
	mutate func(d auth.Decision, b *Booking, now time.Time) error,
) (*Booking, error) {
	var out *Booking
	err := func() error {
		b, err := s.store.GetByID(ctx, id)
		if err != nil {
			return err
		}
		decision, err := s.authorize(actor, op, auth.OwnedBy(b.RequesterID))
		if err != nil {
			return err
		}

		return s.withResourceLock(ctx, b.ResourceID, func(ctx context.Context) error {
			cur, err := s.store.GetByID(ctx, id)
			if err != nil {
				return err
			}
			from := cur.Status
			if err := mutate(decision, cur, s.clock.Now()); err != nil {
				return err
			}
			if err := s.store.UpdateStatus(ctx, cur); err != nil {
				return err
			}
			s.logger.Info().
				Str("booking_id", cur.ID).
				Str("actor_id", actor.ID).
				Str("from", string(from)).
				Str("to", string(cur.Status)).
				Msg("booking " + name)
			out = cur
			return nil
		})
	}()
	s.record(name, err)
	return out, err
}

func (s *service) Reschedule(ctx context.Context, actor auth.Actor, id string, req RescheduleRequest) (*Booking, error) {
	b, err := s.reschedule(ctx, actor, id, req)
	s.record("reschedule", err)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.BookingRescheduled, b, actor, "")
	return b, nil
}

func (s *service) reschedule(ctx context.Context, actor auth.Actor, id string, req RescheduleRequest) (*Booking, error) {
	b, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	decision, err := s.authorize(actor, auth.OpRescheduleBooking, auth.OwnedBy(b.RequesterID))
	if err != nil {
		return nil, err
	}

	res, err := s.catalog.GetResource(ctx, b.ResourceID)
	if err != nil {
		return nil, err
	}

	w := Window{Start: req.StartTime.UTC(), End: req.EndTime.UTC()}
	attendees := req.AttendeesCount
	if attendees == nil {
		attendees = b.AttendeesCount
	}

	err = s.withResourceLock(ctx, b.ResourceID, func(ctx context.Context) error {
		cur, err := s.store.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !cur.Status.IsActive() {
			return &apperror.InvalidStateError{Current: string(cur.Status), Attempted: "reschedule"}
		}
		now := s.clock.Now()
		if decision.ViaOwnership && cur.StartTime.Sub(now) <= s.cancelWindow {
			return &apperror.PolicyError{Reason: fmt.Sprintf("cannot reschedule within %s of start", humanDuration(s.cancelWindow))}
		}
		if err := s.validator.Validate(w, attendees, res, now).Err(); err != nil {
			return err
		}

		active, err := s.store.ListActiveForResource(ctx, cur.ResourceID)
		if err != nil {
			return err
		}
		if conflicts := FindConflicts(cur.ResourceID, w, active, cur.ID); len(conflicts) > 0 {
			return &apperror.ConflictError{BookingIDs: IDs(conflicts)}
		}

		cur.StartTime = w.Start
		cur.EndTime = w.End
		cur.AttendeesCount = attendees
		cur.TotalCost = TotalCost(res.HourlyRate, w)
		if decision.ViaOwnership && cur.Status == StatusConfirmed {
			cur.Status = StatusPending
			cur.ConfirmedBy = nil
		}
		if err := s.store.UpdateWindow(ctx, cur); err != nil {
			return err
		}
		b = cur
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("booking_id", b.ID).
		Str("actor_id", actor.ID).
		Time("start", b.StartTime).
		Time("end", b.EndTime).
		Str("status", string(b.Status)).
		Msg("booking rescheduled")
	return b, nil
}

func (s *service) GetByID(ctx context.Context, actor auth.Actor, id string) (*Booking, error) {
	b, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.ID != "" && b.RequesterID == actor.ID {
		return b, nil
	}
	if _, err := s.authorize(actor, auth.OpViewAllBookings, auth.NoTarget); err != nil {
		return nil, err
	}
	return b, nil
}

// List scopes non-staff actors to their own bookings.
func (s *service) List(ctx context.Context, actor auth.Actor, filter Filter) ([]*Booking, int, error) {
	if actor.ID == "" || !actor.Role.Valid() {
		return nil, 0, auth.Authorize(actor, auth.OpViewAllBookings, auth.NoTarget).Err()
	}
	if filter.Status != "" && !Status(filter.Status).Valid() {
		return nil, 0, ErrInvalidStatus
	}
	if !auth.Authorize(actor, auth.OpViewAllBookings, auth.NoTarget).Allowed {
		filter.RequesterID = actor.ID
	}
	return s.store.List(ctx, filter)
}

func (s *service) Availability(ctx context.Context, resourceID string, day time.Time, openStr, closeStr string) ([]TimeSlot, error) {
	if _, err := s.catalog.GetResource(ctx, resourceID); err != nil {
		return nil, err
	}
	active, err := s.store.ListActiveForResource(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	slots, err := CalculateAvailability(day, openStr, closeStr, active)
	if err != nil {
		return nil, apperror.Wrap(err, http.StatusBadRequest, err.Error())
	}
	return slots, nil
}

// TotalCost is hourlyRate * hours rounded to cents; nil without a rate.
func TotalCost(hourlyRate *float64, w Window) *float64 {
	if hourlyRate == nil {
		return nil
	}
	cost := math.Round(*hourlyRate*w.Duration().Hours()*100) / 100
	return &cost
}

func (s *service) withResourceLock(ctx context.Context, resourceID string, fn func(ctx context.Context) error) error {
	unlock, err := s.locker.Acquire(ctx, resourceLockKey(resourceID))
	if err != nil {
		return fmt.Errorf("acquire lock for resource %s: %w", resourceID, err)
	}
	defer unlock()
	return s.store.WithTx(ctx, fn)
}

func (s *service) authorize(actor auth.Actor, op auth.Operation, target auth.OwnerHint) (auth.Decision, error) {
	d := auth.Authorize(actor, op, target)
	if !d.Allowed {
		metrics.IncAuthzDenied(string(op))
		s.logger.Warn().
			Str("actor_id", actor.ID).
			Str("role", string(actor.Role)).
			Str("operation", string(op)).
			Str("reason", d.Reason).
			Msg("authorization denied")
		return d, d.Err()
	}
	return d, nil
}

func (s *service) record(transition string, err error) {
	metrics.IncTransition(transition, outcomeOf(err))
}

func outcomeOf(err error) string {
	if err == nil {
		return metrics.OutcomeOK
	}
	var (
		validation *apperror.ValidationError
		permission *apperror.PermissionError
		conflict   *apperror.ConflictError
		policy     *apperror.PolicyError
		state      *apperror.InvalidStateError
	)
	switch {
	case errors.As(err, &validation):
		return "invalid"
	case errors.As(err, &permission):
		return "denied"
	case errors.As(err, &conflict):
		return "conflict"
	case errors.As(err, &policy):
		return "policy"
	case errors.As(err, &state):
		return "invalid_state"
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrResourceNotFound):
		return "not_found"
	}
	return metrics.OutcomeError
}

func (s *service) publish(ctx context.Context, eventType string, b *Booking, actor auth.Actor, reason string) {
	if s.events == nil {
		return
	}
	payload := events.BookingPayload{
		BookingID:   b.ID,
		ResourceID:  b.ResourceID,
		RequesterID: b.RequesterID,
		Status:      string(b.Status),
		StartTime:   b.StartTime,
		EndTime:     b.EndTime,
		ActorID:     actor.ID,
		ActorRole:   string(actor.Role),
		Reason:      reason,
		OccurredAt:  s.clock.Now(),
	}
	if err := s.events.PublishJSON(ctx, eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Str("booking_id", b.ID).Msg("failed to publish booking event")
	}
}
