package message

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/campushub/booking-core/internal/auth"
	"github.com/campushub/booking-core/internal/clock"
	"github.com/campushub/booking-core/internal/events"
	"github.com/campushub/booking-core/internal/metrics"
	"github.com/campushub/booking-core/internal/pkg/apperror"
)

type SendRequest struct {
	ReceiverID string
	Content    string
	BookingID  *string
	ResourceID *string
}

type Service struct {
	store     Store
	directory Directory
	events    events.Publisher
	clock     clock.Clock
	logger    *zerolog.Logger
}

// NewService wires messaging. publisher may be nil.
func NewService(store Store, directory Directory, clk clock.Clock, publisher events.Publisher, logger *zerolog.Logger) *Service {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &Service{store: store, directory: directory, events: publisher, clock: clk, logger: logger}
}

func (s *Service) authorize(actor auth.Actor, op auth.Operation, target auth.OwnerHint) (auth.Decision, error) {
	d := auth.Authorize(actor, op, target)
	if !d.Allowed {
		metrics.IncAuthzDenied(string(op))
		s.logger.Warn().Str("actor_id", actor.ID).Str("operation", string(op)).Str("reason", d.Reason).Msg("authorization denied")
		return d, d.Err()
	}
	return d, nil
}

// self lets any authenticated actor act on their own mailbox.
func (s *Service) self(actor auth.Actor) error {
	_, err := s.authorize(actor, auth.OpReadThread, auth.OwnedBy(actor.ID))
	return err
}

func validateSend(req *SendRequest, senderID string) error {
	fields := make(map[string]string)
	if strings.TrimSpace(req.ReceiverID) == "" {
		fields["receiver_id"] = "receiver is required"
	}
	req.Content = strings.TrimSpace(req.Content)
	switch n := utf8.RuneCountInString(req.Content); {
	case n == 0:
		fields["content"] = "message content is required"
	case n > MaxContentLength:
		fields["content"] = fmt.Sprintf("message cannot exceed %d characters", MaxContentLength)
	}
	if len(fields) > 0 {
		return apperror.NewValidationError(fields)
	}
	if req.ReceiverID == senderID {
		return &apperror.PolicyError{Reason: "cannot send a message to yourself"}
	}
	return nil
}

func (s *Service) Send(ctx context.Context, actor auth.Actor, req SendRequest) (*Message, error) {
	if _, err := s.authorize(actor, auth.OpSendMessage, auth.NoTarget); err != nil {
		return nil, err
	}
	if err := validateSend(&req, actor.ID); err != nil {
		return nil, err
	}

	to, err := s.directory.Recipient(ctx, req.ReceiverID)
	if err != nil {
		return nil, err
	}
	if !to.Active {
		return nil, ErrRecipientInactive
	}

	m := &Message{
		ThreadID:   ThreadID(actor.ID, to.ID, req.BookingID, req.ResourceID),
		SenderID:   actor.ID,
		ReceiverID: to.ID,
		BookingID:  req.BookingID,
		ResourceID: req.ResourceID,
		Content:    req.Content,
		CreatedAt:  s.clock.Now(),
	}
	if err := s.store.Create(ctx, m); err != nil {
		return nil, err
	}

	s.logger.Info().Str("message_id", m.ID).Str("thread_id", m.ThreadID).Str("sender_id", m.SenderID).Msg("message sent")
	s.publish(ctx, m)
	return m, nil
}

func (s *Service) publish(ctx context.Context, m *Message) {
	if s.events == nil {
		return
	}
	payload := events.MessagePayload{
		MessageID:  m.ID,
		ThreadID:   m.ThreadID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		BookingID:  m.BookingID,
		ResourceID: m.ResourceID,
		OccurredAt: m.CreatedAt,
	}
	if err := s.events.PublishJSON(ctx, events.MessageSent, payload); err != nil {
		s.logger.Error().Err(err).Str("message_id", m.ID).Msg("failed to publish message event")
	}
}

// ListThreads returns the actor's own inbox.
func (s *Service) ListThreads(ctx context.Context, actor auth.Actor, page, pageSize int) ([]*Thread, int, error) {
	if err := s.self(actor); err != nil {
		return nil, 0, err
	}
	return s.store.ListThreads(ctx, actor.ID, page, pageSize)
}

// Thread lists a thread's messages. Participants see the messages they sent
// or received; staff see the whole thread. A thread with nothing visible to
// the actor is reported as not found.
func (s *Service) Thread(ctx context.Context, actor auth.Actor, threadID string, page, pageSize int) ([]*Message, int, error) {
	filter := ThreadFilter{ThreadID: threadID, Page: page, PageSize: pageSize}
	if !auth.Authorize(actor, auth.OpReadThread, auth.NoTarget).Allowed {
		if err := s.self(actor); err != nil {
			return nil, 0, err
		}
		filter.ParticipantID = actor.ID
	}

	messages, total, err := s.store.ListThread(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return nil, 0, ErrThreadNotFound
	}
	return messages, total, nil
}

// MarkRead is only available to the receiver; to anyone else the message
// does not exist.
func (s *Service) MarkRead(ctx context.Context, actor auth.Actor, id string) (*Message, error) {
	if err := s.self(actor); err != nil {
		return nil, err
	}
	m, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.ReceiverID != actor.ID {
		return nil, ErrNotFound
	}
	if m.IsRead {
		return m, nil
	}

	now := s.clock.Now()
	if err := s.store.MarkRead(ctx, id, now); err != nil {
		return nil, err
	}
	m.IsRead = true
	m.ReadAt = &now
	return m, nil
}

func (s *Service) MarkThreadRead(ctx context.Context, actor auth.Actor, threadID string) (int, error) {
	if err := s.self(actor); err != nil {
		return 0, err
	}
	return s.store.MarkThreadRead(ctx, threadID, actor.ID, s.clock.Now())
}

func (s *Service) UnreadCount(ctx context.Context, actor auth.Actor) (int, error) {
	if err := s.self(actor); err != nil {
		return 0, err
	}
	return s.store.UnreadCount(ctx, actor.ID)
}

// Search looks through the actor's own messages.
func (s *Service) Search(ctx context.Context, actor auth.Actor, term string, limit int) ([]*Message, error) {
	if err := s.self(actor); err != nil {
		return nil, err
	}
	term = strings.TrimSpace(term)
	if utf8.RuneCountInString(term) < MinSearchLength {
		return nil, apperror.NewValidationError(map[string]string{
			"q": fmt.Sprintf("search term must be at least %d characters", MinSearchLength),
		})
	}
	switch {
	case limit <= 0:
		limit = DefaultSearchLimit
	case limit > MaxSearchLimit:
		limit = MaxSearchLimit
	}
	return s.store.Search(ctx, actor.ID, term, limit)
}

// Delete removes a message. Senders may delete their own; admins any.
func (s *Service) Delete(ctx context.Context, actor auth.Actor, id string) error {
	m, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.authorize(actor, auth.OpDeleteMessage, auth.OwnedBy(m.SenderID)); err != nil {
		if !m.Involves(actor.ID) && !auth.HasRole(actor, auth.RoleStaff) {
			return ErrNotFound
		}
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("message_id", id).Str("actor_id", actor.ID).Msg("message deleted")
	return nil
}
