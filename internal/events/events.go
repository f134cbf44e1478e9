package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

const (
	BookingCreated     = "booking.created"
	BookingConfirmed   = "booking.confirmed"
	BookingCancelled   = "booking.cancelled"
	BookingCompleted   = "booking.completed"
	BookingRescheduled = "booking.rescheduled"

	MessageSent = "message.sent"
)

// BookingPayload is the booking snapshot carried by every booking event.
type BookingPayload struct {
	BookingID   string    `json:"booking_id"`
	ResourceID  string    `json:"resource_id"`
	RequesterID string    `json:"requester_id"`
	Status      string    `json:"status"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	ActorID     string    `json:"actor_id"`
	ActorRole   string    `json:"actor_role"`
	Reason      string    `json:"reason,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// MessagePayload announces a new message without its content.
type MessagePayload struct {
	MessageID  string    `json:"message_id"`
	ThreadID   string    `json:"thread_id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	BookingID  *string   `json:"booking_id,omitempty"`
	ResourceID *string   `json:"resource_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers a JSON event. Booking flows treat failures as
// non-fatal and only log them.
type Publisher interface {
	PublishJSON(ctx context.Context, eventType string, payload any) error
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Handler reacts to an event.
type Handler func(ctx context.Context, event *Event) error

// Bus provides in-process pub/sub for events.
type Bus struct {
	subscribers map[string][]Handler
	mu          sync.RWMutex
}

func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]Handler)}
}

// Subscribe registers a handler for a given event type. The type "*"
// receives every event.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish runs subscribers synchronously and joins their errors.
func (b *Bus) Publish(ctx context.Context, event *Event) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[event.Type]...)
	handlers = append(handlers, b.subscribers["*"]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *Bus) PublishJSON(ctx context.Context, eventType string, payload any) error {
	if b == nil {
		return nil
	}
	event, err := NewJSONEvent(eventType, payload)
	if err != nil {
		return err
	}
	return b.Publish(ctx, &event)
}

// NewJSONEvent builds an Event with JSON payload for manual publishing.
func NewJSONEvent(eventType string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: eventType, Payload: raw, CreatedAt: time.Now().UTC()}, nil
}

// Fanout publishes to every publisher and joins the failures.
type Fanout []Publisher

func (f Fanout) PublishJSON(ctx context.Context, eventType string, payload any) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.PublishJSON(ctx, eventType, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
