package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusPublishJSON(t *testing.T) {
	bus := NewBus()

	var received *Event
	calls := 0
	bus.Subscribe(BookingCreated, func(_ context.Context, e *Event) error {
		received = e
		calls++
		return nil
	})

	err := bus.PublishJSON(context.Background(), BookingCreated, BookingPayload{BookingID: "b-1", Status: "pending"})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
	assert.Equal(t, BookingCreated, received.Type)
	assert.False(t, received.CreatedAt.IsZero())

	var decoded BookingPayload
	require.NoError(t, json.Unmarshal(received.Payload, &decoded))
	assert.Equal(t, "b-1", decoded.BookingID)
	assert.Equal(t, "pending", decoded.Status)
}

func TestBusWildcardAndErrors(t *testing.T) {
	bus := NewBus()
	var seen []string
	bus.Subscribe("*", func(_ context.Context, e *Event) error {
		seen = append(seen, e.Type)
		return nil
	})
	bus.Subscribe(BookingCancelled, func(context.Context, *Event) error {
		return errors.New("handler failed")
	})

	require.NoError(t, bus.PublishJSON(context.Background(), BookingConfirmed, nil))
	err := bus.PublishJSON(context.Background(), BookingCancelled, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler failed")
	assert.Equal(t, []string{BookingConfirmed, BookingCancelled}, seen)
}

func TestBusNoSubscribers(t *testing.T) {
	bus := NewBus()
	assert.NoError(t, bus.Publish(context.Background(), &Event{Type: "unknown"}))

	var nilBus *Bus
	assert.NoError(t, nilBus.PublishJSON(context.Background(), "unknown", nil))
}

type recordingPublisher struct {
	types []string
	err   error
}

func (r *recordingPublisher) PublishJSON(_ context.Context, eventType string, _ any) error {
	r.types = append(r.types, eventType)
	return r.err
}

func TestFanout(t *testing.T) {
	ok := &recordingPublisher{}
	failing := &recordingPublisher{err: errors.New("broker down")}
	f := Fanout{ok, nil, failing}

	err := f.PublishJSON(context.Background(), BookingCompleted, map[string]string{"id": "x"})
	require.Error(t, err)
	assert.Equal(t, []string{BookingCompleted}, ok.types)
	assert.Equal(t, []string{BookingCompleted}, failing.types)
}

func TestNewJSONEvent(t *testing.T) {
	event, err := NewJSONEvent("type", BookingPayload{BookingID: "123"})
	require.NoError(t, err)
	assert.Equal(t, "type", event.Type)
	assert.Contains(t, string(event.Payload), `"booking_id":"123"`)

	_, err = NewJSONEvent("type", make(chan int))
	assert.Error(t, err)
}
