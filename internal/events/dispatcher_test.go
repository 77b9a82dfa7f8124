package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatcherDeliversToSubscribersOfType(t *testing.T) {
	d := NewInMemoryDispatcher()
	var got []EventType
	d.Subscribe(EventBookingCreated, func(_ context.Context, e Event) error {
		got = append(got, e.Type)
		return nil
	})

	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventBookingCreated}))
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventTaskAssigned}))
	assert.Equal(t, []EventType{EventBookingCreated}, got)
}

func TestDispatcherRunsAllHandlersOnError(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("boom")
	calls := 0
	d.Subscribe(EventTaskCompleted, func(context.Context, Event) error {
		calls++
		return boom
	})
	d.Subscribe(EventTaskCompleted, func(context.Context, Event) error {
		calls++
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTaskCompleted})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}
