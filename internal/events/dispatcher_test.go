package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var got []EventType
	d.Subscribe(EventIdentityResolved, func(_ context.Context, e Event) error {
		got = append(got, e.Type)
		return nil
	})
	d.Subscribe(EventIdentityCleared, func(_ context.Context, e Event) error {
		got = append(got, e.Type)
		return nil
	})

	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventIdentityResolved}))
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventSessionEnded}))

	assert.Equal(t, []EventType{EventIdentityResolved}, got)
}

func TestDispatcherContinuesAfterHandlerError(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("boom")

	calls := 0
	d.Subscribe(EventIdentityCleared, func(context.Context, Event) error {
		calls++
		return boom
	})
	d.Subscribe(EventIdentityCleared, func(context.Context, Event) error {
		calls++
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventIdentityCleared})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestDispatcherWildcardSeesEveryType(t *testing.T) {
	d := NewInMemoryDispatcher()

	var order []string
	d.SubscribeAll(func(_ context.Context, e Event) error {
		order = append(order, "all:"+string(e.Type))
		return nil
	})
	d.Subscribe(EventSessionStarted, func(_ context.Context, e Event) error {
		order = append(order, "typed:"+string(e.Type))
		return nil
	})

	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventSessionStarted}))
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventIdentityCleared}))

	assert.Equal(t, []string{
		"typed:" + string(EventSessionStarted),
		"all:" + string(EventSessionStarted),
		"all:" + string(EventIdentityCleared),
	}, order)
}

func TestDispatcherRecoversPanickingHandler(t *testing.T) {
	d := NewInMemoryDispatcher()

	delivered := false
	d.Subscribe(EventIdentityResolved, func(context.Context, Event) error {
		panic("audit sink exploded")
	})
	d.SubscribeAll(func(context.Context, Event) error {
		delivered = true
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventIdentityResolved})
	assert.ErrorContains(t, err, "panicked")
	assert.True(t, delivered)
}
