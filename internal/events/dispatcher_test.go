package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversToAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls []string

	d.Subscribe(EventChecklistCreated, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("boom")
	})
	d.Subscribe(EventChecklistCreated, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventChecklistDeleted, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventChecklistCreated})
	require.Error(t, err)
	assert.ErrorContains(t, err, "boom")
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestNewEventCarriesActor(t *testing.T) {
	ctx := ContextWithActor(context.Background(), Actor{Username: "alice", Team: "dev_team_1"})
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	event := NewEvent(ctx, EventChecklistStatusChanged, "a1", "dev_team_1", at, ChecklistStatusChangedPayload{NewStatus: "Done"})

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "alice", event.Actor.Username)
	assert.Equal(t, at, event.Timestamp)
	assert.Equal(t, Actor{}, ActorFromContext(context.Background()))
}

func TestDispatcherRecoversHandlerPanic(t *testing.T) {
	d := NewInMemoryDispatcher()
	delivered := false

	d.Subscribe(EventChecklistsSubmitted, func(context.Context, Event) error {
		panic("nil payload")
	})
	d.Subscribe(EventChecklistsSubmitted, func(context.Context, Event) error {
		delivered = true
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventChecklistsSubmitted})
	assert.ErrorContains(t, err, "panic: nil payload")
	assert.True(t, delivered)
}
