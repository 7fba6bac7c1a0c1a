package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-desk/internal/domain"
)

func TestDispatcher_HandlerErrorsDoNotStopOthers(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	var calls []string
	d.Subscribe(EventTicketCreated, func(ctx context.Context, e Event) error {
		calls = append(calls, "first")
		return errors.New("boom")
	})
	d.Subscribe(EventTicketCreated, func(ctx context.Context, e Event) error {
		calls = append(calls, "second")
		return nil
	})

	err := d.Publish(context.Background(), New(EventTicketCreated, "t-1", SystemActor(), time.Now(), nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestDispatcher_RecoversHandlerPanic(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	delivered := false
	d.Subscribe(EventTicketSLABreached, func(ctx context.Context, e Event) error {
		panic("handler exploded")
	})
	d.Subscribe(EventTicketSLABreached, func(ctx context.Context, e Event) error {
		delivered = true
		return nil
	})

	require.NotPanics(t, func() {
		err := d.Publish(context.Background(), New(EventTicketSLABreached, "t-2", SystemActor(), time.Now(), nil))
		require.NoError(t, err)
	})
	assert.True(t, delivered)
}

func TestDispatcher_OnlyMatchingType(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	calls := 0
	d.Subscribe(EventTicketUpdated, func(ctx context.Context, e Event) error {
		calls++
		return nil
	})
	require.NoError(t, d.Publish(context.Background(), New(EventTicketCreated, "t-3", SystemActor(), time.Now(), nil)))
	assert.Zero(t, calls)
}

func TestEncode(t *testing.T) {
	user := domain.User{ID: "u-1", Role: domain.UserRoleAgent}
	at := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	event := New(EventTicketUpdated, "t-9", UserActor(user), at, TicketUpdatedPayload{Status: domain.TicketStatusInProgress})

	msg, err := encode(event)
	require.NoError(t, err)
	assert.Equal(t, []byte("t-9"), msg.Key)
	assert.Equal(t, "event-type", msg.Headers[0].Key)
	assert.Equal(t, []byte("ticket.updated"), msg.Headers[0].Value)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "ticket.updated", decoded["type"])
	assert.Equal(t, "t-9", decoded["ticketId"])
	actor := decoded["actor"].(map[string]any)
	assert.Equal(t, "USER", actor["type"])
	assert.Equal(t, "u-1", actor["userId"])
	assert.Equal(t, "AGENT", actor["role"])
}
