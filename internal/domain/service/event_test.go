package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkhrunov/btc-challenge-bot/internal/domain/common/errorz"
	"github.com/dkhrunov/btc-challenge-bot/internal/domain/service"
	"github.com/dkhrunov/btc-challenge-bot/internal/domain/utils/location"
	"github.com/dkhrunov/btc-challenge-bot/pkg/clock"
)

func TestEventServiceCreate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, location.Location())
	clk := clock.NewFake(now)
	storage := newFakeEventStorage()
	events := service.NewEventService(storage, clk)

	startAt := now.Add(24 * time.Hour)

	t.Run("rejects empty title", func(t *testing.T) {
		_, err := events.Create(context.Background(), 1, "  ", "desc", startAt)
		assert.ErrorIs(t, err, errorz.EmptyTitle)
	})

	t.Run("rejects empty description", func(t *testing.T) {
		_, err := events.Create(context.Background(), 1, "title", "\t", startAt)
		assert.ErrorIs(t, err, errorz.EmptyDescription)
	})

	t.Run("rejects start inside the minimum lead", func(t *testing.T) {
		_, err := events.Create(context.Background(), 1, "title", "desc", now.Add(service.MinStartLead-time.Second))
		assert.ErrorIs(t, err, errorz.StartTooSoon)
	})

	t.Run("creates the event", func(t *testing.T) {
		event, err := events.Create(context.Background(), 1, "title", "desc", startAt)
		require.NoError(t, err)
		assert.NotEmpty(t, event.ID)
		assert.Equal(t, int64(1), event.CreatorID)
		assert.True(t, event.StartAt.Equal(startAt))
	})

	t.Run("force-completes the previous event", func(t *testing.T) {
		first, err := events.Create(context.Background(), 1, "first", "desc", startAt)
		require.NoError(t, err)

		_, err = events.Create(context.Background(), 2, "second", "desc", startAt.Add(time.Hour))
		require.NoError(t, err)

		stored, err := events.Get(context.Background(), first.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.CompletedAt)
		assert.True(t, stored.CompletedAt.Equal(now))
	})
}

func TestEventServiceJoin(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, location.Location())
	clk := clock.NewFake(now)
	storage := newFakeEventStorage()
	events := service.NewEventService(storage, clk)

	event, err := events.Create(context.Background(), 1, "title", "desc", now.Add(24*time.Hour))
	require.NoError(t, err)

	t.Run("unknown event", func(t *testing.T) {
		assert.ErrorIs(t, events.Join(context.Background(), "missing", 10), errorz.NotFound)
	})

	t.Run("joins before start", func(t *testing.T) {
		require.NoError(t, events.Join(context.Background(), event.ID, 10))

		stored, errGet := events.Get(context.Background(), event.ID)
		require.NoError(t, errGet)
		assert.Equal(t, []int64{10}, stored.ParticipantIDs)
	})

	t.Run("double join", func(t *testing.T) {
		assert.ErrorIs(t, events.Join(context.Background(), event.ID, 10), errorz.AlreadyJoined)
	})

	t.Run("join after start", func(t *testing.T) {
		clk.Set(event.StartAt)
		defer clk.Set(now)
		assert.ErrorIs(t, events.Join(context.Background(), event.ID, 11), errorz.EventAlreadyStarted)
	})
}

func TestEventServiceComplete(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, location.Location())
	clk := clock.NewFake(now)
	storage := newFakeEventStorage()
	events := service.NewEventService(storage, clk)

	event, err := events.Create(context.Background(), 1, "title", "desc", now.Add(24*time.Hour))
	require.NoError(t, err)

	t.Run("not started yet", func(t *testing.T) {
		_, errComplete := events.Complete(context.Background(), event.ID)
		assert.ErrorIs(t, errComplete, errorz.NotStarted)
	})

	t.Run("completes a started event", func(t *testing.T) {
		clk.Set(event.StartAt.Add(time.Hour))
		require.NoError(t, storage.MarkStartSent(context.Background(), event.ID))

		completed, errComplete := events.Complete(context.Background(), event.ID)
		require.NoError(t, errComplete)
		require.NotNil(t, completed.CompletedAt)
		assert.True(t, completed.CompletedAt.Equal(clk.Now()))
	})

	t.Run("completion is terminal", func(t *testing.T) {
		_, errComplete := events.Complete(context.Background(), event.ID)
		assert.ErrorIs(t, errComplete, errorz.AlreadyCompleted)
	})
}

func TestEventServiceMarkFlags(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, location.Location())
	clk := clock.NewFake(now)
	storage := newFakeEventStorage()
	events := service.NewEventService(storage, clk)

	event, err := events.Create(context.Background(), 1, "title", "desc", now.Add(24*time.Hour))
	require.NoError(t, err)

	require.NoError(t, events.MarkReminderSent(context.Background(), event))
	assert.True(t, event.ReminderSent)

	stored, err := events.Get(context.Background(), event.ID)
	require.NoError(t, err)
	assert.True(t, stored.ReminderSent)

	// Second call is a no-op.
	require.NoError(t, events.MarkReminderSent(context.Background(), event))

	require.NoError(t, events.MarkStartSent(context.Background(), event))
	stored, err = events.Get(context.Background(), event.ID)
	require.NoError(t, err)
	assert.True(t, stored.StartSent)
}
