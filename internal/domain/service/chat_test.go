package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkhrunov/btc-challenge-bot/internal/domain/entity"
	"github.com/dkhrunov/btc-challenge-bot/internal/domain/service"
)

func TestChatServiceRegister(t *testing.T) {
	storage := newFakeChatStorage()
	chats := service.NewChatService(storage)

	chat, err := chats.Register(context.Background(), -100, "supergroup", "group")
	require.NoError(t, err)
	assert.True(t, chat.Active)

	// Re-registering a deactivated chat turns it back on.
	require.NoError(t, chats.Deactivate(context.Background(), -100))
	chat, err = chats.Register(context.Background(), -100, "supergroup", "group")
	require.NoError(t, err)
	assert.True(t, chat.Active)

	active, err := chats.GetActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestChatServiceDeactivate(t *testing.T) {
	storage := newFakeChatStorage(entity.Chat{ID: -100, Type: "supergroup", Title: "group", Active: true})
	chats := service.NewChatService(storage)

	require.NoError(t, chats.Deactivate(context.Background(), -100))
	active, err := chats.GetActive(context.Background())
	require.NoError(t, err)
	assert.Empty(t, active)

	// Repeated and unknown deactivations are no-ops.
	assert.NoError(t, chats.Deactivate(context.Background(), -100))
	assert.NoError(t, chats.Deactivate(context.Background(), -999))
}
