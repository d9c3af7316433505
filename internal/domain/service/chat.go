package service

import (
	"context"
	"errors"

	"github.com/dkhrunov/btc-challenge-bot/internal/domain/common/errorz"
	"github.com/dkhrunov/btc-challenge-bot/internal/domain/entity"
)

type ChatStorage interface {
	Upsert(ctx context.Context, chat *entity.Chat) (*entity.Chat, error)
	Get(ctx context.Context, chatID int64) (*entity.Chat, error)
	Update(ctx context.Context, chat *entity.Chat) (*entity.Chat, error)
	GetActive(ctx context.Context) ([]entity.Chat, error)
}

type ChatService struct {
	chatStorage ChatStorage
}

func NewChatService(storage ChatStorage) *ChatService {
	return &ChatService{
		chatStorage: storage,
	}
}

// Register stores the group chat (or reactivates a previously deactivated one).
func (s *ChatService) Register(ctx context.Context, chatID int64, chatType, title string) (*entity.Chat, error) {
	return s.chatStorage.Upsert(ctx, &entity.Chat{
		ID:     chatID,
		Type:   chatType,
		Title:  title,
		Active: true,
	})
}

// Deactivate stops broadcasts to the chat. Unknown chats are ignored.
func (s *ChatService) Deactivate(ctx context.Context, chatID int64) error {
	chat, err := s.chatStorage.Get(ctx, chatID)
	if err != nil {
		if errors.Is(err, errorz.NotFound) {
			return nil
		}
		return err
	}
	if !chat.Active {
		return nil
	}
	chat.Active = false
	_, err = s.chatStorage.Update(ctx, chat)
	return err
}

func (s *ChatService) GetActive(ctx context.Context) ([]entity.Chat, error) {
	return s.chatStorage.GetActive(ctx)
}
