package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dkhrunov/btc-challenge-bot/internal/domain/common/errorz"
	"github.com/dkhrunov/btc-challenge-bot/internal/domain/entity"
)

type ChatStorage struct {
	db *gorm.DB
}

func NewChatStorage(db *gorm.DB) *ChatStorage {
	return &ChatStorage{
		db: db,
	}
}

// Upsert inserts the chat or reactivates/updates an existing row.
func (s *ChatStorage) Upsert(ctx context.Context, chat *entity.Chat) (*entity.Chat, error) {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"type", "title", "active", "updated_at"}),
	}).Create(chat).Error
	return chat, err
}

func (s *ChatStorage) Get(ctx context.Context, chatID int64) (*entity.Chat, error) {
	var chat entity.Chat
	err := s.db.WithContext(ctx).Where("id = ?", chatID).First(&chat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errorz.NotFound
	}
	return &chat, err
}

func (s *ChatStorage) Update(ctx context.Context, chat *entity.Chat) (*entity.Chat, error) {
	err := s.db.WithContext(ctx).Save(chat).Error
	return chat, err
}

func (s *ChatStorage) GetActive(ctx context.Context) ([]entity.Chat, error) {
	var chats []entity.Chat
	err := s.db.WithContext(ctx).Where("active = true").Find(&chats).Error
	return chats, err
}
