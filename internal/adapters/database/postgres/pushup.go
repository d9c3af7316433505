package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dkhrunov/btc-challenge-bot/internal/domain/entity"
)

type PushUpStorage struct {
	db *gorm.DB
}

func NewPushUpStorage(db *gorm.DB) *PushUpStorage {
	return &PushUpStorage{
		db: db,
	}
}

// Create is a function that creates a new push-up record in the database.
func (s *PushUpStorage) Create(ctx context.Context, pushUp *entity.PushUp) (*entity.PushUp, error) {
	err := s.db.WithContext(ctx).Create(pushUp).Error
	return pushUp, err
}

func (s *PushUpStorage) GetByUserAndDateRange(ctx context.Context, userID int64, begin, end time.Time) ([]entity.PushUp, error) {
	var pushUps []entity.PushUp
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND created_at >= ? AND created_at <= ?", userID, begin, end).
		Order("created_at").
		Find(&pushUps).Error
	return pushUps, err
}

func (s *PushUpStorage) GetByUsersAndDateRange(ctx context.Context, userIDs []int64, begin, end time.Time) ([]entity.PushUp, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var pushUps []entity.PushUp
	err := s.db.WithContext(ctx).
		Where("user_id IN ? AND created_at >= ? AND created_at <= ?", userIDs, begin, end).
		Order("created_at").
		Find(&pushUps).Error
	return pushUps, err
}
