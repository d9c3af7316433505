package service

import (
	"context"

	"github.com/dkhrunov/btc-challenge-bot/internal/domain/entity"
)

type UserStorage interface {
	Create(ctx context.Context, user *entity.User) (*entity.User, error)
	Get(ctx context.Context, userID int64) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) (*entity.User, error)
	GetAll(ctx context.Context) ([]entity.User, error)
	GetMany(ctx context.Context, ids []int64) ([]entity.User, error)
	GetVerified(ctx context.Context) ([]entity.User, error)
}

type UserService struct {
	userStorage UserStorage
}

func NewUserService(storage UserStorage) *UserService {
	return &UserService{
		userStorage: storage,
	}
}

func (s *UserService) Create(ctx context.Context, user entity.User) (*entity.User, error) {
	return s.userStorage.Create(ctx, &user)
}

func (s *UserService) Get(ctx context.Context, userID int64) (*entity.User, error) {
	return s.userStorage.Get(ctx, userID)
}

func (s *UserService) Update(ctx context.Context, user *entity.User) (*entity.User, error) {
	return s.userStorage.Update(ctx, user)
}

func (s *UserService) GetAll(ctx context.Context) ([]entity.User, error) {
	return s.userStorage.GetAll(ctx)
}

func (s *UserService) GetMany(ctx context.Context, ids []int64) ([]entity.User, error) {
	return s.userStorage.GetMany(ctx, ids)
}

func (s *UserService) GetVerified(ctx context.Context) ([]entity.User, error) {
	return s.userStorage.GetVerified(ctx)
}

// Verify marks the user as approved by an admin.
func (s *UserService) Verify(ctx context.Context, userID int64) (*entity.User, error) {
	user, err := s.userStorage.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Verified {
		return user, nil
	}
	user.Verified = true
	return s.userStorage.Update(ctx, user)
}

// Ban blocks the user from the bot.
func (s *UserService) Ban(ctx context.Context, userID int64) (*entity.User, error) {
	user, err := s.userStorage.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Banned = true
	return s.userStorage.Update(ctx, user)
}
