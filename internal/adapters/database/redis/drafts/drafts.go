package drafts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dkhrunov/btc-challenge-bot/internal/domain/entity"
)

// Storage caches an in-progress event draft per admin while the creation
// dialog runs.
type Storage struct {
	redis *redis.Client
}

func NewStorage(client *redis.Client) *Storage {
	return &Storage{
		redis: client,
	}
}

func (s *Storage) Get(userID int64) (entity.Event, error) {
	draftBytes, err := s.redis.Get(context.Background(), fmt.Sprintf("%d", userID)).Result()
	if err != nil {
		return entity.Event{}, nil
	}

	var event entity.Event
	if err = json.Unmarshal([]byte(draftBytes), &event); err != nil {
		return entity.Event{}, err
	}

	return event, nil
}

func (s *Storage) Set(userID int64, event entity.Event, expiration time.Duration) {
	draftBytes, _ := json.Marshal(event)
	s.redis.Set(context.Background(), fmt.Sprintf("%d", userID), draftBytes, expiration)
}

func (s *Storage) Clear(userID int64) {
	s.redis.Del(context.Background(), fmt.Sprintf("%d", userID))
}
