package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/dkhrunov/btc-challenge-bot/internal/adapters/database/redis/drafts"
	"github.com/dkhrunov/btc-challenge-bot/internal/adapters/database/redis/states"
)

type Client struct {
	States *states.Storage
	Drafts *drafts.Storage
}

type Options struct {
	Host     string
	Port     string
	Password string
}

func New(opts Options) (*Client, error) {
	stateStorage := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", opts.Host, opts.Port),
		Password: opts.Password,
		DB:       0,
	})
	if err := stateStorage.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping state storage: %w", err)
	}

	draftStorage := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", opts.Host, opts.Port),
		Password: opts.Password,
		DB:       1,
	})
	if err := draftStorage.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping draft storage: %w", err)
	}

	return &Client{
		States: states.NewStorage(stateStorage),
		Drafts: drafts.NewStorage(draftStorage),
	}, nil
}
