package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/friendapi/internal/model"
	"github.com/mcoot/friendapi/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface.
// The whole list lives in a single string value, so every save replaces it
// atomically.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) Load(ctx context.Context) ([]model.FriendEntry, error) {
	data, err := s.client.Get(ctx, friendsKey(s.cfg.KeyPrefix)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []model.FriendEntry{}, nil
		}
		return nil, err
	}

	return storage.Decode(data)
}

func (s *Storage) Save(ctx context.Context, entries []model.FriendEntry) error {
	data, err := storage.Encode(entries)
	if err != nil {
		return err
	}

	// No TTL: the friend list is permanent
	return s.client.Set(ctx, friendsKey(s.cfg.KeyPrefix), data, 0).Err()
}
