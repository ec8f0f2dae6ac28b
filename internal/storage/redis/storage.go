package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/domonhunt/internal/model"
	"github.com/mcoot/domonhunt/internal/storage"
)

// Blobs is a Redis-backed blob store
type Blobs struct {
	client *redis.Client
	cfg    Config
}

// New connects to Redis and verifies the connection
func New(ctx context.Context, cfg Config) (*Blobs, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}

	return &Blobs{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis blob store with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Blobs {
	return &Blobs{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (b *Blobs) Close() error {
	return b.client.Close()
}

// Ensure Blobs implements the interface
var _ storage.Blobs = (*Blobs)(nil)

func (b *Blobs) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := b.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrBlobNotFound
		}
		return nil, err
	}
	return data, nil
}

func (b *Blobs) Save(ctx context.Context, key string, value []byte) error {
	return b.client.Set(ctx, key, value, 0).Err()
}

func (b *Blobs) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := b.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}
