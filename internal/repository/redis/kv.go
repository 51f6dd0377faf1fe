package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/go-redis/redis/v8"

	"github.com/Kerhoff/InSync/internal/repository"
)

// Options configures the Redis connection used for device storage.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewClient creates a Redis client from options.
func NewClient(opts Options) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
}

type kvRepository struct {
	client *goredis.Client
	prefix string
}

// NewKeyValueRepository stores values as plain Redis strings without expiry,
// under prefix+key.
func NewKeyValueRepository(client *goredis.Client, prefix string) repository.KeyValueStore {
	return &kvRepository{client: client, prefix: prefix}
}

func (r *kvRepository) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get storage key %q: %w", key, err)
	}
	return value, true, nil
}

func (r *kvRepository) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set storage key %q: %w", key, err)
	}
	return nil
}

func (r *kvRepository) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete storage key %q: %w", key, err)
	}
	return nil
}

func (r *kvRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
