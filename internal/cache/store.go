package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Store.Get for absent or expired keys.
var ErrCacheMiss = errors.New("cache miss")

// Store is the key-value surface shared by the Redis and in-memory backends.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
	DeleteIfValue(ctx context.Context, key string, value string) (bool, error)
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}
