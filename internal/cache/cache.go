// Package cache holds small JSON values with a time to live.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a read-through store for JSON-encodable values. A ttl of zero
// or less keeps the value until it is overwritten or deleted.
type Cache interface {
	// Get decodes the value under key into out and reports whether it
	// was present and fresh.
	Get(ctx context.Context, key string, out any) (bool, error)
	Put(ctx context.Context, key string, val any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

var ErrUnknownBackend = errors.New("unknown cache backend")

// Options selects and configures a cache backend.
type Options struct {
	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
	SQLitePath    string
}

// Open builds the configured backend. The returned close func releases
// its connections.
func Open(ctx context.Context, opts Options) (Cache, func() error, error) {
	switch strings.ToLower(opts.Backend) {
	case "", BackendMemory:
		return NewMemory(), func() error { return nil }, nil
	case BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("ping redis %s: %w", opts.RedisAddr, err)
		}
		return NewRedis(client, opts.KeyPrefix), client.Close, nil
	case BackendSQLite:
		c, err := NewSQLite(opts.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if _, err := c.Purge(ctx); err != nil {
			_ = c.Close()
			return nil, nil, err
		}
		return c, c.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}
