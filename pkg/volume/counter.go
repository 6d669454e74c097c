// Package volume keeps per-collection content block counters in Redis so
// collection information requests do not count rows on every call.
package volume

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "taxii:volume:"

type Counter interface {
	Add(ctx context.Context, collection string, n int64) error
	// Get returns ok=false when no counter exists yet.
	Get(ctx context.Context, collection string) (n int64, ok bool, err error)
	Set(ctx context.Context, collection string, n int64) error
}

type RedisCounter struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCounter stores counters with ttl so they are periodically
// recomputed from the store; zero keeps them forever.
func NewRedisCounter(rdb *redis.Client, ttl time.Duration) *RedisCounter {
	return &RedisCounter{rdb: rdb, ttl: ttl}
}

func Key(collection string) string {
	return keyPrefix + collection
}

// Add only bumps counters that already exist; a missing counter is rebuilt
// from the store on the next read.
func (c *RedisCounter) Add(ctx context.Context, collection string, n int64) error {
	key := Key(collection)
	exists, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("volume exists %s: %w", collection, err)
	}
	if exists == 0 {
		return nil
	}
	if err := c.rdb.IncrBy(ctx, key, n).Err(); err != nil {
		return fmt.Errorf("volume incr %s: %w", collection, err)
	}
	return nil
}

func (c *RedisCounter) Get(ctx context.Context, collection string) (int64, bool, error) {
	n, err := c.rdb.Get(ctx, Key(collection)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("volume get %s: %w", collection, err)
	}
	return n, true, nil
}

func (c *RedisCounter) Set(ctx context.Context, collection string, n int64) error {
	if err := c.rdb.Set(ctx, Key(collection), n, c.ttl).Err(); err != nil {
		return fmt.Errorf("volume set %s: %w", collection, err)
	}
	return nil
}
