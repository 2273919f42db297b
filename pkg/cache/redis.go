package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/wayfinder/pkg/buildinfo"
)

// RedisCache stores enveloped entries in Redis. Keys carry Redis-side
// expiry and the envelope expiry is checked on read as well.
type RedisCache struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisCache connects to addr and verifies the connection with PING.
func NewRedisCache(ctx context.Context, addr, password string, db int) (Cache, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis cache: empty address")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,

		ClientName: buildinfo.UserAgent(),
	})
	err := connectBackoff.ping(ctx, "redis "+addr, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return NewRedisCacheFromClient(client), nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, now: time.Now}
}

// Get returns the payload stored under key. Entries that fail the envelope
// check are deleted and reported as misses.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	data, err := unseal(key, raw, c.now())
	if err != nil {
		_ = c.client.Del(ctx, key).Err()
		return nil, false, nil
	}
	return data, true, nil
}

// Set stores data under key with Redis-side expiry.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	raw, err := seal(key, data, ttl, c.now())
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, ttl).Err()
}

// Delete removes a value from Redis.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// Close closes the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

var _ Cache = (*RedisCache)(nil)
