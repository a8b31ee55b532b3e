package blacklist

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces blacklist keys.
const DefaultRedisPrefix = "auth:bl:"

// Redis is a Blacklist shared by every process connected to the same Redis.
// Entries use SET ... EX so Redis expires them with the token.
type Redis struct {
	rdb    *redis.Client
	prefix string
}

// NewRedis connects using a URL such as redis://:pass@host:6379/0 and pings
// the server so misconfiguration fails at startup. An empty prefix uses
// DefaultRedisPrefix.
func NewRedis(ctx context.Context, redisURL, prefix string) (*Redis, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	return NewRedisFromClient(rdb, prefix), nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(rdb *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &Redis{rdb: rdb, prefix: prefix}
}

func (r *Redis) Add(ctx context.Context, token string, ttl time.Duration) error {
	return r.AddKey(ctx, Key(token), ttl)
}

func (r *Redis) AddKey(ctx context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	// Sub-second TTLs are rounded up; SET EX is second granularity.
	if ttl < time.Second {
		ttl = time.Second
	}
	return r.rdb.Set(ctx, r.prefix+key, "1", ttl).Err()
}

func (r *Redis) Contains(ctx context.Context, token string) (bool, error) {
	n, err := r.rdb.Exists(ctx, r.prefix+Key(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Redis) Ping(ctx context.Context) error { return r.rdb.Ping(ctx).Err() }
func (r *Redis) Close() error                   { return r.rdb.Close() }
