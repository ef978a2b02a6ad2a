// Package redis provides a thin wrapper around go-redis/v9 with the string,
// hash, and set operations the catalog store needs, plus pipelining for
// batched writes.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shopchat/catalog/pkg/config"
)

// Client wraps a go-redis client.
type Client struct {
	rdb *redis.Client
}

// NewClient creates a Redis client and verifies the connection with a PING.
func NewClient(cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Client{rdb: rdb}, nil
}

// Get returns the string value for the given key.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	return c.rdb.Get(ctx, key).Result()
}

// Set stores a value under key. A zero TTL means no expiry.
func (c *Client) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// Del deletes one or more keys.
func (c *Client) Del(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}

// SMembers returns all members of the set at key.
func (c *Client) SMembers(ctx context.Context, key string) ([]string, error) {
	return c.rdb.SMembers(ctx, key).Result()
}

// SRandMembers returns up to count random members of the set at key.
func (c *Client) SRandMembers(ctx context.Context, key string, count int) ([]string, error) {
	return c.rdb.SRandMemberN(ctx, key, int64(count)).Result()
}

// HGetAll returns the full hash at key.
func (c *Client) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return c.rdb.HGetAll(ctx, key).Result()
}

// Pipeline starts a command pipeline. Queued commands are sent in one round
// trip when Exec is called.
func (c *Client) Pipeline() Pipeliner {
	return Pipeliner{pipe: c.rdb.Pipeline()}
}

// Pipeliner queues commands for batched execution.
type Pipeliner struct {
	pipe redis.Pipeliner
}

// StringCmd is a pending string result from a pipelined GET.
type StringCmd = redis.StringCmd

// Set queues a SET.
func (p Pipeliner) Set(ctx context.Context, key string, value interface{}) {
	p.pipe.Set(ctx, key, value, 0)
}

// Del queues a DEL.
func (p Pipeliner) Del(ctx context.Context, keys ...string) {
	p.pipe.Del(ctx, keys...)
}

// SAdd queues an SADD.
func (p Pipeliner) SAdd(ctx context.Context, key string, members ...interface{}) {
	p.pipe.SAdd(ctx, key, members...)
}

// HSet queues an HSET of a single field.
func (p Pipeliner) HSet(ctx context.Context, key, field string, value interface{}) {
	p.pipe.HSet(ctx, key, field, value)
}

// Get queues a GET and returns the pending result.
func (p Pipeliner) Get(ctx context.Context, key string) *redis.StringCmd {
	return p.pipe.Get(ctx, key)
}

// Len returns the number of queued commands.
func (p Pipeliner) Len() int {
	return p.pipe.Len()
}

// Exec sends all queued commands. Key-not-found results are not treated as
// errors; callers inspect individual command results where they care.
func (p Pipeliner) Exec(ctx context.Context) error {
	_, err := p.pipe.Exec(ctx)
	if err != nil && err != redis.Nil {
		return fmt.Errorf("pipeline exec: %w", err)
	}
	return nil
}

// IsNilError reports whether err is a Redis nil (key-not-found) error.
func IsNilError(err error) bool {
	return err == redis.Nil
}

// Ping sends a PING to Redis and returns any error.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the underlying Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}
