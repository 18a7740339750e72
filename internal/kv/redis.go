package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is the production Store backed by a Redis server. All TTL handling
// is delegated to Redis key expiry.
type Redis struct {
	client       *redis.Client
	nextIDScript *redis.Script
}

// nextIDLua atomically advances a counter to max(now, previous+1), applies
// the TTL, and returns the new value. Running it as a script keeps the
// read-compare-write cycle atomic under concurrent appends to the same pair.
const nextIDLua = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local ttl = tonumber(ARGV[2])

local prev = tonumber(redis.call('GET', key)) or 0
local next = now
if next <= prev then
    next = prev + 1
end

redis.call('SET', key, next)
redis.call('PEXPIRE', key, ttl)
return next
`

// NewRedis connects to the Redis server at addr and verifies the connection
// before returning.
func NewRedis(addr string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("kv: redis connection failed: %w", err)
	}

	return &Redis{
		client:       client,
		nextIDScript: redis.NewScript(nextIDLua),
	}, nil
}

// NewRedisFromClient wraps an existing Redis client. Used when the caller
// manages the client lifecycle itself.
func NewRedisFromClient(client *redis.Client) *Redis {
	return &Redis{
		client:       client,
		nextIDScript: redis.NewScript(nextIDLua),
	}
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *Redis) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

func (r *Redis) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return r.client.Expire(ctx, key, ttl).Err()
}

func (r *Redis) Incr(ctx context.Context, key string) (int64, error) {
	return r.client.Incr(ctx, key).Result()
}

func (r *Redis) NextID(ctx context.Context, key string, now int64, ttl time.Duration) (int64, error) {
	id, err := r.nextIDScript.Run(ctx, r.client, []string{key}, now, ttl.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("kv: next id: %w", err)
	}
	return id, nil
}

func (r *Redis) SAdd(ctx context.Context, key string, members ...string) error {
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	return r.client.SAdd(ctx, key, args...).Err()
}

func (r *Redis) SMembers(ctx context.Context, key string) ([]string, error) {
	return r.client.SMembers(ctx, key).Result()
}

func (r *Redis) HSet(ctx context.Context, key, field, value string) error {
	return r.client.HSet(ctx, key, field, value).Err()
}

func (r *Redis) HDel(ctx context.Context, key string, fields ...string) error {
	return r.client.HDel(ctx, key, fields...).Err()
}

func (r *Redis) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return r.client.HGetAll(ctx, key).Result()
}

func (r *Redis) LPush(ctx context.Context, key string, values ...string) error {
	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = v
	}
	return r.client.LPush(ctx, key, args...).Err()
}

func (r *Redis) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return r.client.LRange(ctx, key, start, stop).Result()
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// Client returns the underlying Redis client for use by other packages.
func (r *Redis) Client() *redis.Client {
	return r.client
}
