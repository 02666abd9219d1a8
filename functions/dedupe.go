package functions

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rpupo63/projecthub-backend/errs"
)

// NewRedisClient connects and pings a Redis server.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errs.NewInternalErrorWithCause("failed to connect to redis", err)
	}
	return client, nil
}

// RedisDeduper remembers keys with SETNX for a fixed window.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: ttl}
}

func (d *RedisDeduper) FirstSeen(ctx context.Context, key string) (bool, error) {
	return d.client.SetNX(ctx, key, 1, d.ttl).Result()
}
