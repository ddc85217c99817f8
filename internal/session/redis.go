package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions in Redis with key expiry.
type RedisStore struct {
	rdb *redis.Client
}

// OpenRedisStore connects to addr and checks the server answers.
func OpenRedisStore(ctx context.Context, addr string) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	return &RedisStore{rdb: rdb}, nil
}

func (r *RedisStore) Save(ctx context.Context, rec Record, ttl time.Duration) error {
	data, err := encode(rec)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, key(rec.ID), data, ttl).Err()
}

func (r *RedisStore) Load(ctx context.Context, id string) (Record, error) {
	data, err := r.rdb.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrSessionNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("load session %s: %w", id, err)
	}
	return decode(id, data)
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, key(id)).Err()
}

func (r *RedisStore) Close() error {
	return r.rdb.Close()
}
