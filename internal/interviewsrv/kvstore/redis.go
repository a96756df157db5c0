package kvstore

import (
	"context"

	"github.com/go-redis/redis/v8"
)

// redisKV implements KV on a Redis instance.
type redisKV struct {
	client *redis.Client
}

// NewRedis creates a KV backed by Redis at the given address.
func NewRedis(addr, password string, db int) KV {
	return &redisKV{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (r *redisKV) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, ErrStore.MsgErr("redis get failed", err)
	}
	return val, nil
}

func (r *redisKV) Put(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return ErrStore.MsgErr("redis set failed", err)
	}
	return nil
}
