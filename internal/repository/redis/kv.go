package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// KV stores visitor documents as plain Redis strings under a namespace.
// Every write refreshes the TTL so abandoned visitors age out.
type KV struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewKV(rdb *redis.Client, ttl time.Duration) *KV {
	return &KV{rdb: rdb, prefix: KeyVisitorPrefix() + ":", ttl: ttl}
}

func (k *KV) key(key string) string {
	return k.prefix + key
}

func (k *KV) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := k.rdb.Get(ctx, k.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (k *KV) Set(ctx context.Context, key, value string) error {
	return k.rdb.Set(ctx, k.key(key), value, k.ttl).Err()
}

func (k *KV) Remove(ctx context.Context, key string) error {
	return k.rdb.Del(ctx, k.key(key)).Err()
}
