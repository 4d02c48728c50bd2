package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idemLock      = "LOCK"
	idemResultPfx = "RES:"
)

// IdempotencyStore remembers the response of a completed request under a
// client supplied key. A key is either locked (request in flight) or holds a
// result.
type IdempotencyStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewIdempotencyStore(rdb *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb, ttl: ttl}
}

type IdemState int

const (
	IdemAcquired IdemState = iota
	IdemCompleted
	IdemInProgress
)

// Begin either takes the lock for key, returns the stored result of an
// earlier request, or reports that another request holds the lock.
func (s *IdempotencyStore) Begin(ctx context.Context, key string, lockTTL time.Duration) (IdemState, string, error) {
	if payload, ok, err := s.GetResult(ctx, key); err != nil || ok {
		return IdemCompleted, payload, err
	}

	locked, err := s.rdb.SetNX(ctx, key, idemLock, lockTTL).Result()
	if err != nil {
		return IdemInProgress, "", err
	}
	if locked {
		return IdemAcquired, "", nil
	}

	// lost the race; the winner may already have finished
	if payload, ok, err := s.GetResult(ctx, key); err == nil && ok {
		return IdemCompleted, payload, nil
	}

	return IdemInProgress, "", nil
}

func (s *IdempotencyStore) SaveResult(ctx context.Context, key, jsonPayload string) error {
	return s.rdb.Set(ctx, key, idemResultPfx+jsonPayload, s.ttl).Err()
}

func (s *IdempotencyStore) GetResult(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if payload, ok := strings.CutPrefix(v, idemResultPfx); ok {
		return payload, true, nil
	}

	return "", false, nil
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
