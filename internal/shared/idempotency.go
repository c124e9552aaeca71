package shared

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyStore claims keys so a side effect runs at most once per key
// within the TTL. Without a Redis client it falls back to process memory.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration

	mu    sync.Mutex
	local map[string]time.Time
	now   func() time.Time
}

// NewIdempotencyStore constructs the store.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &IdempotencyStore{client: client, ttl: ttl, local: make(map[string]time.Time), now: time.Now}
}

// ErrIdempotencyConflict indicates a duplicate key.
var ErrIdempotencyConflict = errors.New("idempotent request already processed")

// Acquire claims key or returns ErrIdempotencyConflict when it is held.
func (s *IdempotencyStore) Acquire(ctx context.Context, key string) error {
	if s == nil {
		return errors.New("idempotency store not initialised")
	}
	if key == "" {
		return errors.New("idempotency key required")
	}
	if s.client != nil {
		ok, err := s.client.SetNX(ctx, key, s.now().UTC().Format(time.RFC3339), s.ttl).Result()
		if err != nil {
			return err
		}
		if !ok {
			return ErrIdempotencyConflict
		}
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, expires := range s.local {
		if !now.Before(expires) {
			delete(s.local, k)
		}
	}
	if expires, held := s.local[key]; held && now.Before(expires) {
		return ErrIdempotencyConflict
	}
	s.local[key] = now.Add(s.ttl)
	return nil
}

// Release frees key, typically used to roll back failed processing.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if s == nil {
		return nil
	}
	if s.client != nil {
		if err := s.client.Del(ctx, key).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.local, key)
	return nil
}
