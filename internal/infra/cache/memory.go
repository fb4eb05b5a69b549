package cache

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/totegamma/wbconstraints/internal/usecase"
)

// MemoryStore keeps values in process. Each instance has its own copy, so
// purges must be broadcast to every instance.
type MemoryStore struct {
	cache *cache.Cache
}

func NewMemoryStore(defaultTTL, cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{cache: cache.New(defaultTTL, cleanupInterval)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	x, found := s.cache.Get(key)
	if !found {
		return nil, usecase.ErrCacheMiss
	}
	return x.([]byte), nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = cache.DefaultExpiration
	}
	s.cache.Set(key, value, ttl)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}

func (s *MemoryStore) ItemCount() int {
	return s.cache.ItemCount()
}
