package cache

import (
	"context"
	"errors"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/totegamma/wbconstraints/internal/usecase"
)

// maxExpiration is the largest relative expiration memcached accepts; larger
// values are read as unix timestamps.
const maxExpiration = 30 * 24 * time.Hour

type MemcachedStore struct {
	client *memcache.Client
}

func NewMemcachedStore(client *memcache.Client) *MemcachedStore {
	return &MemcachedStore{client: client}
}

func (s *MemcachedStore) Get(ctx context.Context, key string) ([]byte, error) {
	item, err := s.client.Get(SafeKey(key))
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, usecase.ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return item.Value, nil
}

func (s *MemcachedStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl > maxExpiration {
		ttl = maxExpiration
	}
	return s.client.Set(&memcache.Item{
		Key:        SafeKey(key),
		Value:      value,
		Expiration: int32(ttl / time.Second),
	})
}

func (s *MemcachedStore) Delete(ctx context.Context, key string) error {
	err := s.client.Delete(SafeKey(key))
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil
	}
	return err
}
