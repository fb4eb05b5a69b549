package cache

import (
	"context"
	"time"

	"github.com/totegamma/wbconstraints/internal/usecase"
)

// NoopStore never stores anything; every read is a miss.
type NoopStore struct{}

func (NoopStore) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, usecase.ErrCacheMiss
}

func (NoopStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}

func (NoopStore) Delete(ctx context.Context, key string) error {
	return nil
}
