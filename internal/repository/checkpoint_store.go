package repository

import (
	"context"
	"errors"
	"fmt"

	"StockScan/pkg/cache"
)

// CacheCheckpointStore keeps checkpoint blobs in the shared key/value
// cache with no expiry; lifecycle is explicit via Delete.
type CacheCheckpointStore struct {
	cache cache.Service
}

func NewCacheCheckpointStore(svc cache.Service) *CacheCheckpointStore {
	return &CacheCheckpointStore{cache: svc}
}

func (s *CacheCheckpointStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	if err := s.cache.Get(ctx, key, &value); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("checkpoint get %q: %w", key, err)
	}
	return value, true, nil
}

func (s *CacheCheckpointStore) Put(ctx context.Context, key, value string) error {
	if err := s.cache.Set(ctx, key, value, 0); err != nil {
		return fmt.Errorf("checkpoint put %q: %w", key, err)
	}
	return nil
}

func (s *CacheCheckpointStore) Delete(ctx context.Context, key string) error {
	if err := s.cache.Delete(ctx, key); err != nil {
		return fmt.Errorf("checkpoint delete %q: %w", key, err)
	}
	return nil
}
