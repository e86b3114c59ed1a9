package cache

import (
	"encoding/json"
	"fmt"
	"go_qa_assistant/pkg/logging"
	"time"

	"golang.org/x/sync/singleflight"
)

// TypedCache wraps a CacheService with typed access and load de-duplication.
type TypedCache[T any] struct {
	cache CacheService
	sf    singleflight.Group
}

func NewTypedCache[T any](cache CacheService) *TypedCache[T] {
	return &TypedCache[T]{cache: cache}
}

func (tc *TypedCache[T]) Set(key string, value T, expiration time.Duration) error {
	return tc.cache.SetCache(key, value, expiration)
}

// Get returns the cached value. Values coming back from L2 are JSON and get decoded.
func (tc *TypedCache[T]) Get(key string) (T, bool, error) {
	var zero T

	rawValue, exists := tc.cache.GetCache(key)
	if !exists {
		return zero, false, nil
	}

	if typedValue, ok := rawValue.(T); ok {
		return typedValue, true, nil
	}

	var result T
	switch v := rawValue.(type) {
	case string:
		if err := json.Unmarshal([]byte(v), &result); err != nil {
			return zero, true, fmt.Errorf("failed to unmarshal cache value: %w", err)
		}
		return result, true, nil
	case []byte:
		if err := json.Unmarshal(v, &result); err != nil {
			return zero, true, fmt.Errorf("failed to unmarshal cache value: %w", err)
		}
		return result, true, nil
	default:
		jsonData, err := json.Marshal(rawValue)
		if err != nil {
			return zero, true, fmt.Errorf("failed to marshal intermediate value: %w", err)
		}
		if err := json.Unmarshal(jsonData, &result); err != nil {
			return zero, true, fmt.Errorf("failed to unmarshal cache value: %w", err)
		}
		return result, true, nil
	}
}

// GetOrLoad returns the cached value, or runs load once for all concurrent callers of
// the same key and caches its result. cached reports whether load was skipped.
func (tc *TypedCache[T]) GetOrLoad(key string, expiration time.Duration, load func() (T, error)) (value T, cached bool, err error) {
	if v, ok, err := tc.Get(key); err == nil && ok {
		return v, true, nil
	}
	res, err, _ := tc.sf.Do(key, func() (interface{}, error) {
		v, err := load()
		if err != nil {
			return v, err
		}
		if err := tc.Set(key, v, expiration); err != nil {
			logging.Logger.Error("fail GetOrLoad cache write", "key", key, "error", err)
		}
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return res.(T), false, nil
}

func (tc *TypedCache[T]) Delete(key string) error {
	tc.sf.Forget(key)
	return tc.cache.DelCache(key)
}
