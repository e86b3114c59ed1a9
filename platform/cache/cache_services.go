package cache

import (
	"go_qa_assistant/pkg/logging"
	"time"
)

type Service struct {
	l1 *L1CacheService
	l2 L2Store
}

// NewCacheService builds the two-level cache. l2 may be nil, in which case only the
// in-process level is used.
func NewCacheService(l1 *L1CacheService, l2 L2Store) CacheService {
	return &Service{l1: l1, l2: l2}
}

func (cs *Service) GetCache(key string) (interface{}, bool) {
	if data, ok := cs.l1.Get(key); ok {
		return data, ok
	}
	if cs.l2 == nil {
		return nil, false
	}
	if data, ok := cs.l2.GetCache(key); ok {
		return data, ok
	}
	return nil, false
}

func (cs *Service) SetCache(key string, value interface{}, expiration time.Duration) error {
	if cs.l2 != nil {
		if err := cs.l2.SetCache(key, value, expiration); err != nil {
			logging.Logger.Error("l2 fail SetCache", "key", key, "error", err)
			return err
		}
	}
	if expiration <= 0 {
		cs.l1.Set(key, value, NoExpiration)
		return nil
	}
	cs.l1.Set(key, value, time.Duration(float64(expiration)*0.3))
	return nil
}

func (cs *Service) DelCache(key string) error {
	cs.l1.Del(key)
	if cs.l2 == nil {
		return nil
	}
	if err := cs.l2.DelCache(key); err != nil {
		logging.Logger.Error("l2 fail DelCache", "key", key, "error", err)
		return err
	}
	return nil
}
