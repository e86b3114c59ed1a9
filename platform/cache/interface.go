package cache

import "time"

// NoExpiration keeps an entry until it is deleted explicitly.
const NoExpiration time.Duration = 0

// CacheService is the two-level cache used by the version store and preferences.
type CacheService interface {
	GetCache(key string) (interface{}, bool)
	SetCache(key string, value interface{}, expiration time.Duration) error
	DelCache(key string) error
}

// L2Store is the shared second level, Redis in production.
type L2Store interface {
	GetCache(key string) (interface{}, bool)
	SetCache(key string, value interface{}, expiration time.Duration) error
	DelCache(key string) error
}
