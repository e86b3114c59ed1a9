package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

type L1CacheService struct {
	client *gocache.Cache
}

func InitL1Cache() *L1CacheService {
	return &L1CacheService{
		client: gocache.New(5*time.Minute, 10*time.Minute),
	}
}

func (s *L1CacheService) Get(key string) (interface{}, bool) {
	return s.client.Get(key)
}

// Set stores value; a non-positive expiration keeps it until Del.
func (s *L1CacheService) Set(key string, value interface{}, expiration time.Duration) {
	if expiration <= 0 {
		expiration = gocache.NoExpiration
	}
	s.client.Set(key, value, expiration)
}

func (s *L1CacheService) Del(key string) {
	s.client.Delete(key)
}
