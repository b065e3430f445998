package cache

import (
	"context"
	"time"

	"github.com/allegro/bigcache/v3"
)

type BigCache struct {
	Cache *bigcache.BigCache
}

// NewBigCache evicts entries allKeysExpTime after they are written.
func NewBigCache(allKeysExpTime time.Duration) (*BigCache, error) {
	config := bigcache.DefaultConfig(allKeysExpTime)
	config.CleanWindow = time.Minute
	if allKeysExpTime < config.CleanWindow {
		config.CleanWindow = allKeysExpTime
	}
	config.Verbose = false

	cache, err := bigcache.New(context.Background(), config)
	if err != nil {
		return nil, err
	}
	return &BigCache{Cache: cache}, nil
}

func (s *BigCache) Set(key string, entry []byte) (err error) {
	return s.Cache.Set(key, entry)
}

func (s *BigCache) Get(key string) ([]byte, error) {
	return s.Cache.Get(key)
}
