package config

import (
	"os"
	"strconv"
	"sync"
	"time"
)

type CacheConfig struct {
	TTL time.Duration
}

var (
	cacheConfig *CacheConfig
	cacheOnce   sync.Once
)

func LoadCacheConfig() *CacheConfig {
	cacheOnce.Do(func() {
		ttl := 5 * time.Minute
		if v := os.Getenv("MATCH_CACHE_TTL_SECONDS"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				ttl = time.Duration(n) * time.Second
			}
		}
		cacheConfig = &CacheConfig{TTL: ttl}
	})
	return cacheConfig
}
