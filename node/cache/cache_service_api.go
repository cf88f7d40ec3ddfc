package cache

import (
	logging "github.com/ipfs/go-log/v2"

	"uttt-node/node/config"
)

var log = logging.Logger("cache")

// CacheSvcApi is the named-cache service shared by the deploy service (cache
// key index) and the site server (path lookups).
type CacheSvcApi interface {
	CreateCache(name string, capacity int) error
	Get(name string, key string) (interface{}, error)
	Put(name string, key string, value interface{})
	Evict(name string, key string)
	GetSize(name string) int
	GetCapacity(name string) int
	// Keys enumerates a cache in LRU order; remote backends return nil.
	Keys(name string) []string
	ReSize(name string, capacity int) error
}

// NewCacheSvc picks the backend from config: redis when RedisConn is set,
// memcached when MemcachedConn is set, the in-process LRU otherwise.
func NewCacheSvc(cfg *config.Cache) CacheSvcApi {
	if cfg.RedisConn != "" {
		return NewRedisCacheSvc(cfg.RedisConn, cfg.RedisPassword, cfg.RedisPoolSize)
	}
	if cfg.MemcachedConn != "" {
		return NewMemcachedCacheSvc(cfg.MemcachedConn)
	}
	return NewLruCacheSvc()
}
