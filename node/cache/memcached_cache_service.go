package cache

import (
	"encoding/json"
	"sync"

	"github.com/bradfitz/gomemcache/memcache"

	"uttt-node/types"
)

type MemcachedCacheSvc struct {
	Client *memcache.Client
}

var (
	memcachedCacheSvc *MemcachedCacheSvc
	memcachedOnce     sync.Once
)

func NewMemcachedCacheSvc(conn string) *MemcachedCacheSvc {
	memcachedOnce.Do(func() {
		log.Infof("init memcache client: %v ******", conn)

		memcachedCacheSvc = &MemcachedCacheSvc{
			Client: memcache.New(conn),
		}
	})
	return memcachedCacheSvc
}

func (svc *MemcachedCacheSvc) CreateCache(name string, capacity int) error {
	return nil
}

func (svc *MemcachedCacheSvc) Get(name string, key string) (interface{}, error) {
	item, err := svc.Client.Get(name + "_" + key)
	if err != nil {
		return nil, err
	}

	if item.Value != nil {
		var res interface{}
		if err := json.Unmarshal(item.Value, &res); err != nil {
			return nil, err
		}
		return res, nil
	}

	return nil, types.Wrapf(types.ErrNotFound, "%s_%s", name, key)
}

func (svc *MemcachedCacheSvc) Put(name string, key string, value interface{}) {
	bytes, err := json.Marshal(value)
	if err != nil {
		log.Error(err.Error())
		return
	}

	err = svc.Client.Set(&memcache.Item{
		Key:   name + "_" + key,
		Value: bytes,
		Flags: 0,
	})
	if err != nil {
		log.Error(err.Error())
	}
}

func (svc *MemcachedCacheSvc) Evict(name string, key string) {
	err := svc.Client.Delete(name + "_" + key)
	if err != nil {
		log.Error(err.Error())
	}
}

func (svc *MemcachedCacheSvc) GetCapacity(name string) int {
	log.Warn("depends on memcache capacity")

	return -1
}

func (svc *MemcachedCacheSvc) GetSize(name string) int {
	log.Warn("depends on memcache capacity")

	return -1
}

func (svc *MemcachedCacheSvc) Keys(name string) []string {
	log.Warn("key enumeration is not supported on memcache")

	return nil
}

func (svc *MemcachedCacheSvc) ReSize(name string, capacity int) error {
	log.Warn("unsupported operation, depends on memcache capacity")

	return nil
}
