package cache

import (
	"sync"

	"uttt-node/types"
)

type LruCacheSvc struct {
	lk     sync.Mutex
	Caches map[string]*LruCache
}

var (
	lruCacheSvc *LruCacheSvc
	lruOnce     sync.Once
)

func NewLruCacheSvc() *LruCacheSvc {
	lruOnce.Do(func() {
		lruCacheSvc = &LruCacheSvc{
			Caches: make(map[string]*LruCache),
		}
	})
	return lruCacheSvc
}

func (svc *LruCacheSvc) CreateCache(name string, capacity int) error {
	svc.lk.Lock()
	defer svc.lk.Unlock()

	if svc.Caches[name] != nil {
		return types.Wrapf(types.ErrConflictName, "the cache [%s] is existing already", name)
	}

	svc.Caches[name] = CreateLruCache(capacity)

	return nil
}

func (svc *LruCacheSvc) Get(name string, key string) (interface{}, error) {
	svc.lk.Lock()
	defer svc.lk.Unlock()

	cache := svc.Caches[name]
	if cache == nil {
		return nil, types.Wrapf(types.ErrNotFound, "the cache [%s] not found", name)
	}

	return cache.get(key), nil
}

func (svc *LruCacheSvc) Put(name string, key string, value interface{}) {
	svc.lk.Lock()
	defer svc.lk.Unlock()

	cache := svc.Caches[name]
	if cache == nil {
		log.Errorf("the cache [%s] not found", name)
		return
	}

	cache.put(key, value)
}

func (svc *LruCacheSvc) Evict(name string, key string) {
	svc.lk.Lock()
	defer svc.lk.Unlock()

	cache := svc.Caches[name]
	if cache == nil {
		log.Errorf("the cache [%s] not found", name)
		return
	}

	cache.evict(key)
}

func (svc *LruCacheSvc) GetCapacity(name string) int {
	svc.lk.Lock()
	defer svc.lk.Unlock()

	cache := svc.Caches[name]
	if cache == nil {
		log.Errorf("the cache [%s] not found", name)
		return 0
	}
	return cache.Capacity
}

func (svc *LruCacheSvc) GetSize(name string) int {
	svc.lk.Lock()
	defer svc.lk.Unlock()

	cache := svc.Caches[name]
	if cache == nil {
		log.Errorf("the cache [%s] not found", name)
		return 0
	}
	return cache.Size
}

func (svc *LruCacheSvc) Keys(name string) []string {
	svc.lk.Lock()
	defer svc.lk.Unlock()

	cache := svc.Caches[name]
	if cache == nil {
		return nil
	}
	return cache.keys()
}

func (svc *LruCacheSvc) ReSize(name string, capacity int) error {
	svc.lk.Lock()
	defer svc.lk.Unlock()

	cache := svc.Caches[name]
	if cache == nil {
		return types.Wrapf(types.ErrNotFound, "the cache [%s] not found", name)
	}

	cache.Capacity = capacity
	for capacity > 0 && cache.Map.Size() > capacity {
		oldKey := cache.removeNode(cache.head)
		cache.Map = cache.Map.Delete(oldKey)
	}
	cache.Size = cache.Map.Size()

	return nil
}
