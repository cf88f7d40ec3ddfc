package cache

import (
	hamt "github.com/raviqqe/hamt"
)

type (
	// node is a doubly linked recency list element; head is the least
	// recently used entry, end the most recent.
	node struct {
		Key   hamt.Entry
		Value interface{}
		pre   *node
		next  *node
	}

	LruCache struct {
		Capacity int
		Size     int
		head     *node
		end      *node

		Map hamt.Map
	}
)

func CreateLruCache(capacity int) *LruCache {
	lruCache := LruCache{Capacity: capacity}
	lruCache.Map = hamt.NewMap()
	lruCache.Size = lruCache.Map.Size()
	return &lruCache
}

func (l *LruCache) addNode(n *node) {
	if l.end != nil {
		l.end.next = n
		n.pre = l.end
		n.next = nil
	}
	l.end = n
	if l.head == nil {
		l.head = n
	}
}

func (l *LruCache) removeNode(n *node) hamt.Entry {
	if n == l.end {
		l.end = l.end.pre
		if l.end != nil {
			l.end.next = nil
		}
	} else if n == l.head {
		l.head = l.head.next
		if l.head != nil {
			l.head.pre = nil
		}
	} else {
		n.pre.next = n.next
		n.next.pre = n.pre
	}
	if l.head == nil || l.end == nil {
		l.head, l.end = nil, nil
	}
	return n.Key
}

func (l *LruCache) refreshNode(n *node) {
	if n == l.end {
		return
	}
	l.removeNode(n)
	l.addNode(n)
}

func (l *LruCache) get(key string) interface{} {
	value := l.Map.Find(hamt.Entry(entryString(key)))
	if value != nil {
		n, ok := value.(*node)
		if ok {
			l.refreshNode(n)
			return n.Value
		}
	}

	return nil
}

func (l *LruCache) put(keyStr string, value interface{}) {
	key := hamt.Entry(entryString(keyStr))
	oldValue := l.Map.Find(key)
	if oldValue == nil {
		n := node{Key: key, Value: value}
		if l.Capacity > 0 && l.Map.Size() >= l.Capacity {
			oldKey := l.removeNode(l.head)
			l.Map = l.Map.Delete(oldKey).Insert(key, &n)
		} else {
			l.Map = l.Map.Insert(key, &n)
		}
		l.addNode(&n)
	} else {
		n, ok := oldValue.(*node)
		if !ok {
			return
		}
		n.Value = value
		l.refreshNode(n)
		l.Map = l.Map.Insert(key, n)
	}
	l.Size = l.Map.Size()
}

func (l *LruCache) evict(key string) {
	value := l.Map.Find(hamt.Entry(entryString(key)))
	if value != nil {
		n, ok := value.(*node)
		if ok {
			oldKey := l.removeNode(n)
			l.Map = l.Map.Delete(oldKey)
			l.Size = l.Map.Size()
		}
	}
}

// keys walks the recency list from least to most recently used.
func (l *LruCache) keys() []string {
	var out []string
	for n := l.head; n != nil; n = n.next {
		if s, ok := n.Key.(entryString); ok {
			out = append(out, string(s))
		}
	}
	return out
}
