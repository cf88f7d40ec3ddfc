package utils

import "sync"

// Maplock provides per-key mutual exclusion.
type Maplock struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	wait chan struct{}
	refs int
}

func NewMapLock() *Maplock {
	return &Maplock{
		locks: make(map[string]*entry),
	}
}

func (m *Maplock) Lock(key string) {
	for {
		m.mu.Lock()
		e, ok := m.locks[key]
		if !ok {
			m.locks[key] = &entry{wait: make(chan struct{}), refs: 1}
			m.mu.Unlock()
			return
		}
		e.refs++
		wait := e.wait
		m.mu.Unlock()
		<-wait
	}
}

func (m *Maplock) Unlock(key string) {
	m.mu.Lock()
	e, ok := m.locks[key]
	if ok {
		delete(m.locks, key)
		close(e.wait)
	}
	m.mu.Unlock()
}
