// Package mux provides keyed mutual exclusion. Every change request gets its
// own lock so that mutations against distinct requests proceed in parallel
// while operations on the same request serialise.
package mux

import "sync"

// Keyed hands out one mutex per key. Locks are created lazily and never
// discarded; the population of keys (request ids) is small and bounded by
// the lifetime of the store.
type Keyed struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyed creates an empty keyed mutex registry.
func NewKeyed() *Keyed {
	return &Keyed{locks: make(map[string]*sync.Mutex)}
}

func (k *Keyed) lock(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	return l
}

// Lock acquires the mutex for key, creating it on first use.
func (k *Keyed) Lock(key string) {
	k.lock(key).Lock()
}

// Unlock releases the mutex for key.
func (k *Keyed) Unlock(key string) {
	k.lock(key).Unlock()
}
