// Package locks serializes operations on a single sample row. The document
// store offers no multi-document isolation, so concurrent distribute/invoice
// calls against the same sample would race on the quantity field without it.
package locks

import "sync"

// Keyed hands out one mutex per key. Mutexes are kept for the life of the
// process; the key space (sample ids touched since startup) stays small
// enough that eviction is not worth the complexity.
type Keyed struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyed creates an empty keyed lock set.
func NewKeyed() *Keyed {
	return &Keyed{locks: make(map[string]*sync.Mutex)}
}

func (k *Keyed) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	return l
}

// Lock acquires the mutex for key.
func (k *Keyed) Lock(key string) {
	k.get(key).Lock()
}

// Unlock releases the mutex for key.
func (k *Keyed) Unlock(key string) {
	k.get(key).Unlock()
}
