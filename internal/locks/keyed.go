// Package locks provides a mutex-per-key primitive used to serialize
// read-modify-write cycles against the key-value store, which offers no
// per-key locking or compare-and-swap of its own.
package locks

import "sync"

// Keyed hands out one mutex per key. Operations on different keys proceed in
// parallel; operations on the same key serialize. Mutexes are retained for
// the life of the process, bounded by the number of distinct keys seen.
type Keyed struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyed constructs an empty keyed mutex set.
func NewKeyed() *Keyed {
	return &Keyed{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key and returns the matching unlock function.
func (k *Keyed) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
