package concurrency

import (
	"slices"
	"sync"
)

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// LockManager hands out one mutex per key. Player records are guarded by
// the mutex keyed on the player id. An entry lives only while someone holds
// or waits for it, so keys of departed players do not accumulate.
type LockManager struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

// NewLockManager creates a new LockManager
func NewLockManager() *LockManager {
	return &LockManager{locks: make(map[string]*lockEntry)}
}

// Lock acquires the locks for every distinct key in ascending key order and
// returns a func releasing them in reverse. Two callers locking overlapping
// key sets therefore never deadlock.
func (lm *LockManager) Lock(keys ...string) (unlock func()) {
	ordered := slices.Clone(keys)
	slices.Sort(ordered)
	ordered = slices.Compact(ordered)

	held := make([]*lockEntry, 0, len(ordered))
	for _, k := range ordered {
		held = append(held, lm.acquire(k))
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			lm.release(ordered[i], held[i])
		}
	}
}

// Len returns the number of keys currently held or waited on
func (lm *LockManager) Len() int {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return len(lm.locks)
}

// acquire takes a reference before blocking so the entry cannot be dropped
// while a caller waits on it.
func (lm *LockManager) acquire(key string) *lockEntry {
	lm.mu.Lock()
	e, ok := lm.locks[key]
	if !ok {
		e = &lockEntry{}
		lm.locks[key] = e
	}
	e.refs++
	lm.mu.Unlock()

	e.mu.Lock()
	return e
}

func (lm *LockManager) release(key string, e *lockEntry) {
	e.mu.Unlock()

	lm.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(lm.locks, key)
	}
	lm.mu.Unlock()
}
