package gametest

import (
	"context"
	"sync"

	"github.com/osse101/realmkeeper/internal/worker"
)

// Reconciler records scheduled retries so tests can inspect and run them
type Reconciler struct {
	mu   sync.Mutex
	keys []string
	fns  map[string]worker.PersistFunc
}

// NewReconciler creates an empty recording reconciler
func NewReconciler() *Reconciler {
	return &Reconciler{fns: make(map[string]worker.PersistFunc)}
}

// Schedule records fn under key, replacing any earlier fn for the key
func (r *Reconciler) Schedule(key string, fn worker.PersistFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.fns[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.fns[key] = fn
}

// Keys returns scheduled keys in first-scheduled order
func (r *Reconciler) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.keys...)
}

// RunAll runs every pending fn once, dropping those that succeed
func (r *Reconciler) RunAll(ctx context.Context) error {
	r.mu.Lock()
	keys := append([]string(nil), r.keys...)
	r.mu.Unlock()

	var firstErr error
	for _, key := range keys {
		r.mu.Lock()
		fn := r.fns[key]
		r.mu.Unlock()

		if err := fn(ctx); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		r.mu.Lock()
		delete(r.fns, key)
		for i, k := range r.keys {
			if k == key {
				r.keys = append(r.keys[:i], r.keys[i+1:]...)
				break
			}
		}
		r.mu.Unlock()
	}
	return firstErr
}
