package worker

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/osse101/realmkeeper/internal/logger"
	"github.com/osse101/realmkeeper/internal/metrics"
)

// PersistFunc writes the current in-memory truth for one key to the store.
// It must read state when called, not capture it when scheduled.
type PersistFunc func(ctx context.Context) error

// DeadLetterSink receives writes that could not be completed
type DeadLetterSink interface {
	Write(key string, attempts int, lastErr error) error
}

// ReconcilerConfig configures retry behaviour
type ReconcilerConfig struct {
	MaxRetries int
	RetryDelay time.Duration
}

type pendingWrite struct {
	fn     PersistFunc
	rerun  bool
	active bool
}

// Reconciler retries failed store writes in the background. Pending work is
// keyed so repeated failures for the same record coalesce into one job.
type Reconciler struct {
	pool       *Pool
	config     ReconcilerConfig
	deadLetter DeadLetterSink

	mu          sync.Mutex
	pending     map[string]*pendingWrite
	ready       []string
	dispatching bool
	wg          sync.WaitGroup
}

// NewReconciler creates a reconciler running its retries on pool
func NewReconciler(pool *Pool, config ReconcilerConfig, deadLetter DeadLetterSink) *Reconciler {
	if config.MaxRetries < 1 {
		config.MaxRetries = 1
	}
	return &Reconciler{
		pool:       pool,
		config:     config,
		deadLetter: deadLetter,
		pending:    make(map[string]*pendingWrite),
	}
}

// Schedule queues fn for retry under key. If a retry for key is already
// queued it is reused; if one is running, it runs once more afterwards.
// Schedule never blocks, so callers may hold a player lock.
func (r *Reconciler) Schedule(key string, fn PersistFunc) {
	metrics.PersistenceFailures.WithLabelValues(opFromKey(key)).Inc()

	r.mu.Lock()
	if p, ok := r.pending[key]; ok {
		p.fn = fn
		if p.active {
			p.rerun = true
		}
		r.mu.Unlock()
		logger.Debug(LogMsgPersistCoalesced, "key", key)
		return
	}
	r.pending[key] = &pendingWrite{fn: fn}
	r.wg.Add(1)
	r.pushLocked(key)
	r.mu.Unlock()

	logger.Warn(LogMsgPersistScheduled, "key", key, "max_retries", r.config.MaxRetries)
}

// pushLocked hands key to the dispatcher, starting one if none is running.
// Caller holds r.mu.
func (r *Reconciler) pushLocked(key string) {
	r.ready = append(r.ready, key)
	if !r.dispatching {
		r.dispatching = true
		go r.dispatch()
	}
}

// dispatch feeds ready keys to the pool until none are left. Only this
// goroutine waits on a full queue. Once the pool has stopped the write runs
// here instead.
func (r *Reconciler) dispatch() {
	for {
		r.mu.Lock()
		if len(r.ready) == 0 {
			r.dispatching = false
			r.mu.Unlock()
			return
		}
		key := r.ready[0]
		r.ready = r.ready[1:]
		r.mu.Unlock()

		job := JobFunc(func(ctx context.Context) error {
			r.process(ctx, key)
			return nil
		})
		if !r.pool.Enqueue(job) {
			logger.Warn(LogMsgPersistOnDispatcher, "key", key)
			r.process(context.Background(), key)
		}
	}
}

func (r *Reconciler) process(ctx context.Context, key string) {
	r.mu.Lock()
	p := r.pending[key]
	p.active = true
	p.rerun = false
	fn := p.fn
	r.mu.Unlock()

	err := r.attempt(ctx, key, fn)

	r.mu.Lock()
	if p.rerun && err == nil {
		// State changed mid-flight; write it again
		p.active = false
		r.pushLocked(key)
		r.mu.Unlock()
		return
	}
	delete(r.pending, key)
	r.mu.Unlock()
	r.wg.Done()

	if err != nil {
		r.abandon(key, err)
	}
}

// attempt retries fn with linear backoff
func (r *Reconciler) attempt(ctx context.Context, key string, fn PersistFunc) error {
	var lastErr error
	for i := 1; i <= r.config.MaxRetries; i++ {
		select {
		case <-time.After(r.config.RetryDelay * time.Duration(i)):
		case <-ctx.Done():
			return ctx.Err()
		}

		metrics.PersistenceRetries.Inc()
		lastErr = fn(ctx)
		if lastErr == nil {
			logger.Info(LogMsgPersistRecovered, "key", key, "attempt", i)
			return nil
		}
		logger.Warn(LogMsgPersistRetryFailed, "key", key, "attempt", i, "error", lastErr)
	}
	return lastErr
}

func (r *Reconciler) abandon(key string, err error) {
	metrics.DeadLetters.Inc()
	logger.Error(LogMsgPersistAlert, "key", key, "attempts", r.config.MaxRetries, "error", err)

	if r.deadLetter == nil {
		return
	}
	if werr := r.deadLetter.Write(key, r.config.MaxRetries, err); werr != nil {
		logger.Error(LogMsgDeadLetterWriteFail, "key", key, "error", werr)
		return
	}
	logger.Info(LogMsgDeadLetterWritten, "key", key)
}

// Pending returns the number of keys awaiting a successful write
func (r *Reconciler) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Wait blocks until every scheduled key has been written or dead-lettered,
// or ctx is done.
func (r *Reconciler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// opFromKey returns the record kind prefix of a key such as "inventory:alice"
func opFromKey(key string) string {
	kind, _, _ := strings.Cut(key, ":")
	return kind
}

// Key builds a reconciler key from a record kind and id
func Key(kind, id string) string {
	return kind + ":" + id
}
