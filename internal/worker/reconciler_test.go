package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type deadLetterSpy struct {
	mu      sync.Mutex
	entries []string
}

func (d *deadLetterSpy) Write(key string, attempts int, lastErr error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries = append(d.entries, key)
	return nil
}

func (d *deadLetterSpy) keys() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.entries...)
}

func newTestReconciler(t *testing.T, retries int, sink DeadLetterSink) *Reconciler {
	t.Helper()
	pool := NewPool(testWorkerCount, testQueueSize)
	pool.Start()
	t.Cleanup(pool.Stop)
	return NewReconciler(pool, ReconcilerConfig{MaxRetries: retries, RetryDelay: time.Millisecond}, sink)
}

func waitReconciled(t *testing.T, r *Reconciler) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, r.Wait(ctx))
}

func TestReconciler_RecoversAfterTransientFailure(t *testing.T) {
	// ARRANGE
	spy := &deadLetterSpy{}
	r := newTestReconciler(t, 3, spy)
	var calls int32

	// ACT
	r.Schedule(Key(KindInventory, "alice"), func(ctx context.Context) error {
		if atomic.AddInt32(&calls, 1) < 2 {
			return errors.New("db down")
		}
		return nil
	})
	waitReconciled(t, r)

	// ASSERT
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Empty(t, spy.keys())
	assert.Equal(t, 0, r.Pending())
}

func TestReconciler_DeadLettersAfterMaxRetries(t *testing.T) {
	spy := &deadLetterSpy{}
	r := newTestReconciler(t, 3, spy)
	var calls int32

	r.Schedule(Key(KindWorldItem, "w1"), func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("db down")
	})
	waitReconciled(t, r)

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, []string{"world_item:w1"}, spy.keys())
}

func TestReconciler_CoalescesPendingKey(t *testing.T) {
	spy := &deadLetterSpy{}
	pool := NewPool(1, testQueueSize)
	r := NewReconciler(pool, ReconcilerConfig{MaxRetries: 1, RetryDelay: time.Millisecond}, spy)

	var first, second int32
	key := Key(KindPlayer, "bob")

	// Pool not started: both schedules land while the job is still queued
	r.Schedule(key, func(ctx context.Context) error {
		atomic.AddInt32(&first, 1)
		return nil
	})
	r.Schedule(key, func(ctx context.Context) error {
		atomic.AddInt32(&second, 1)
		return nil
	})
	assert.Equal(t, 1, r.Pending())

	pool.Start()
	waitReconciled(t, r)
	pool.Stop()

	assert.Equal(t, int32(0), atomic.LoadInt32(&first), "latest function replaces queued one")
	assert.Equal(t, int32(1), atomic.LoadInt32(&second))
}

func TestReconciler_ReschedulesWhenChangedMidFlight(t *testing.T) {
	r := newTestReconciler(t, 1, nil)
	key := Key(KindInventory, "carol")

	started := make(chan struct{})
	release := make(chan struct{})
	var runs int32

	fn := func(ctx context.Context) error {
		if atomic.AddInt32(&runs, 1) == 1 {
			close(started)
			<-release
		}
		return nil
	}

	r.Schedule(key, fn)
	<-started
	r.Schedule(key, fn)
	close(release)

	waitReconciled(t, r)
	assert.Equal(t, int32(2), atomic.LoadInt32(&runs))
}

func TestReconciler_WritesOnDispatcherWhenPoolStopped(t *testing.T) {
	pool := NewPool(1, testQueueSize)
	pool.Start()
	pool.Stop()

	r := NewReconciler(pool, ReconcilerConfig{MaxRetries: 1, RetryDelay: time.Millisecond}, nil)
	var calls int32
	r.Schedule(Key(KindPlayer, "dave"), func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	waitReconciled(t, r)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, 0, r.Pending())
}

func TestReconciler_ScheduleDoesNotBlockOnFullQueue(t *testing.T) {
	// ARRANGE: the only worker is busy and the only queue slot is taken
	pool := NewPool(1, 1)
	pool.Start()
	t.Cleanup(pool.Stop)

	busy := make(chan struct{})
	release := make(chan struct{})
	require.True(t, pool.Enqueue(JobFunc(func(context.Context) error {
		close(busy)
		<-release
		return nil
	})))
	<-busy
	require.True(t, pool.Enqueue(JobFunc(func(context.Context) error { return nil })))

	r := NewReconciler(pool, ReconcilerConfig{MaxRetries: 1, RetryDelay: time.Millisecond}, nil)
	var calls int32

	// ACT
	scheduled := make(chan struct{})
	go func() {
		r.Schedule(Key(KindInventory, "erin"), func(ctx context.Context) error {
			atomic.AddInt32(&calls, 1)
			return nil
		})
		close(scheduled)
	}()

	// ASSERT
	select {
	case <-scheduled:
	case <-time.After(time.Second):
		t.Fatal("Schedule blocked on a full worker queue")
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls), "write must not run on the caller")

	close(release)
	waitReconciled(t, r)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestReconciler_RerunWithSingleWorkerAndFullQueue(t *testing.T) {
	pool := NewPool(1, 1)
	pool.Start()
	t.Cleanup(pool.Stop)
	r := NewReconciler(pool, ReconcilerConfig{MaxRetries: 1, RetryDelay: time.Millisecond}, nil)

	started := make(chan struct{})
	release := make(chan struct{})
	var runs int32
	fn := func(ctx context.Context) error {
		if atomic.AddInt32(&runs, 1) == 1 {
			close(started)
			<-release
		}
		return nil
	}

	key := Key(KindInventory, "frank")
	r.Schedule(key, fn)
	<-started
	r.Schedule(key, fn)
	r.Schedule(Key(KindInventory, "gina"), func(context.Context) error { return nil })
	close(release)

	waitReconciled(t, r)
	assert.Equal(t, int32(2), atomic.LoadInt32(&runs))
}

func TestDeadLetterWriter_AppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deadletter.jsonl")

	w, err := NewDeadLetterWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Write("inventory:alice", 5, errors.New("boom")))
	require.NoError(t, w.Write("player:bob", 5, nil))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var entries []DeadLetterEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e DeadLetterEntry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		entries = append(entries, e)
	}
	require.Len(t, entries, 2)
	assert.Equal(t, "inventory:alice", entries[0].Key)
	assert.Equal(t, "boom", entries[0].Error)
	assert.Equal(t, DeadLetterSchemaVersion, entries[0].SchemaVersion)
	assert.Empty(t, entries[1].Error)
	assert.False(t, entries[1].Timestamp.IsZero())
}
