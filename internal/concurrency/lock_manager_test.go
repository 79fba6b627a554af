package concurrency

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLock_ExcludesSameKey(t *testing.T) {
	lm := NewLockManager()
	var wg sync.WaitGroup
	counter := 0

	// Entries are created and dropped repeatedly while callers contend
	for i := 0; i < 500; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := lm.Lock("alice")
			counter++
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 500, counter)
	assert.Zero(t, lm.Len())
}

func TestLock_ReleasedKeysAreDropped(t *testing.T) {
	lm := NewLockManager()

	for i := 0; i < 100; i++ {
		unlock := lm.Lock(fmt.Sprintf("guest-%d", i))
		unlock()
	}
	assert.Zero(t, lm.Len())

	unlock := lm.Lock("alice", "bob")
	assert.Equal(t, 2, lm.Len())
	unlock()
	assert.Zero(t, lm.Len())
}

func TestLock_WaiterKeepsEntryAlive(t *testing.T) {
	lm := NewLockManager()
	unlock := lm.Lock("alice")

	acquired := make(chan func())
	go func() {
		acquired <- lm.Lock("alice")
	}()

	// The waiter holds a reference, so releasing the first holder must hand
	// the same entry over rather than drop it
	time.Sleep(20 * time.Millisecond)
	unlock()

	select {
	case second := <-acquired:
		assert.Equal(t, 1, lm.Len())
		second()
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired the lock")
	}
	assert.Zero(t, lm.Len())
}

func TestLock_DuplicateKeysDoNotSelfDeadlock(t *testing.T) {
	lm := NewLockManager()

	done := make(chan struct{})
	go func() {
		unlock := lm.Lock("p1", "p1")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("locking the same key twice deadlocked")
	}
}

func TestLock_OppositeOrderDoesNotDeadlock(t *testing.T) {
	lm := NewLockManager()
	var wg sync.WaitGroup
	counter := 0

	for i := 0; i < 200; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unlock := lm.Lock("alice", "bob")
			counter++
			unlock()
		}()
		go func() {
			defer wg.Done()
			unlock := lm.Lock("bob", "alice")
			counter++
			unlock()
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		assert.Equal(t, 400, counter)
	case <-time.After(5 * time.Second):
		t.Fatal("opposite lock orders deadlocked")
	}
}

func TestLock_ExcludesSingleKeyHolders(t *testing.T) {
	lm := NewLockManager()
	unlock := lm.Lock("alice", "bob")

	acquired := make(chan struct{})
	go func() {
		release := lm.Lock("bob")
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
		t.Fatal("single key lock acquired while pair lock held")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("single key lock never acquired after release")
	}
}
