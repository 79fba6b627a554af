// Package world owns the items lying in the shared world and the pickup
// race rule: removal from the in-memory map is the single arbiter of who
// gets an instance.
package world

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/osse101/realmkeeper/internal/broadcast"
	"github.com/osse101/realmkeeper/internal/catalog"
	"github.com/osse101/realmkeeper/internal/domain"
	"github.com/osse101/realmkeeper/internal/logger"
	"github.com/osse101/realmkeeper/internal/metrics"
	"github.com/osse101/realmkeeper/internal/repository"
	"github.com/osse101/realmkeeper/internal/worker"
)

// Reconciler retries store writes that failed after memory changed
type Reconciler interface {
	Schedule(key string, fn worker.PersistFunc)
}

// Registry is the in-memory world item map backed by the store
type Registry struct {
	mu    sync.RWMutex
	items map[string]domain.WorldItem

	store      repository.WorldItems
	catalog    *catalog.Catalog
	reconciler Reconciler
	notifier   broadcast.Notifier
	now        func() time.Time
}

// NewRegistry creates an empty registry. Call Hydrate to load stored items.
func NewRegistry(store repository.WorldItems, cat *catalog.Catalog, reconciler Reconciler, notifier broadcast.Notifier) *Registry {
	return &Registry{
		items:      make(map[string]domain.WorldItem),
		store:      store,
		catalog:    cat,
		reconciler: reconciler,
		notifier:   notifier,
		now:        time.Now,
	}
}

// Hydrate replaces the in-memory map with the stored world items
func (r *Registry) Hydrate(ctx context.Context) error {
	stored, err := r.store.ListWorldItems(ctx)
	if err != nil {
		return fmt.Errorf("%w: list world items: %w", domain.ErrPersistenceFailure, err)
	}

	r.mu.Lock()
	r.items = make(map[string]domain.WorldItem, len(stored))
	for _, item := range stored {
		r.items[item.InstanceID] = item
	}
	n := len(r.items)
	r.mu.Unlock()

	metrics.WorldItems.Set(float64(n))
	logger.FromContext(ctx).Info(LogMsgHydrated, "count", n)
	return nil
}

// Spawn creates a new instance of a catalog item at pos
func (r *Registry) Spawn(ctx context.Context, itemType string, pos domain.Vec3, quantity int) (domain.WorldItem, error) {
	t, err := r.catalog.Lookup(itemType)
	if err != nil {
		return domain.WorldItem{}, err
	}
	if quantity < 1 || quantity > t.MaxStack {
		return domain.WorldItem{}, fmt.Errorf("%w: quantity %d for %s (max %d)", domain.ErrInvalidInput, quantity, t.ID, t.MaxStack)
	}
	return r.Place(ctx, t.NewStack(quantity), pos)
}

// Place puts an inventory stack into the world at pos. The store insert
// happens first; if it fails nothing is added to memory.
func (r *Registry) Place(ctx context.Context, stack *domain.Stack, pos domain.Vec3) (domain.WorldItem, error) {
	if stack == nil || stack.Quantity < 1 {
		return domain.WorldItem{}, fmt.Errorf("%w: empty stack", domain.ErrInvalidInput)
	}

	item := domain.WorldItem{
		InstanceID:  uuid.NewString(),
		ItemType:    stack.ItemType,
		Name:        stack.Name,
		Description: stack.Description,
		Position:    pos,
		Quantity:    stack.Quantity,
		CreatedAt:   r.now().UTC(),
	}

	if err := r.store.InsertWorldItem(ctx, item); err != nil {
		return domain.WorldItem{}, fmt.Errorf("%w: insert world item: %w", domain.ErrPersistenceFailure, err)
	}

	r.mu.Lock()
	r.items[item.InstanceID] = item
	n := len(r.items)
	r.mu.Unlock()

	metrics.WorldItems.Set(float64(n))
	logger.FromContext(ctx).Debug(LogMsgSpawned,
		"instance_id", item.InstanceID,
		"item_type", item.ItemType,
		"quantity", item.Quantity)

	r.notifier.Broadcast(domain.MsgItemAdded, item)
	return item, nil
}

// Take atomically removes an instance and returns it. Exactly one of any
// number of concurrent callers for the same id gets ok == true. The store
// delete follows the map removal; if it fails the reconciler owns it and
// the instance stays gone from memory.
func (r *Registry) Take(ctx context.Context, instanceID string) (domain.WorldItem, bool) {
	log := logger.FromContext(ctx)

	r.mu.Lock()
	item, ok := r.items[instanceID]
	if ok {
		delete(r.items, instanceID)
	}
	n := len(r.items)
	r.mu.Unlock()

	if !ok {
		log.Debug(LogMsgRemoveRaceLost, "instance_id", instanceID)
		return domain.WorldItem{}, false
	}
	metrics.WorldItems.Set(float64(n))

	if _, err := r.store.DeleteWorldItem(ctx, instanceID); err != nil {
		log.Error(LogMsgStoreDeleteFailed, "instance_id", instanceID, "error", err)
		r.reconciler.Schedule(worker.Key(worker.KindWorldItem, instanceID), r.syncInstance(instanceID))
	}

	log.Debug(LogMsgRemoved, "instance_id", instanceID)
	r.notifier.Broadcast(domain.MsgItemRemoved, domain.ItemRemovedPayload{InstanceID: instanceID})
	return item, true
}

// Remove deletes an instance, reporting false if it was already absent
func (r *Registry) Remove(ctx context.Context, instanceID string) bool {
	_, ok := r.Take(ctx, instanceID)
	return ok
}

// syncInstance makes the store agree with memory for one instance at the
// time the retry runs.
func (r *Registry) syncInstance(instanceID string) worker.PersistFunc {
	return func(ctx context.Context) error {
		item, ok := r.Get(instanceID)
		if ok {
			return r.store.UpsertWorldItem(ctx, item)
		}
		_, err := r.store.DeleteWorldItem(ctx, instanceID)
		return err
	}
}

// Get returns one instance
func (r *Registry) Get(instanceID string) (domain.WorldItem, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[instanceID]
	return item, ok
}

// ListAll returns every instance, oldest first
func (r *Registry) ListAll() []domain.WorldItem {
	r.mu.RLock()
	out := make([]domain.WorldItem, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].InstanceID < out[j].InstanceID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Len returns the number of instances in the world
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
