// Package memory is a process-local repository.Store used for development
// runs and unit tests. Operations can be made to fail on demand.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/osse101/realmkeeper/internal/domain"
	"github.com/osse101/realmkeeper/internal/repository"
)

// Op names a store operation for fault injection and call counting.
type Op string

const (
	OpLoadInventory    Op = "load_inventory"
	OpSaveSlots        Op = "save_slots"
	OpReplaceInventory Op = "replace_inventory"
	OpInsertWorldItem  Op = "insert_world_item"
	OpUpsertWorldItem  Op = "upsert_world_item"
	OpDeleteWorldItem  Op = "delete_world_item"
	OpListWorldItems   Op = "list_world_items"
	OpLoadPlayer       Op = "load_player"
	OpSavePlayer       Op = "save_player"
	OpDeletePlayer     Op = "delete_player"
	OpAddSkillXP       Op = "add_skill_xp"
	OpPing             Op = "ping"
)

// ErrInjected is returned by operations armed with FailNext.
var ErrInjected = errors.New("injected store failure")

type slotKey struct {
	player string
	index  int
}

// Store keeps every table in maps guarded by one mutex.
type Store struct {
	mu       sync.Mutex
	slots    map[slotKey]domain.Stack
	world    map[string]domain.WorldItem
	players  map[string]domain.PlayerSnapshot
	skills   map[string]map[string]int64
	failures map[Op]int
	calls    map[Op]int
}

var _ repository.Store = (*Store)(nil)

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		slots:    make(map[slotKey]domain.Stack),
		world:    make(map[string]domain.WorldItem),
		players:  make(map[string]domain.PlayerSnapshot),
		skills:   make(map[string]map[string]int64),
		failures: make(map[Op]int),
		calls:    make(map[Op]int),
	}
}

// FailNext makes the next n calls of op fail with ErrInjected.
func (s *Store) FailNext(op Op, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] += n
}

// Calls returns how many times op was invoked.
func (s *Store) Calls(op Op) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// enter records a call and reports an injected failure. Caller holds mu.
func (s *Store) enter(op Op) error {
	s.calls[op]++
	if s.failures[op] > 0 {
		s.failures[op]--
		return fmt.Errorf("%w: %w: %s", domain.ErrPersistenceFailure, ErrInjected, op)
	}
	return nil
}

// Ping always succeeds unless a failure is injected.
func (s *Store) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enter(OpPing)
}

// Close is a no-op.
func (s *Store) Close() {}

// LoadInventory returns a copy of the player's slots.
func (s *Store) LoadInventory(_ context.Context, playerID string) (domain.Inventory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var inv domain.Inventory
	if err := s.enter(OpLoadInventory); err != nil {
		return inv, err
	}
	for i := range inv {
		if st, ok := s.slots[slotKey{playerID, i}]; ok {
			c := st
			inv[i] = &c
		}
	}
	return inv, nil
}

// SaveSlots clears then rewrites each listed slot. Either every write lands or none does.
func (s *Store) SaveSlots(_ context.Context, writes []domain.SlotWrite) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter(OpSaveSlots); err != nil {
		return err
	}
	for _, w := range writes {
		if !domain.ValidSlot(w.Index) || (w.Stack != nil && w.Stack.Quantity < 1) {
			return fmt.Errorf("%w: bad slot write %d for %s", domain.ErrPersistenceFailure, w.Index, w.PlayerID)
		}
	}
	for _, w := range writes {
		key := slotKey{w.PlayerID, w.Index}
		delete(s.slots, key)
		if w.Stack != nil {
			s.slots[key] = *w.Stack
		}
	}
	return nil
}

// ReplaceInventory rewrites all slots of a player.
func (s *Store) ReplaceInventory(_ context.Context, playerID string, inv domain.Inventory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter(OpReplaceInventory); err != nil {
		return err
	}
	for i, st := range inv {
		key := slotKey{playerID, i}
		delete(s.slots, key)
		if st != nil {
			s.slots[key] = *st
		}
	}
	return nil
}

// InsertWorldItem stores a ground item, rejecting duplicate ids.
func (s *Store) InsertWorldItem(_ context.Context, item domain.WorldItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter(OpInsertWorldItem); err != nil {
		return err
	}
	if _, exists := s.world[item.InstanceID]; exists {
		return fmt.Errorf("%w: duplicate instance %s", domain.ErrPersistenceFailure, item.InstanceID)
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	s.world[item.InstanceID] = item
	return nil
}

// UpsertWorldItem stores or replaces a ground item.
func (s *Store) UpsertWorldItem(_ context.Context, item domain.WorldItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter(OpUpsertWorldItem); err != nil {
		return err
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	s.world[item.InstanceID] = item
	return nil
}

// DeleteWorldItem removes a ground item.
func (s *Store) DeleteWorldItem(_ context.Context, instanceID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter(OpDeleteWorldItem); err != nil {
		return false, err
	}
	_, ok := s.world[instanceID]
	delete(s.world, instanceID)
	return ok, nil
}

// ListWorldItems returns ground items ordered by creation time.
func (s *Store) ListWorldItems(context.Context) ([]domain.WorldItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter(OpListWorldItems); err != nil {
		return nil, err
	}
	items := make([]domain.WorldItem, 0, len(s.world))
	for _, it := range s.world {
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].InstanceID < items[j].InstanceID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

// HasWorldItem reports whether the store holds the instance.
func (s *Store) HasWorldItem(instanceID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.world[instanceID]
	return ok
}

// LoadPlayer returns the stored snapshot or nil.
func (s *Store) LoadPlayer(_ context.Context, playerID string) (*domain.PlayerSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter(OpLoadPlayer); err != nil {
		return nil, err
	}
	snap, ok := s.players[playerID]
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

// SavePlayer upserts a snapshot.
func (s *Store) SavePlayer(_ context.Context, snap domain.PlayerSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter(OpSavePlayer); err != nil {
		return err
	}
	s.players[snap.PlayerID] = snap
	return nil
}

// DeletePlayer removes all rows of a player.
func (s *Store) DeletePlayer(_ context.Context, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter(OpDeletePlayer); err != nil {
		return err
	}
	delete(s.players, playerID)
	delete(s.skills, playerID)
	for i := 0; i < domain.SlotCount; i++ {
		delete(s.slots, slotKey{playerID, i})
	}
	return nil
}

// AddSkillXP adds experience and returns the new total.
func (s *Store) AddSkillXP(_ context.Context, playerID, skill string, amount int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter(OpAddSkillXP); err != nil {
		return 0, err
	}
	if s.skills[playerID] == nil {
		s.skills[playerID] = make(map[string]int64)
	}
	s.skills[playerID][skill] += amount
	return s.skills[playerID][skill], nil
}

// GetSkillXP returns the stored total.
func (s *Store) GetSkillXP(_ context.Context, playerID, skill string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.skills[playerID][skill], nil
}
