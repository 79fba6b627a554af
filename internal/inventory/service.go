// Package inventory executes atomic operations on a player's slot array
// and keeps memory, the world registry and the store in agreement.
package inventory

import (
	"context"
	"fmt"

	"github.com/osse101/realmkeeper/internal/broadcast"
	"github.com/osse101/realmkeeper/internal/catalog"
	"github.com/osse101/realmkeeper/internal/concurrency"
	"github.com/osse101/realmkeeper/internal/domain"
	"github.com/osse101/realmkeeper/internal/logger"
	"github.com/osse101/realmkeeper/internal/metrics"
	"github.com/osse101/realmkeeper/internal/repository"
	"github.com/osse101/realmkeeper/internal/worker"
)

// PlayerDirectory resolves live player records. Callers must hold the
// player's lock from the shared LockManager while touching the record.
type PlayerDirectory interface {
	Lookup(playerID string) (*domain.Player, bool)
}

// WorldRegistry is the subset of the world registry the engine needs
type WorldRegistry interface {
	Get(instanceID string) (domain.WorldItem, bool)
	Take(ctx context.Context, instanceID string) (domain.WorldItem, bool)
	Place(ctx context.Context, stack *domain.Stack, pos domain.Vec3) (domain.WorldItem, error)
}

// Reconciler retries store writes that failed after memory changed
type Reconciler interface {
	Schedule(key string, fn worker.PersistFunc)
}

// Service defines the inventory operations
type Service interface {
	Pickup(ctx context.Context, playerID, instanceID string) error
	Drop(ctx context.Context, playerID string, slot int) error
	Move(ctx context.Context, playerID string, from, to int) error
	Stack(ctx context.Context, playerID string, from, to int) error
	Split(ctx context.Context, playerID string, from, to, quantity int) error
	Exchange(ctx context.Context, req ExchangeRequest) error
	Snapshot(playerID string) (domain.Inventory, error)
	SendInventory(playerID string) error
}

type service struct {
	players    PlayerDirectory
	world      WorldRegistry
	catalog    *catalog.Catalog
	store      repository.Inventory
	locks      *concurrency.LockManager
	reconciler Reconciler
	notifier   broadcast.Notifier
}

// NewService creates an inventory service
func NewService(
	players PlayerDirectory,
	world WorldRegistry,
	cat *catalog.Catalog,
	store repository.Inventory,
	locks *concurrency.LockManager,
	reconciler Reconciler,
	notifier broadcast.Notifier,
) Service {
	return &service{
		players:    players,
		world:      world,
		catalog:    cat,
		store:      store,
		locks:      locks,
		reconciler: reconciler,
		notifier:   notifier,
	}
}

// withPlayer runs fn holding the player's lock
func (s *service) withPlayer(playerID string, fn func(p *domain.Player) error) error {
	unlock := s.locks.Lock(playerID)
	defer unlock()

	p, ok := s.players.Lookup(playerID)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrPlayerOffline, playerID)
	}
	return fn(p)
}

// Pickup moves a world item into the player's inventory. The slot is chosen
// before the item is taken so a full inventory leaves the item in the world.
func (s *service) Pickup(ctx context.Context, playerID, instanceID string) (err error) {
	defer func() { metrics.RecordInventoryOp(domain.ActionPickup, err) }()
	log := logger.FromContext(ctx)

	return s.withPlayer(playerID, func(p *domain.Player) error {
		item, ok := s.world.Get(instanceID)
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrItemUnavailable, instanceID)
		}
		t, err := s.catalog.Lookup(item.ItemType)
		if err != nil {
			return err
		}

		slot, ok := p.Inventory.PickupSlot(t, item.Quantity)
		if !ok {
			log.Debug(LogMsgPickupNoRoom, "player_id", playerID, "instance_id", instanceID)
			return domain.ErrInventoryFull
		}

		taken, ok := s.world.Take(ctx, instanceID)
		if !ok {
			metrics.PickupRacesLost.Inc()
			log.Info(LogMsgPickupLostRace, "player_id", playerID, "instance_id", instanceID)
			return fmt.Errorf("%w: %s", domain.ErrItemUnavailable, instanceID)
		}

		if cur := p.Inventory[slot]; cur != nil {
			cur.Quantity += taken.Quantity
		} else {
			p.Inventory[slot] = taken.Stack()
		}
		s.persist(ctx, p, slot)

		s.notifyChanged(p, taken.Stack(), describe(MsgFmtPickedUp, MsgFmtPickedUpQty, taken.Name, taken.Quantity))
		return nil
	})
}

// Drop places the whole stack in slot into the world at the player's
// position. An empty slot is a no-op. The world item is created first; if
// that fails the slot is left as it was.
func (s *service) Drop(ctx context.Context, playerID string, slot int) (err error) {
	defer func() { metrics.RecordInventoryOp(domain.ActionDrop, err) }()

	if !domain.ValidSlot(slot) {
		return fmt.Errorf("%w: %d", domain.ErrInvalidSlot, slot)
	}

	return s.withPlayer(playerID, func(p *domain.Player) error {
		stack := p.Inventory[slot]
		if stack == nil {
			return nil
		}

		if _, err := s.world.Place(ctx, stack.Clone(), p.Position); err != nil {
			return err
		}

		p.Inventory[slot] = nil
		s.persist(ctx, p, slot)

		s.notifyChanged(p, nil, describe(MsgFmtDropped, MsgFmtDroppedQty, stack.Name, stack.Quantity))
		return nil
	})
}

// Move swaps two slots. An empty source is a no-op.
func (s *service) Move(ctx context.Context, playerID string, from, to int) (err error) {
	defer func() { metrics.RecordInventoryOp(domain.ActionMove, err) }()

	if !domain.ValidSlot(from) || !domain.ValidSlot(to) {
		return fmt.Errorf("%w: %d -> %d", domain.ErrInvalidSlot, from, to)
	}

	return s.withPlayer(playerID, func(p *domain.Player) error {
		if p.Inventory[from] == nil || from == to {
			return nil
		}

		p.Inventory[from], p.Inventory[to] = p.Inventory[to], p.Inventory[from]
		s.persist(ctx, p, from, to)

		s.notifyChanged(p, nil, "")
		return nil
	})
}

// Stack merges the stack in from into the stack in to, up to maxStack.
// Whatever does not fit stays in from.
func (s *service) Stack(ctx context.Context, playerID string, from, to int) (err error) {
	defer func() { metrics.RecordInventoryOp(domain.ActionStack, err) }()

	if !domain.ValidSlot(from) || !domain.ValidSlot(to) || from == to {
		return fmt.Errorf("%w: %d -> %d", domain.ErrInvalidSlot, from, to)
	}

	return s.withPlayer(playerID, func(p *domain.Player) error {
		src, dst := p.Inventory[from], p.Inventory[to]
		if src == nil || dst == nil || src.ItemType != dst.ItemType {
			return fmt.Errorf("%w: slots %d and %d do not hold the same item", domain.ErrInvalidSlot, from, to)
		}
		t, err := s.catalog.Lookup(src.ItemType)
		if err != nil {
			return err
		}
		if !t.Stackable {
			return fmt.Errorf("%w: %s does not stack", domain.ErrInvalidSlot, t.ID)
		}

		room := t.MaxStack - dst.Quantity
		if room <= 0 {
			return fmt.Errorf("%w: %s stack in slot %d is at max", domain.ErrInventoryFull, t.Name, to)
		}

		moved := min(room, src.Quantity)
		dst.Quantity += moved
		src.Quantity -= moved
		if src.Quantity == 0 {
			p.Inventory[from] = nil
		}
		s.persist(ctx, p, from, to)

		s.notifyChanged(p, nil, "")
		return nil
	})
}

// Split moves quantity units out of from into the empty slot to. A negative
// target picks the first empty slot.
func (s *service) Split(ctx context.Context, playerID string, from, to, quantity int) (err error) {
	defer func() { metrics.RecordInventoryOp(domain.ActionSplit, err) }()

	if !domain.ValidSlot(from) || (to >= 0 && !domain.ValidSlot(to)) || from == to {
		return fmt.Errorf("%w: %d -> %d", domain.ErrInvalidSlot, from, to)
	}

	return s.withPlayer(playerID, func(p *domain.Player) error {
		src := p.Inventory[from]
		if src == nil {
			return fmt.Errorf("%w: slot %d is empty", domain.ErrInvalidSlot, from)
		}
		if quantity < 1 || quantity >= src.Quantity {
			return fmt.Errorf("%w: split %d of %d", domain.ErrInvalidInput, quantity, src.Quantity)
		}

		target := to
		if target < 0 {
			target = p.Inventory.FirstEmpty()
			if target < 0 {
				return domain.ErrInventoryFull
			}
		} else if p.Inventory[target] != nil {
			return fmt.Errorf("%w: slot %d is occupied", domain.ErrInvalidSlot, target)
		}

		part := src.Clone()
		part.Quantity = quantity
		src.Quantity -= quantity
		p.Inventory[target] = part
		s.persist(ctx, p, from, target)

		s.notifyChanged(p, nil, "")
		return nil
	})
}

// Snapshot returns a copy of the player's inventory
func (s *service) Snapshot(playerID string) (domain.Inventory, error) {
	var inv domain.Inventory
	err := s.withPlayer(playerID, func(p *domain.Player) error {
		inv = p.Inventory.Clone()
		return nil
	})
	return inv, err
}

// SendInventory re-sends the current inventory to its owner
func (s *service) SendInventory(playerID string) error {
	return s.withPlayer(playerID, func(p *domain.Player) error {
		s.notifyChanged(p, nil, "")
		return nil
	})
}

// persist writes the touched slots. On failure memory stays authoritative
// and a full-inventory rewrite is handed to the reconciler. Caller holds
// the player's lock.
func (s *service) persist(ctx context.Context, p *domain.Player, slots ...int) {
	if err := s.store.SaveSlots(ctx, p.Inventory.Writes(p.ID, slots...)); err != nil {
		logger.FromContext(ctx).Error(LogMsgSaveSlotsFailed, "player_id", p.ID, "slots", slots, "error", err)
		s.reconcile(p.ID)
	}
}

func (s *service) reconcile(playerID string) {
	s.reconciler.Schedule(worker.Key(worker.KindInventory, playerID), SyncInventory(playerID, s.players, s.locks, s.store))
}

// SyncInventory returns a retry that rewrites the player's whole inventory
// as it is when the retry runs. Offline players are skipped; disconnect
// schedules its own write of the final state.
func SyncInventory(playerID string, players PlayerDirectory, locks *concurrency.LockManager, store repository.Inventory) worker.PersistFunc {
	return func(ctx context.Context) error {
		unlock := locks.Lock(playerID)
		p, ok := players.Lookup(playerID)
		if !ok {
			unlock()
			return nil
		}
		inv := p.Inventory.Clone()
		unlock()

		return store.ReplaceInventory(ctx, playerID, inv)
	}
}

// notifyChanged sends the refreshed inventory to its owner. Caller holds
// the player's lock.
func (s *service) notifyChanged(p *domain.Player, item *domain.Stack, message string) {
	s.notifier.SendTo(p.ID, domain.MsgInventoryChanged, domain.InventoryChangedPayload{
		Inventory: p.Inventory.View(),
		Item:      item,
		Message:   message,
	})
}

func describe(single, multiple, name string, qty int) string {
	if qty > 1 {
		return fmt.Sprintf(multiple, qty, name)
	}
	return fmt.Sprintf(single, name)
}
