package inventory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/realmkeeper/internal/broadcast"
	"github.com/osse101/realmkeeper/internal/concurrency"
	"github.com/osse101/realmkeeper/internal/database/memory"
	"github.com/osse101/realmkeeper/internal/domain"
	"github.com/osse101/realmkeeper/internal/testing/gametest"
	"github.com/osse101/realmkeeper/internal/world"
)

type fixture struct {
	svc        Service
	store      *memory.Store
	world      *world.Registry
	players    *gametest.Players
	reconciler *gametest.Reconciler
	notifier   *broadcast.Recorder
}

func newFixture(t *testing.T, players ...*domain.Player) *fixture {
	t.Helper()
	cat := gametest.Catalog(t)
	f := &fixture{
		store:      memory.NewStore(),
		players:    gametest.NewPlayers(players...),
		reconciler: gametest.NewReconciler(),
		notifier:   broadcast.NewRecorder(),
	}
	f.world = world.NewRegistry(f.store, cat, f.reconciler, f.notifier)
	f.svc = NewService(f.players, f.world, cat, f.store, concurrency.NewLockManager(), f.reconciler, f.notifier)

	ctx := context.Background()
	for _, p := range players {
		require.NoError(t, f.store.ReplaceInventory(ctx, p.ID, p.Inventory))
	}
	return f
}

func (f *fixture) spawn(t *testing.T, typeID string, qty int) domain.WorldItem {
	t.Helper()
	item, err := f.world.Spawn(context.Background(), typeID, domain.Vec3{X: 4}, qty)
	require.NoError(t, err)
	return item
}

// assertPersisted checks that stored rows match the live inventory
func (f *fixture) assertPersisted(t *testing.T, playerID string) {
	t.Helper()
	p, ok := f.players.Lookup(playerID)
	require.True(t, ok)
	stored, err := f.store.LoadInventory(context.Background(), playerID)
	require.NoError(t, err)
	assert.Equal(t, p.Inventory, stored)
}

func (f *fixture) lastInventoryChange(t *testing.T, playerID string) domain.InventoryChangedPayload {
	t.Helper()
	sent := f.notifier.To(playerID, domain.MsgInventoryChanged)
	require.NotEmpty(t, sent)
	return sent[len(sent)-1].Payload.(domain.InventoryChangedPayload)
}

func TestPickup_IntoEmptySlot(t *testing.T) {
	// ARRANGE
	alice := gametest.NewPlayer("alice", gametest.Stack(gametest.Sword, 1))
	f := newFixture(t, alice)
	item := f.spawn(t, gametest.Ore, 3)

	// ACT
	err := f.svc.Pickup(context.Background(), "alice", item.InstanceID)

	// ASSERT
	require.NoError(t, err)
	require.NotNil(t, alice.Inventory[1])
	assert.Equal(t, gametest.Ore, alice.Inventory[1].ItemType)
	assert.Equal(t, 3, alice.Inventory[1].Quantity)

	_, inWorld := f.world.Get(item.InstanceID)
	assert.False(t, inWorld)
	assert.False(t, f.store.HasWorldItem(item.InstanceID))
	f.assertPersisted(t, "alice")

	changed := f.lastInventoryChange(t, "alice")
	assert.Equal(t, "Picked up 3 Copper Ore", changed.Message)
	require.NotNil(t, changed.Item)
	assert.Equal(t, gametest.Ore, changed.Item.ItemType)
	assert.Len(t, f.notifier.Broadcasts(domain.MsgItemRemoved), 1)
}

func TestPickup_MergesIntoExistingStack(t *testing.T) {
	alice := gametest.NewPlayer("alice", gametest.Stack(gametest.Sword, 1), gametest.Stack(gametest.Log, 4))
	f := newFixture(t, alice)
	item := f.spawn(t, gametest.Log, 6)

	require.NoError(t, f.svc.Pickup(context.Background(), "alice", item.InstanceID))

	assert.Equal(t, 10, alice.Inventory[1].Quantity)
	assert.Nil(t, alice.Inventory[2])
	f.assertPersisted(t, "alice")
}

func TestPickup_StackWithoutRoomUsesEmptySlot(t *testing.T) {
	alice := gametest.NewPlayer("alice", gametest.Stack(gametest.Log, 8))
	f := newFixture(t, alice)
	item := f.spawn(t, gametest.Log, 5)

	require.NoError(t, f.svc.Pickup(context.Background(), "alice", item.InstanceID))

	assert.Equal(t, 8, alice.Inventory[0].Quantity)
	assert.Equal(t, 5, alice.Inventory[1].Quantity)
}

func TestPickup_InventoryFullLeavesItemInWorld(t *testing.T) {
	alice := gametest.NewPlayer("alice")
	for i := range alice.Inventory {
		alice.Inventory[i] = gametest.Stack(gametest.Sword, 1)
	}
	f := newFixture(t, alice)
	item := f.spawn(t, gametest.Log, 2)

	err := f.svc.Pickup(context.Background(), "alice", item.InstanceID)

	require.ErrorIs(t, err, domain.ErrInventoryFull)
	assert.Equal(t, "Inventory is full", domain.UserMessage(err))
	_, inWorld := f.world.Get(item.InstanceID)
	assert.True(t, inWorld)
	assert.True(t, f.store.HasWorldItem(item.InstanceID))
	assert.Empty(t, f.notifier.To("alice", domain.MsgInventoryChanged))
}

func TestPickup_UnknownInstance(t *testing.T) {
	f := newFixture(t, gametest.NewPlayer("alice"))

	err := f.svc.Pickup(context.Background(), "alice", "missing")

	require.ErrorIs(t, err, domain.ErrItemUnavailable)
	assert.Equal(t, "Item no longer available", domain.UserMessage(err))
}

func TestPickup_OfflinePlayer(t *testing.T) {
	f := newFixture(t)
	item := f.spawn(t, gametest.Log, 1)

	err := f.svc.Pickup(context.Background(), "ghost", item.InstanceID)

	assert.ErrorIs(t, err, domain.ErrPlayerOffline)
}

func TestPickup_ConcurrentPlayersExactlyOneWins(t *testing.T) {
	// ARRANGE
	const contenders = 16
	var players []*domain.Player
	for i := 0; i < contenders; i++ {
		players = append(players, gametest.NewPlayer(fmt.Sprintf("p%02d", i)))
	}
	f := newFixture(t, players...)
	item := f.spawn(t, gametest.Sword, 1)

	// ACT
	var wins, unavailable int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for _, p := range players {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			<-start
			err := f.svc.Pickup(context.Background(), id, item.InstanceID)
			switch {
			case err == nil:
				atomic.AddInt32(&wins, 1)
			case assert.ErrorIs(t, err, domain.ErrItemUnavailable):
				atomic.AddInt32(&unavailable, 1)
			}
		}(p.ID)
	}
	close(start)
	wg.Wait()

	// ASSERT
	assert.Equal(t, int32(1), wins)
	assert.Equal(t, int32(contenders-1), unavailable)
	assert.Equal(t, 1, f.store.Calls(memory.OpDeleteWorldItem))

	holders := 0
	for _, p := range players {
		if p.Inventory[0] != nil {
			holders++
		}
	}
	assert.Equal(t, 1, holders)
}

func TestPickup_StoreFailureStillSucceeds(t *testing.T) {
	// ARRANGE
	alice := gametest.NewPlayer("alice")
	f := newFixture(t, alice)
	item := f.spawn(t, gametest.Log, 2)
	f.store.FailNext(memory.OpSaveSlots, 1)

	// ACT
	err := f.svc.Pickup(context.Background(), "alice", item.InstanceID)

	// ASSERT: memory is authoritative until the retry lands
	require.NoError(t, err)
	assert.Equal(t, 2, alice.Inventory[0].Quantity)
	assert.Equal(t, []string{"inventory:alice"}, f.reconciler.Keys())

	require.NoError(t, f.reconciler.RunAll(context.Background()))
	f.assertPersisted(t, "alice")
}

func TestDrop_SpawnsWorldItemAtPlayerPosition(t *testing.T) {
	// ARRANGE
	alice := gametest.NewPlayer("alice", gametest.Stack(gametest.Sword, 1), gametest.Stack(gametest.Log, 7))
	alice.Position = domain.Vec3{X: 10, Y: 0, Z: -3}
	f := newFixture(t, alice)

	// ACT
	err := f.svc.Drop(context.Background(), "alice", 1)

	// ASSERT
	require.NoError(t, err)
	assert.Nil(t, alice.Inventory[1])
	f.assertPersisted(t, "alice")

	all := f.world.ListAll()
	require.Len(t, all, 1)
	assert.Equal(t, gametest.Log, all[0].ItemType)
	assert.Equal(t, 7, all[0].Quantity)
	assert.Equal(t, alice.Position, all[0].Position)
	assert.True(t, f.store.HasWorldItem(all[0].InstanceID))

	assert.Len(t, f.notifier.Broadcasts(domain.MsgItemAdded), 1)
	assert.Equal(t, "Dropped 7 Oak Log", f.lastInventoryChange(t, "alice").Message)
}

func TestDrop_EmptySlotIsNoop(t *testing.T) {
	f := newFixture(t, gametest.NewPlayer("alice"))

	require.NoError(t, f.svc.Drop(context.Background(), "alice", 5))

	assert.Equal(t, 0, f.world.Len())
	assert.Empty(t, f.notifier.All())
}

func TestDrop_InvalidSlot(t *testing.T) {
	f := newFixture(t, gametest.NewPlayer("alice"))

	err := f.svc.Drop(context.Background(), "alice", domain.SlotCount)

	assert.ErrorIs(t, err, domain.ErrInvalidSlot)
}

func TestDrop_WorldStoreFailureLeavesSlot(t *testing.T) {
	alice := gametest.NewPlayer("alice", gametest.Stack(gametest.Sword, 1))
	f := newFixture(t, alice)
	f.store.FailNext(memory.OpInsertWorldItem, 1)

	err := f.svc.Drop(context.Background(), "alice", 0)

	require.ErrorIs(t, err, domain.ErrPersistenceFailure)
	require.NotNil(t, alice.Inventory[0])
	assert.Equal(t, 0, f.world.Len())
	f.assertPersisted(t, "alice")
}

func TestDropThenPickupByAnotherPlayer(t *testing.T) {
	alice := gametest.NewPlayer("alice", gametest.Stack(gametest.Sword, 1))
	bob := gametest.NewPlayer("bob")
	f := newFixture(t, alice, bob)
	ctx := context.Background()

	require.NoError(t, f.svc.Drop(ctx, "alice", 0))
	dropped := f.world.ListAll()
	require.Len(t, dropped, 1)

	require.NoError(t, f.svc.Pickup(ctx, "bob", dropped[0].InstanceID))
	err := f.svc.Pickup(ctx, "alice", dropped[0].InstanceID)

	assert.ErrorIs(t, err, domain.ErrItemUnavailable)
	assert.Equal(t, gametest.Sword, bob.Inventory[0].ItemType)
	assert.Nil(t, alice.Inventory[0])
}

func TestMove_SwapsAndIsInvolution(t *testing.T) {
	alice := gametest.NewPlayer("alice", gametest.Stack(gametest.Sword, 1), gametest.Stack(gametest.Log, 3))
	f := newFixture(t, alice)
	ctx := context.Background()
	before := alice.Inventory.Clone()

	require.NoError(t, f.svc.Move(ctx, "alice", 0, 1))
	assert.Equal(t, gametest.Log, alice.Inventory[0].ItemType)
	assert.Equal(t, gametest.Sword, alice.Inventory[1].ItemType)
	f.assertPersisted(t, "alice")

	require.NoError(t, f.svc.Move(ctx, "alice", 0, 1))
	assert.Equal(t, before, alice.Inventory)
	f.assertPersisted(t, "alice")
}

func TestMove_IntoEmptySlot(t *testing.T) {
	alice := gametest.NewPlayer("alice", gametest.Stack(gametest.Sword, 1))
	f := newFixture(t, alice)

	require.NoError(t, f.svc.Move(context.Background(), "alice", 0, 20))

	assert.Nil(t, alice.Inventory[0])
	assert.Equal(t, gametest.Sword, alice.Inventory[20].ItemType)
	f.assertPersisted(t, "alice")
}

func TestMove_EmptySourceIsNoop(t *testing.T) {
	alice := gametest.NewPlayer("alice", gametest.Stack(gametest.Sword, 1))
	f := newFixture(t, alice)

	require.NoError(t, f.svc.Move(context.Background(), "alice", 3, 0))

	assert.Equal(t, gametest.Sword, alice.Inventory[0].ItemType)
	assert.Zero(t, f.store.Calls(memory.OpSaveSlots))
}

func TestMove_InvalidSlot(t *testing.T) {
	f := newFixture(t, gametest.NewPlayer("alice"))

	assert.ErrorIs(t, f.svc.Move(context.Background(), "alice", -1, 0), domain.ErrInvalidSlot)
	assert.ErrorIs(t, f.svc.Move(context.Background(), "alice", 0, 28), domain.ErrInvalidSlot)
}

func TestStack(t *testing.T) {
	tests := []struct {
		name     string
		from, to *domain.Stack
		wantErr  error
		wantFrom int
		wantTo   int
	}{
		{"full merge clears source", gametest.Stack(gametest.Log, 3), gametest.Stack(gametest.Log, 4), nil, 0, 7},
		{"partial merge keeps remainder", gametest.Stack(gametest.Log, 6), gametest.Stack(gametest.Log, 7), nil, 3, 10},
		{"target already full", gametest.Stack(gametest.Log, 2), gametest.Stack(gametest.Log, 10), domain.ErrInventoryFull, 2, 10},
		{"different types", gametest.Stack(gametest.Log, 2), gametest.Stack(gametest.Ore, 2), domain.ErrInvalidSlot, 2, 2},
		{"not stackable", gametest.Stack(gametest.Sword, 1), gametest.Stack(gametest.Sword, 1), domain.ErrInvalidSlot, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alice := gametest.NewPlayer("alice", tt.from, tt.to)
			f := newFixture(t, alice)

			err := f.svc.Stack(context.Background(), "alice", 0, 1)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			q := gametest.Quantities(alice.Inventory)
			assert.Equal(t, tt.wantFrom, q[0])
			assert.Equal(t, tt.wantTo, q[1])
			f.assertPersisted(t, "alice")
		})
	}
}

func TestStack_EmptySlot(t *testing.T) {
	f := newFixture(t, gametest.NewPlayer("alice", gametest.Stack(gametest.Log, 2)))

	err := f.svc.Stack(context.Background(), "alice", 0, 1)

	assert.ErrorIs(t, err, domain.ErrInvalidSlot)
}

func TestSplit(t *testing.T) {
	alice := gametest.NewPlayer("alice", gametest.Stack(gametest.Log, 9), gametest.Stack(gametest.Sword, 1))
	f := newFixture(t, alice)
	ctx := context.Background()

	require.NoError(t, f.svc.Split(ctx, "alice", 0, -1, 4))
	q := gametest.Quantities(alice.Inventory)
	assert.Equal(t, 5, q[0])
	assert.Equal(t, 4, q[2])

	require.NoError(t, f.svc.Split(ctx, "alice", 0, 10, 2))
	q = gametest.Quantities(alice.Inventory)
	assert.Equal(t, 3, q[0])
	assert.Equal(t, 2, q[10])
	f.assertPersisted(t, "alice")
}

func TestSplit_Rejects(t *testing.T) {
	alice := gametest.NewPlayer("alice", gametest.Stack(gametest.Log, 5), gametest.Stack(gametest.Sword, 1))
	f := newFixture(t, alice)
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.Split(ctx, "alice", 0, -1, 5), domain.ErrInvalidInput, "whole stack")
	assert.ErrorIs(t, f.svc.Split(ctx, "alice", 0, -1, 0), domain.ErrInvalidInput)
	assert.ErrorIs(t, f.svc.Split(ctx, "alice", 0, 1, 2), domain.ErrInvalidSlot, "occupied target")
	assert.ErrorIs(t, f.svc.Split(ctx, "alice", 7, -1, 1), domain.ErrInvalidSlot, "empty source")

	for i := 2; i < domain.SlotCount; i++ {
		alice.Inventory[i] = gametest.Stack(gametest.Sword, 1)
	}
	assert.ErrorIs(t, f.svc.Split(ctx, "alice", 0, -1, 1), domain.ErrInventoryFull)
	assert.Equal(t, 5, alice.Inventory[0].Quantity)
}

func TestSnapshotAndSendInventory(t *testing.T) {
	alice := gametest.NewPlayer("alice", gametest.Stack(gametest.Log, 5))
	f := newFixture(t, alice)

	inv, err := f.svc.Snapshot("alice")
	require.NoError(t, err)
	inv[0].Quantity = 1
	assert.Equal(t, 5, alice.Inventory[0].Quantity, "snapshot is a copy")

	require.NoError(t, f.svc.SendInventory("alice"))
	changed := f.lastInventoryChange(t, "alice")
	assert.Len(t, changed.Inventory, domain.SlotCount)

	_, err = f.svc.Snapshot("ghost")
	assert.ErrorIs(t, err, domain.ErrPlayerOffline)
}
