package session

import (
	"context"
	"strings"
	"testing"
	"time"

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
	mgr        *Manager
	store      *memory.Store
	world      *world.Registry
	locks      *concurrency.LockManager
	reconciler *gametest.Reconciler
	notifier   *broadcast.Recorder
	clock      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cat := gametest.Catalog(t)
	f := &fixture{
		store:      memory.NewStore(),
		locks:      concurrency.NewLockManager(),
		reconciler: gametest.NewReconciler(),
		notifier:   broadcast.NewRecorder(),
		clock:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.world = world.NewRegistry(f.store, cat, f.reconciler, f.notifier)

	mgr, err := NewManager(Config{
		StarterItem:     gametest.Sword,
		StarterQuantity: 1,
		FlushInterval:   5 * time.Second,
		CacheSize:       16,
		CacheTTL:        time.Minute,
	}, cat, f.store, f.world, f.locks, f.reconciler, f.notifier)
	require.NoError(t, err)
	mgr.now = func() time.Time { return f.clock }
	f.mgr = mgr
	return f
}

func (f *fixture) connect(t *testing.T, id string) domain.PlayerSummary {
	t.Helper()
	summary, err := f.mgr.Connect(context.Background(), Identity{ID: id, Name: strings.ToUpper(id)})
	require.NoError(t, err)
	return summary
}

func (f *fixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}

func TestNewManager_RejectsUnknownStarter(t *testing.T) {
	_, err := NewManager(Config{StarterItem: "nope", StarterQuantity: 1},
		gametest.Catalog(t), memory.NewStore(), nil, concurrency.NewLockManager(), nil, nil)
	assert.ErrorIs(t, err, domain.ErrItemTypeUnknown)
}

func TestNewManager_RejectsStarterQuantityOverMaxStack(t *testing.T) {
	_, err := NewManager(Config{StarterItem: gametest.Sword, StarterQuantity: 2},
		gametest.Catalog(t), memory.NewStore(), nil, concurrency.NewLockManager(), nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConnect_NewPlayerGetsStarterAndIsPersisted(t *testing.T) {
	// ARRANGE
	f := newFixture(t)
	ctx := context.Background()

	// ACT
	summary := f.connect(t, "alice")

	// ASSERT
	assert.Equal(t, "alice", summary.ID)
	assert.Equal(t, "ALICE", summary.Name)
	assert.Equal(t, domain.DefaultPosition, summary.Position)
	assert.Regexp(t, `^#[0-9a-f]{6}$`, summary.Color)

	p, ok := f.mgr.Lookup("alice")
	require.True(t, ok)
	require.NotNil(t, p.Inventory[0])
	assert.Equal(t, gametest.Sword, p.Inventory[0].ItemType)
	assert.Equal(t, 1, p.Inventory[0].Quantity)

	snap, err := f.store.LoadPlayer(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, "ALICE", snap.Name)

	stored, err := f.store.LoadInventory(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, p.Inventory, stored)
	assert.Equal(t, 1, f.mgr.Count())
}

func TestConnect_SendsWorldStateToNewcomer(t *testing.T) {
	// ARRANGE
	f := newFixture(t)
	item, err := f.world.Spawn(context.Background(), gametest.Log, domain.Vec3{X: 2}, 3)
	require.NoError(t, err)
	f.connect(t, "alice")
	f.notifier.Reset()

	// ACT
	f.connect(t, "bob")

	// ASSERT
	joined := f.notifier.Broadcasts(domain.MsgPlayerJoined)
	require.Len(t, joined, 1)
	assert.Equal(t, "bob", joined[0].Except)

	require.Len(t, f.notifier.To("bob", domain.MsgWelcome), 1)

	lists := f.notifier.To("bob", domain.MsgPlayersList)
	require.Len(t, lists, 1)
	others := lists[0].Payload.(domain.PlayersListPayload).Players
	require.Len(t, others, 1)
	assert.Equal(t, "alice", others[0].ID)

	inv := f.notifier.To("bob", domain.MsgInventoryChanged)
	require.Len(t, inv, 1)
	view := inv[0].Payload.(domain.InventoryChangedPayload).Inventory
	require.Len(t, view, domain.SlotCount)
	assert.Equal(t, gametest.Sword, view[0].ItemType)

	items := f.notifier.To("bob", domain.MsgWorldItems)
	require.Len(t, items, 1)
	assert.Equal(t, []domain.WorldItem{item}, items[0].Payload.(domain.WorldItemsPayload).Items)
}

func TestConnect_ExistingPlayerKeepsStoredState(t *testing.T) {
	// ARRANGE
	f := newFixture(t)
	ctx := context.Background()
	pos := domain.Vec3{X: 10, Y: 1, Z: -4}
	require.NoError(t, f.store.SavePlayer(ctx, domain.PlayerSnapshot{PlayerID: "alice", Name: "Old", Position: pos, Color: "#123456"}))
	var inv domain.Inventory
	inv[5] = gametest.Stack(gametest.Ore, 4)
	require.NoError(t, f.store.ReplaceInventory(ctx, "alice", inv))

	// ACT
	summary := f.connect(t, "alice")

	// ASSERT
	assert.Equal(t, pos, summary.Position)
	assert.Equal(t, "#123456", summary.Color)
	assert.Equal(t, "ALICE", summary.Name)

	p, _ := f.mgr.Lookup("alice")
	assert.Nil(t, p.Inventory[0], "non-empty inventory gets no starter")
	assert.Equal(t, 4, p.Inventory[5].Quantity)
}

func TestConnect_EmptyStoredInventoryGetsStarter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.SavePlayer(ctx, domain.PlayerSnapshot{PlayerID: "alice", Name: "alice"}))

	f.connect(t, "alice")

	stored, err := f.store.LoadInventory(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, stored[0])
	assert.Equal(t, gametest.Sword, stored[0].ItemType)
}

func TestConnect_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.connect(t, "alice")

	_, err := f.mgr.Connect(ctx, Identity{ID: "alice"})
	assert.ErrorIs(t, err, domain.ErrAlreadyConnected)

	_, err = f.mgr.Connect(ctx, Identity{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	f.store.FailNext(memory.OpLoadPlayer, 1)
	_, err = f.mgr.Connect(ctx, Identity{ID: "bob"})
	assert.ErrorIs(t, err, domain.ErrPersistenceFailure)
	assert.Equal(t, 1, f.mgr.Count())
}

func TestConnect_PersistFailureIsScheduled(t *testing.T) {
	// ARRANGE
	f := newFixture(t)
	ctx := context.Background()
	f.store.FailNext(memory.OpReplaceInventory, 1)

	// ACT
	f.connect(t, "alice")

	// ASSERT
	assert.Equal(t, []string{"inventory:alice"}, f.reconciler.Keys())
	require.NoError(t, f.reconciler.RunAll(ctx))
	stored, err := f.store.LoadInventory(ctx, "alice")
	require.NoError(t, err)
	assert.NotNil(t, stored[0])
}

func TestDisconnect_FlushesAndAnnounces(t *testing.T) {
	// ARRANGE
	f := newFixture(t)
	ctx := context.Background()
	f.connect(t, "alice")
	require.NoError(t, f.mgr.UpdatePosition(ctx, "alice", domain.Vec3{X: 3}, domain.Vec3{Y: 1}))

	var hooked []string
	f.mgr.OnDisconnect(func(_ context.Context, id string) { hooked = append(hooked, id) })

	// ACT
	f.mgr.Disconnect(ctx, "alice")

	// ASSERT
	_, ok := f.mgr.Lookup("alice")
	assert.False(t, ok)
	assert.Equal(t, 0, f.mgr.Count())
	assert.Equal(t, []string{"alice"}, hooked)

	left := f.notifier.Broadcasts(domain.MsgPlayerLeft)
	require.Len(t, left, 1)
	assert.Equal(t, domain.PlayerLeftPayload{ID: "alice"}, left[0].Payload)

	snap, err := f.store.LoadPlayer(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.Vec3{X: 3}, snap.Position)
	assert.Equal(t, domain.Vec3{Y: 1}, snap.Rotation)
}

func TestDisconnect_UnknownPlayerIsIgnored(t *testing.T) {
	f := newFixture(t)
	called := false
	f.mgr.OnDisconnect(func(context.Context, string) { called = true })

	f.mgr.Disconnect(context.Background(), "ghost")

	assert.False(t, called)
	assert.Zero(t, f.notifier.Count(domain.MsgPlayerLeft))
}

func TestDisconnect_FailedFlushRetriesAndReconnectUsesMemory(t *testing.T) {
	// ARRANGE
	f := newFixture(t)
	ctx := context.Background()
	f.connect(t, "alice")
	require.NoError(t, f.mgr.UpdatePosition(ctx, "alice", domain.Vec3{Z: 9}, domain.Vec3{}))
	f.store.FailNext(memory.OpSavePlayer, 1)

	// ACT
	f.mgr.Disconnect(ctx, "alice")
	summary := f.connect(t, "alice")

	// ASSERT
	assert.Equal(t, domain.Vec3{Z: 9}, summary.Position, "reconnect restores the unflushed record")
	assert.Contains(t, f.reconciler.Keys(), "player:alice")

	require.NoError(t, f.reconciler.RunAll(ctx))
	snap, err := f.store.LoadPlayer(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.Vec3{Z: 9}, snap.Position)
}

func TestDisconnect_GuestIsPurged(t *testing.T) {
	// ARRANGE
	f := newFixture(t)
	ctx := context.Background()
	guest := NewGuestIdentity()
	_, err := f.mgr.Connect(ctx, guest)
	require.NoError(t, err)

	snap, err := f.store.LoadPlayer(ctx, guest.ID)
	require.NoError(t, err)
	require.NotNil(t, snap)

	// ACT
	f.mgr.Disconnect(ctx, guest.ID)

	// ASSERT
	snap, err = f.store.LoadPlayer(ctx, guest.ID)
	require.NoError(t, err)
	assert.Nil(t, snap)
	inv, err := f.store.LoadInventory(ctx, guest.ID)
	require.NoError(t, err)
	assert.True(t, inv.IsEmpty())
}

func TestDisconnect_GuestLocksDoNotAccumulate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		guest := NewGuestIdentity()
		_, err := f.mgr.Connect(ctx, guest)
		require.NoError(t, err)
		f.mgr.Disconnect(ctx, guest.ID)
	}

	assert.Zero(t, f.locks.Len())
	assert.Zero(t, f.mgr.Count())
}

func TestUpdatePosition_RelaysAndThrottlesFlush(t *testing.T) {
	// ARRANGE
	f := newFixture(t)
	ctx := context.Background()
	f.connect(t, "alice")
	saves := f.store.Calls(memory.OpSavePlayer)

	// ACT
	f.advance(time.Second)
	require.NoError(t, f.mgr.UpdatePosition(ctx, "alice", domain.Vec3{X: 1}, domain.Vec3{}))
	afterFirst := f.store.Calls(memory.OpSavePlayer)

	f.advance(5 * time.Second)
	require.NoError(t, f.mgr.UpdatePosition(ctx, "alice", domain.Vec3{X: 2}, domain.Vec3{}))

	// ASSERT
	assert.Equal(t, saves, afterFirst, "update within the interval is not flushed")
	assert.Equal(t, saves+1, f.store.Calls(memory.OpSavePlayer))

	moved := f.notifier.Broadcasts(domain.MsgPlayerMoved)
	require.Len(t, moved, 2)
	assert.Equal(t, "alice", moved[1].Except)
	assert.Equal(t, domain.Vec3{X: 2}, moved[1].Payload.(domain.PlayerMovedPayload).Position)
}

func TestUpdatePosition_OfflinePlayer(t *testing.T) {
	f := newFixture(t)
	err := f.mgr.UpdatePosition(context.Background(), "ghost", domain.Vec3{}, domain.Vec3{})
	assert.ErrorIs(t, err, domain.ErrPlayerOffline)
}

func TestFlushMoved_WritesOnlyMovedPlayers(t *testing.T) {
	// ARRANGE
	f := newFixture(t)
	ctx := context.Background()
	f.connect(t, "alice")
	f.connect(t, "bob")
	f.advance(time.Second)
	require.NoError(t, f.mgr.UpdatePosition(ctx, "alice", domain.Vec3{X: 7}, domain.Vec3{}))
	saves := f.store.Calls(memory.OpSavePlayer)

	// ACT
	f.advance(time.Second)
	require.NoError(t, f.mgr.FlushMoved(ctx))
	require.NoError(t, f.mgr.FlushMoved(ctx))

	// ASSERT
	assert.Equal(t, saves+1, f.store.Calls(memory.OpSavePlayer))
	snap, err := f.store.LoadPlayer(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.Vec3{X: 7}, snap.Position)
}

func TestFlushAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.connect(t, "alice")
	f.connect(t, "bob")
	replaces := f.store.Calls(memory.OpReplaceInventory)

	f.mgr.FlushAll(ctx)

	assert.Equal(t, replaces+2, f.store.Calls(memory.OpReplaceInventory))
}

func TestPlayersAndDisplayName(t *testing.T) {
	f := newFixture(t)
	f.connect(t, "bob")
	f.connect(t, "alice")

	players := f.mgr.Players()
	require.Len(t, players, 2)
	assert.Equal(t, "alice", players[0].ID)
	assert.Equal(t, "bob", players[1].ID)

	name, ok := f.mgr.DisplayName("bob")
	assert.True(t, ok)
	assert.Equal(t, "BOB", name)

	_, ok = f.mgr.DisplayName("ghost")
	assert.False(t, ok)
}

func TestNewGuestIdentity(t *testing.T) {
	a := NewGuestIdentity()
	b := NewGuestIdentity()

	assert.True(t, a.Guest)
	assert.True(t, domain.IsGuestID(a.ID))
	assert.Regexp(t, `^Guest-[0-9A-F]{4}$`, a.Name)
	assert.NotEqual(t, a.ID, b.ID)
}
