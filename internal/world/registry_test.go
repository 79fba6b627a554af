package world

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/realmkeeper/internal/broadcast"
	"github.com/osse101/realmkeeper/internal/database/memory"
	"github.com/osse101/realmkeeper/internal/domain"
	"github.com/osse101/realmkeeper/internal/testing/gametest"
)

type fixture struct {
	registry   *Registry
	store      *memory.Store
	reconciler *gametest.Reconciler
	notifier   *broadcast.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:      memory.NewStore(),
		reconciler: gametest.NewReconciler(),
		notifier:   broadcast.NewRecorder(),
	}
	f.registry = NewRegistry(f.store, gametest.Catalog(t), f.reconciler, f.notifier)
	return f
}

func TestSpawn_PersistsAndBroadcasts(t *testing.T) {
	// ARRANGE
	f := newFixture(t)
	ctx := context.Background()
	pos := domain.Vec3{X: 1, Y: 2, Z: 3}

	// ACT
	item, err := f.registry.Spawn(ctx, gametest.Log, pos, 5)

	// ASSERT
	require.NoError(t, err)
	assert.NotEmpty(t, item.InstanceID)
	assert.Equal(t, "Oak Log", item.Name)
	assert.Equal(t, pos, item.Position)
	assert.Equal(t, 5, item.Quantity)

	got, ok := f.registry.Get(item.InstanceID)
	require.True(t, ok)
	assert.Equal(t, item, got)
	assert.True(t, f.store.HasWorldItem(item.InstanceID))

	added := f.notifier.Broadcasts(domain.MsgItemAdded)
	require.Len(t, added, 1)
	assert.Equal(t, item, added[0].Payload)
}

func TestSpawn_StoreFailureLeavesMemoryUntouched(t *testing.T) {
	f := newFixture(t)
	f.store.FailNext(memory.OpInsertWorldItem, 1)

	_, err := f.registry.Spawn(context.Background(), gametest.Sword, domain.Vec3{}, 1)

	require.ErrorIs(t, err, domain.ErrPersistenceFailure)
	assert.Equal(t, 0, f.registry.Len())
	assert.Zero(t, f.notifier.Count(domain.MsgItemAdded))
}

func TestSpawn_RejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.registry.Spawn(ctx, "mithril", domain.Vec3{}, 1)
	assert.ErrorIs(t, err, domain.ErrItemTypeUnknown)

	_, err = f.registry.Spawn(ctx, gametest.Sword, domain.Vec3{}, 2)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.registry.Spawn(ctx, gametest.Log, domain.Vec3{}, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRemove_SecondCallerSeesAbsence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item, err := f.registry.Spawn(ctx, gametest.Sword, domain.Vec3{}, 1)
	require.NoError(t, err)

	assert.True(t, f.registry.Remove(ctx, item.InstanceID))
	assert.False(t, f.registry.Remove(ctx, item.InstanceID))

	_, ok := f.registry.Get(item.InstanceID)
	assert.False(t, ok)
	assert.False(t, f.store.HasWorldItem(item.InstanceID))
	assert.Len(t, f.notifier.Broadcasts(domain.MsgItemRemoved), 1)
}

func TestTake_ConcurrentCallersExactlyOneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item, err := f.registry.Spawn(ctx, gametest.Ore, domain.Vec3{}, 3)
	require.NoError(t, err)

	const callers = 64
	var wins int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if got, ok := f.registry.Take(ctx, item.InstanceID); ok {
				atomic.AddInt32(&wins, 1)
				assert.Equal(t, 3, got.Quantity)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), wins)
	assert.Equal(t, 1, f.store.Calls(memory.OpDeleteWorldItem))
	assert.False(t, f.store.HasWorldItem(item.InstanceID))
}

func TestTake_StoreFailureSchedulesReconcile(t *testing.T) {
	// ARRANGE
	f := newFixture(t)
	ctx := context.Background()
	item, err := f.registry.Spawn(ctx, gametest.Sword, domain.Vec3{}, 1)
	require.NoError(t, err)
	f.store.FailNext(memory.OpDeleteWorldItem, 1)

	// ACT
	_, ok := f.registry.Take(ctx, item.InstanceID)

	// ASSERT: memory is the gate, the store catches up on retry
	require.True(t, ok)
	_, inMemory := f.registry.Get(item.InstanceID)
	assert.False(t, inMemory)
	assert.True(t, f.store.HasWorldItem(item.InstanceID))
	assert.Equal(t, []string{"world_item:" + item.InstanceID}, f.reconciler.Keys())

	require.NoError(t, f.reconciler.RunAll(ctx))
	assert.False(t, f.store.HasWorldItem(item.InstanceID))
	assert.Empty(t, f.reconciler.Keys())
}

func TestHydrate_LoadsStoredItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stored := []domain.WorldItem{
		{InstanceID: "a", ItemType: gametest.Log, Name: "Oak Log", Quantity: 2},
		{InstanceID: "b", ItemType: gametest.Sword, Name: "Bronze Sword", Quantity: 1},
	}
	for _, it := range stored {
		require.NoError(t, f.store.InsertWorldItem(ctx, it))
	}

	require.NoError(t, f.registry.Hydrate(ctx))

	assert.Equal(t, 2, f.registry.Len())
	all := f.registry.ListAll()
	require.Len(t, all, 2)
	_, ok := f.registry.Get("b")
	assert.True(t, ok)
}

func TestHydrate_StoreFailure(t *testing.T) {
	f := newFixture(t)
	f.store.FailNext(memory.OpListWorldItems, 1)

	err := f.registry.Hydrate(context.Background())

	assert.ErrorIs(t, err, domain.ErrPersistenceFailure)
}

func TestListAll_OldestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.registry.Spawn(ctx, gametest.Log, domain.Vec3{}, 1)
	require.NoError(t, err)
	second, err := f.registry.Spawn(ctx, gametest.Ore, domain.Vec3{}, 1)
	require.NoError(t, err)

	all := f.registry.ListAll()
	require.Len(t, all, 2)
	if first.CreatedAt.Equal(second.CreatedAt) {
		assert.ElementsMatch(t, []string{first.InstanceID, second.InstanceID}, []string{all[0].InstanceID, all[1].InstanceID})
	} else {
		assert.Equal(t, first.InstanceID, all[0].InstanceID)
	}
}
