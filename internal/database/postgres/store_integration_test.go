package postgres

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/realmkeeper/internal/domain"
)

func TestStore_Integration(t *testing.T) {
	pool := startTestPool(t)
	store := NewStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Ping(ctx))

	t.Run("inventory slots clear then write", func(t *testing.T) {
		wood := &domain.Stack{ItemType: "oak_log", Name: "Oak Log", Quantity: 5}
		sword := &domain.Stack{ItemType: "bronze_sword", Name: "Bronze Sword", Quantity: 1}

		require.NoError(t, store.SaveSlots(ctx, []domain.SlotWrite{
			{PlayerID: "alice", Index: 0, Stack: sword},
			{PlayerID: "alice", Index: 3, Stack: wood},
		}))

		// swap slot 0 and 3, the same rows rewritten in one transaction
		require.NoError(t, store.SaveSlots(ctx, []domain.SlotWrite{
			{PlayerID: "alice", Index: 0, Stack: wood},
			{PlayerID: "alice", Index: 3, Stack: sword},
		}))

		inv, err := store.LoadInventory(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "oak_log", inv[0].ItemType)
		assert.Equal(t, 5, inv[0].Quantity)
		assert.Equal(t, "bronze_sword", inv[3].ItemType)

		require.NoError(t, store.SaveSlots(ctx, []domain.SlotWrite{{PlayerID: "alice", Index: 3}}))
		inv, err = store.LoadInventory(ctx, "alice")
		require.NoError(t, err)
		assert.Nil(t, inv[3])
	})

	t.Run("multi-player slot write is atomic", func(t *testing.T) {
		bad := &domain.Stack{ItemType: "oak_log", Name: "Oak Log", Quantity: 0} // violates quantity check
		err := store.SaveSlots(ctx, []domain.SlotWrite{
			{PlayerID: "carol", Index: 0, Stack: &domain.Stack{ItemType: "coins", Name: "Coins", Quantity: 10}},
			{PlayerID: "dave", Index: 0, Stack: bad},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrPersistenceFailure)

		inv, err := store.LoadInventory(ctx, "carol")
		require.NoError(t, err)
		assert.True(t, inv.IsEmpty(), "first write rolled back with the second")
	})

	t.Run("replace inventory", func(t *testing.T) {
		var inv domain.Inventory
		inv[7] = &domain.Stack{ItemType: "coins", Name: "Coins", Quantity: 99}
		require.NoError(t, store.ReplaceInventory(ctx, "alice", inv))

		got, err := store.LoadInventory(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, inv, got)
	})

	t.Run("world items", func(t *testing.T) {
		item := domain.WorldItem{
			InstanceID: "8d3c4f2e-0000-4000-8000-000000000001",
			ItemType:   "oak_log",
			Name:       "Oak Log",
			Position:   domain.Vec3{X: 1, Y: 2, Z: 3},
			Quantity:   4,
		}
		require.NoError(t, store.InsertWorldItem(ctx, item))
		assert.Error(t, store.InsertWorldItem(ctx, item), "instance ids are unique")

		item.Quantity = 6
		require.NoError(t, store.UpsertWorldItem(ctx, item))

		items, err := store.ListWorldItems(ctx)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, 6, items[0].Quantity)
		assert.Equal(t, domain.Vec3{X: 1, Y: 2, Z: 3}, items[0].Position)

		removed, err := store.DeleteWorldItem(ctx, item.InstanceID)
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = store.DeleteWorldItem(ctx, item.InstanceID)
		require.NoError(t, err)
		assert.False(t, removed)
	})

	t.Run("concurrent deletes remove exactly once", func(t *testing.T) {
		item := domain.WorldItem{InstanceID: "race-1", ItemType: "coins", Name: "Coins", Quantity: 1}
		require.NoError(t, store.InsertWorldItem(ctx, item))

		var wg sync.WaitGroup
		var mu sync.Mutex
		wins := 0
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := store.DeleteWorldItem(ctx, item.InstanceID)
				assert.NoError(t, err)
				if ok {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, wins)
	})

	t.Run("player snapshot upsert and delete", func(t *testing.T) {
		snap, err := store.LoadPlayer(ctx, "erin")
		require.NoError(t, err)
		assert.Nil(t, snap)

		require.NoError(t, store.SavePlayer(ctx, domain.PlayerSnapshot{PlayerID: "erin", Name: "Erin", Color: "#aabbcc"}))
		require.NoError(t, store.SavePlayer(ctx, domain.PlayerSnapshot{
			PlayerID: "erin", Name: "Erin", Color: "#aabbcc",
			Position: domain.Vec3{X: 5}, Rotation: domain.Vec3{Y: 1.5},
		}))

		snap, err = store.LoadPlayer(ctx, "erin")
		require.NoError(t, err)
		require.NotNil(t, snap)
		assert.Equal(t, 5.0, snap.Position.X)
		assert.Equal(t, 1.5, snap.Rotation.Y)

		_, err = store.AddSkillXP(ctx, "erin", "mining", 10)
		require.NoError(t, err)
		require.NoError(t, store.DeletePlayer(ctx, "erin"))

		snap, err = store.LoadPlayer(ctx, "erin")
		require.NoError(t, err)
		assert.Nil(t, snap)
		xp, err := store.GetSkillXP(ctx, "erin", "mining")
		require.NoError(t, err)
		assert.Zero(t, xp)
	})

	t.Run("skill xp accumulates", func(t *testing.T) {
		total, err := store.AddSkillXP(ctx, "frank", "woodcutting", 25)
		require.NoError(t, err)
		assert.Equal(t, int64(25), total)

		total, err = store.AddSkillXP(ctx, "frank", "woodcutting", 30)
		require.NoError(t, err)
		assert.Equal(t, int64(55), total)
	})
}
