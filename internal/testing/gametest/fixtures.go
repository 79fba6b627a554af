// Package gametest holds fixtures shared by package tests.
package gametest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/osse101/realmkeeper/internal/catalog"
	"github.com/osse101/realmkeeper/internal/domain"
)

// Item type ids in the fixture catalog
const (
	Sword  = "bronze_sword"
	Log    = "oak_log"
	Ore    = "copper_ore"
	Coins  = "coins"
	Amulet = "quest_amulet"
)

// Types returns the fixture item types
func Types() []domain.ItemType {
	return []domain.ItemType{
		{ID: Sword, Name: "Bronze Sword", Category: domain.CategoryWeapon, MaxStack: 1, Tradeable: true},
		{ID: Log, Name: "Oak Log", Category: domain.CategoryResource, Stackable: true, MaxStack: 10, Tradeable: true},
		{ID: Ore, Name: "Copper Ore", Category: domain.CategoryResource, Stackable: true, MaxStack: 10, Tradeable: true},
		{ID: Coins, Name: "Coins", Category: domain.CategoryCurrency, Stackable: true, MaxStack: 1000, Tradeable: true},
		{ID: Amulet, Name: "Quest Amulet", Category: domain.CategoryTool, MaxStack: 1, Tradeable: false},
	}
}

// Catalog builds the fixture catalog
func Catalog(t testing.TB) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(Types()...)
	require.NoError(t, err)
	return c
}

// Stack returns a stack of qty units of a fixture type
func Stack(typeID string, qty int) *domain.Stack {
	for _, it := range Types() {
		if it.ID == typeID {
			return it.NewStack(qty)
		}
	}
	panic("gametest: unknown item type " + typeID)
}

// Quantities returns the quantity per slot, zero for empty slots
func Quantities(inv domain.Inventory) [domain.SlotCount]int {
	var out [domain.SlotCount]int
	for i, s := range inv {
		if s != nil {
			out[i] = s.Quantity
		}
	}
	return out
}
