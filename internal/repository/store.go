package repository

import (
	"context"

	"github.com/osse101/realmkeeper/internal/domain"
)

// Inventory persists per-player inventory slots.
type Inventory interface {
	// LoadInventory returns the stored slot array; missing rows are empty slots.
	LoadInventory(ctx context.Context, playerID string) (domain.Inventory, error)
	// SaveSlots clears then rewrites every listed slot in one transaction.
	// Writes may span several players, which is how a trade commit lands atomically.
	SaveSlots(ctx context.Context, writes []domain.SlotWrite) error
	// ReplaceInventory rewrites all slots of one player.
	ReplaceInventory(ctx context.Context, playerID string, inv domain.Inventory) error
}

// WorldItems persists items lying on the ground.
type WorldItems interface {
	InsertWorldItem(ctx context.Context, item domain.WorldItem) error
	UpsertWorldItem(ctx context.Context, item domain.WorldItem) error
	// DeleteWorldItem reports whether a row was removed.
	DeleteWorldItem(ctx context.Context, instanceID string) (bool, error)
	ListWorldItems(ctx context.Context) ([]domain.WorldItem, error)
}

// Players persists player position and appearance snapshots.
type Players interface {
	// LoadPlayer returns nil, nil when the player has no stored state.
	LoadPlayer(ctx context.Context, playerID string) (*domain.PlayerSnapshot, error)
	SavePlayer(ctx context.Context, snap domain.PlayerSnapshot) error
	// DeletePlayer removes the snapshot, inventory and skills of a player.
	DeletePlayer(ctx context.Context, playerID string) error
}

// Skills persists skill experience totals.
type Skills interface {
	// AddSkillXP adds amount and returns the new total.
	AddSkillXP(ctx context.Context, playerID, skill string, amount int64) (int64, error)
	GetSkillXP(ctx context.Context, playerID, skill string) (int64, error)
}

// Store is the full persistence surface.
type Store interface {
	Inventory
	WorldItems
	Players
	Skills
	Ping(ctx context.Context) error
	Close()
}
