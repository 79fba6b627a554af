package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/realmkeeper/internal/domain"
	"github.com/osse101/realmkeeper/internal/logger"
	"github.com/osse101/realmkeeper/internal/repository"
)

// Store implements repository.Store on PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var _ repository.Store = (*Store)(nil)

// NewStore wraps an open pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %w", domain.ErrPersistenceFailure, fmt.Errorf(format, args...))
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

const (
	selectInventorySQL = `
		SELECT slot_index, item_type, display_name, description, quantity
		FROM inventory_slots
		WHERE player_identity = $1`

	deleteSlotSQL = `
		DELETE FROM inventory_slots
		WHERE player_identity = $1 AND slot_index = $2`

	insertSlotSQL = `
		INSERT INTO inventory_slots (player_identity, slot_index, item_type, display_name, description, quantity, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (player_identity, slot_index) DO UPDATE
		SET item_type = EXCLUDED.item_type,
		    display_name = EXCLUDED.display_name,
		    description = EXCLUDED.description,
		    quantity = EXCLUDED.quantity,
		    updated_at = NOW()`

	deleteAllSlotsSQL = `DELETE FROM inventory_slots WHERE player_identity = $1`
)

// LoadInventory reads a player's slots.
func (s *Store) LoadInventory(ctx context.Context, playerID string) (domain.Inventory, error) {
	var inv domain.Inventory

	rows, err := s.pool.Query(ctx, selectInventorySQL, playerID)
	if err != nil {
		return inv, errorf(ErrMsgLoadInventory, playerID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			slot  int16
			stack domain.Stack
		)
		if err := rows.Scan(&slot, &stack.ItemType, &stack.Name, &stack.Description, &stack.Quantity); err != nil {
			return inv, errorf(ErrMsgLoadInventory, playerID, err)
		}
		if !domain.ValidSlot(int(slot)) {
			logger.FromContext(ctx).Warn(LogMsgInventoryRowSkip, "player_id", playerID, "slot", slot)
			continue
		}
		inv[slot] = &stack
	}
	if err := rows.Err(); err != nil {
		return inv, errorf(ErrMsgLoadInventory, playerID, err)
	}
	return inv, nil
}

// SaveSlots clears then rewrites each listed slot inside one transaction.
func (s *Store) SaveSlots(ctx context.Context, writes []domain.SlotWrite) error {
	if len(writes) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx pgx.Tx) error {
		return writeSlots(ctx, tx, writes)
	})
}

// ReplaceInventory rewrites all slots of a player.
func (s *Store) ReplaceInventory(ctx context.Context, playerID string, inv domain.Inventory) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, deleteAllSlotsSQL, playerID); err != nil {
			return errorf(ErrMsgClearSlot, -1, playerID, err)
		}
		return writeSlots(ctx, tx, inv.AllWrites(playerID))
	})
}

func writeSlots(ctx context.Context, tx pgx.Tx, writes []domain.SlotWrite) error {
	batch := &pgx.Batch{}
	for _, w := range writes {
		batch.Queue(deleteSlotSQL, w.PlayerID, w.Index)
		if w.Stack != nil {
			batch.Queue(insertSlotSQL, w.PlayerID, w.Index, w.Stack.ItemType, w.Stack.Name, w.Stack.Description, w.Stack.Quantity)
		}
	}

	results := tx.SendBatch(ctx, batch)
	for _, w := range writes {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return errorf(ErrMsgClearSlot, w.Index, w.PlayerID, err)
		}
		if w.Stack != nil {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return errorf(ErrMsgSaveSlot, w.Index, w.PlayerID, err)
			}
		}
	}
	if err := results.Close(); err != nil {
		return errorf(ErrMsgCommitTx, err)
	}
	return nil
}

const (
	insertWorldItemSQL = `
		INSERT INTO world_items (instance_id, item_type, display_name, description, x, y, z, quantity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	upsertWorldItemSQL = insertWorldItemSQL + `
		ON CONFLICT (instance_id) DO UPDATE
		SET item_type = EXCLUDED.item_type,
		    display_name = EXCLUDED.display_name,
		    description = EXCLUDED.description,
		    x = EXCLUDED.x, y = EXCLUDED.y, z = EXCLUDED.z,
		    quantity = EXCLUDED.quantity`

	deleteWorldItemSQL = `DELETE FROM world_items WHERE instance_id = $1`

	listWorldItemsSQL = `
		SELECT instance_id, item_type, display_name, description, x, y, z, quantity, created_at
		FROM world_items
		ORDER BY created_at, instance_id`
)

func worldItemArgs(item domain.WorldItem) []any {
	createdAt := item.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return []any{
		item.InstanceID, item.ItemType, item.Name, item.Description,
		item.Position.X, item.Position.Y, item.Position.Z,
		item.Quantity, createdAt,
	}
}

// InsertWorldItem stores a new ground item.
func (s *Store) InsertWorldItem(ctx context.Context, item domain.WorldItem) error {
	if _, err := s.pool.Exec(ctx, insertWorldItemSQL, worldItemArgs(item)...); err != nil {
		return errorf(ErrMsgInsertWorldItem, item.InstanceID, err)
	}
	return nil
}

// UpsertWorldItem stores or replaces a ground item.
func (s *Store) UpsertWorldItem(ctx context.Context, item domain.WorldItem) error {
	if _, err := s.pool.Exec(ctx, upsertWorldItemSQL, worldItemArgs(item)...); err != nil {
		return errorf(ErrMsgUpsertWorldItem, item.InstanceID, err)
	}
	return nil
}

// DeleteWorldItem removes a ground item row.
func (s *Store) DeleteWorldItem(ctx context.Context, instanceID string) (bool, error) {
	tag, err := s.pool.Exec(ctx, deleteWorldItemSQL, instanceID)
	if err != nil {
		return false, errorf(ErrMsgDeleteWorldItem, instanceID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListWorldItems returns every ground item.
func (s *Store) ListWorldItems(ctx context.Context) ([]domain.WorldItem, error) {
	rows, err := s.pool.Query(ctx, listWorldItemsSQL)
	if err != nil {
		return nil, errorf(ErrMsgListWorldItems, err)
	}
	defer rows.Close()

	items := []domain.WorldItem{}
	for rows.Next() {
		var it domain.WorldItem
		if err := rows.Scan(&it.InstanceID, &it.ItemType, &it.Name, &it.Description,
			&it.Position.X, &it.Position.Y, &it.Position.Z, &it.Quantity, &it.CreatedAt); err != nil {
			return nil, errorf(ErrMsgListWorldItems, err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, errorf(ErrMsgListWorldItems, err)
	}
	return items, nil
}

const (
	selectPlayerSQL = `
		SELECT display_name, x, y, z, rx, ry, rz, appearance_color, updated_at
		FROM player_snapshot
		WHERE player_identity = $1`

	upsertPlayerSQL = `
		INSERT INTO player_snapshot (player_identity, display_name, x, y, z, rx, ry, rz, appearance_color, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (player_identity) DO UPDATE
		SET display_name = EXCLUDED.display_name,
		    x = EXCLUDED.x, y = EXCLUDED.y, z = EXCLUDED.z,
		    rx = EXCLUDED.rx, ry = EXCLUDED.ry, rz = EXCLUDED.rz,
		    appearance_color = EXCLUDED.appearance_color,
		    updated_at = EXCLUDED.updated_at`
)

// LoadPlayer reads a player snapshot, returning nil when absent.
func (s *Store) LoadPlayer(ctx context.Context, playerID string) (*domain.PlayerSnapshot, error) {
	snap := domain.PlayerSnapshot{PlayerID: playerID}
	err := s.pool.QueryRow(ctx, selectPlayerSQL, playerID).Scan(
		&snap.Name,
		&snap.Position.X, &snap.Position.Y, &snap.Position.Z,
		&snap.Rotation.X, &snap.Rotation.Y, &snap.Rotation.Z,
		&snap.Color, &snap.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errorf(ErrMsgLoadPlayer, playerID, err)
	}
	return &snap, nil
}

// SavePlayer upserts a player snapshot.
func (s *Store) SavePlayer(ctx context.Context, snap domain.PlayerSnapshot) error {
	updatedAt := snap.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, upsertPlayerSQL,
		snap.PlayerID, snap.Name,
		snap.Position.X, snap.Position.Y, snap.Position.Z,
		snap.Rotation.X, snap.Rotation.Y, snap.Rotation.Z,
		snap.Color, updatedAt,
	)
	if err != nil {
		return errorf(ErrMsgSavePlayer, snap.PlayerID, err)
	}
	return nil
}

// DeletePlayer removes every row belonging to a player.
func (s *Store) DeletePlayer(ctx context.Context, playerID string) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		for _, q := range []string{
			`DELETE FROM inventory_slots WHERE player_identity = $1`,
			`DELETE FROM player_skills WHERE player_identity = $1`,
			`DELETE FROM player_snapshot WHERE player_identity = $1`,
		} {
			if _, err := tx.Exec(ctx, q, playerID); err != nil {
				return errorf(ErrMsgDeletePlayer, playerID, err)
			}
		}
		return nil
	})
}

const (
	addSkillXPSQL = `
		INSERT INTO player_skills (player_identity, skill, xp, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (player_identity, skill) DO UPDATE
		SET xp = player_skills.xp + EXCLUDED.xp,
		    updated_at = NOW()
		RETURNING xp`

	getSkillXPSQL = `SELECT xp FROM player_skills WHERE player_identity = $1 AND skill = $2`
)

// AddSkillXP adds experience and returns the new total.
func (s *Store) AddSkillXP(ctx context.Context, playerID, skill string, amount int64) (int64, error) {
	var total int64
	if err := s.pool.QueryRow(ctx, addSkillXPSQL, playerID, skill, amount).Scan(&total); err != nil {
		return 0, errorf(ErrMsgAddSkillXP, skill, playerID, err)
	}
	return total, nil
}

// GetSkillXP returns the stored total, zero when absent.
func (s *Store) GetSkillXP(ctx context.Context, playerID, skill string) (int64, error) {
	var total int64
	err := s.pool.QueryRow(ctx, getSkillXPSQL, playerID, skill).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, errorf(ErrMsgGetSkillXP, skill, playerID, err)
	}
	return total, nil
}
