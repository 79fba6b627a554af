package postgres

// Error message formats
const (
	ErrMsgBeginTx           = "failed to begin transaction: %w"
	ErrMsgCommitTx          = "failed to commit transaction: %w"
	ErrMsgLoadInventory     = "failed to load inventory for %s: %w"
	ErrMsgSaveSlot          = "failed to save slot %d for %s: %w"
	ErrMsgClearSlot         = "failed to clear slot %d for %s: %w"
	ErrMsgInsertWorldItem   = "failed to insert world item %s: %w"
	ErrMsgUpsertWorldItem   = "failed to upsert world item %s: %w"
	ErrMsgDeleteWorldItem   = "failed to delete world item %s: %w"
	ErrMsgListWorldItems    = "failed to list world items: %w"
	ErrMsgLoadPlayer        = "failed to load player %s: %w"
	ErrMsgSavePlayer        = "failed to save player %s: %w"
	ErrMsgDeletePlayer      = "failed to delete player %s: %w"
	ErrMsgAddSkillXP        = "failed to add %s xp for %s: %w"
	ErrMsgGetSkillXP        = "failed to get %s xp for %s: %w"
	LogMsgRollbackFailed    = "Failed to rollback transaction"
	LogMsgInventoryRowSkip  = "Skipping out-of-range inventory row"
)
