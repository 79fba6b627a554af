package world

// Log messages
const (
	LogMsgHydrated          = "World items hydrated from store"
	LogMsgSpawned           = "World item spawned"
	LogMsgRemoved           = "World item removed"
	LogMsgRemoveRaceLost    = "World item already gone"
	LogMsgStoreDeleteFailed = "World item removed from memory but store delete failed"
)
