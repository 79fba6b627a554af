package session

// Guest identity settings
const (
	GuestNamePrefix = "Guest-"
	GuestNameDigits = 4
)

// Log messages
const (
	LogMsgConnected         = "Player connected"
	LogMsgDisconnected      = "Player disconnected"
	LogMsgCreated           = "Created new player record"
	LogMsgRestoredFromCache = "Restored player record from cache"
	LogMsgStarterGranted    = "Granted starter item"
	LogMsgFlushFailed       = "Player flush failed, scheduling retry"
	LogMsgGuestPurgeFailed  = "Failed to purge guest records"
	LogMsgFlushedAll        = "Flushed live players"
)
