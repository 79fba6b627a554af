package trade

// Outcome label values for the trades_total metric
const (
	OutcomeCompleted        = "completed"
	OutcomeDeclined         = "declined"
	OutcomeCancelled        = "cancelled"
	OutcomeDisconnected     = "disconnected"
	OutcomeExpired          = "expired"
	OutcomeValidationFailed = "validation_failed"
)

// Player-facing cancel messages
const (
	MsgDeclined     = "Trade declined"
	MsgCancelled    = "Trade cancelled"
	MsgDisconnected = "Trade cancelled: the other player left"
	MsgExpired      = "Trade cancelled after being idle too long"
)

// Log messages
const (
	LogMsgRequested       = "Trade requested"
	LogMsgOpened          = "Trade opened"
	LogMsgOfferUpdated    = "Trade offer updated"
	LogMsgAccepted        = "Trade acceptance changed"
	LogMsgCompleted       = "Trade completed"
	LogMsgCommitRejected  = "Trade commit rejected, acceptance reset"
	LogMsgCancelled       = "Trade cancelled"
	LogMsgExpiredSessions = "Expired idle trades"
)
