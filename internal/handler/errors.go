package handler

// Generic HTTP error messages for client responses.
// These messages intentionally do not expose internal error details.
// Both handlers and tests should reference these constants to maintain consistency.
const (
	ErrMsgInvalidRequest        = "Invalid request body"
	ErrMsgInvalidRequestSummary = "Invalid request"
	ErrMsgMissingPathParam      = "Missing %s path parameter"

	ErrMsgWorldItemNotFound = "World item not found"
	ErrMsgSpawnFailed       = "Failed to spawn world item"
	ErrMsgAwardXPFailed     = "Failed to award XP"
	ErrMsgStoreUnavailable  = "store connection failed"
)

// Log messages
const (
	LogMsgDecodeFailed     = "Failed to decode request"
	LogMsgRequestDecoded   = "Request decoded"
	LogMsgReadinessFailed  = "Readiness check failed"
	LogMsgEncodeFailed     = "Failed to encode JSON response"
	LogMsgWriteFailed      = "Failed to write response buffer"
	LogMsgServiceError     = "Service call failed"
	LogMsgWorldItemSpawned = "Admin spawned world item"
	LogMsgWorldItemRemoved = "Admin removed world item"
	LogMsgXPAwarded        = "Admin awarded XP"
)

// Health status values
const (
	HealthStatusOK          = "ok"
	HealthStatusUnavailable = "unavailable"
)
