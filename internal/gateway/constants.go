package gateway

import "time"

// Identity headers set by the upstream authenticator
const (
	HeaderPlayerID   = "X-Player-ID"
	HeaderPlayerName = "X-Player-Name"
)

// Connection timing and limits
const (
	DefaultReadTimeout     = 60 * time.Second
	DefaultMaxMessageBytes = 8192
	WriteWait              = 10 * time.Second
	PingPeriodDivisor      = 10
	ReadBufferSize         = 1024
	WriteBufferSize        = 1024
)

// MetricTypeUnknown labels inbound messages of unrecognised types
const MetricTypeUnknown = "unknown"

// Error messages
const (
	ErrMsgMalformed        = "malformed message"
	ErrMsgUnknownType      = "unknown message type %q"
	ErrMsgIdentityMismatch = "fromId %q does not match connection"
	ErrMsgMissingToSlot    = "toSlot is required"
)

// Log messages
const (
	LogMsgUpgradeFailed     = "Websocket upgrade failed"
	LogMsgConnectRejected   = "Connection rejected"
	LogMsgConnectionOpened  = "Websocket connection opened"
	LogMsgConnectionClosed  = "Websocket connection closed"
	LogMsgReadError         = "Websocket read error"
	LogMsgWriteError        = "Websocket write error"
	LogMsgMessageFailed     = "Message handling failed"
	LogMsgMalformedEnvelope = "Discarding malformed message"
)
