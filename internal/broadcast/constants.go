package broadcast

import "time"

// Buffer sizes
const (
	// DefaultSendBuffer is the per-client outbound buffer when none is configured
	DefaultSendBuffer = 64

	// ObserverSendBuffer is the outbound buffer for observer streams
	ObserverSendBuffer = 50
)

// Observer stream settings
const (
	// KeepaliveInterval is how often observer streams receive a keepalive
	KeepaliveInterval = 30 * time.Second

	// TypeFilterParam is the query parameter carrying a comma separated type filter
	TypeFilterParam = "types"
)

// Observer stream message types
const (
	EventTypeConnected = "connected"
	EventTypeKeepalive = "keepalive"
)

// Log messages
const (
	LogMsgClientRegistered     = "Hub client registered"
	LogMsgClientRejected       = "Hub refused a second connection for a player"
	LogMsgClientUnregistered   = "Hub client unregistered"
	LogMsgMessageDropped       = "Dropped outbound message, client buffer full"
	LogMsgObserverConnected    = "Observer stream connected"
	LogMsgObserverDisconnected = "Observer stream disconnected"
	LogMsgWriteError           = "Failed to write observer event"
)
