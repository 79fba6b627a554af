package broadcast

// Notifier delivers outbound messages to connected players.
// Implementations must not block the caller.
type Notifier interface {
	// SendTo delivers a message to one player, if connected.
	SendTo(playerID, msgType string, payload any)
	// Broadcast delivers a message to every connected player and matching observers.
	Broadcast(msgType string, payload any)
	// BroadcastExcept delivers a message to every connected player but one.
	BroadcastExcept(playerID, msgType string, payload any)
}
