package broadcast

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/osse101/realmkeeper/internal/metrics"
)

// Message is a single outbound message
type Message struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	Payload   any    `json:"payload,omitempty"`
}

// Client is one registered connection. Player clients are keyed by player
// id; observer clients only receive world-wide broadcasts.
type Client struct {
	ID       string
	PlayerID string
	Send     chan Message
	filter   map[string]bool // nil means every type
	observer bool
}

// Wants reports whether the client subscribed to a message type
func (c *Client) Wants(msgType string) bool {
	return c.filter == nil || c.filter[msgType]
}

// Hub fans out messages to connected clients. Delivery happens under the
// read lock with non-blocking sends, so per-client ordering matches call
// order and a slow client never stalls a sender.
type Hub struct {
	mu         sync.RWMutex
	players    map[string]*Client
	observers  map[*Client]struct{}
	sendBuffer int
	closed     bool
}

// NewHub creates a hub whose player clients buffer sendBuffer messages
func NewHub(sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}
	return &Hub{
		players:    make(map[string]*Client),
		observers:  make(map[*Client]struct{}),
		sendBuffer: sendBuffer,
	}
}

// Register adds a player connection. It refuses a player that already
// has a live connection and any registration after Stop.
func (h *Hub) Register(playerID string) (*Client, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, false
	}
	if old, ok := h.players[playerID]; ok {
		slog.Warn(LogMsgClientRejected, "player_id", playerID, "conn_id", old.ID)
		return nil, false
	}

	client := &Client{
		ID:       uuid.New().String(),
		PlayerID: playerID,
		Send:     make(chan Message, h.sendBuffer),
	}
	h.players[playerID] = client
	slog.Debug(LogMsgClientRegistered, "player_id", playerID, "conn_id", client.ID)
	return client, true
}

// RegisterObserver adds an observer stream filtered to the given types.
// An empty list subscribes to everything.
func (h *Hub) RegisterObserver(types []string) *Client {
	client := &Client{
		ID:       uuid.New().String(),
		Send:     make(chan Message, ObserverSendBuffer),
		observer: true,
	}
	if len(types) > 0 {
		client.filter = make(map[string]bool, len(types))
		for _, t := range types {
			client.filter[t] = true
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(client.Send)
		return client
	}
	h.observers[client] = struct{}{}
	metrics.ObserversAttached.Inc()
	return client
}

// Unregister removes a client and closes its channel. Unregistering a
// client that was already removed is a no-op.
func (h *Hub) Unregister(client *Client) {
	if client == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if client.observer {
		if _, ok := h.observers[client]; ok {
			delete(h.observers, client)
			close(client.Send)
			metrics.ObserversAttached.Dec()
		}
		return
	}

	if current, ok := h.players[client.PlayerID]; ok && current == client {
		delete(h.players, client.PlayerID)
		close(client.Send)
		slog.Debug(LogMsgClientUnregistered, "player_id", client.PlayerID, "conn_id", client.ID)
	}
}

// SendTo delivers a message to one player
func (h *Hub) SendTo(playerID, msgType string, payload any) {
	msg := newMessage(msgType, payload)

	h.mu.RLock()
	defer h.mu.RUnlock()

	if client, ok := h.players[playerID]; ok {
		deliver(client, msg)
	}
}

// Broadcast delivers a message to every player and interested observer
func (h *Hub) Broadcast(msgType string, payload any) {
	h.BroadcastExcept("", msgType, payload)
}

// BroadcastExcept delivers a message to every player except one.
// Observers always receive it.
func (h *Hub) BroadcastExcept(playerID, msgType string, payload any) {
	msg := newMessage(msgType, payload)

	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, client := range h.players {
		if id == playerID {
			continue
		}
		deliver(client, msg)
	}
	for client := range h.observers {
		if client.Wants(msgType) {
			deliver(client, msg)
		}
	}
}

// IsConnected reports whether a player currently has a registered client
func (h *Hub) IsConnected(playerID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.players[playerID]
	return ok
}

// ClientCount returns the number of connected players
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.players)
}

// ObserverCount returns the number of attached observer streams
func (h *Hub) ObserverCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.observers)
}

// Stop closes every client channel. Later registrations receive an
// already-closed channel.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for id, client := range h.players {
		close(client.Send)
		delete(h.players, id)
	}
	for client := range h.observers {
		close(client.Send)
		delete(h.observers, client)
		metrics.ObserversAttached.Dec()
	}
}

func newMessage(msgType string, payload any) Message {
	return Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Payload:   payload,
	}
}

func deliver(client *Client, msg Message) {
	select {
	case client.Send <- msg:
	default:
		metrics.BroadcastDropped.Inc()
		slog.Warn(LogMsgMessageDropped,
			"conn_id", client.ID,
			"player_id", client.PlayerID,
			"type", msg.Type)
	}
}

// FormatSSEMessage formats a message as a server-sent event frame
func FormatSSEMessage(msg Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}

	// SSE format: "id: <id>\nevent: <type>\ndata: <json>\n\n"
	out := "id: " + msg.ID + "\n"
	out += "event: " + msg.Type + "\n"
	out += "data: " + string(data) + "\n\n"

	return []byte(out), nil
}
