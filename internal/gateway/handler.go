// Package gateway terminates player websocket connections and feeds their
// messages to the game services one at a time per connection.
package gateway

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"

	"github.com/osse101/realmkeeper/internal/broadcast"
	"github.com/osse101/realmkeeper/internal/domain"
	"github.com/osse101/realmkeeper/internal/inventory"
	"github.com/osse101/realmkeeper/internal/logger"
	"github.com/osse101/realmkeeper/internal/session"
	"github.com/osse101/realmkeeper/internal/trade"
)

// Sessions is the session manager surface the gateway drives
type Sessions interface {
	Connect(ctx context.Context, ident session.Identity) (domain.PlayerSummary, error)
	Disconnect(ctx context.Context, playerID string)
	UpdatePosition(ctx context.Context, playerID string, pos, rot domain.Vec3) error
	Lookup(playerID string) (*domain.Player, bool)
}

// Config tunes connection handling
type Config struct {
	ReadTimeout     time.Duration
	MaxMessageBytes int64
}

// Handler upgrades /ws requests and runs one connection per player
type Handler struct {
	hub       *broadcast.Hub
	sessions  Sessions
	inventory inventory.Service
	trades    trade.Service
	validate  *validator.Validate
	upgrader  websocket.Upgrader
	config    Config
	active    sync.WaitGroup
}

// NewHandler creates a websocket handler
func NewHandler(cfg Config, hub *broadcast.Hub, sessions Sessions, inv inventory.Service, trades trade.Service) *Handler {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.MaxMessageBytes <= 0 {
		cfg.MaxMessageBytes = DefaultMaxMessageBytes
	}

	return &Handler{
		hub:       hub,
		sessions:  sessions,
		inventory: inv,
		trades:    trades,
		validate:  validator.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  ReadBufferSize,
			WriteBufferSize: WriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		config: cfg,
	}
}

// ServeHTTP upgrades the request and blocks until the connection ends
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	ident := identityFromRequest(r)

	if _, online := h.sessions.Lookup(ident.ID); online {
		log.Warn(LogMsgConnectRejected, logger.AttrKeyPlayerID, ident.ID, "error", domain.ErrAlreadyConnected)
		http.Error(w, domain.UserMessage(domain.ErrAlreadyConnected), http.StatusConflict)
		return
	}
	client, ok := h.hub.Register(ident.ID)
	if !ok {
		log.Warn(LogMsgConnectRejected, logger.AttrKeyPlayerID, ident.ID, "error", domain.ErrAlreadyConnected)
		http.Error(w, domain.UserMessage(domain.ErrAlreadyConnected), http.StatusConflict)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn(LogMsgUpgradeFailed, logger.AttrKeyPlayerID, ident.ID, "error", err)
		h.hub.Unregister(client)
		return
	}

	h.active.Add(1)
	defer h.active.Done()

	// Hijacked connections outlive server shutdown, so the final flush
	// must not inherit request cancellation.
	ctx := logger.WithConnection(context.WithoutCancel(r.Context()), client.ID, ident.ID)
	log = logger.FromContext(ctx)

	if _, err := h.sessions.Connect(ctx, ident); err != nil {
		log.Warn(LogMsgConnectRejected, "error", err)
		h.hub.Unregister(client)
		closeWith(conn, websocket.ClosePolicyViolation, domain.UserMessage(err))
		return
	}
	log.Info(LogMsgConnectionOpened, "guest", ident.Guest)

	c := &connection{
		handler:  h,
		conn:     conn,
		client:   client,
		playerID: ident.ID,
		done:     make(chan struct{}),
	}
	go c.writePump()
	c.readPump(ctx)

	h.sessions.Disconnect(ctx, ident.ID)
	h.hub.Unregister(client)
	<-c.done
	log.Info(LogMsgConnectionClosed)
}

// Wait blocks until every connection has finished its disconnect
// handling or ctx is done. Call it after the hub is stopped.
func (h *Handler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.active.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func identityFromRequest(r *http.Request) session.Identity {
	id := r.Header.Get(HeaderPlayerID)
	if id == "" {
		return session.NewGuestIdentity()
	}
	return session.Identity{
		ID:    id,
		Name:  r.Header.Get(HeaderPlayerName),
		Guest: domain.IsGuestID(id),
	}
}

// sendError reports a failed action to the acting player only
func (h *Handler) sendError(playerID, action string, err error) {
	h.hub.SendTo(playerID, domain.MsgError, domain.ErrorPayload{
		Action:  action,
		Code:    domain.ErrorCode(err),
		Message: domain.UserMessage(err),
	})
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(WriteWait))
	_ = conn.Close()
}

func isExpectedClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) ||
		errors.Is(err, websocket.ErrCloseSent)
}
