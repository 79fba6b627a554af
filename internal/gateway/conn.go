package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/osse101/realmkeeper/internal/broadcast"
	"github.com/osse101/realmkeeper/internal/logger"
)

// connection pumps one websocket. The reader handles messages in arrival
// order; the writer owns every write to the socket.
type connection struct {
	handler  *Handler
	conn     *websocket.Conn
	client   *broadcast.Client
	playerID string
	done     chan struct{}
}

func (c *connection) readPump(ctx context.Context) {
	log := logger.FromContext(ctx)
	timeout := c.handler.config.ReadTimeout

	c.conn.SetReadLimit(c.handler.config.MaxMessageBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(timeout))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if !isExpectedClose(err) {
				log.Debug(LogMsgReadError, "error", err)
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(timeout))

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Type == "" {
			log.Debug(LogMsgMalformedEnvelope, "error", err)
			c.handler.sendError(c.playerID, "", errMalformed(err))
			continue
		}

		if err := c.handler.dispatch(ctx, c.playerID, env); err != nil {
			log.Debug(LogMsgMessageFailed, "type", env.Type, "error", err)
			c.handler.sendError(c.playerID, env.Type, err)
		}
	}
}

// writePump drains the hub channel until it is closed, then closes the
// socket, which also ends readPump.
func (c *connection) writePump() {
	ticker := time.NewTicker(c.handler.config.ReadTimeout * (PingPeriodDivisor - 1) / PingPeriodDivisor)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
		close(c.done)
	}()

	for {
		select {
		case msg, ok := <-c.client.Send:
			if !ok {
				closeWith(c.conn, websocket.CloseGoingAway, "")
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				logger.Debug(LogMsgWriteError, logger.AttrKeyPlayerID, c.playerID, "error", err)
				c.drain()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.drain()
				return
			}
		}
	}
}

// drain closes the socket and discards queued messages until the hub
// closes the channel.
func (c *connection) drain() {
	_ = c.conn.Close()
	for range c.client.Send {
	}
}
