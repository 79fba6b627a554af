package broadcast

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// ObserverHandler streams world-wide hub traffic as server-sent events
func ObserverHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "SSE not supported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		var types []string
		if param := r.URL.Query().Get(TypeFilterParam); param != "" {
			for _, t := range strings.Split(param, ",") {
				if t = strings.TrimSpace(t); t != "" {
					types = append(types, t)
				}
			}
		}

		client := hub.RegisterObserver(types)
		slog.Info(LogMsgObserverConnected,
			"conn_id", client.ID,
			"filters", types,
			"observers", hub.ObserverCount())

		defer func() {
			hub.Unregister(client)
			slog.Info(LogMsgObserverDisconnected,
				"conn_id", client.ID,
				"observers", hub.ObserverCount())
		}()

		hello := Message{
			ID:        client.ID,
			Type:      EventTypeConnected,
			Timestamp: time.Now().UnixMilli(),
			Payload: map[string]any{
				"clientId": client.ID,
				"filters":  types,
			},
		}
		if frame, err := FormatSSEMessage(hello); err == nil {
			if _, err := w.Write(frame); err != nil {
				return
			}
			flusher.Flush()
		}

		ticker := time.NewTicker(KeepaliveInterval)
		defer ticker.Stop()

		ctx := r.Context()
		for {
			select {
			case <-ctx.Done():
				return

			case msg, ok := <-client.Send:
				if !ok {
					return
				}
				frame, err := FormatSSEMessage(msg)
				if err != nil {
					slog.Error(LogMsgWriteError, "error", err)
					continue
				}
				if _, err := w.Write(frame); err != nil {
					slog.Warn(LogMsgWriteError, "error", err)
					return
				}
				flusher.Flush()

			case <-ticker.C:
				frame, _ := FormatSSEMessage(Message{Type: EventTypeKeepalive, Timestamp: time.Now().UnixMilli()})
				if _, err := w.Write(frame); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}
