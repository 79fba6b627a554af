package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

type ctxKey string

const (
	requestIDKey  ctxKey = ContextKeyRequestID
	connectionKey ctxKey = ContextKeyConnection
)

type connection struct {
	connID   string
	playerID string
}

// InitLogger installs the default slog logger writing to stdout.
func InitLogger(cfg Config) *slog.Logger {
	return InitLoggerWithWriter(cfg, os.Stdout)
}

// InitLoggerWithWriter installs the default slog logger writing to w.
// Every record carries the service, version and environment attributes.
func InitLoggerWithWriter(cfg Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     cfg.LogLevel(),
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	if cfg.IsJSON() {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	base := cfg.BaseAttributes()
	attrs := make([]slog.Attr, len(base))
	copy(attrs, base)
	handler = handler.WithAttrs(attrs)

	l := slog.New(handler)
	slog.SetDefault(l)
	return l
}

// GenerateRequestID creates a new UUID for tracing requests and connections.
func GenerateRequestID() string {
	return uuid.NewString()
}

// WithRequestID returns a new context containing the request ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the request ID from the context, if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(requestIDKey)
	if v == nil {
		return "", false
	}
	if id, ok := v.(string); ok {
		return id, true
	}
	return "", false
}

// GetRequestID returns the request ID or an empty string.
func GetRequestID(ctx context.Context) string {
	id, _ := RequestIDFromContext(ctx)
	return id
}

// WithConnection tags ctx with a websocket connection and the player on it.
func WithConnection(ctx context.Context, connID, playerID string) context.Context {
	return context.WithValue(ctx, connectionKey, connection{connID: connID, playerID: playerID})
}

// FromContext returns a logger carrying the request and connection
// attributes found in ctx.
func FromContext(ctx context.Context) *slog.Logger {
	var args []any
	if id, ok := RequestIDFromContext(ctx); ok {
		args = append(args, AttrKeyRequestID, id)
	}
	if c, ok := ctx.Value(connectionKey).(connection); ok {
		args = append(args, AttrKeyConnID, c.connID, AttrKeyPlayerID, c.playerID)
	}
	if len(args) == 0 {
		return slog.Default()
	}
	return slog.Default().With(args...)
}

func Debug(msg string, args ...any) { slog.Default().Debug(msg, args...) }
func Info(msg string, args ...any)  { slog.Default().Info(msg, args...) }
func Warn(msg string, args ...any)  { slog.Default().Warn(msg, args...) }
func Error(msg string, args ...any) { slog.Default().Error(msg, args...) }
