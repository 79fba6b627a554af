package bootstrap

import (
	"context"
	"log/slog"

	"github.com/osse101/realmkeeper/internal/broadcast"
	"github.com/osse101/realmkeeper/internal/gateway"
	"github.com/osse101/realmkeeper/internal/repository"
	"github.com/osse101/realmkeeper/internal/scheduler"
	"github.com/osse101/realmkeeper/internal/server"
	"github.com/osse101/realmkeeper/internal/session"
	"github.com/osse101/realmkeeper/internal/worker"
)

// ShutdownComponents holds all components that need graceful shutdown.
type ShutdownComponents struct {
	Server     *server.Server
	Scheduler  *scheduler.Scheduler
	Sessions   *session.Manager
	Hub        *broadcast.Hub
	Gateway    *gateway.Handler
	Reconciler *worker.Reconciler
	Pool       *worker.Pool
	DeadLetter *worker.DeadLetterWriter
	Store      repository.Store
}

// GracefulShutdown stops the application in dependency order:
// 1. HTTP server and scheduled jobs (no new work arrives)
// 2. Connected players are flushed, then their connections are closed
// 3. Store retries queued by the flush and disconnects are drained
// 4. Worker pool, dead-letter file and store are released
//
// Errors during shutdown are logged but do not stop the shutdown sequence.
func GracefulShutdown(ctx context.Context, c ShutdownComponents) {
	slog.Info(LogMsgShuttingDownServer)

	if err := c.Server.Stop(ctx); err != nil {
		slog.Error(LogMsgServerForcedShutdown, "error", err)
	}
	c.Scheduler.Stop()

	slog.Info(LogMsgFlushingPlayers)
	c.Sessions.FlushAll(ctx)
	c.Hub.Stop()
	if err := c.Gateway.Wait(ctx); err != nil {
		slog.Warn(LogMsgConnectionsLingering, "error", err, "players", c.Sessions.Count())
	}

	slog.Info(LogMsgDrainingRetries, "pending", c.Reconciler.Pending())
	if err := c.Reconciler.Wait(ctx); err != nil {
		slog.Error(LogMsgRetriesAbandoned, "error", err, "pending", c.Reconciler.Pending())
	}

	c.Pool.Stop()
	if err := c.DeadLetter.Close(); err != nil {
		slog.Error(LogMsgDeadLetterCloseFail, "error", err)
	}
	c.Store.Close()

	slog.Info(LogMsgServerStopped)
}
