package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/osse101/realmkeeper/internal/broadcast"
	"github.com/osse101/realmkeeper/internal/catalog"
	"github.com/osse101/realmkeeper/internal/concurrency"
	"github.com/osse101/realmkeeper/internal/config"
	"github.com/osse101/realmkeeper/internal/gateway"
	"github.com/osse101/realmkeeper/internal/inventory"
	"github.com/osse101/realmkeeper/internal/repository"
	"github.com/osse101/realmkeeper/internal/scheduler"
	"github.com/osse101/realmkeeper/internal/server"
	"github.com/osse101/realmkeeper/internal/session"
	"github.com/osse101/realmkeeper/internal/skills"
	"github.com/osse101/realmkeeper/internal/trade"
	"github.com/osse101/realmkeeper/internal/worker"
	"github.com/osse101/realmkeeper/internal/world"
)

// App holds every wired component of a running server
type App struct {
	Config     *config.Config
	Store      repository.Store
	Catalog    *catalog.Catalog
	Hub        *broadcast.Hub
	Pool       *worker.Pool
	DeadLetter *worker.DeadLetterWriter
	Reconciler *worker.Reconciler
	World      *world.Registry
	Sessions   *session.Manager
	Inventory  inventory.Service
	Trades     trade.Service
	Skills     skills.Service
	Gateway    *gateway.Handler
	Scheduler  *scheduler.Scheduler
	Server     *server.Server
}

// Build wires the application from cfg. On error every component opened so
// far is released.
func Build(ctx context.Context, cfg *config.Config) (app *App, err error) {
	cat, err := catalog.LoadCatalog(cfg.ItemsConfigPath, cfg.ItemsSchemaPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedLoadCatalog, err)
	}

	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedOpenStore, err)
	}
	defer func() {
		if err != nil {
			store.Close()
		}
	}()

	deadLetter, err := worker.NewDeadLetterWriter(cfg.DeadLetterPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedDeadLetter, err)
	}
	defer func() {
		if err != nil {
			_ = deadLetter.Close()
		}
	}()

	pool := worker.NewPool(cfg.WorkerCount, cfg.WorkerQueueSize)
	pool.Start()
	defer func() {
		if err != nil {
			pool.Stop()
		}
	}()

	reconciler := worker.NewReconciler(pool, worker.ReconcilerConfig{
		MaxRetries: cfg.PersistMaxRetries,
		RetryDelay: cfg.PersistRetryDelay,
	}, deadLetter)

	hub := broadcast.NewHub(cfg.WSSendBuffer)
	locks := concurrency.NewLockManager()

	registry := world.NewRegistry(store, cat, reconciler, hub)
	if err := registry.Hydrate(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedHydrate, err)
	}
	slog.Info(LogMsgWorldHydrated, "items", registry.Len())

	sessions, err := session.NewManager(session.Config{
		StarterItem:     cfg.StarterItem,
		StarterQuantity: cfg.StarterQuantity,
		FlushInterval:   cfg.FlushInterval,
		CacheSize:       cfg.PlayerCacheSize,
		CacheTTL:        cfg.PlayerCacheTTL,
	}, cat, store, registry, locks, reconciler, hub)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedSessions, err)
	}

	inv := inventory.NewService(sessions, registry, cat, store, locks, reconciler, hub)
	trades := trade.NewService(sessions, inv, cat, hub, cfg.TradeIdleTimeout)
	sessions.OnDisconnect(trades.HandleDisconnect)

	skillService := skills.NewService(store, hub)

	gw := gateway.NewHandler(gateway.Config{
		ReadTimeout:     cfg.WSReadTimeout,
		MaxMessageBytes: cfg.WSMaxMessageBytes,
	}, hub, sessions, inv, trades)

	sched := scheduler.New(pool)
	sched.Schedule(JobNameTradeSweep, cfg.TradeSweepInterval, worker.JobFunc(func(ctx context.Context) error {
		if n := trades.ExpireIdle(ctx); n > 0 {
			slog.Info(LogMsgTradesExpired, "count", n)
		}
		return nil
	}))
	sched.Schedule(JobNamePlayerFlush, cfg.FlushInterval, worker.JobFunc(func(ctx context.Context) error {
		if err := sessions.FlushMoved(ctx); err != nil {
			slog.Warn(LogMsgFlushMovedFailed, "error", err)
		}
		return nil
	}))

	srv := server.NewServer(server.Config{
		Port:           cfg.Port,
		APIKey:         cfg.APIKey,
		TrustedProxies: cfg.TrustedProxies,
		ServiceName:    cfg.ServiceName,
		Version:        cfg.Version,
	}, server.Deps{
		Store:   store,
		Players: sessions,
		World:   registry,
		Skills:  skillService,
		Gateway: gw,
		Hub:     hub,
	})

	slog.Info(LogMsgApplicationReady, "catalog_items", cat.Len(), "store", cfg.StoreDriver)

	return &App{
		Config:     cfg,
		Store:      store,
		Catalog:    cat,
		Hub:        hub,
		Pool:       pool,
		DeadLetter: deadLetter,
		Reconciler: reconciler,
		World:      registry,
		Sessions:   sessions,
		Inventory:  inv,
		Trades:     trades,
		Skills:     skillService,
		Gateway:    gw,
		Scheduler:  sched,
		Server:     srv,
	}, nil
}

// ShutdownComponents returns the app's components in shutdown form
func (a *App) ShutdownComponents() ShutdownComponents {
	return ShutdownComponents{
		Server:     a.Server,
		Scheduler:  a.Scheduler,
		Sessions:   a.Sessions,
		Hub:        a.Hub,
		Gateway:    a.Gateway,
		Reconciler: a.Reconciler,
		Pool:       a.Pool,
		DeadLetter: a.DeadLetter,
		Store:      a.Store,
	}
}
