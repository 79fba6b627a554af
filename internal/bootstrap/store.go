package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/osse101/realmkeeper/internal/config"
	"github.com/osse101/realmkeeper/internal/database"
	"github.com/osse101/realmkeeper/internal/database/memory"
	"github.com/osse101/realmkeeper/internal/database/postgres"
	"github.com/osse101/realmkeeper/internal/repository"
)

// OpenStore returns the persistence backend selected by STORE_DRIVER. The
// postgres backend is migrated to the latest schema before it is returned.
func OpenStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	if cfg.UsesMemoryStore() {
		slog.Info(LogMsgStoreReady, "driver", cfg.StoreDriver)
		return memory.NewStore(), nil
	}

	pool, err := database.NewPool(ctx, cfg.GetDBConnString(), cfg.DBMaxConns, cfg.DBMaxConnIdleTime, cfg.DBMaxConnLifetime)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedConnectStore, err)
	}

	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedMigrate, err)
	}
	slog.Info(LogMsgMigrationsApplied)

	slog.Info(LogMsgStoreReady, "driver", cfg.StoreDriver, "host", cfg.DBHost, "db", cfg.DBName)
	return postgres.NewStore(pool), nil
}
