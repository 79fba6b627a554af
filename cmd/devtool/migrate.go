package main

import (
	"context"
	"fmt"
	"time"

	"github.com/osse101/realmkeeper/internal/database"
)

const migrateTimeout = 2 * time.Minute

type MigrateCommand struct{}

func (c *MigrateCommand) Name() string {
	return "migrate"
}

func (c *MigrateCommand) Description() string {
	return "Apply the embedded schema migrations to the configured database"
}

func (c *MigrateCommand) Run(args []string) error {
	dbURL := databaseURL()
	PrintHeader("Migrating database")
	PrintInfo("Target: %s", redactPassword(dbURL))

	ctx, cancel := context.WithTimeout(context.Background(), migrateTimeout)
	defer cancel()

	pool, err := database.NewPool(ctx, dbURL, 2, 0, 0)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		return err
	}

	PrintSuccess("Migrations applied")
	return nil
}

// databaseURL builds the connection string from the same variables the
// server reads, unless DB_URL overrides it
func databaseURL() string {
	if dbURL := getEnv("DB_URL", ""); dbURL != "" {
		return dbURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", "postgres"),
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_NAME", "realmkeeper"))
}
