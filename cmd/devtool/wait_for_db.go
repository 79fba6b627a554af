package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/osse101/realmkeeper/internal/database"
)

const (
	defaultWaitAttempts = 30
	waitRetryInterval   = 2 * time.Second
	waitAttemptTimeout  = 5 * time.Second
)

type WaitForDBCommand struct{}

func (c *WaitForDBCommand) Name() string {
	return "wait-for-db"
}

func (c *WaitForDBCommand) Description() string {
	return "Wait for the database to accept connections [attempts]"
}

func (c *WaitForDBCommand) Run(args []string) error {
	PrintHeader("Waiting for database...")

	maxRetries := defaultWaitAttempts
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid attempt count %q", args[0])
		}
		maxRetries = n
	}

	dbURL := databaseURL()
	for i := 0; i < maxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), waitAttemptTimeout)
		pool, err := database.NewPool(ctx, dbURL, 1, 0, 0)
		cancel()
		if err == nil {
			pool.Close()
			PrintSuccess("Database is ready")
			return nil
		}

		fmt.Printf("Database not ready (%d/%d): %v\n", i+1, maxRetries, err)
		time.Sleep(waitRetryInterval)
	}

	return fmt.Errorf("database failed to become ready after %d attempts", maxRetries)
}
