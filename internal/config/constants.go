package config

import "time"

const (
	// Configuration file paths
	ConfigPathItems       = "configs/items/items.json"
	ConfigPathItemsSchema = "configs/schemas/items.schema.json"
	ConfigPathDeadLetter  = "logs/persistence_deadletter.jsonl"
)

// Store drivers
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Defaults
const (
	DefaultPort               = 8080
	DefaultDBMaxConns         = 20
	DefaultDBMaxConnIdleTime  = 5 * time.Minute
	DefaultDBMaxConnLifetime  = 30 * time.Minute
	DefaultStarterItem        = "bronze_sword"
	DefaultStarterQuantity    = 1
	DefaultFlushInterval      = 5 * time.Second
	DefaultTradeIdleTimeout   = 5 * time.Minute
	DefaultTradeSweepInterval = 30 * time.Second
	DefaultPersistMaxRetries  = 5
	DefaultPersistRetryDelay  = 500 * time.Millisecond
	DefaultWorkerCount        = 4
	DefaultWorkerQueueSize    = 256
	DefaultPlayerCacheSize    = 1024
	DefaultPlayerCacheTTL     = 10 * time.Minute
	DefaultWSSendBuffer       = 64
	DefaultWSReadTimeout      = 60 * time.Second
	DefaultWSMaxMessageBytes  = 16 * 1024
	DefaultShutdownTimeout    = 15 * time.Second
)
