package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Port        int
	LogLevel    string
	LogFormat   string
	LogDir      string // optional; empty logs to stdout only
	ServiceName string
	Version     string
	Environment string

	StoreDriver       string
	DBUser            string
	DBPassword        string
	DBHost            string
	DBPort            string
	DBName            string
	DBMaxConns        int
	DBMaxConnIdleTime time.Duration
	DBMaxConnLifetime time.Duration

	APIKey         string // API key for the admin surface
	TrustedProxies []string

	ItemsConfigPath string
	ItemsSchemaPath string
	StarterItem     string
	StarterQuantity int

	FlushInterval      time.Duration
	TradeIdleTimeout   time.Duration
	TradeSweepInterval time.Duration

	PersistMaxRetries int
	PersistRetryDelay time.Duration
	DeadLetterPath    string
	WorkerCount       int
	WorkerQueueSize   int

	PlayerCacheSize int
	PlayerCacheTTL  time.Duration

	ShutdownTimeout time.Duration

	WSSendBuffer      int
	WSReadTimeout     time.Duration
	WSMaxMessageBytes int64
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:    strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:   strings.ToLower(getEnv("LOG_FORMAT", "text")),
		LogDir:      getEnv("LOG_DIR", ""),
		ServiceName: getEnv("SERVICE_NAME", "realmkeeper"),
		Version:     getEnv("VERSION", "dev"),
		Environment: getEnv("ENVIRONMENT", "dev"),

		StoreDriver:       strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		DBUser:            getEnv("DB_USER", "postgres"),
		DBPassword:        getEnv("DB_PASSWORD", "postgres"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBName:            getEnv("DB_NAME", "realmkeeper"),
		DBMaxConns:        getEnvAsInt("DB_MAX_CONNS", DefaultDBMaxConns),
		DBMaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", DefaultDBMaxConnIdleTime),
		DBMaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", DefaultDBMaxConnLifetime),

		APIKey:         getEnv("API_KEY", ""),
		TrustedProxies: splitList(getEnv("TRUSTED_PROXIES", "")),

		ItemsConfigPath: getEnv("ITEMS_CONFIG_PATH", ConfigPathItems),
		ItemsSchemaPath: getEnv("ITEMS_SCHEMA_PATH", ConfigPathItemsSchema),
		StarterItem:     getEnv("STARTER_ITEM", DefaultStarterItem),
		StarterQuantity: getEnvAsInt("STARTER_QUANTITY", DefaultStarterQuantity),

		FlushInterval:      getEnvAsDuration("FLUSH_INTERVAL", DefaultFlushInterval),
		TradeIdleTimeout:   getEnvAsDuration("TRADE_IDLE_TIMEOUT", DefaultTradeIdleTimeout),
		TradeSweepInterval: getEnvAsDuration("TRADE_SWEEP_INTERVAL", DefaultTradeSweepInterval),

		PersistMaxRetries: getEnvAsInt("PERSIST_MAX_RETRIES", DefaultPersistMaxRetries),
		PersistRetryDelay: getEnvAsDuration("PERSIST_RETRY_DELAY", DefaultPersistRetryDelay),
		DeadLetterPath:    getEnv("DEAD_LETTER_PATH", ConfigPathDeadLetter),
		WorkerCount:       getEnvAsInt("WORKER_COUNT", DefaultWorkerCount),
		WorkerQueueSize:   getEnvAsInt("WORKER_QUEUE_SIZE", DefaultWorkerQueueSize),

		PlayerCacheSize: getEnvAsInt("PLAYER_CACHE_SIZE", DefaultPlayerCacheSize),
		PlayerCacheTTL:  getEnvAsDuration("PLAYER_CACHE_TTL", DefaultPlayerCacheTTL),

		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", DefaultShutdownTimeout),

		WSSendBuffer:      getEnvAsInt("WS_SEND_BUFFER", DefaultWSSendBuffer),
		WSReadTimeout:     getEnvAsDuration("WS_READ_TIMEOUT", DefaultWSReadTimeout),
		WSMaxMessageBytes: int64(getEnvAsInt("WS_MAX_MESSAGE_BYTES", DefaultWSMaxMessageBytes)),
	}

	portStr := getEnv("PORT", strconv.Itoa(DefaultPort))
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT value: %w", err)
	}
	cfg.Port = port

	// Validate API key is set
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API_KEY environment variable must be set for security")
	}

	if cfg.StoreDriver != StoreDriverPostgres && cfg.StoreDriver != StoreDriverMemory {
		return nil, fmt.Errorf("invalid STORE_DRIVER %q: expected %s or %s", cfg.StoreDriver, StoreDriverPostgres, StoreDriverMemory)
	}

	if cfg.StarterQuantity < 1 {
		return nil, fmt.Errorf("invalid STARTER_QUANTITY %d: must be at least 1", cfg.StarterQuantity)
	}

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt parses an integer variable, falling back on missing or malformed values
func getEnvAsInt(key string, defaultValue int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return v
}

// getEnvAsDuration parses a Go duration string, falling back on missing or malformed values
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return v
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// GetDBConnString returns the PostgreSQL connection string
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}

// UsesMemoryStore reports whether state is kept only in process memory
func (c *Config) UsesMemoryStore() bool {
	return c.StoreDriver == StoreDriverMemory
}
