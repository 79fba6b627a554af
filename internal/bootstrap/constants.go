package bootstrap

// =============================================================================
// File System Permissions
// =============================================================================

const (
	// DirPermission is the standard permission for creating directories
	DirPermission = 0755

	// LogFilePermission is the permission for log files
	LogFilePermission = 0666
)

// =============================================================================
// Logger Configuration
// =============================================================================

const (
	// LogFileTimestampFormat is the timestamp format for log filenames (YYYY-MM-DD_HH-MM-SS)
	LogFileTimestampFormat = "2006-01-02_15-04-05"

	// LogFileNamePattern is the format string for log filenames
	LogFileNamePattern = "session_%s.log"

	// LogFileExtension is the file extension for log files
	LogFileExtension = ".log"

	// LogFileRetentionCount is the number of older log files kept when a new one opens
	LogFileRetentionCount = 9
)

// Log messages for logger initialization
const (
	LogMsgLoggingInitialized  = "Logging initialized"
	LogMsgStartingRealmkeeper = "Starting realmkeeper"
	LogMsgConfigurationLoaded = "Configuration loaded"
	LogMsgFailedCreateLogsDir = "failed to create logs directory"
	LogMsgFailedOpenLogFile   = "failed to open log file"
	LogMsgFailedDeleteOldLog  = "Failed to delete old log file"
)

// =============================================================================
// Application Wiring
// =============================================================================

// Scheduled job names
const (
	JobNameTradeSweep  = "trade-idle-sweep"
	JobNamePlayerFlush = "player-position-flush"
)

// Log messages for startup
const (
	LogMsgStoreReady         = "Store ready"
	LogMsgMigrationsApplied  = "Database migrations applied"
	LogMsgWorldHydrated      = "World registry hydrated"
	LogMsgApplicationReady   = "Application wired"
	LogMsgTradesExpired      = "Idle trades expired"
	LogMsgFlushMovedFailed   = "Periodic position flush failed"
	ErrMsgFailedOpenStore    = "failed to open store"
	ErrMsgFailedLoadCatalog  = "failed to load item catalog"
	ErrMsgFailedHydrate      = "failed to hydrate world registry"
	ErrMsgFailedSessions     = "failed to create session manager"
	ErrMsgFailedDeadLetter   = "failed to open dead-letter file"
	ErrMsgFailedMigrate      = "failed to migrate database"
	ErrMsgFailedConnectStore = "failed to connect to database"
)

// =============================================================================
// Shutdown Messages
// =============================================================================

const (
	LogMsgShuttingDownServer   = "Shutting down server..."
	LogMsgFlushingPlayers      = "Flushing connected players..."
	LogMsgDrainingRetries      = "Draining pending store retries..."
	LogMsgServerStopped        = "Server stopped"
	LogMsgServerForcedShutdown = "Server forced to shutdown"
	LogMsgConnectionsLingering = "Connections still open at shutdown deadline"
	LogMsgRetriesAbandoned     = "Pending store retries abandoned at shutdown deadline"
	LogMsgDeadLetterCloseFail  = "Dead-letter file close failed"
)
