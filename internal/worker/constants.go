package worker

import "os"

// ============================================================================
// Log Messages - Worker Pool
// ============================================================================

// Log messages for worker pool operations
const (
	LogMsgWorkerJobFailed  = "Worker job failed"
	LogMsgPoolStopped      = "Worker pool stopped, job rejected"
	LogMsgPoolDrainingJobs = "Worker pool draining queued jobs"
)

// ============================================================================
// Log Messages - Reconciler
// ============================================================================

// Log messages for persistence retries
const (
	LogMsgPersistScheduled    = "Persistence retry scheduled"
	LogMsgPersistCoalesced    = "Persistence retry already pending, coalesced"
	LogMsgPersistRetryFailed  = "Persistence retry failed"
	LogMsgPersistRecovered    = "Persistence recovered after retry"
	LogMsgPersistOnDispatcher = "Worker pool stopped, persisting on dispatcher"
	LogMsgPersistAlert        = "ALERT: persistence abandoned after retries"
	LogMsgDeadLetterWritten   = "Persistence failure written to dead-letter log"
	LogMsgDeadLetterWriteFail = "Failed to write dead-letter entry"
)

// DeadLetterSchemaVersion is the current version of the dead-letter log format
const DeadLetterSchemaVersion = "1.0"

// Dead-letter file permissions
const (
	DeadLetterFilePermissions os.FileMode = 0o644
	DeadLetterDirPermissions  os.FileMode = 0o755
)

// Reconciler key kinds
const (
	KindInventory = "inventory"
	KindWorldItem = "world_item"
	KindPlayer    = "player"
)
