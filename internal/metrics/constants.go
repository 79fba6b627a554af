package metrics

// ============================================================================
// Metric Names
// ============================================================================

// HTTP metric names
const (
	MetricNameHTTPRequestsTotal    = "http_requests_total"
	MetricNameHTTPRequestDuration  = "http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "http_requests_in_flight"
)

// Connection metric names
const (
	MetricNamePlayersConnected  = "players_connected"
	MetricNameWSMessages        = "ws_messages_total"
	MetricNameBroadcastDropped  = "broadcast_dropped_total"
	MetricNameObserversAttached = "observers_attached"
)

// Game metric names
const (
	MetricNameInventoryOps    = "inventory_ops_total"
	MetricNamePickupRacesLost = "pickup_races_lost_total"
	MetricNameTrades          = "trades_total"
	MetricNameWorldItems      = "world_items"
	MetricNameXPAwarded       = "xp_awarded_total"
)

// Persistence metric names
const (
	MetricNamePersistenceFailures = "persistence_failures_total"
	MetricNamePersistenceRetries  = "persistence_retries_total"
	MetricNameDeadLetters         = "persistence_dead_letters_total"
)

// ============================================================================
// Metric Help Text
// ============================================================================

const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Current number of HTTP requests being served"

	HelpTextPlayersConnected  = "Players with a live connection"
	HelpTextWSMessages        = "Inbound websocket messages by type"
	HelpTextBroadcastDropped  = "Outbound messages dropped because a client buffer was full"
	HelpTextObserversAttached = "Observer streams attached to the event hub"

	HelpTextInventoryOps    = "Inventory operations by action and result"
	HelpTextPickupRacesLost = "Pickups that found a slot but lost the world item to another player"
	HelpTextTrades          = "Trade sessions reaching a terminal state by outcome"
	HelpTextWorldItems      = "Items currently lying in the world"
	HelpTextXPAwarded       = "Experience awarded by skill"

	HelpTextPersistenceFailures = "Store writes that failed after the in-memory change was applied"
	HelpTextPersistenceRetries  = "Store write retries attempted by the reconciler"
	HelpTextDeadLetters         = "Store writes abandoned after exhausting retries"
)

// ============================================================================
// Metric Label Names
// ============================================================================

const (
	LabelMethod  = "method"
	LabelPath    = "path"
	LabelStatus  = "status"
	LabelType    = "type"
	LabelAction  = "action"
	LabelResult  = "result"
	LabelOutcome = "outcome"
	LabelOp      = "op"
	LabelSkill   = "skill"
)

// Result label values
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// HTTPLatencyBuckets are the histogram buckets for request latency
var HTTPLatencyBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}
