package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: HelpTextHTTPRequestsInFlight,
		},
	)
)

// Connection Metrics
var (
	PlayersConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNamePlayersConnected,
			Help: HelpTextPlayersConnected,
		},
	)

	WSMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameWSMessages,
			Help: HelpTextWSMessages,
		},
		[]string{LabelType},
	)

	BroadcastDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameBroadcastDropped,
			Help: HelpTextBroadcastDropped,
		},
	)

	ObserversAttached = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameObserversAttached,
			Help: HelpTextObserversAttached,
		},
	)
)

// Game Metrics
var (
	InventoryOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameInventoryOps,
			Help: HelpTextInventoryOps,
		},
		[]string{LabelAction, LabelResult},
	)

	PickupRacesLost = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNamePickupRacesLost,
			Help: HelpTextPickupRacesLost,
		},
	)

	Trades = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameTrades,
			Help: HelpTextTrades,
		},
		[]string{LabelOutcome},
	)

	WorldItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameWorldItems,
			Help: HelpTextWorldItems,
		},
	)

	XPAwarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameXPAwarded,
			Help: HelpTextXPAwarded,
		},
		[]string{LabelSkill},
	)
)

// Persistence Metrics
var (
	PersistenceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNamePersistenceFailures,
			Help: HelpTextPersistenceFailures,
		},
		[]string{LabelOp},
	)

	PersistenceRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNamePersistenceRetries,
			Help: HelpTextPersistenceRetries,
		},
	)

	DeadLetters = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameDeadLetters,
			Help: HelpTextDeadLetters,
		},
	)
)

// RecordInventoryOp counts an inventory operation outcome.
func RecordInventoryOp(action string, err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	InventoryOps.WithLabelValues(action, result).Inc()
}
