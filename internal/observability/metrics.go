package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oryxchat_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// RealtimeEventsDispatched counts push events dispatched to engines by
	// table and operation.
	RealtimeEventsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oryxchat_realtime_events_dispatched_total",
		Help: "Total realtime events dispatched to reconcilers",
	}, []string{"table", "operation"})

	// ReconcilerApplies counts incremental applies by entity and outcome
	// (applied, duplicate, removed, ignored).
	ReconcilerApplies = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oryxchat_reconciler_applies_total",
		Help: "Total reconciler apply operations by entity and outcome",
	}, []string{"entity", "outcome"})

	// ReconcilerRefreshes counts full reconciliation fetches by entity.
	ReconcilerRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oryxchat_reconciler_refreshes_total",
		Help: "Total full reconciliation fetches by entity",
	}, []string{"entity"})

	// WebSocketConnections is the gauge of active websocket connections.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "oryxchat_websocket_connections",
		Help: "Number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to
	// backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oryxchat_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})

	// AttachmentUploads counts attachment pipeline commits by outcome.
	AttachmentUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oryxchat_attachment_uploads_total",
		Help: "Total attachment upload commits by outcome",
	}, []string{"outcome"})
)
