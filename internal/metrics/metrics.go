package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Connection Registry Metrics
var (
	// RegistryConnectionsCurrent tracks the number of live WebSocket connections
	RegistryConnectionsCurrent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "registry_connections_current",
			Help: "Number of live WebSocket connections in the registry",
		},
	)

	// RegistryCommandChannelDepth tracks the registry actor's command backlog
	RegistryCommandChannelDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "registry_command_channel_depth",
			Help: "Pending commands in the registry actor channel",
		},
	)

	// RegistrySlowClientsEvicted tracks clients dropped for a full send buffer
	RegistrySlowClientsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "registry_slow_clients_evicted_total",
			Help: "Clients evicted because their send buffer was full",
		},
	)

	// RegistryStopTimeoutsTotal tracks registry shutdowns that exceeded the stop timeout
	RegistryStopTimeoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "registry_stop_timeouts_total",
			Help: "Registry shutdowns that exceeded the graceful stop timeout",
		},
	)

	// RegistryPanicsTotal tracks recovered panics in the registry actor
	RegistryPanicsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "registry_panics_recovered_total",
			Help: "Panics recovered in the registry actor goroutine",
		},
	)
)

// Presence Metrics
var (
	// PresenceOnlineUsers tracks the number of users with at least one connection
	PresenceOnlineUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "presence_online_users",
			Help: "Users with at least one associated connection",
		},
	)

	// PresenceTransitionsTotal tracks edge-triggered presence transitions by direction
	PresenceTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presence_transitions_total",
			Help: "Presence transitions by direction (online/offline)",
		},
		[]string{"direction"},
	)
)

// Dispatch Metrics
var (
	// DispatchEventsTotal tracks dispatched events by event name
	DispatchEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_events_total",
			Help: "Events handed to the dispatcher by event name",
		},
		[]string{"event"},
	)

	// DispatchDeliveriesTotal tracks per-connection deliveries
	DispatchDeliveriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_deliveries_total",
			Help: "Per-connection event deliveries",
		},
	)

	// DispatchDropsTotal tracks deliveries dropped by reason
	DispatchDropsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_drops_total",
			Help: "Deliveries dropped by reason (stale_connection/slow_client/empty_target)",
		},
		[]string{"reason"},
	)
)

// WebSocket Transport Metrics
var (
	// WebSocketMessageSendDuration tracks per-message write latency
	WebSocketMessageSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "websocket_message_send_duration_seconds",
			Help:    "WebSocket message send duration in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		},
	)

	// WebSocketPingFailures tracks failed keepalive pings
	WebSocketPingFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_ping_failures_total",
			Help: "Failed WebSocket keepalive pings",
		},
	)

	// WebSocketIdleDisconnects tracks connections closed for inactivity
	WebSocketIdleDisconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_idle_disconnects_total",
			Help: "Connections closed after exceeding the idle timeout",
		},
	)

	// WebSocketInboundFramesTotal tracks inbound client frames by event and status
	WebSocketInboundFramesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_inbound_frames_total",
			Help: "Inbound client frames by event name and status (ok/malformed/rate_limited)",
		},
		[]string{"event", "status"},
	)
)

// Connection Limit Metrics
var (
	// ConnectionsRejectedTotal tracks rejected connection attempts by reason
	ConnectionsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connections_rejected_total",
			Help: "Rejected connection attempts by reason (global_limit/ip_limit/rate_limit/origin)",
		},
		[]string{"reason"},
	)
)
