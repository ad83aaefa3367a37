package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistration(t *testing.T) {
	// Verify all metrics are registered without conflicts
	metrics := []prometheus.Collector{
		// Registry metrics
		RegistryConnectionsCurrent,
		RegistryCommandChannelDepth,
		RegistrySlowClientsEvicted,
		RegistryStopTimeoutsTotal,
		RegistryPanicsTotal,

		// Presence metrics
		PresenceOnlineUsers,
		PresenceTransitionsTotal,

		// Dispatch metrics
		DispatchEventsTotal,
		DispatchDeliveriesTotal,
		DispatchDropsTotal,

		// Transport metrics
		WebSocketMessageSendDuration,
		WebSocketPingFailures,
		WebSocketIdleDisconnects,
		WebSocketInboundFramesTotal,

		// Limit metrics
		ConnectionsRejectedTotal,
	}

	for _, metric := range metrics {
		require.NotNil(t, metric)
	}
}

func TestCounterVecLabels(t *testing.T) {
	before := testutil.ToFloat64(DispatchDropsTotal.WithLabelValues("empty_target"))
	DispatchDropsTotal.WithLabelValues("empty_target").Inc()
	after := testutil.ToFloat64(DispatchDropsTotal.WithLabelValues("empty_target"))
	assert.Equal(t, before+1, after)
}

func TestGaugeSet(t *testing.T) {
	PresenceOnlineUsers.Set(7)
	assert.Equal(t, 7.0, testutil.ToFloat64(PresenceOnlineUsers))
	PresenceOnlineUsers.Set(0)
}
