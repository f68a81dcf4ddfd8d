// Copyright (C) 2025 TeamSync Labs (dev@teamsync.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides Prometheus metrics for the sync service.
//
// Metrics cover the realtime core: connection lifecycle, room membership,
// inbound client signals, outbound broadcasts, and best-effort deliveries
// that were dropped. Exposed via the /metrics endpoint for Prometheus +
// Grafana.
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "teamsync"

const realtimeSubsystem = "realtime"

// RealtimeMetrics holds all Prometheus metrics for the realtime core.
// Initialize once at startup via InitMetrics().
type RealtimeMetrics struct {
	// ConnectionsActive tracks currently open websocket connections.
	ConnectionsActive prometheus.Gauge

	// ConnectionsTotal counts connections accepted since process start.
	ConnectionsTotal prometheus.Counter

	// OnlineUsers tracks the size of the online-user set.
	OnlineUsers prometheus.Gauge

	// RoomsActive tracks rooms with at least one member.
	RoomsActive prometheus.Gauge

	// SignalsTotal counts inbound client signals by event name.
	SignalsTotal *prometheus.CounterVec

	// SignalsDroppedTotal counts inbound signals rejected by the per-client
	// rate limiter or an unknown event name.
	// Labels: reason (rate_limited, unknown_event, malformed)
	SignalsDroppedTotal *prometheus.CounterVec

	// BroadcastsTotal counts outbound broadcasts by event name.
	BroadcastsTotal *prometheus.CounterVec

	// DeliveriesDroppedTotal counts messages dropped because a target
	// connection's send queue was full or already closed.
	DeliveriesDroppedTotal prometheus.Counter
}

// DefaultMetrics is the singleton instance of RealtimeMetrics.
// Nil until InitMetrics() runs; the realtime core nil-checks it so unit
// tests can run without touching the default registry.
var DefaultMetrics *RealtimeMetrics

// InitMetrics initializes and registers the default metrics instance.
// Call once at startup; a second call panics on duplicate registration.
func InitMetrics() *RealtimeMetrics {
	DefaultMetrics = &RealtimeMetrics{
		ConnectionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: realtimeSubsystem,
			Name:      "connections_active",
			Help:      "Currently open websocket connections",
		}),
		ConnectionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: realtimeSubsystem,
			Name:      "connections_total",
			Help:      "Websocket connections accepted since start",
		}),
		OnlineUsers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: realtimeSubsystem,
			Name:      "online_users",
			Help:      "Users currently marked online",
		}),
		RoomsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: realtimeSubsystem,
			Name:      "rooms_active",
			Help:      "Rooms with at least one member connection",
		}),
		SignalsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: realtimeSubsystem,
			Name:      "signals_total",
			Help:      "Inbound client signals by event name",
		}, []string{"event"}),
		SignalsDroppedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: realtimeSubsystem,
			Name:      "signals_dropped_total",
			Help:      "Inbound client signals dropped before dispatch",
		}, []string{"reason"}),
		BroadcastsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: realtimeSubsystem,
			Name:      "broadcasts_total",
			Help:      "Outbound broadcasts by event name",
		}, []string{"event"}),
		DeliveriesDroppedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: realtimeSubsystem,
			Name:      "deliveries_dropped_total",
			Help:      "Messages dropped due to a full or closed send queue",
		}),
	}
	return DefaultMetrics
}

// Drop reasons for SignalsDroppedTotal.
const (
	DropRateLimited  = "rate_limited"
	DropUnknownEvent = "unknown_event"
	DropMalformed    = "malformed"
)

// RecordSignal counts one inbound client signal.
func (m *RealtimeMetrics) RecordSignal(event string) {
	m.SignalsTotal.WithLabelValues(event).Inc()
}

// RecordSignalDropped counts one rejected inbound signal.
func (m *RealtimeMetrics) RecordSignalDropped(reason string) {
	m.SignalsDroppedTotal.WithLabelValues(reason).Inc()
}

// RecordBroadcast counts one outbound broadcast.
func (m *RealtimeMetrics) RecordBroadcast(event string) {
	m.BroadcastsTotal.WithLabelValues(event).Inc()
}
