// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	playerRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fsxmenu_player_requests_total",
		Help: "Upstream player control attempts by operation, transport (http, ipc) and result",
	}, []string{"op", "transport", "result"})

	scheduleQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fsxmenu_schedule_queries_total",
		Help: "Schedule store queries by operation and result (ok, empty, error, unavailable)",
	}, []string{"op", "result"})

	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fsxmenu_circuit_breaker_state",
		Help: "Circuit breaker state by component (closed=1, half-open=1, open=1; others 0)",
	}, []string{"component", "state"})

	circuitBreakerTrips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fsxmenu_circuit_breaker_trips_total",
		Help: "Total number of circuit breaker trips (transitions to open state)",
	}, []string{"component"})
)

var circuitStates = []string{"closed", "half-open", "open"}

// IncPlayerRequest counts one upstream player attempt.
func IncPlayerRequest(op, transport, result string) {
	playerRequests.WithLabelValues(op, transport, result).Inc()
}

// IncScheduleQuery counts one schedule store query.
func IncScheduleQuery(op, result string) {
	scheduleQueries.WithLabelValues(op, result).Inc()
}

// SetCircuitBreakerState records the active circuit breaker state for a component.
func SetCircuitBreakerState(component, state string) {
	for _, s := range circuitStates {
		value := 0.0
		if s == state {
			value = 1.0
		}
		circuitBreakerState.WithLabelValues(component, s).Set(value)
	}
}

// RecordCircuitBreakerTrip increments the trip counter when a breaker opens.
func RecordCircuitBreakerTrip(component string) {
	circuitBreakerTrips.WithLabelValues(component).Inc()
}
