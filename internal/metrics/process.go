// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	procSpawns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fsxmenu_process_spawns_total",
		Help: "Helper process spawn attempts by role and result",
	}, []string{"role", "result"})

	procTerminate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fsxmenu_process_terminate_total",
		Help: "Signals sent while stopping helper processes, by signal and result",
	}, []string{"signal", "result"})

	procWait = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fsxmenu_process_wait_total",
		Help: "Helper process exits observed during stop, by outcome",
	}, []string{"outcome"})

	procRunning = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fsxmenu_process_running",
		Help: "Whether the helper process of a role is currently owned (1) or not (0)",
	}, []string{"role"})
)

// IncProcSpawn counts a spawn attempt for role.
func IncProcSpawn(role, result string) {
	procSpawns.WithLabelValues(role, result).Inc()
}

// IncProcTerminate counts a signal delivery attempt.
func IncProcTerminate(signal, result string) {
	procTerminate.WithLabelValues(signal, result).Inc()
}

// IncProcWait counts an observed process exit.
func IncProcWait(outcome string) {
	procWait.WithLabelValues(outcome).Inc()
}

// SetProcRunning flags whether role currently owns a live process.
func SetProcRunning(role string, running bool) {
	v := 0.0
	if running {
		v = 1.0
	}
	procRunning.WithLabelValues(role).Set(v)
}
