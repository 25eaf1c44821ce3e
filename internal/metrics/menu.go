// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package metrics holds the Prometheus collectors shared by the menu daemon.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fsxmenu_commands_total",
		Help: "Remote-control commands applied to the menu, by command and outcome (ok, ignored, failed)",
	}, []string{"command", "outcome"})

	menuState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fsxmenu_menu_state",
		Help: "Current menu state (hidden, root, guide); the active state is 1",
	}, []string{"state"})

	guideChannels = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fsxmenu_guide_snapshot_channels",
		Help: "Number of channels in the most recent guide snapshot",
	})
)

var menuStates = []string{"hidden", "root", "guide"}

// IncCommand records one applied command.
func IncCommand(command, outcome string) {
	commandsTotal.WithLabelValues(command, outcome).Inc()
}

// SetMenuState marks state as the active menu state.
func SetMenuState(state string) {
	for _, s := range menuStates {
		v := 0.0
		if s == state {
			v = 1.0
		}
		menuState.WithLabelValues(s).Set(v)
	}
}

// SetGuideChannels records the size of the frozen guide snapshot.
func SetGuideChannels(n int) {
	guideChannels.Set(float64(n))
}
