// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Validate reports every problem in cfg at once.
func Validate(cfg AppConfig) error {
	var errs []error
	add := func(field, format string, args ...any) {
		errs = append(errs, fmt.Errorf("%s: %s", field, fmt.Sprintf(format, args...)))
	}

	if _, port, err := net.SplitHostPort(cfg.Listen); err != nil {
		add("listen", "invalid address %q: %v", cfg.Listen, err)
	} else if p, err := strconv.Atoi(port); err != nil || p < 0 || p > 65535 {
		add("listen", "invalid port %q", port)
	}

	if cfg.Player.Host == "" {
		add("player.host", "must not be empty")
	}
	if cfg.Player.Port < 1 || cfg.Player.Port > 65535 {
		add("player.port", "out of range: %d", cfg.Player.Port)
	}
	positive(&errs, "player.postTimeout", cfg.Player.PostTimeout)
	positive(&errs, "player.statusTimeout", cfg.Player.StatusTimeout)
	positive(&errs, "player.ipcTimeout", cfg.Player.IPCTimeout)

	if cfg.Schedule.Path == "" {
		add("schedule.path", "must not be empty")
	}
	positive(&errs, "schedule.queryTimeout", cfg.Schedule.QueryTimeout)
	if cfg.Schedule.GuideEvents < 1 {
		add("schedule.guideEvents", "must be at least 1")
	}

	if cfg.Media.Bin == "" {
		add("media.bin", "must not be empty")
	}
	if cfg.Media.AudioVolume < 0 || cfg.Media.AudioVolume > 100 {
		add("media.audioVolume", "must be within [0,100], got %d", cfg.Media.AudioVolume)
	}
	positive(&errs, "media.stopGrace", cfg.Media.StopGrace)
	positive(&errs, "media.stopDrain", cfg.Media.StopDrain)
	if stop := cfg.Media.StopGrace + cfg.Media.StopDrain; stop >= time.Second {
		add("media.stopGrace", "stopGrace+stopDrain must be sub-second, got %s", stop)
	}

	if cfg.Menu.TimeZone != "" {
		if _, err := time.LoadLocation(cfg.Menu.TimeZone); err != nil {
			add("menu.timeZone", "%v", err)
		}
	}
	if cfg.Menu.VisibleRows < 1 {
		add("menu.visibleRows", "must be at least 1")
	}
	positive(&errs, "menu.tick", cfg.Menu.Tick)
	if cfg.Menu.RateLimit < 0 {
		add("menu.rateLimit", "must not be negative")
	}

	positive(&errs, "osd.interval", cfg.OSD.Interval)
	positive(&errs, "osd.infobar", cfg.OSD.Infobar)

	if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil {
		add("log.level", "%v", err)
	}

	if cfg.Telemetry.Enabled {
		if cfg.Telemetry.Exporter != "grpc" && cfg.Telemetry.Exporter != "http" {
			add("telemetry.exporter", "must be grpc or http, got %q", cfg.Telemetry.Exporter)
		}
		if cfg.Telemetry.Endpoint == "" {
			add("telemetry.endpoint", "must not be empty when enabled")
		}
	}
	if cfg.Telemetry.SamplingRate < 0 || cfg.Telemetry.SamplingRate > 1 {
		add("telemetry.samplingRate", "must be within [0,1]")
	}

	return errors.Join(errs...)
}

func positive(errs *[]error, field string, d time.Duration) {
	if d <= 0 {
		*errs = append(*errs, fmt.Errorf("%s: must be positive", field))
	}
}
