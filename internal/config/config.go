// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads the fsxmenu configuration: defaults, then a strict YAML
// file, then environment variables.
package config

import (
	"net"
	"path/filepath"
	"strconv"
	"time"
)

// AppConfig is the complete runtime configuration.
type AppConfig struct {
	// Root is the station directory; derived paths hang off it.
	Root string `yaml:"root"`
	// Listen is the menu control address.
	Listen string `yaml:"listen"`

	Player    PlayerConfig    `yaml:"player"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Media     MediaConfig     `yaml:"media"`
	Menu      MenuConfig      `yaml:"menu"`
	OSD       OSDConfig       `yaml:"osd"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	Version string `yaml:"-"`
}

// PlayerConfig locates the live player's control surfaces.
type PlayerConfig struct {
	Host          string        `yaml:"host"`
	Port          int           `yaml:"port"`
	Socket        string        `yaml:"socket"`
	PostTimeout   time.Duration `yaml:"postTimeout"`
	StatusTimeout time.Duration `yaml:"statusTimeout"`
	IPCTimeout    time.Duration `yaml:"ipcTimeout"`
}

// BaseURL returns the HTTP control endpoint.
func (p PlayerConfig) BaseURL() string {
	return "http://" + net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

// ScheduleConfig locates the read-only schedule store.
type ScheduleConfig struct {
	Path         string        `yaml:"path"`
	QueryTimeout time.Duration `yaml:"queryTimeout"`
	GuideEvents  int           `yaml:"guideEvents"`
}

// MediaConfig drives the preview and background audio helpers.
type MediaConfig struct {
	Bin          string        `yaml:"bin"`
	GPUContext   string        `yaml:"gpuContext"`
	HWDec        string        `yaml:"hwdec"`
	ALang        string        `yaml:"alang"`
	SLang        string        `yaml:"slang"`
	RenderTarget string        `yaml:"renderTarget"`
	AudioPath    string        `yaml:"audioPath"`
	AudioVolume  int           `yaml:"audioVolume"`
	StopGrace    time.Duration `yaml:"stopGrace"`
	StopDrain    time.Duration `yaml:"stopDrain"`
}

// MenuConfig tunes the state machine and its published view.
type MenuConfig struct {
	TimeZone    string        `yaml:"timeZone"`
	VisibleRows int           `yaml:"visibleRows"`
	Tick        time.Duration `yaml:"tick"`
	RateLimit   int           `yaml:"rateLimit"`
}

// OSDConfig tunes the now/next tracker.
type OSDConfig struct {
	Interval time.Duration `yaml:"interval"`
	Infobar  time.Duration `yaml:"infobar"`
	HideTags []string      `yaml:"hideTags"`
}

// LogConfig configures the base logger.
type LogConfig struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
}

// TelemetryConfig configures tracing export.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate"`
}

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		Root:   ".",
		Listen: "127.0.0.1:9402",
		Player: PlayerConfig{
			Host:          "127.0.0.1",
			Port:          4243,
			Socket:        "/tmp/fsx_mpv.sock",
			PostTimeout:   500 * time.Millisecond,
			StatusTimeout: 600 * time.Millisecond,
			IPCTimeout:    400 * time.Millisecond,
		},
		Schedule: ScheduleConfig{
			QueryTimeout: 400 * time.Millisecond,
			GuideEvents:  6,
		},
		Media: MediaConfig{
			Bin:         "mpv",
			GPUContext:  "x11egl",
			HWDec:       "auto-safe",
			ALang:       "eng,en",
			SLang:       "dut,nld",
			AudioVolume: 45,
			StopGrace:   800 * time.Millisecond,
			StopDrain:   150 * time.Millisecond,
		},
		Menu: MenuConfig{
			TimeZone:    "Europe/Brussels",
			VisibleRows: 8,
			Tick:        500 * time.Millisecond,
			RateLimit:   50,
		},
		OSD: OSDConfig{
			Interval: 400 * time.Millisecond,
			Infobar:  2 * time.Second,
			HideTags: []string{"commercial", "promo", "news"},
		},
		Log: LogConfig{
			Level:   "info",
			Service: "fsxmenu",
		},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
		},
	}
}

// resolvePaths fills paths derived from Root.
func resolvePaths(cfg *AppConfig) {
	if abs, err := filepath.Abs(cfg.Root); err == nil {
		cfg.Root = abs
	}
	if cfg.Schedule.Path == "" {
		cfg.Schedule.Path = filepath.Join(cfg.Root, "schedules", "fsx_schedule.sqlite")
	}
	if cfg.Media.AudioPath == "" {
		cfg.Media.AudioPath = filepath.Join(cfg.Root, "static", "audio", "sky_bassophere.mp3")
	}
}

// Location loads the configured time zone, falling back to the local zone.
func (m MenuConfig) Location() *time.Location {
	if m.TimeZone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(m.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}
