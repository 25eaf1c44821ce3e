// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence ENV > file > defaults.
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a loader. An empty configPath means environment only.
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// Path returns the config file path, if any.
func (l *Loader) Path() string {
	return l.configPath
}

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

func (l *Loader) envList(key string, defaultVal []string) []string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseList(key, defaultVal)
}

// Load builds the configuration: defaults, strict file, environment, derived paths, validation.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	l.mergeEnv(&cfg)
	resolvePaths(&cfg)
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile decodes a YAML file over cfg. Unknown fields are errors.
func (l *Loader) loadFile(path string, cfg *AppConfig) error {
	path = filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return nil
}

func (l *Loader) mergeEnv(cfg *AppConfig) {
	cfg.Root = l.envString(EnvRoot, cfg.Root)
	cfg.Listen = l.envString(EnvMenuListen, cfg.Listen)

	cfg.Player.Host = l.envString(EnvHost, cfg.Player.Host)
	cfg.Player.Port = l.envInt(EnvPort, cfg.Player.Port)
	cfg.Player.Socket = l.envString(EnvMPVSocket, cfg.Player.Socket)

	cfg.Schedule.Path = l.envString(EnvScheduleDB, cfg.Schedule.Path)

	cfg.Media.GPUContext = l.envString(EnvGPUContext, cfg.Media.GPUContext)
	cfg.Media.HWDec = l.envString(EnvHWDec, cfg.Media.HWDec)
	cfg.Media.ALang = l.envString(EnvALang, cfg.Media.ALang)
	cfg.Media.SLang = l.envString(EnvSLang, cfg.Media.SLang)
	cfg.Media.AudioPath = l.envString(EnvMenuAudio, cfg.Media.AudioPath)
	cfg.Media.AudioVolume = l.envInt(EnvMenuVolume, cfg.Media.AudioVolume)
	cfg.Media.StopGrace = l.envDuration("FSX_STOP_GRACE", cfg.Media.StopGrace)

	cfg.Menu.TimeZone = l.envString(EnvTZ, cfg.Menu.TimeZone)
	cfg.OSD.HideTags = l.envList(EnvHideTags, cfg.OSD.HideTags)

	cfg.Log.Level = l.envString(EnvLogLevel, cfg.Log.Level)
	cfg.Log.Service = l.envString(EnvLogService, cfg.Log.Service)
}
