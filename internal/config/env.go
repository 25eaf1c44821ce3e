// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/fsxmenu/internal/log"
)

// Environment keys.
const (
	EnvRoot       = "FSX_ROOT"
	EnvHost       = "FSX_HOST"
	EnvPort       = "FSX_PORT"
	EnvMPVSocket  = "FSX_MPV_SOCKET"
	EnvTZ         = "FSX_TZ"
	EnvGPUContext = "FSX_GPU_CONTEXT"
	EnvHWDec      = "FSX_HWDEC"
	EnvALang      = "FSX_ALANG"
	EnvSLang      = "FSX_SLANG"
	EnvMenuAudio  = "FSX_MENU_AUDIO"
	EnvMenuVolume = "FSX_MENU_AUDIO_VOL"
	EnvMenuListen = "FSX_MENU_LISTEN"
	EnvScheduleDB = "FSX_SCHEDULE_DB"
	EnvHideTags   = "FSX_OSD_HIDE_TAGS"
	EnvLogLevel   = "LOG_LEVEL"
	EnvLogService = "LOG_SERVICE"
	EnvConfigPath = "FSX_CONFIG"
)

// ParseString reads a string from the environment; unset or empty means default.
func ParseString(key, defaultValue string) string {
	return parseStringWithLogger(log.WithComponent("config"), key, defaultValue)
}

func parseStringWithLogger(logger zerolog.Logger, key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		logger.Debug().
			Str("key", key).
			Str("value", value).
			Str("source", "environment").
			Msg("using environment variable")
		return value
	}
	return defaultValue
}

// ParseInt reads an integer from the environment and falls back to default on parse errors.
func ParseInt(key string, defaultValue int) int {
	logger := log.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Int("default", defaultValue).
			Msg("invalid integer in environment variable, using default")
		return defaultValue
	}
	logger.Debug().
		Str("key", key).
		Int("value", i).
		Str("source", "environment").
		Msg("using environment variable")
	return i
}

// ParseDuration reads a Go duration ("750ms") from the environment.
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	logger := log.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Dur("default", defaultValue).
			Msg("invalid duration in environment variable, using default")
		return defaultValue
	}
	return d
}

// ParseList reads a comma separated list; empty items are dropped.
func ParseList(key string, defaultValue []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	out := []string{}
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
