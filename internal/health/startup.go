// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/ManuGH/fsxmenu/internal/config"
	"github.com/ManuGH/fsxmenu/internal/log"
)

// PerformStartupChecks validates the environment before the daemon starts.
// Only a missing station root is fatal; absent helpers and stores are warned about
// because the menu keeps working without them.
func PerformStartupChecks(cfg config.AppConfig) error {
	logger := log.WithComponent("startup-check")

	info, err := os.Stat(cfg.Root)
	if err != nil {
		return fmt.Errorf("station root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("station root is not a directory: %s", cfg.Root)
	}

	if _, err := exec.LookPath(cfg.Media.Bin); err != nil {
		logger.Warn().Err(err).Str("event", "startup.media_bin_missing").Str("bin", cfg.Media.Bin).
			Msg("media helper not found; preview and background audio disabled")
	}
	if _, err := os.Stat(cfg.Schedule.Path); err != nil {
		logger.Warn().Err(err).Str("event", "startup.schedule_missing").Str("path", cfg.Schedule.Path).
			Msg("schedule store not present yet; guide will show placeholders")
	}
	if _, err := os.Stat(cfg.Media.AudioPath); err != nil {
		logger.Warn().Err(err).Str("event", "startup.audio_missing").Str("path", cfg.Media.AudioPath).
			Msg("background track not found")
	}

	logger.Info().Str("event", "startup.checks_passed").Msg("startup checks passed")
	return nil
}
