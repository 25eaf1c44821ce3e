// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package media

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/fsxmenu/internal/ephemeral"
	xglog "github.com/ManuGH/fsxmenu/internal/log"
)

// AmbientConfig configures the menu background track.
type AmbientConfig struct {
	Bin    string
	Path   string
	Volume int
	Grace  time.Duration
	Drain  time.Duration
}

// Ambient loops one audio track with no video while the menu is open.
type Ambient struct {
	bin    string
	path   string
	volume atomic.Int32
	h      *ephemeral.Handle
	logger zerolog.Logger
}

// NewAmbient returns an idle background audio manager.
func NewAmbient(cfg AmbientConfig) *Ambient {
	if cfg.Bin == "" {
		cfg.Bin = "mpv"
	}
	a := &Ambient{
		bin:  cfg.Bin,
		path: cfg.Path,
		h: ephemeral.New(ephemeral.Options{
			Role:  "audio",
			Grace: cfg.Grace,
			Drain: cfg.Drain,
		}),
		logger: xglog.WithComponent("ambient"),
	}
	a.SetVolume(cfg.Volume)
	return a
}

// ClampVolume bounds a volume percentage to [0,100].
func ClampVolume(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// SetVolume changes the volume used by the next Start.
func (a *Ambient) SetVolume(v int) {
	a.volume.Store(int32(ClampVolume(v)))
}

// Volume returns the clamped volume.
func (a *Ambient) Volume() int {
	return int(a.volume.Load())
}

// AmbientArgs builds the mpv command line for the looping track.
func AmbientArgs(path string, volume int) []string {
	return []string{
		"--no-config",
		"--no-video",
		"--loop-file=inf",
		"--really-quiet",
		"--no-osc",
		"--osd-level=0",
		fmt.Sprintf("--volume=%d", ClampVolume(volume)),
		"--audio-channels=stereo",
		"--audio-buffer=0.3",
		"--",
		path,
	}
}

// Start (re)starts the background track. A missing track or spawn failure leaves
// the menu silent.
func (a *Ambient) Start() error {
	if a.path == "" {
		return ErrNoMedia
	}
	if _, err := os.Stat(a.path); err != nil {
		a.logger.Debug().
			Err(err).
			Str(xglog.FieldEvent, "audio.track_missing").
			Str(xglog.FieldPath, a.path).
			Msg("menu audio track not found")
		return fmt.Errorf("media: audio track: %w", err)
	}
	err := a.h.Start(ephemeral.Spec{Bin: a.bin, Args: AmbientArgs(a.path, a.Volume())})
	if err != nil {
		a.logger.Warn().
			Err(err).
			Str(xglog.FieldEvent, "audio.spawn_failed").
			Msg("menu audio could not be started")
	}
	return err
}

// Stop silences the track. Safe when idle.
func (a *Ambient) Stop() {
	a.h.Stop()
}

// Running reports whether the track is playing.
func (a *Ambient) Running() bool {
	return a.h.Running()
}
