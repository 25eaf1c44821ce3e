// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package media drives the cosmetic mpv helpers of the menu: the muted
// picture-in-picture preview and the looping background track.
package media

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/fsxmenu/internal/ephemeral"
	xglog "github.com/ManuGH/fsxmenu/internal/log"
)

// ErrNoMedia is returned when there is nothing to play.
var ErrNoMedia = errors.New("media: no media path")

// PreviewConfig holds the mpv knobs used for the preview window.
type PreviewConfig struct {
	Bin          string
	GPUContext   string
	HWDec        string
	ALang        string
	SLang        string
	RenderTarget string // window id handed to --wid; empty lets mpv open its own window
	Grace        time.Duration
	Drain        time.Duration
}

// Preview renders "what channel X is playing right now" in a muted helper.
type Preview struct {
	cfg    PreviewConfig
	h      *ephemeral.Handle
	logger zerolog.Logger
}

// NewPreview returns an idle preview manager.
func NewPreview(cfg PreviewConfig) *Preview {
	if cfg.Bin == "" {
		cfg.Bin = "mpv"
	}
	return &Preview{
		cfg: cfg,
		h: ephemeral.New(ephemeral.Options{
			Role:  "preview",
			Grace: cfg.Grace,
			Drain: cfg.Drain,
		}),
		logger: xglog.WithComponent("preview"),
	}
}

// PreviewArgs builds the mpv command line for a preview of path seeked to offset.
func PreviewArgs(cfg PreviewConfig, path string, offset time.Duration) []string {
	if offset < 0 {
		offset = 0
	}
	args := []string{
		"--no-config",
		"--no-input-default-bindings",
		"--mute=yes",
		"--no-osc",
		"--osd-level=0",
		"--hr-seek=no",
		"--profile=low-latency",
		"--keep-open=yes",
		fmt.Sprintf("--start=%.3f", offset.Seconds()),
	}
	if cfg.RenderTarget != "" {
		args = append(args, "--wid="+cfg.RenderTarget)
	}
	args = append(args, "--no-border", "--force-window=yes", "--vo=gpu")
	if cfg.GPUContext != "" {
		args = append(args, "--gpu-context="+cfg.GPUContext)
	}
	if cfg.HWDec != "" {
		args = append(args, "--hwdec="+cfg.HWDec)
	}
	if cfg.ALang != "" {
		args = append(args, "--alang="+cfg.ALang)
	}
	if cfg.SLang != "" {
		args = append(args, "--slang="+cfg.SLang)
	}
	args = append(args, "--video-aspect-override=16:9", "--keepaspect=yes", "--", path)
	return args
}

// Start replaces any running preview with one of path at offset.
// A spawn failure leaves the preview stopped; callers treat it as cosmetic.
func (p *Preview) Start(path string, offset time.Duration) error {
	if path == "" {
		p.h.Stop()
		return ErrNoMedia
	}
	err := p.h.Start(ephemeral.Spec{Bin: p.cfg.Bin, Args: PreviewArgs(p.cfg, path, offset)})
	if err != nil {
		p.logger.Warn().
			Err(err).
			Str(xglog.FieldEvent, "preview.spawn_failed").
			Str(xglog.FieldPath, path).
			Msg("preview could not be started")
		return err
	}
	p.logger.Debug().
		Str(xglog.FieldEvent, "preview.started").
		Str(xglog.FieldPath, path).
		Dur(xglog.FieldOffset, offset).
		Msg("preview anchored")
	return nil
}

// Stop ends the preview. Safe on an idle preview.
func (p *Preview) Stop() {
	p.h.Stop()
}

// Running reports whether a preview process is live.
func (p *Preview) Running() bool {
	return p.h.Running()
}

// Args returns the command line of the running preview, if any.
func (p *Preview) Args() ([]string, bool) {
	spec, ok := p.h.Current()
	return spec.Args, ok
}
