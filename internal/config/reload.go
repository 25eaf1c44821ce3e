// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/fsxmenu/internal/log"
)

const reloadDebounce = 500 * time.Millisecond

// ConfigHolder provides thread-safe access to the current configuration and
// reloads it when the backing file changes.
type ConfigHolder struct {
	mu         sync.RWMutex
	current    AppConfig
	loader     *Loader
	configPath string
	logger     zerolog.Logger

	watcher   *fsnotify.Watcher
	debounce  *time.Timer
	listeners []chan<- AppConfig
}

// NewConfigHolder wraps an already loaded configuration.
func NewConfigHolder(initial AppConfig, loader *Loader, configPath string) *ConfigHolder {
	return &ConfigHolder{
		current:    initial,
		loader:     loader,
		configPath: configPath,
		logger:     xglog.WithComponent("config"),
	}
}

// Get returns the current configuration.
func (h *ConfigHolder) Get() AppConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// RegisterListener adds a channel that receives every successfully reloaded config.
// Sends never block; a listener that is not ready misses the update.
func (h *ConfigHolder) RegisterListener(ch chan<- AppConfig) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, ch)
}

// Reload re-reads the configuration. On failure the current config stays in effect.
func (h *ConfigHolder) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	next, err := h.loader.Load()
	if err != nil {
		h.logger.Error().Err(err).Str("event", "config.reload_failed").Msg("configuration reload rejected; keeping current config")
		return fmt.Errorf("reload: %w", err)
	}

	h.mu.Lock()
	prev := h.current
	h.current = next
	listeners := slices.Clone(h.listeners)
	h.mu.Unlock()

	h.logChanges(prev, next)
	for _, ch := range listeners {
		select {
		case ch <- next:
		default:
			h.logger.Warn().Str("event", "config.listener_busy").Msg("config listener not ready; update dropped")
		}
	}
	return nil
}

// StartWatcher watches the config file's directory until ctx is done.
// Editors that replace files atomically are covered by watching the directory.
func (h *ConfigHolder) StartWatcher(ctx context.Context) error {
	if h.configPath == "" {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(h.configPath)); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(h.configPath), err)
	}

	h.mu.Lock()
	h.watcher = w
	h.mu.Unlock()

	h.logger.Info().Str("event", "config.watch_started").Str("path", h.configPath).Msg("watching configuration file")
	h.watchLoop(ctx, w)
	return nil
}

func (h *ConfigHolder) watchLoop(ctx context.Context, w *fsnotify.Watcher) {
	target := filepath.Clean(h.configPath)
	defer func() {
		h.mu.Lock()
		if h.debounce != nil {
			h.debounce.Stop()
		}
		h.watcher = nil
		h.mu.Unlock()
		_ = w.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			h.mu.Lock()
			if h.debounce != nil {
				h.debounce.Stop()
			}
			h.debounce = time.AfterFunc(reloadDebounce, func() {
				if ctx.Err() != nil {
					return
				}
				_ = h.Reload(ctx)
			})
			h.mu.Unlock()
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			h.logger.Warn().Err(err).Str("event", "config.watch_error").Msg("config watcher error")
		}
	}
}

func (h *ConfigHolder) logChanges(prev, next AppConfig) {
	ev := h.logger.Info().Str("event", "config.reloaded")
	if prev.Log.Level != next.Log.Level {
		ev = ev.Str("log_level", next.Log.Level)
	}
	if prev.Media.AudioVolume != next.Media.AudioVolume {
		ev = ev.Int("audio_volume", next.Media.AudioVolume)
	}
	if !slices.Equal(prev.OSD.HideTags, next.OSD.HideTags) {
		ev = ev.Strs("hide_tags", next.OSD.HideTags)
	}
	if prev.Listen != next.Listen || prev.Player != next.Player || prev.Schedule != next.Schedule {
		h.logger.Warn().Str("event", "config.restart_required").Msg("listen, player or schedule settings changed; restart to apply")
	}
	ev.Msg("configuration reloaded")
}
