// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package daemon runs the menu: the command loop, the control server, the OSD
// tracker and configuration reloads, and shuts them down in order.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/fsxmenu/internal/config"
	xglog "github.com/ManuGH/fsxmenu/internal/log"
)

// ShutdownHook is a function that performs cleanup during graceful shutdown.
// Hooks are executed in reverse registration order (LIFO).
type ShutdownHook func(ctx context.Context) error

type namedHook struct {
	name string
	hook ShutdownHook
}

// Runner is a background subsystem stopped by ctx.
type Runner interface {
	Run(ctx context.Context) error
}

// Reloadable receives configuration that can change at runtime.
type Reloadable interface {
	ApplyConfig(cfg config.AppConfig)
}

// ReloadFunc adapts a function to Reloadable.
type ReloadFunc func(cfg config.AppConfig)

// ApplyConfig implements Reloadable.
func (f ReloadFunc) ApplyConfig(cfg config.AppConfig) { f(cfg) }

// Shutdowner releases the menu's helpers and returns the player to live.
type Shutdowner interface {
	Shutdown(ctx context.Context)
}

// Options assemble an App.
type Options struct {
	Loop       *Loop
	Menu       Shutdowner
	Server     *http.Server
	Listener   net.Listener // optional; Server.Addr is used when nil
	Tracker    Runner       // optional
	Holder     *config.ConfigHolder
	Reloadable []Reloadable

	ShutdownTimeout time.Duration
	// ReloadSignal triggers a config reload; nil means SIGHUP.
	ReloadSignal        os.Signal
	DisableReloadSignal bool
}

// App owns the long-lived runtime lifecycle.
type App struct {
	opts   Options
	logger zerolog.Logger

	mu    sync.Mutex
	hooks []namedHook
}

// NewApp validates opts.
func NewApp(opts Options) (*App, error) {
	if opts.Loop == nil || opts.Menu == nil {
		return nil, ErrMissingController
	}
	if opts.Server == nil {
		return nil, ErrMissingServer
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}
	if opts.ReloadSignal == nil {
		opts.ReloadSignal = syscall.SIGHUP
	}
	return &App{opts: opts, logger: xglog.WithComponent("daemon")}, nil
}

// RegisterShutdownHook adds cleanup run after the menu has shut down.
func (a *App) RegisterShutdownHook(name string, hook ShutdownHook) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hooks = append(a.hooks, namedHook{name: name, hook: hook})
}

// Run starts every subsystem and blocks until ctx is cancelled or one fails.
// On the way out the menu is shut down after the loop has stopped, so no command
// can race the final teardown.
func (a *App) Run(ctx context.Context) error {
	ln := a.opts.Listener
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", a.opts.Server.Addr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", a.opts.Server.Addr, err)
		}
	}

	var applyCh chan config.AppConfig
	if a.opts.Holder != nil {
		applyCh = make(chan config.AppConfig, 1)
		a.opts.Holder.RegisterListener(applyCh)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.opts.Loop.Run(gctx) })
	g.Go(func() error { return a.serve(gctx, ln) })

	if a.opts.Tracker != nil {
		g.Go(func() error { return a.opts.Tracker.Run(gctx) })
	}

	if h := a.opts.Holder; h != nil {
		g.Go(func() error {
			if err := h.StartWatcher(gctx); err != nil {
				a.logger.Warn().Err(err).Str("event", "config.watcher_start_failed").Msg("failed to start config watcher")
			}
			return nil
		})
		g.Go(func() error { return a.applyLoop(gctx, applyCh) })
		if !a.opts.DisableReloadSignal {
			g.Go(func() error { return a.signalReloads(gctx, h) })
		}
	}

	a.logger.Info().Str("event", "daemon.started").Str("listen", ln.Addr().String()).Msg("menu daemon running")
	err := g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.opts.ShutdownTimeout)
	defer cancel()
	a.opts.Menu.Shutdown(shutdownCtx)

	if hookErr := a.runHooks(shutdownCtx); hookErr != nil {
		err = errors.Join(err, hookErr)
	}
	a.logger.Info().Str("event", "daemon.stopped").Msg("menu daemon stopped")
	return err
}

func (a *App) serve(ctx context.Context, ln net.Listener) error {
	srv := a.opts.Server
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		a.logger.Error().Err(err).Str("event", "control.server_failed").Msg("control server failed")
		return fmt.Errorf("control server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.opts.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		<-errCh
		return err
	}
}

func (a *App) applyLoop(ctx context.Context, ch <-chan config.AppConfig) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case cfg := <-ch:
			xglog.SetLevel(cfg.Log.Level)
			for _, r := range a.opts.Reloadable {
				r.ApplyConfig(cfg)
			}
		}
	}
}

func (a *App) signalReloads(ctx context.Context, h *config.ConfigHolder) error {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, a.opts.ReloadSignal)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hup:
			a.logger.Info().
				Str("event", "config.reload_signal").
				Str("signal", a.opts.ReloadSignal.String()).
				Msg("received reload signal, reloading config")
			_ = h.Reload(ctx)
		}
	}
}

func (a *App) runHooks(ctx context.Context) error {
	a.mu.Lock()
	hooks := append([]namedHook(nil), a.hooks...)
	a.mu.Unlock()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i].hook(ctx); err != nil {
			a.logger.Warn().Err(err).Str("event", "daemon.hook_failed").Str("hook", hooks[i].name).Msg("shutdown hook failed")
			errs = append(errs, fmt.Errorf("%s: %w", hooks[i].name, err))
		}
	}
	return errors.Join(errs...)
}
