// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"fmt"
	"net"

	"github.com/ManuGH/fsxmenu/internal/config"
	"github.com/ManuGH/fsxmenu/internal/control"
	"github.com/ManuGH/fsxmenu/internal/health"
	"github.com/ManuGH/fsxmenu/internal/media"
	"github.com/ManuGH/fsxmenu/internal/menu"
	"github.com/ManuGH/fsxmenu/internal/osd"
	"github.com/ManuGH/fsxmenu/internal/persistence/sqlite"
	"github.com/ManuGH/fsxmenu/internal/player"
	"github.com/ManuGH/fsxmenu/internal/schedule"
)

// Runtime is the wired object graph of one daemon.
type Runtime struct {
	Config   config.AppConfig
	Resolver *schedule.Resolver
	Bridge   *player.Bridge
	Preview  *media.Preview
	Audio    *media.Ambient
	Menu     *menu.Controller
	Loop     *Loop
	Tracker  *osd.Tracker
	Health   *health.Manager
	Server   *control.Server
}

// NewResolver builds the schedule resolver for cfg. The CLI uses it on its own.
func NewResolver(cfg config.AppConfig) *schedule.Resolver {
	return schedule.NewResolver(schedule.Config{
		Path:         cfg.Schedule.Path,
		QueryTimeout: cfg.Schedule.QueryTimeout,
		GuideEvents:  cfg.Schedule.GuideEvents,
		SQLite:       sqlite.DefaultConfig(),
	})
}

// Wire builds every component from cfg. Nothing is started.
func Wire(cfg config.AppConfig) (*Runtime, error) {
	client, err := player.NewClient(cfg.Player.BaseURL(),
		player.WithTimeouts(cfg.Player.PostTimeout, cfg.Player.StatusTimeout))
	if err != nil {
		return nil, fmt.Errorf("player client: %w", err)
	}
	bridge := player.NewBridge(client, player.NewIPC(cfg.Player.Socket, cfg.Player.IPCTimeout))
	resolver := NewResolver(cfg)

	preview := media.NewPreview(media.PreviewConfig{
		Bin:          cfg.Media.Bin,
		GPUContext:   cfg.Media.GPUContext,
		HWDec:        cfg.Media.HWDec,
		ALang:        cfg.Media.ALang,
		SLang:        cfg.Media.SLang,
		RenderTarget: cfg.Media.RenderTarget,
		Grace:        cfg.Media.StopGrace,
		Drain:        cfg.Media.StopDrain,
	})
	audio := media.NewAmbient(media.AmbientConfig{
		Bin:    cfg.Media.Bin,
		Path:   cfg.Media.AudioPath,
		Volume: cfg.Media.AudioVolume,
		Grace:  cfg.Media.StopGrace,
		Drain:  cfg.Media.StopDrain,
	})

	ctrl := menu.New(menu.Config{
		Schedule:    resolver,
		Player:      bridge,
		Preview:     preview,
		Audio:       audio,
		VisibleRows: cfg.Menu.VisibleRows,
		Location:    cfg.Menu.Location(),
	})
	loop := NewLoop(ctrl, cfg.Menu.Tick)

	tracker := osd.NewTracker(bridge, resolver, osd.Config{
		Interval: cfg.OSD.Interval,
		Infobar:  cfg.OSD.Infobar,
		HideTags: cfg.OSD.HideTags,
	})

	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewHeartbeatChecker(loop.Heartbeat, max(5*cfg.Menu.Tick, defaultStallAfter)))
	hm.RegisterChecker(health.NewScheduleChecker(resolver))
	hm.RegisterChecker(health.NewPlayerChecker(bridge))
	hm.RegisterChecker(health.NewFileChecker("menu_audio", cfg.Media.AudioPath))

	tracing := ""
	if cfg.Telemetry.Enabled {
		tracing = cfg.Log.Service
	}
	srv := control.NewServer(control.ServerConfig{
		RateLimit:      cfg.Menu.RateLimit,
		TracingService: tracing,
	}, loop, ctrl, tracker, hm)

	return &Runtime{
		Config:   cfg,
		Resolver: resolver,
		Bridge:   bridge,
		Preview:  preview,
		Audio:    audio,
		Menu:     ctrl,
		Loop:     loop,
		Tracker:  tracker,
		Health:   hm,
		Server:   srv,
	}, nil
}

// App assembles the lifecycle around rt. ln may be nil to listen on the configured address.
func (rt *Runtime) App(holder *config.ConfigHolder, ln net.Listener) (*App, error) {
	app, err := NewApp(Options{
		Loop:     rt.Loop,
		Menu:     rt.Menu,
		Server:   control.NewHTTPServer(rt.Config.Listen, rt.Server.Handler()),
		Listener: ln,
		Tracker:  rt.Tracker,
		Holder:   holder,
		Reloadable: []Reloadable{
			ReloadFunc(func(cfg config.AppConfig) { rt.Audio.SetVolume(cfg.Media.AudioVolume) }),
			ReloadFunc(func(cfg config.AppConfig) { rt.Tracker.SetHideTags(cfg.OSD.HideTags) }),
		},
	})
	if err != nil {
		return nil, err
	}
	app.RegisterShutdownHook("schedule", func(context.Context) error { return rt.Resolver.Close() })
	return app, nil
}
