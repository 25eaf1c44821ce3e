// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ManuGH/fsxmenu/internal/config"
	"github.com/ManuGH/fsxmenu/internal/daemon"
	"github.com/ManuGH/fsxmenu/internal/health"
	xglog "github.com/ManuGH/fsxmenu/internal/log"
	"github.com/ManuGH/fsxmenu/internal/telemetry"
	buildinfo "github.com/ManuGH/fsxmenu/internal/version"
)

var version = buildinfo.Version

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "config":
			os.Exit(runConfigCLI(os.Args[2:], os.Stdout, os.Stderr))
		case "guide", "nownext", "verify-schedule":
			os.Exit(runScheduleCLI(os.Args[1], os.Args[2:], os.Stdout, os.Stderr))
		}
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML); defaults to $"+config.EnvConfigPath)
	flag.Parse()

	if *showVersion {
		fmt.Println(buildinfo.String())
		os.Exit(0)
	}

	xglog.Configure(xglog.Config{Level: "info", Service: "fsxmenu", Version: version})
	logger := xglog.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := resolveConfigPath(*configPath)
	loader := config.NewLoader(path, version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Fatal().Err(err).
			Str("event", "config.load_failed").
			Str("config_path", path).
			Msg("failed to load configuration")
	}

	xglog.Configure(xglog.Config{Level: cfg.Log.Level, Service: cfg.Log.Service, Version: cfg.Version})
	source := "env+defaults"
	if path != "" {
		source = "file"
	}
	logger.Info().
		Str("event", "config.loaded").
		Str("source", source).
		Str("path", path).
		Str("listen", cfg.Listen).
		Str("player", cfg.Player.BaseURL()).
		Str("schedule", cfg.Schedule.Path).
		Msg("configuration loaded")

	if err := health.PerformStartupChecks(cfg); err != nil {
		logger.Fatal().Err(err).Str("event", "startup.failed").Msg("startup checks failed")
	}

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Log.Service,
		ServiceVersion: cfg.Version,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		logger.Warn().Err(err).Str("event", "telemetry.init_failed").Msg("tracing disabled")
	}

	rt, err := daemon.Wire(cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("event", "wire.failed").Msg("failed to build runtime")
	}
	app, err := rt.App(config.NewConfigHolder(cfg, loader, path), nil)
	if err != nil {
		logger.Fatal().Err(err).Str("event", "wire.failed").Msg("failed to build daemon")
	}
	app.RegisterShutdownHook("telemetry", tp.Shutdown)

	if err := app.Run(ctx); err != nil {
		logger.Error().Err(err).Str("event", "daemon.failed").Msg("daemon exited with error")
		stop()
		os.Exit(1)
	}
}

// resolveConfigPath prefers the flag, then the environment. Empty means no file.
func resolveConfigPath(flagValue string) string {
	if p := strings.TrimSpace(flagValue); p != "" {
		return p
	}
	return strings.TrimSpace(os.Getenv(config.EnvConfigPath))
}
