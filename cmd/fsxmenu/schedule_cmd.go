// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/ManuGH/fsxmenu/internal/config"
	"github.com/ManuGH/fsxmenu/internal/daemon"
	"github.com/ManuGH/fsxmenu/internal/persistence/sqlite"
	"github.com/ManuGH/fsxmenu/internal/schedule"
)

func runScheduleCLI(name string, args []string, stdout, stderr io.Writer) int {
	fs, file := fileFlags("fsxmenu "+name, stderr)
	full := fs.Bool("full", false, "run a full integrity check (verify-schedule only)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.NewLoader(resolveConfigPath(*file), version).Load()
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch name {
	case "verify-schedule":
		return verifySchedule(ctx, cfg.Schedule.Path, *full, stdout, stderr)
	case "nownext":
		if fs.NArg() != 1 {
			fmt.Fprintln(stderr, "Usage: fsxmenu nownext [--file fsxmenu.yaml] <channel>")
			return 2
		}
	}

	r := daemon.NewResolver(cfg)
	defer r.Close()
	if err := r.Ping(ctx); err != nil {
		fmt.Fprintf(stderr, "warning: %v (showing placeholders)\n", err)
	}
	loc := cfg.Menu.Location()

	if name == "nownext" {
		printNowNext(ctx, r, fs.Arg(0), loc, stdout)
		return 0
	}
	printGuide(r.LoadGuideSnapshot(ctx, time.Now()), loc, stdout)
	return 0
}

func printGuide(channels []schedule.Channel, loc *time.Location, w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, ch := range channels {
		for i, ev := range ch.Events {
			label := ""
			if i == 0 {
				label = ch.ID + "  " + ch.Name
			}
			fmt.Fprintf(tw, "%s\t%s-%s\t%s\n", label,
				ev.Start.In(loc).Format("15:04"), ev.End.In(loc).Format("15:04"), ev.Title)
		}
	}
	_ = tw.Flush()
}

func printNowNext(ctx context.Context, r *schedule.Resolver, channel string, loc *time.Location, w io.Writer) {
	cur, next := r.NowAndNext(ctx, channel, time.Now())
	line := func(label string, ev *schedule.Event) {
		if ev == nil {
			fmt.Fprintf(w, "%-5s %s\n", label, schedule.Placeholder)
			return
		}
		fmt.Fprintf(w, "%-5s %s-%s  %s\n", label,
			ev.Start.In(loc).Format("15:04"), ev.End.In(loc).Format("15:04"), ev.Title)
	}
	fmt.Fprintln(w, schedule.ChannelName(channel))
	line("now", cur)
	line("next", next)
}

func verifySchedule(ctx context.Context, path string, full bool, stdout, stderr io.Writer) int {
	mode := "quick"
	if full {
		mode = "full"
	}
	problems, err := sqlite.VerifyIntegrity(ctx, path, mode)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if len(problems) > 0 {
		fmt.Fprintf(stderr, "%s: %d integrity problem(s)\n", path, len(problems))
		for _, p := range problems {
			fmt.Fprintf(stderr, "  %s\n", p)
		}
		return 1
	}
	fmt.Fprintf(stdout, "%s: ok (%s check)\n", path, mode)
	return 0
}
