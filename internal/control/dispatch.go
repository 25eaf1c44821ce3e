// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package control

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	xglog "github.com/ManuGH/fsxmenu/internal/log"
	"github.com/ManuGH/fsxmenu/internal/menu"
	"github.com/ManuGH/fsxmenu/internal/metrics"
	"github.com/ManuGH/fsxmenu/internal/telemetry"
)

// Menu is the command surface of the menu state machine.
type Menu interface {
	Mode() menu.Mode
	Open(ctx context.Context) menu.Result
	Close(ctx context.Context) menu.Result
	Toggle(ctx context.Context) menu.Result
	Navigate(ctx context.Context, d menu.Direction) menu.Result
	Confirm(ctx context.Context) menu.Result
	Cancel(ctx context.Context) menu.Result
	EnterGuide(ctx context.Context) menu.Result
	SelectItem(ctx context.Context, target menu.Target) menu.Result
	ActivateItem(ctx context.Context, target *menu.Target) menu.Result
	HandleKey(ctx context.Context, k menu.Key) menu.Result
}

// ErrUnknownKey is the failure reason for key names ParseKey does not know.
const ErrUnknownKey = "unknown key"

type handler func(ctx context.Context, m Menu, arg string) menu.Result

func navigate(d menu.Direction) handler {
	return func(ctx context.Context, m Menu, _ string) menu.Result { return m.Navigate(ctx, d) }
}

var table = map[Command]handler{
	CmdOpen:        func(ctx context.Context, m Menu, _ string) menu.Result { return m.Open(ctx) },
	CmdClose:       func(ctx context.Context, m Menu, _ string) menu.Result { return m.Close(ctx) },
	CmdToggle:      func(ctx context.Context, m Menu, _ string) menu.Result { return m.Toggle(ctx) },
	CmdNavUp:       navigate(menu.Up),
	CmdNavDown:     navigate(menu.Down),
	CmdNavLeft:     navigate(menu.Left),
	CmdNavRight:    navigate(menu.Right),
	CmdNavPageUp:   navigate(menu.PageUp),
	CmdNavPageDown: navigate(menu.PageDown),
	CmdConfirm:     func(ctx context.Context, m Menu, _ string) menu.Result { return m.Confirm(ctx) },
	CmdCancel:      func(ctx context.Context, m Menu, _ string) menu.Result { return m.Cancel(ctx) },
	CmdEnterGuide:  func(ctx context.Context, m Menu, _ string) menu.Result { return m.EnterGuide(ctx) },
	CmdSelect:      selectItem,
	CmdActivate:    activateItem,
	CmdKey:         pressKey,
}

func selectItem(ctx context.Context, m Menu, arg string) menu.Result {
	return m.SelectItem(ctx, menu.ParseTarget(arg))
}

func activateItem(ctx context.Context, m Menu, arg string) menu.Result {
	if arg == "" {
		return m.ActivateItem(ctx, nil)
	}
	t := menu.ParseTarget(arg)
	return m.ActivateItem(ctx, &t)
}

func pressKey(ctx context.Context, m Menu, arg string) menu.Result {
	k, ok := menu.ParseKey(arg)
	if !ok {
		return menu.Result{OK: false, Error: ErrUnknownKey}
	}
	return m.HandleKey(ctx, k)
}

// Outcome labels a result for metrics and spans.
func Outcome(res menu.Result) string {
	switch {
	case !res.OK:
		return "failed"
	case res.Ignored != "":
		return "ignored"
	default:
		return "ok"
	}
}

// Apply runs one command against m. Callers serialise Apply; the event loop is
// the only caller in the daemon.
func Apply(ctx context.Context, m Menu, req Request) menu.Result {
	name := req.Command.String()
	mode := m.Mode().String()

	ctx, span := telemetry.Tracer("fsxmenu.control").Start(ctx, "menu."+name,
		trace.WithAttributes(telemetry.CommandAttributes(name, mode)...))
	defer span.End()

	h, ok := table[req.Command]
	var res menu.Result
	if ok {
		res = h(ctx, m, req.Arg)
	} else {
		res = menu.Result{OK: false, Error: ErrUnknownCommand.Error()}
	}

	outcome := Outcome(res)
	metrics.IncCommand(name, outcome)
	span.SetAttributes(attribute.String(telemetry.MenuOutcomeKey, outcome))

	logger := xglog.WithComponentFromContext(ctx, "control")
	ev := logger.Debug()
	if outcome == "failed" {
		ev = logger.Info()
	}
	ev.Str(xglog.FieldEvent, "menu.command").
		Str(xglog.FieldCommand, req.String()).
		Str(xglog.FieldMode, mode).
		Str("outcome", outcome).
		Str("reason", res.Ignored+res.Error).
		Msg("command applied")
	return res
}

// Executor runs requests, typically by queueing them on the event loop.
type Executor interface {
	Execute(ctx context.Context, req Request) (menu.Result, error)
}

// Direct applies requests synchronously on the caller's goroutine.
type Direct struct {
	Menu Menu
}

// Execute implements Executor.
func (d Direct) Execute(ctx context.Context, req Request) (menu.Result, error) {
	return Apply(ctx, d.Menu, req), nil
}
