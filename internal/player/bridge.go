// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package player bridges transport intents to the externally running live player:
// HTTP first, the local control socket as a narrow fallback.
package player

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	xglog "github.com/ManuGH/fsxmenu/internal/log"
	"github.com/ManuGH/fsxmenu/internal/metrics"
	"github.com/ManuGH/fsxmenu/internal/resilience"
	"github.com/ManuGH/fsxmenu/internal/telemetry"
)

const (
	transportHTTP = "http"
	transportIPC  = "ipc"
)

// Bridge sends pause, resume-live and tune intents. All methods are best-effort:
// the returned error is for logging, callers never block on it.
type Bridge struct {
	client  *Client
	ipc     *IPC
	breaker *resilience.CircuitBreaker
	tracer  trace.Tracer
	logger  zerolog.Logger

	// Outage warnings are throttled per transport.
	httpOutage rate.Sometimes
	ipcOutage  rate.Sometimes
}

// NewBridge combines the HTTP client with an optional IPC fallback (nil disables it).
func NewBridge(client *Client, ipc *IPC) *Bridge {
	return &Bridge{
		client: client,
		ipc:    ipc,
		breaker: resilience.NewCircuitBreaker("player_http", 3, 5*time.Second,
			resilience.WithFailurePredicate(unreachable)),
		tracer:     telemetry.Tracer("fsxmenu/player"),
		logger:     xglog.WithComponent("player"),
		httpOutage: rate.Sometimes{First: 1, Interval: 30 * time.Second},
		ipcOutage:  rate.Sometimes{First: 1, Interval: 30 * time.Second},
	}
}

// Breaker exposes the HTTP breaker for health reporting.
func (b *Bridge) Breaker() *resilience.CircuitBreaker {
	return b.breaker
}

func (b *Bridge) viaHTTP(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, span := b.tracer.Start(ctx, "player."+op, trace.WithAttributes(telemetry.PlayerAttributes(op, transportHTTP)...))
	defer span.End()

	err := b.breaker.Execute(func() error { return fn(ctx) })
	b.record(span, op, transportHTTP, err)
	return err
}

func (b *Bridge) viaIPC(ctx context.Context, op string, paused bool) error {
	if b.ipc == nil {
		return &Error{Sentinel: ErrUnavailable, Operation: op}
	}
	ctx, span := b.tracer.Start(ctx, "player."+op, trace.WithAttributes(telemetry.PlayerAttributes(op, transportIPC)...))
	defer span.End()

	err := b.ipc.SetPaused(ctx, paused)
	b.record(span, op, transportIPC, err)
	return err
}

func (b *Bridge) record(span trace.Span, op, transport string, err error) {
	res := result(err)
	metrics.IncPlayerRequest(op, transport, res)
	if err == nil {
		return
	}
	span.SetAttributes(telemetry.ErrorAttributes(res)...)
	span.SetStatus(codes.Error, res)
	b.warn(op, transport, err)
}

func (b *Bridge) warn(op, transport string, err error) {
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return
	}
	outage := &b.httpOutage
	if transport == transportIPC {
		outage = &b.ipcOutage
	}
	outage.Do(func() {
		ev := b.logger.Warn().
			Err(err).
			Str(xglog.FieldEvent, "player.request_failed").
			Str("op", op).
			Str("transport", transport)
		if transport == transportIPC {
			ev = ev.Str(xglog.FieldSocket, b.ipc.Socket())
		} else {
			ev = ev.Str(xglog.FieldBaseURL, b.client.BaseURL())
		}
		ev.Msg("live player did not accept control request")
	})
}

func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, resilience.ErrCircuitOpen):
		return "skipped"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrRejected):
		return "rejected"
	default:
		return "error"
	}
}

// Pause pauses the live player, falling back to pause+mute over the local socket.
func (b *Bridge) Pause(ctx context.Context) error {
	if err := b.viaHTTP(ctx, "pause", b.client.Pause); err == nil {
		return nil
	}
	return b.viaIPC(ctx, "pause", true)
}

// ResumeLive returns the player to live: "go live", else re-tune to the reported
// channel, else unpause and unmute locally so the program is never left muted.
func (b *Bridge) ResumeLive(ctx context.Context) error {
	if err := b.viaHTTP(ctx, "live", b.client.Live); err == nil {
		return nil
	}

	if st, ok := b.Status(ctx); ok && st.Channel != "" {
		if err := b.Tune(ctx, st.Channel); err == nil {
			_ = b.viaIPC(ctx, "resume", false)
			return nil
		}
	}
	return b.viaIPC(ctx, "resume", false)
}

// Tune switches the player to channelID. There is no local fallback.
func (b *Bridge) Tune(ctx context.Context, channelID string) error {
	if channelID == "" {
		return &Error{Sentinel: ErrNoChannel, Operation: "zap"}
	}
	return b.viaHTTP(ctx, "zap", func(ctx context.Context) error { return b.client.Zap(ctx, channelID) })
}

// Status fetches a fresh status snapshot. ok is false when the player is unreachable.
func (b *Bridge) Status(ctx context.Context) (Status, bool) {
	var st Status
	err := b.viaHTTP(ctx, "status", func(ctx context.Context) error {
		var err error
		st, err = b.client.Status(ctx)
		return err
	})
	return st, err == nil
}
