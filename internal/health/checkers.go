// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"os"
	"time"

	"github.com/ManuGH/fsxmenu/internal/resilience"
)

// Pinger is satisfied by the schedule resolver.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ScheduleChecker reports whether the schedule store can be queried.
// An unreachable store degrades the menu to placeholders; it never fails readiness.
type ScheduleChecker struct {
	store Pinger
}

// NewScheduleChecker wraps a store.
func NewScheduleChecker(store Pinger) *ScheduleChecker {
	return &ScheduleChecker{store: store}
}

func (c *ScheduleChecker) Name() string { return "schedule_store" }

func (c *ScheduleChecker) Check(ctx context.Context) CheckResult {
	if err := c.store.Ping(ctx); err != nil {
		return CheckResult{Status: StatusDegraded, Error: err.Error(), Message: "guide shows placeholders"}
	}
	return CheckResult{Status: StatusHealthy, Message: "store reachable"}
}

// BreakerSource exposes a circuit breaker.
type BreakerSource interface {
	Breaker() *resilience.CircuitBreaker
}

// PlayerChecker maps the player bridge's breaker state onto a health status.
type PlayerChecker struct {
	src BreakerSource
}

// NewPlayerChecker wraps the player bridge.
func NewPlayerChecker(src BreakerSource) *PlayerChecker {
	return &PlayerChecker{src: src}
}

func (c *PlayerChecker) Name() string { return "player_bridge" }

func (c *PlayerChecker) Check(context.Context) CheckResult {
	switch state := c.src.Breaker().State(); state {
	case resilience.StateClosed:
		return CheckResult{Status: StatusHealthy, Message: "circuit closed"}
	default:
		return CheckResult{Status: StatusDegraded, Message: "circuit " + string(state)}
	}
}

// HeartbeatChecker fails when the event loop stops ticking.
type HeartbeatChecker struct {
	last   func() time.Time
	maxAge time.Duration
}

// NewHeartbeatChecker reports unhealthy once last() is older than maxAge.
func NewHeartbeatChecker(last func() time.Time, maxAge time.Duration) *HeartbeatChecker {
	return &HeartbeatChecker{last: last, maxAge: maxAge}
}

func (c *HeartbeatChecker) Name() string { return "event_loop" }

func (c *HeartbeatChecker) Check(context.Context) CheckResult {
	last := c.last()
	if last.IsZero() {
		return CheckResult{Status: StatusUnhealthy, Message: "event loop not started"}
	}
	if age := time.Since(last); age > c.maxAge {
		return CheckResult{Status: StatusUnhealthy, Message: "event loop stalled for " + age.Round(time.Millisecond).String()}
	}
	return CheckResult{Status: StatusHealthy, Message: "ticking"}
}

// FileChecker checks an optional media file, such as the background track.
type FileChecker struct {
	name string
	path string
}

// NewFileChecker creates a checker for file existence
func NewFileChecker(name, path string) *FileChecker {
	return &FileChecker{name: name, path: path}
}

func (c *FileChecker) Name() string {
	return c.name
}

func (c *FileChecker) Check(context.Context) CheckResult {
	if c.path == "" {
		return CheckResult{Status: StatusHealthy, Message: "not configured (optional)"}
	}
	info, err := os.Stat(c.path)
	switch {
	case os.IsNotExist(err):
		return CheckResult{Status: StatusDegraded, Error: "file not found", Message: c.path}
	case err != nil:
		return CheckResult{Status: StatusDegraded, Error: err.Error()}
	case info.IsDir():
		return CheckResult{Status: StatusDegraded, Error: "expected file, got directory"}
	case info.Size() == 0:
		return CheckResult{Status: StatusDegraded, Message: "file is empty"}
	}
	return CheckResult{Status: StatusHealthy, Message: "file exists and readable"}
}
