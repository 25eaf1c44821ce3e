// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ManuGH/fsxmenu/internal/control"
	"github.com/ManuGH/fsxmenu/internal/menu"
)

const (
	// DefaultTick refreshes the clock in the published view.
	DefaultTick = 500 * time.Millisecond

	defaultStallAfter = 5 * time.Second
)

// TickingMenu is a menu that also keeps a clock.
type TickingMenu interface {
	control.Menu
	Tick(now time.Time)
}

type job struct {
	ctx   context.Context
	req   control.Request
	reply chan menu.Result
}

// Loop applies commands one at a time in receipt order and ticks the menu clock.
// Transport goroutines only enqueue.
type Loop struct {
	menu TickingMenu
	tick time.Duration
	now  func() time.Time

	jobs      chan job
	done      chan struct{}
	closeOnce sync.Once
	beat      atomic.Int64
}

// NewLoop returns a loop that is not yet running.
func NewLoop(m TickingMenu, tick time.Duration) *Loop {
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Loop{
		menu: m,
		tick: tick,
		now:  time.Now,
		jobs: make(chan job),
		done: make(chan struct{}),
	}
}

// Execute queues req and waits for its result. The command still runs if ctx
// expires after the loop picked it up; only the wait is abandoned.
func (l *Loop) Execute(ctx context.Context, req control.Request) (menu.Result, error) {
	j := job{ctx: ctx, req: req, reply: make(chan menu.Result, 1)}
	select {
	case l.jobs <- j:
	case <-l.done:
		return menu.Result{}, ErrLoopStopped
	case <-ctx.Done():
		return menu.Result{}, ctx.Err()
	}
	select {
	case res := <-j.reply:
		return res, nil
	case <-ctx.Done():
		return menu.Result{}, ctx.Err()
	}
}

// Heartbeat is the time of the last tick, zero before Run.
func (l *Loop) Heartbeat() time.Time {
	ns := l.beat.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Run processes commands until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	defer l.closeOnce.Do(func() { close(l.done) })

	t := time.NewTicker(l.tick)
	defer t.Stop()
	l.onTick(l.now())

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-t.C:
			l.onTick(now)
		case j := <-l.jobs:
			// Detached so a caller giving up cannot abort a half-applied transition.
			jctx := context.WithoutCancel(j.ctx)
			j.reply <- control.Apply(jctx, l.menu, j.req)
		}
	}
}

func (l *Loop) onTick(now time.Time) {
	l.beat.Store(now.UnixNano())
	l.menu.Tick(now)
}
