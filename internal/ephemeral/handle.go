// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package ephemeral owns short-lived helper processes (preview decoders, menu
// audio). A Handle owns at most one process at any instant: starting a new
// target stops the previous one first, and Stop always escalates to SIGKILL.
package ephemeral

import (
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/fsxmenu/internal/log"
	"github.com/ManuGH/fsxmenu/internal/metrics"
	"github.com/ManuGH/fsxmenu/internal/procgroup"
)

// State is the lifecycle position of a Handle.
type State int32

const (
	StateIdle State = iota
	StateStarting
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// A stop takes at most Grace+Drain, which stays below one second by default.
const (
	DefaultGrace = 800 * time.Millisecond
	DefaultDrain = 150 * time.Millisecond
)

// ErrEmptySpec is returned by Start when no binary was given.
var ErrEmptySpec = errors.New("ephemeral: empty process spec")

// Spec describes the process a Handle should own.
type Spec struct {
	Bin  string
	Args []string
	Dir  string
	Env  []string
}

// Options configures a Handle.
type Options struct {
	// Role labels logs and metrics ("preview", "audio").
	Role string
	// Grace is how long SIGTERM is given before SIGKILL.
	Grace time.Duration
	// Drain bounds the wait for the kernel to reap after SIGKILL.
	Drain time.Duration
	// Command builds the exec.Cmd; defaults to exec.Command.
	Command func(name string, args ...string) *exec.Cmd
}

type proc struct {
	cmd    *exec.Cmd
	spec   Spec
	waitCh chan error
	exited chan struct{}
}

// Handle owns one process slot. It is safe for concurrent use.
type Handle struct {
	mu     sync.Mutex
	role   string
	grace  time.Duration
	drain  time.Duration
	build  func(name string, args ...string) *exec.Cmd
	state  atomic.Int32
	cur    *proc
	logger zerolog.Logger
}

// New returns an idle Handle.
func New(opts Options) *Handle {
	if opts.Role == "" {
		opts.Role = "helper"
	}
	if opts.Grace <= 0 {
		opts.Grace = DefaultGrace
	}
	if opts.Drain <= 0 {
		opts.Drain = DefaultDrain
	}
	if opts.Command == nil {
		opts.Command = exec.Command
	}
	return &Handle{
		role:   opts.Role,
		grace:  opts.Grace,
		drain:  opts.Drain,
		build:  opts.Command,
		logger: xglog.WithComponent("ephemeral").With().Str(xglog.FieldRole, opts.Role).Logger(),
	}
}

// State reports the current lifecycle state without blocking.
func (h *Handle) State() State {
	return State(h.state.Load())
}

func (h *Handle) setState(s State) {
	old := State(h.state.Swap(int32(s)))
	if old != s {
		h.logger.Debug().
			Str(xglog.FieldOldState, old.String()).
			Str(xglog.FieldNewState, s.String()).
			Msg("process handle state change")
	}
}

// Start stops any owned process and spawns spec in its place. On spawn failure
// the handle is left idle and the error is returned.
func (h *Handle) Start(spec Spec) error {
	if spec.Bin == "" {
		return ErrEmptySpec
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.stopLocked()
	h.setState(StateStarting)

	cmd := h.build(spec.Bin, spec.Args...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = spec.Env
	}
	procgroup.Set(cmd)

	if err := cmd.Start(); err != nil {
		h.setState(StateIdle)
		metrics.IncProcSpawn(h.role, "error")
		return fmt.Errorf("ephemeral: start %s: %w", spec.Bin, err)
	}

	p := &proc{
		cmd:    cmd,
		spec:   spec,
		waitCh: make(chan error, 1),
		exited: make(chan struct{}),
	}
	go h.reap(p)

	h.cur = p
	h.setState(StateRunning)
	metrics.IncProcSpawn(h.role, "ok")
	metrics.SetProcRunning(h.role, true)

	h.logger.Debug().
		Str(xglog.FieldEvent, "process.started").
		Int(xglog.FieldPID, cmd.Process.Pid).
		Str("bin", spec.Bin).
		Msg("helper process started")
	return nil
}

// reap is the single owner of cmd.Wait for p.
func (h *Handle) reap(p *proc) {
	err := p.cmd.Wait()
	p.waitCh <- err
	close(p.exited)

	h.logger.Debug().
		Str(xglog.FieldEvent, "process.exited").
		Int(xglog.FieldPID, p.cmd.Process.Pid).
		AnErr("exit", err).
		Msg("helper process exited")
}

// Stop terminates the owned process, if any. It is safe to call on an idle handle.
func (h *Handle) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopLocked()
}

func (h *Handle) stopLocked() {
	p := h.cur
	if p == nil {
		h.setState(StateIdle)
		return
	}
	h.setState(StateStopping)
	h.cur = nil

	select {
	case <-p.exited:
		// Already reaped; signalling its pid now could hit a reused pid.
	default:
		if err := procgroup.Terminate(p.cmd, p.waitCh, h.grace, h.drain); err != nil {
			h.logger.Error().
				Err(err).
				Str(xglog.FieldEvent, "process.abandoned").
				Int(xglog.FieldPID, p.cmd.Process.Pid).
				Msg("helper process did not exit after SIGKILL; abandoning")
		}
	}

	metrics.SetProcRunning(h.role, false)
	h.setState(StateIdle)
}

// Running reports whether the handle owns a process that has not exited yet.
func (h *Handle) Running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cur == nil {
		return false
	}
	select {
	case <-h.cur.exited:
		return false
	default:
		return true
	}
}

// Current returns the spec of the owned process, if any.
func (h *Handle) Current() (Spec, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cur == nil {
		return Spec{}, false
	}
	return h.cur.spec, true
}

// PID returns the pid of the owned process or 0.
func (h *Handle) PID() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cur == nil || h.cur.cmd.Process == nil {
		return 0
	}
	return h.cur.cmd.Process.Pid
}

// Close stops the owned process. Owners call it on teardown.
func (h *Handle) Close() error {
	h.Stop()
	return nil
}
