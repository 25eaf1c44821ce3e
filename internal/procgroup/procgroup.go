// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package procgroup signals helper processes as a group so that decoders spawned
// by a helper never outlive it.
package procgroup

import (
	"errors"
	"os/exec"
	"syscall"
	"time"

	"github.com/ManuGH/fsxmenu/internal/metrics"
)

var (
	// ErrKillFailed is returned when a process did not exit even after SIGKILL
	// within the drain window. The process is abandoned at that point.
	ErrKillFailed = errors.New("kill operation failed")
)

// Terminate stops a process group gracefully and then forcefully.
// It sends SIGTERM, waits up to grace for waitCh to report the exit, then sends
// SIGKILL and waits up to drain more. waitCh must be fed by the single goroutine
// that owns cmd.Wait. It is safe to call on nil commands (returns nil).
func Terminate(cmd *exec.Cmd, waitCh <-chan error, grace, drain time.Duration) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}

	metrics.IncProcTerminate("SIGTERM", signalResult(Kill(cmd, syscall.SIGTERM)))

	select {
	case err := <-waitCh:
		if err == nil {
			metrics.IncProcWait("exit0")
		} else {
			metrics.IncProcWait("exit_nonzero")
		}
		return nil
	case <-time.After(grace):
	}

	metrics.IncProcTerminate("SIGKILL", signalResult(Kill(cmd, syscall.SIGKILL)))

	select {
	case <-waitCh:
		metrics.IncProcWait("forced")
		return nil
	case <-time.After(drain):
		metrics.IncProcWait("abandoned")
		return ErrKillFailed
	}
}

func signalResult(err error) string {
	if err == nil {
		return "sent"
	}
	return "error"
}
