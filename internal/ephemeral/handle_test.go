// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build unix

package ephemeral

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func alive(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return p.Signal(syscall.Signal(0)) == nil
}

func sleeper(arg string) Spec {
	return Spec{Bin: "sleep", Args: []string{arg}}
}

func TestHandle_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h := New(Options{Role: "test", Grace: 200 * time.Millisecond})
	assert.Equal(t, StateIdle, h.State())

	require.NoError(t, h.Start(sleeper("30")))
	assert.Equal(t, StateRunning, h.State())
	assert.True(t, h.Running())
	pid := h.PID()
	require.NotZero(t, pid)

	h.Stop()
	assert.Equal(t, StateIdle, h.State())
	assert.False(t, h.Running())
	assert.Zero(t, h.PID())
	assert.False(t, alive(pid), "stopped process must be gone")
}

func TestHandle_StartReplacesPrevious(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h := New(Options{Role: "test", Grace: 200 * time.Millisecond})
	require.NoError(t, h.Start(sleeper("30")))
	first := h.PID()

	require.NoError(t, h.Start(sleeper("31")))
	second := h.PID()

	assert.NotEqual(t, first, second)
	assert.False(t, alive(first), "replaced process must be stopped before the new one is owned")
	assert.True(t, alive(second))

	spec, ok := h.Current()
	require.True(t, ok)
	assert.Equal(t, []string{"31"}, spec.Args)

	h.Stop()
}

func TestHandle_StopIsIdempotent(t *testing.T) {
	h := New(Options{Role: "test"})
	h.Stop()
	h.Stop()
	assert.Equal(t, StateIdle, h.State())

	require.NoError(t, h.Start(sleeper("30")))
	h.Stop()
	h.Stop()
	assert.Equal(t, StateIdle, h.State())
	require.NoError(t, h.Close())
}

func TestHandle_SpawnFailureLeavesIdle(t *testing.T) {
	h := New(Options{Role: "test"})
	err := h.Start(Spec{Bin: "/nonexistent/fsx-helper"})
	require.Error(t, err)
	assert.Equal(t, StateIdle, h.State())
	assert.False(t, h.Running())

	_, ok := h.Current()
	assert.False(t, ok)

	assert.ErrorIs(t, h.Start(Spec{}), ErrEmptySpec)
}

func TestHandle_NaturalExitIsNotRunning(t *testing.T) {
	h := New(Options{Role: "test"})
	require.NoError(t, h.Start(Spec{Bin: "true"}))

	require.Eventually(t, func() bool { return !h.Running() }, 2*time.Second, 10*time.Millisecond)
	// Stop after a natural exit must not block on signals.
	start := time.Now()
	h.Stop()
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, StateIdle, h.State())
}

func TestHandle_StopEscalatesWithinBound(t *testing.T) {
	h := New(Options{Role: "test", Grace: 100 * time.Millisecond, Drain: 500 * time.Millisecond})
	require.NoError(t, h.Start(Spec{Bin: "sh", Args: []string{"-c", "trap '' TERM; while :; do sleep 0.05; done"}}))
	pid := h.PID()

	start := time.Now()
	h.Stop()
	assert.Less(t, time.Since(start), time.Second)
	assert.False(t, alive(pid))
}

func TestDefaultStopBoundIsSubSecond(t *testing.T) {
	assert.Less(t, DefaultGrace+DefaultDrain, time.Second)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "starting", StateStarting.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "stopping", StateStopping.String())
	assert.Equal(t, "state(9)", State(9).String())
}
