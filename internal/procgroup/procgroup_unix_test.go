// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build unix

package procgroup

import (
	"bufio"
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func startWaited(t *testing.T, script string) (*exec.Cmd, <-chan error) {
	t.Helper()
	cmd := exec.Command("sh", "-c", script)
	Set(cmd)
	require.NoError(t, cmd.Start())
	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()
	return cmd, waitCh
}

func TestTerminate_GracefulExit(t *testing.T) {
	cmd, waitCh := startWaited(t, "sleep 100 & sleep 100")
	pgid := cmd.Process.Pid

	start := time.Now()
	err := Terminate(cmd, waitCh, 500*time.Millisecond, 500*time.Millisecond)
	require.NoError(t, err)
	require.Less(t, time.Since(start), 500*time.Millisecond, "SIGTERM should be enough for sh")

	// The background sleep belonged to the same group and must be gone too.
	require.Eventually(t, func() bool {
		return syscall.Kill(-pgid, syscall.Signal(0)) == syscall.ESRCH
	}, time.Second, 10*time.Millisecond, "process group should be dead")
}

func TestTerminate_ForcesKillAfterGrace(t *testing.T) {
	cmd := exec.Command("sh", "-c", "trap '' TERM; echo ready; while :; do sleep 0.05; done")
	Set(cmd)
	stdout, err := cmd.StdoutPipe()
	require.NoError(t, err)
	require.NoError(t, cmd.Start())

	// SIGTERM before the trap is installed would end sh immediately.
	line, err := bufio.NewReader(stdout).ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "ready\n", line)

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	start := time.Now()
	err = Terminate(cmd, waitCh, 100*time.Millisecond, time.Second)
	require.NoError(t, err)
	require.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
	require.Less(t, time.Since(start), time.Second)
}

func TestTerminate_NilCommand(t *testing.T) {
	require.NoError(t, Terminate(nil, nil, time.Millisecond, time.Millisecond))
	require.NoError(t, Terminate(&exec.Cmd{}, nil, time.Millisecond, time.Millisecond))
}

func TestKill_AlreadyExited(t *testing.T) {
	cmd := exec.Command("true")
	Set(cmd)
	require.NoError(t, cmd.Start())
	require.NoError(t, cmd.Wait())
	require.NoError(t, Kill(cmd, syscall.SIGTERM))
}
