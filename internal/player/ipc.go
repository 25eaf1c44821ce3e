// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package player

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// IPC sends JSON commands to the live player's local control socket. It can only
// pause and mute; it knows nothing about channels.
type IPC struct {
	socket  string
	timeout time.Duration
}

// NewIPC returns a sender for the unix socket at path.
func NewIPC(path string, timeout time.Duration) *IPC {
	if timeout <= 0 {
		timeout = 400 * time.Millisecond
	}
	return &IPC{socket: path, timeout: timeout}
}

// Socket returns the socket path.
func (c *IPC) Socket() string {
	return c.socket
}

type ipcCommand struct {
	Command []any `json:"command"`
}

// Send writes one command line and waits briefly for the reply. A missing reply is
// not an error: the socket accepted the write.
func (c *IPC) Send(ctx context.Context, args ...any) error {
	if c.socket == "" {
		return &Error{Sentinel: ErrUnavailable, Operation: "ipc", Err: fmt.Errorf("no socket configured")}
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.socket)
	if err != nil {
		return classify("ipc", err)
	}
	defer conn.Close()

	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}

	line, err := json.Marshal(ipcCommand{Command: args})
	if err != nil {
		return &Error{Sentinel: ErrBadResponse, Operation: "ipc", Err: err}
	}
	if _, err := conn.Write(append(line, '\n')); err != nil {
		return classify("ipc", err)
	}

	buf := make([]byte, 4096)
	_, _ = conn.Read(buf)
	return nil
}

// SetPaused sets both pause and mute to paused. Each property is attempted even if
// the other fails; the first error is returned.
func (c *IPC) SetPaused(ctx context.Context, paused bool) error {
	errPause := c.Send(ctx, "set_property", "pause", paused)
	errMute := c.Send(ctx, "set_property", "mute", paused)
	if errPause != nil {
		return errPause
	}
	return errMute
}
