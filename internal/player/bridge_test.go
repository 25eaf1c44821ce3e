// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package player

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	xglog "github.com/ManuGH/fsxmenu/internal/log"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
	)
}

// fakePlayer records control requests and answers them per route.
type fakePlayer struct {
	mu     sync.Mutex
	calls  []string
	codes  map[string]int
	status string
}

func (f *fakePlayer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	code, ok := f.codes[r.URL.Path]
	status := f.status
	f.mu.Unlock()
	if !ok {
		code = http.StatusOK
	}
	w.WriteHeader(code)
	if r.URL.Path == "/status" && code == http.StatusOK {
		_, _ = w.Write([]byte(status))
	}
}

func (f *fakePlayer) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func newFakePlayer(t *testing.T, codes map[string]int, status string) (*fakePlayer, *Client) {
	t.Helper()
	fp := &fakePlayer{codes: codes, status: status}
	srv := httptest.NewServer(fp)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return fp, c
}

// fakeSocket accepts IPC connections and records each command line.
type fakeSocket struct {
	mu    sync.Mutex
	lines []ipcCommand
	ln    net.Listener
	wg    sync.WaitGroup
}

func newFakeSocket(t *testing.T) (*fakeSocket, string) {
	t.Helper()
	dir, err := os.MkdirTemp("", "fsxipc")
	require.NoError(t, err)
	path := filepath.Join(dir, "mpv.sock")
	ln, err := net.Listen("unix", path)
	require.NoError(t, err)

	fs := &fakeSocket{ln: ln}
	fs.wg.Add(1)
	go func() {
		defer fs.wg.Done()
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			sc := bufio.NewScanner(conn)
			if sc.Scan() {
				var cmd ipcCommand
				if json.Unmarshal(sc.Bytes(), &cmd) == nil {
					fs.mu.Lock()
					fs.lines = append(fs.lines, cmd)
					fs.mu.Unlock()
				}
				_, _ = conn.Write([]byte(`{"error":"success"}` + "\n"))
			}
			_ = conn.Close()
		}
	}()
	t.Cleanup(func() {
		_ = ln.Close()
		fs.wg.Wait()
		_ = os.RemoveAll(dir)
	})
	return fs, path
}

func (fs *fakeSocket) Commands() [][]any {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	out := make([][]any, 0, len(fs.lines))
	for _, l := range fs.lines {
		out = append(out, l.Command)
	}
	return out
}

func deadClient(t *testing.T) *Client {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	c, err := NewClient("http://"+addr, WithTimeouts(200*time.Millisecond, 200*time.Millisecond))
	require.NoError(t, err)
	return c
}

func TestBridge_PauseOverHTTP(t *testing.T) {
	fp, c := newFakePlayer(t, nil, "")
	sock, path := newFakeSocket(t)
	b := NewBridge(c, NewIPC(path, 0))

	require.NoError(t, b.Pause(context.Background()))
	assert.Equal(t, []string{"POST /pause"}, fp.Calls())
	assert.Empty(t, sock.Commands())
}

func TestBridge_PauseFallsBackToIPC(t *testing.T) {
	sock, path := newFakeSocket(t)
	b := NewBridge(deadClient(t), NewIPC(path, 0))

	require.NoError(t, b.Pause(context.Background()))
	assert.Equal(t, [][]any{
		{"set_property", "pause", true},
		{"set_property", "mute", true},
	}, sock.Commands())
}

func TestBridge_OutageWarningNamesEndpoint(t *testing.T) {
	var buf bytes.Buffer
	xglog.Configure(xglog.Config{Level: "warn", Output: &buf})
	t.Cleanup(func() { xglog.Configure(xglog.Config{}) })

	c := deadClient(t)
	sockPath := filepath.Join(t.TempDir(), "absent.sock")
	b := NewBridge(c, NewIPC(sockPath, 100*time.Millisecond))

	require.Error(t, b.Pause(context.Background()))
	out := buf.String()
	assert.Contains(t, out, `"transport":"http"`)
	assert.Contains(t, out, `"base_url":"`+c.BaseURL()+`"`)
	assert.Contains(t, out, `"transport":"ipc"`)
	assert.Contains(t, out, `"socket":"`+sockPath+`"`)
}

func TestBridge_PauseRejectedFallsBack(t *testing.T) {
	_, c := newFakePlayer(t, map[string]int{"/pause": http.StatusServiceUnavailable}, "")
	sock, path := newFakeSocket(t)
	b := NewBridge(c, NewIPC(path, 0))

	require.NoError(t, b.Pause(context.Background()))
	assert.Len(t, sock.Commands(), 2)
}

func TestBridge_ResumeLiveDirect(t *testing.T) {
	fp, c := newFakePlayer(t, nil, "")
	b := NewBridge(c, nil)

	require.NoError(t, b.ResumeLive(context.Background()))
	assert.Equal(t, []string{"POST /live"}, fp.Calls())
}

func TestBridge_ResumeLiveRetunes(t *testing.T) {
	fp, c := newFakePlayer(t, map[string]int{"/live": http.StatusNotFound}, `{"channel": 7, "name": "Seven"}`)
	sock, path := newFakeSocket(t)
	b := NewBridge(c, NewIPC(path, 0))

	require.NoError(t, b.ResumeLive(context.Background()))
	assert.Equal(t, []string{"POST /live", "GET /status", "POST /zap/7"}, fp.Calls())
	assert.Equal(t, [][]any{
		{"set_property", "pause", false},
		{"set_property", "mute", false},
	}, sock.Commands())
}

func TestBridge_ResumeLiveLastResortUnmutes(t *testing.T) {
	sock, path := newFakeSocket(t)
	b := NewBridge(deadClient(t), NewIPC(path, 0))

	require.NoError(t, b.ResumeLive(context.Background()))
	assert.Equal(t, [][]any{
		{"set_property", "pause", false},
		{"set_property", "mute", false},
	}, sock.Commands())
}

func TestBridge_TuneHasNoFallback(t *testing.T) {
	sock, path := newFakeSocket(t)
	b := NewBridge(deadClient(t), NewIPC(path, 0))

	err := b.Tune(context.Background(), "3")
	require.Error(t, err)
	assert.Empty(t, sock.Commands())

	assert.ErrorIs(t, b.Tune(context.Background(), ""), ErrNoChannel)
}

func TestBridge_TuneEscapesChannel(t *testing.T) {
	fp, c := newFakePlayer(t, nil, "")
	b := NewBridge(c, nil)

	require.NoError(t, b.Tune(context.Background(), "12"))
	assert.Equal(t, []string{"POST /zap/12"}, fp.Calls())
}

func TestBridge_BreakerSkipsDeadPlayer(t *testing.T) {
	b := NewBridge(deadClient(t), nil)
	for i := 0; i < 3; i++ {
		_, ok := b.Status(context.Background())
		require.False(t, ok)
	}
	assert.Equal(t, "open", string(b.Breaker().State()))

	start := time.Now()
	_ = b.Tune(context.Background(), "1")
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestBridge_Status(t *testing.T) {
	_, c := newFakePlayer(t, nil, `{"ch": "4", "channel_name": "Four", "title": "Movie.mkv"}`)
	b := NewBridge(c, nil)

	st, ok := b.Status(context.Background())
	require.True(t, ok)
	assert.Equal(t, Status{Channel: "4", Name: "Four", Title: "Movie.mkv", FooterName: "Four"}, st)
}

func TestBridge_StatusBadJSON(t *testing.T) {
	_, c := newFakePlayer(t, nil, `not json`)
	_, err := c.Status(context.Background())
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want Status
	}{
		{"primary", map[string]any{"channel": "2", "name": "Two", "title": "t"}, Status{Channel: "2", Name: "Two", Title: "t", FooterName: "Two"}},
		{"numeric", map[string]any{"channel_id": float64(12)}, Status{Channel: "12"}},
		{"aliases", map[string]any{"ch": "5", "ch_name": "Five"}, Status{Channel: "5", Name: "Five", FooterName: "Five"}},
		{"footer prefers channel_name", map[string]any{"channel": "3", "name": "BBC", "channel_name": "BBC One"},
			Status{Channel: "3", Name: "BBC", FooterName: "BBC One"}},
		{"empty primary falls through", map[string]any{"channel": "", "channel_id": "9"}, Status{Channel: "9"}},
		{"nothing", map[string]any{"channel": nil}, Status{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseStatus(tt.raw))
		})
	}
}

func TestStatus_DisplayName(t *testing.T) {
	assert.Equal(t, "Two", Status{Channel: "2", Name: "Two"}.DisplayName())
	assert.Equal(t, "BBC One", Status{Channel: "3", Name: "BBC", FooterName: "BBC One"}.DisplayName())
	assert.Equal(t, "Channel 2", Status{Channel: "2"}.DisplayName())
	assert.Equal(t, "", Status{}.DisplayName())
}

func TestIPC_NoSocket(t *testing.T) {
	err := NewIPC(filepath.Join(os.TempDir(), "fsx-absent.sock"), 100*time.Millisecond).
		SetPaused(context.Background(), true)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNewClient_RejectsBadScheme(t *testing.T) {
	_, err := NewClient("ftp://host")
	assert.Error(t, err)
}
