// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build unix

package media

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePlayer writes an executable that ignores its arguments and idles like mpv would.
func fakePlayer(t *testing.T) string {
	t.Helper()
	bin := filepath.Join(t.TempDir(), "fake-mpv")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\nexec sleep 30\n"), 0o755))
	return bin
}

func TestPreviewArgs(t *testing.T) {
	cfg := PreviewConfig{GPUContext: "x11egl", HWDec: "auto-safe", ALang: "eng,en", SLang: "dut,nld", RenderTarget: "4242"}
	args := PreviewArgs(cfg, "/media/show.mkv", 90500*time.Millisecond)

	assert.Contains(t, args, "--mute=yes")
	assert.Contains(t, args, "--keep-open=yes")
	assert.Contains(t, args, "--profile=low-latency")
	assert.Contains(t, args, "--start=90.500")
	assert.Contains(t, args, "--wid=4242")
	assert.Contains(t, args, "--gpu-context=x11egl")
	assert.Contains(t, args, "--hwdec=auto-safe")
	assert.Equal(t, []string{"--", "/media/show.mkv"}, args[len(args)-2:])
}

func TestPreviewArgs_NegativeOffsetAndNoTarget(t *testing.T) {
	args := PreviewArgs(PreviewConfig{}, "a.mp4", -5*time.Second)
	assert.Contains(t, args, "--start=0.000")
	for _, a := range args {
		assert.NotContains(t, a, "--wid=")
		assert.NotContains(t, a, "--hwdec=")
	}
}

func TestPreview_StartReplacesWithoutStop(t *testing.T) {
	p := NewPreview(PreviewConfig{Bin: fakePlayer(t), Grace: 200 * time.Millisecond})
	t.Cleanup(p.Stop)

	require.NoError(t, p.Start("/media/a.mkv", 0))
	require.NoError(t, p.Start("/media/b.mkv", 10*time.Second))

	assert.True(t, p.Running())
	args, ok := p.Args()
	require.True(t, ok)
	assert.Equal(t, "/media/b.mkv", args[len(args)-1])
	assert.Contains(t, args, "--start=10.000")

	p.Stop()
	assert.False(t, p.Running())
	p.Stop()
}

func TestPreview_SpawnFailureIsIdle(t *testing.T) {
	p := NewPreview(PreviewConfig{Bin: "/nonexistent/mpv"})
	assert.Error(t, p.Start("/media/a.mkv", 0))
	assert.False(t, p.Running())

	assert.ErrorIs(t, p.Start("", 0), ErrNoMedia)
}

func TestClampVolume(t *testing.T) {
	assert.Equal(t, 0, ClampVolume(-10))
	assert.Equal(t, 45, ClampVolume(45))
	assert.Equal(t, 100, ClampVolume(250))
}

func TestAmbientArgs(t *testing.T) {
	args := AmbientArgs("/audio/loop.mp3", 145)
	assert.Contains(t, args, "--no-video")
	assert.Contains(t, args, "--loop-file=inf")
	assert.Contains(t, args, "--volume=100")
	assert.Equal(t, "/audio/loop.mp3", args[len(args)-1])
}

func TestAmbient_StartStop(t *testing.T) {
	track := filepath.Join(t.TempDir(), "loop.mp3")
	require.NoError(t, os.WriteFile(track, []byte("ID3"), 0o644))

	a := NewAmbient(AmbientConfig{Bin: fakePlayer(t), Path: track, Volume: 45, Grace: 200 * time.Millisecond})
	t.Cleanup(a.Stop)
	assert.Equal(t, 45, a.Volume())

	require.NoError(t, a.Start())
	assert.True(t, a.Running())
	a.Stop()
	assert.False(t, a.Running())

	a.SetVolume(-3)
	assert.Equal(t, 0, a.Volume())
}

func TestAmbient_MissingTrackStaysSilent(t *testing.T) {
	a := NewAmbient(AmbientConfig{Bin: fakePlayer(t), Path: filepath.Join(t.TempDir(), "missing.mp3")})
	assert.Error(t, a.Start())
	assert.False(t, a.Running())

	empty := NewAmbient(AmbientConfig{})
	assert.ErrorIs(t, empty.Start(), ErrNoMedia)
}
