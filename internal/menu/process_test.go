// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build unix

package menu

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/fsxmenu/internal/media"
	"github.com/ManuGH/fsxmenu/internal/player"
)

// TestToggleLeavesNoHelperProcesses drives real helper processes through a
// toggle round trip and a guide session.
func TestToggleLeavesNoHelperProcesses(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "fake-mpv")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\nexec sleep 30\n"), 0o755))
	track := filepath.Join(dir, "loop.mp3")
	require.NoError(t, os.WriteFile(track, []byte("x"), 0o644))

	preview := media.NewPreview(media.PreviewConfig{Bin: bin, Grace: 200 * time.Millisecond})
	audio := media.NewAmbient(media.AmbientConfig{Bin: bin, Path: track, Volume: 45, Grace: 200 * time.Millisecond})
	t.Cleanup(func() {
		preview.Stop()
		audio.Stop()
	})

	r := newRig(guideChannels(1, 1, 1)...)
	r.player.status = player.Status{Channel: "1"}
	r.player.up = true
	c := New(Config{
		Schedule:    r.sched,
		Player:      r.player,
		Preview:     preview,
		Audio:       audio,
		Now:         func() time.Time { return testNow },
		MediaExists: func(string) bool { return true },
	})

	c.Toggle(ctx)
	require.True(t, preview.Running())
	require.True(t, audio.Running())

	c.EnterGuide(ctx)
	c.Navigate(ctx, PageDown)
	c.Navigate(ctx, PageDown)
	assert.True(t, preview.Running())
	args, ok := preview.Args()
	require.True(t, ok)
	assert.Equal(t, "/media/3.mp4", args[len(args)-1])

	c.Toggle(ctx)
	assert.False(t, preview.Running())
	assert.False(t, audio.Running())
	assert.Equal(t, ModeHidden, c.Mode())
}
