// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package menu

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/ManuGH/fsxmenu/internal/player"
	"github.com/ManuGH/fsxmenu/internal/schedule"
)

type fakeSchedule struct {
	mu       sync.Mutex
	playable map[string]schedule.Playable
	guide    []schedule.Channel
	loads    int
}

func (f *fakeSchedule) CurrentPathAndOffset(_ context.Context, id string) (schedule.Playable, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.playable[id]
	return p, ok
}

func (f *fakeSchedule) LoadGuideSnapshot(context.Context, time.Time) []schedule.Channel {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	return f.guide
}

type fakePlayer struct {
	mu     sync.Mutex
	calls  []string
	status player.Status
	up     bool
}

func (f *fakePlayer) record(s string) {
	f.mu.Lock()
	f.calls = append(f.calls, s)
	f.mu.Unlock()
}

func (f *fakePlayer) Pause(context.Context) error      { f.record("pause"); return nil }
func (f *fakePlayer) ResumeLive(context.Context) error { f.record("live"); return nil }
func (f *fakePlayer) Tune(_ context.Context, ch string) error {
	f.record("zap/" + ch)
	return nil
}

func (f *fakePlayer) Status(context.Context) (player.Status, bool) {
	f.record("status")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, f.up
}

func (f *fakePlayer) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakePlayer) Reset() {
	f.mu.Lock()
	f.calls = nil
	f.mu.Unlock()
}

type previewStart struct {
	Path   string
	Offset time.Duration
}

type fakePreview struct {
	mu      sync.Mutex
	running bool
	starts  []previewStart
	stops   int
}

func (f *fakePreview) Start(path string, offset time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = true
	f.starts = append(f.starts, previewStart{path, offset})
	return nil
}

func (f *fakePreview) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = false
	f.stops++
}

func (f *fakePreview) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *fakePreview) Starts() []previewStart {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]previewStart(nil), f.starts...)
}

type fakeAudio struct {
	mu      sync.Mutex
	running bool
	starts  int
}

func (f *fakeAudio) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = true
	f.starts++
	return nil
}

func (f *fakeAudio) Stop() {
	f.mu.Lock()
	f.running = false
	f.mu.Unlock()
}

func (f *fakeAudio) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

type rig struct {
	c       *Controller
	sched   *fakeSchedule
	player  *fakePlayer
	preview *fakePreview
	audio   *fakeAudio
}

var testNow = time.Date(2025, time.March, 3, 20, 15, 0, 0, time.UTC)

func newRig(channels ...schedule.Channel) *rig {
	r := &rig{
		sched:   &fakeSchedule{playable: map[string]schedule.Playable{}, guide: channels},
		player:  &fakePlayer{},
		preview: &fakePreview{},
		audio:   &fakeAudio{},
	}
	for _, ch := range channels {
		r.sched.playable[ch.ID] = schedule.Playable{Path: "/media/" + ch.ID + ".mp4", Offset: 30 * time.Second}
	}
	r.c = New(Config{
		Schedule:    r.sched,
		Player:      r.player,
		Preview:     r.preview,
		Audio:       r.audio,
		VisibleRows: 3,
		Location:    time.UTC,
		Now:         func() time.Time { return testNow },
		MediaExists: func(string) bool { return true },
	})
	return r
}

// guideChannels builds channels "1".."n" with eventCounts[i] events each.
func guideChannels(eventCounts ...int) []schedule.Channel {
	out := make([]schedule.Channel, 0, len(eventCounts))
	for i, n := range eventCounts {
		id := strconv.Itoa(i + 1)
		ch := schedule.Channel{ID: id, Name: "Ch " + id}
		for j := 0; j < n; j++ {
			start := testNow.Add(time.Duration(j) * time.Hour)
			ch.Events = append(ch.Events, schedule.Event{Title: id + "-" + strconv.Itoa(j), Start: start, End: start.Add(time.Hour)})
		}
		out = append(out, ch)
	}
	return out
}
