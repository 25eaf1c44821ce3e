// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package menu is the remote-control state machine: it owns the UI mode and
// cursors and keeps the preview, background audio and live player in step.
package menu

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/fsxmenu/internal/guide"
	xglog "github.com/ManuGH/fsxmenu/internal/log"
	"github.com/ManuGH/fsxmenu/internal/metrics"
	"github.com/ManuGH/fsxmenu/internal/schedule"
)

// Config wires the controller's collaborators.
type Config struct {
	Schedule Schedule
	Player   Player
	Preview  Previewer
	Audio    Audio

	Items       []string
	VisibleRows int
	Location    *time.Location
	Now         func() time.Time
	MediaExists func(path string) bool
}

// Footer is the informational overlay: the channel the preview is anchored to.
type Footer struct {
	Visible   bool   `json:"visible"`
	ChannelID string `json:"channel_id"`
	Name      string `json:"name"`
}

// Controller is the menu state machine. Every exported method is serialised by
// an internal mutex; the daemon additionally funnels commands through one loop.
type Controller struct {
	mu sync.Mutex

	sched   Schedule
	player  Player
	preview Previewer
	audio   Audio

	items  []string
	loc    *time.Location
	now    func() time.Time
	exists func(string) bool
	logger zerolog.Logger

	mode    Mode
	sel     int
	selLast int
	browser *guide.Browser
	footer  Footer
	clock   time.Time
}

// New returns a hidden controller.
func New(cfg Config) *Controller {
	items := cfg.Items
	if len(items) == 0 {
		items = DefaultItems
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	exists := cfg.MediaExists
	if exists == nil {
		exists = fileExists
	}
	c := &Controller{
		sched:   cfg.Schedule,
		player:  cfg.Player,
		preview: cfg.Preview,
		audio:   cfg.Audio,
		items:   append([]string(nil), items...),
		loc:     loc,
		now:     now,
		exists:  exists,
		logger:  xglog.WithComponent("menu"),
		browser: guide.NewBrowser(cfg.VisibleRows),
	}
	c.clock = now()
	metrics.SetMenuState(c.mode.String())
	return c
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

// Mode returns the current mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Visible reports whether the menu is shown.
func (c *Controller) Visible() bool {
	return c.Mode() != ModeHidden
}

func (c *Controller) setMode(m Mode) {
	if c.mode == m {
		return
	}
	c.logger.Info().
		Str(xglog.FieldEvent, "menu.state").
		Str(xglog.FieldOldState, c.mode.String()).
		Str(xglog.FieldNewState, m.String()).
		Msg("menu state changed")
	c.mode = m
	metrics.SetMenuState(m.String())
}

// Open shows the root menu. From hidden it pauses the live player, anchors the
// preview to the player's channel and starts the background audio. On an already
// visible menu it only returns to the root list.
func (c *Controller) Open(ctx context.Context) Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openLocked(ctx)
	return action("open")
}

// openLocked shows the root menu. Re-opening a visible menu leaves the player paused
// and the audio running but re-anchors preview and footer to the live channel.
func (c *Controller) openLocked(ctx context.Context) {
	hidden := c.mode == ModeHidden
	if hidden {
		_ = c.player.Pause(ctx)
	}
	c.anchorFromStatus(ctx)
	c.footerFromStatus(ctx)
	if hidden {
		if err := c.audio.Start(); err != nil {
			c.logger.Debug().Err(err).Str(xglog.FieldEvent, "audio.unavailable").Msg("background audio not started")
		}
	}

	c.browser.Reset()
	c.sel = c.selLast
	c.setMode(ModeRoot)
}

// Close hides the menu: background audio and preview stop, the footer hides and
// the live player resumes. On a hidden menu the helpers are still stopped but the
// player is left alone.
func (c *Controller) Close(ctx context.Context) Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == ModeHidden {
		c.stopHelpers()
		return ignored(ReasonNotVisible)
	}
	c.closeLocked(ctx)
	return action("close")
}

func (c *Controller) closeLocked(ctx context.Context) {
	c.stopHelpers()
	c.footer = Footer{}
	c.browser.Reset()
	c.setMode(ModeHidden)
	_ = c.player.ResumeLive(ctx)
}

// stopHelpers stops audio and preview in parallel so the bounded stop windows overlap.
func (c *Controller) stopHelpers() {
	var g errgroup.Group
	g.Go(func() error { c.audio.Stop(); return nil })
	g.Go(func() error { c.preview.Stop(); return nil })
	_ = g.Wait()
}

// Toggle opens a hidden menu and closes a visible one.
func (c *Controller) Toggle(ctx context.Context) Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	visible := c.mode == ModeHidden
	if visible {
		c.openLocked(ctx)
	} else {
		c.closeLocked(ctx)
	}
	return Result{OK: true, Visible: &visible}
}

// Navigate applies a direction. In the root menu left/right and page moves all
// step by one; in the guide left/right move the column, page moves the row, and
// up/down do nothing.
func (c *Controller) Navigate(ctx context.Context, d Direction) Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.mode {
	case ModeHidden:
		return ignored(ReasonNotVisible)
	case ModeRoot:
		switch d {
		case Up, Left, PageUp:
			c.step(-1)
		case Down, Right, PageDown:
			c.step(1)
		}
	case ModeGuide:
		switch d {
		case Left:
			c.browser.MoveColumn(-1)
		case Right:
			c.browser.MoveColumn(1)
		case PageUp:
			c.moveRow(ctx, -1)
		case PageDown:
			c.moveRow(ctx, 1)
		}
	}
	return done()
}

func (c *Controller) step(delta int) {
	n := len(c.items)
	c.sel = ((c.sel+delta)%n + n) % n
	c.selLast = c.sel
}

func (c *Controller) moveRow(ctx context.Context, delta int) {
	if !c.browser.MoveRow(delta) {
		return
	}
	if ch, ok := c.browser.Current(); ok {
		c.anchor(ctx, ch.ID, ch.Name)
	}
}

// Confirm activates the current selection: in the root menu the guide item enters
// the guide and every other item closes; in the guide it tunes the player to the
// selected channel and closes.
func (c *Controller) Confirm(ctx context.Context) Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.confirmLocked(ctx)
}

func (c *Controller) confirmLocked(ctx context.Context) Result {
	switch c.mode {
	case ModeRoot:
		c.selLast = c.sel
		if c.items[c.sel] == ItemTVGuide {
			c.enterGuideLocked(ctx)
			return action("guide")
		}
		c.closeLocked(ctx)
		return action("close")
	case ModeGuide:
		if ch, ok := c.browser.Current(); ok {
			if err := c.player.Tune(ctx, ch.ID); err != nil {
				c.logger.Warn().Err(err).
					Str(xglog.FieldEvent, "menu.tune_failed").
					Str(xglog.FieldChannelID, ch.ID).
					Msg("tune request not accepted")
			}
		}
		c.closeLocked(ctx)
		return action("tune")
	default:
		return ignored(ReasonNotVisible)
	}
}

// Cancel closes the menu from either mode without tuning.
func (c *Controller) Cancel(ctx context.Context) Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == ModeHidden {
		return ignored(ReasonNotVisible)
	}
	c.closeLocked(ctx)
	return action("close")
}

// EnterGuide jumps straight to the guide, bypassing the root cursor.
func (c *Controller) EnterGuide(ctx context.Context) Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == ModeHidden {
		return ignored(ReasonNotVisible)
	}
	c.enterGuideLocked(ctx)
	return action("guide")
}

func (c *Controller) enterGuideLocked(ctx context.Context) {
	snapshot := c.sched.LoadGuideSnapshot(ctx, c.now())
	c.browser.Load(snapshot)
	metrics.SetGuideChannels(len(snapshot))
	c.setMode(ModeGuide)

	if ch, ok := c.browser.Current(); ok {
		c.anchor(ctx, ch.ID, ch.Name)
	}
}

// SelectItem moves the root cursor to target without confirming.
func (c *Controller) SelectItem(_ context.Context, target Target) Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == ModeHidden {
		return ignored(ReasonNotVisible)
	}
	if !c.selectLocked(target) {
		return failed(ErrNoSuchItem)
	}
	label := c.items[c.sel]
	return Result{OK: true, Selected: &label}
}

func (c *Controller) selectLocked(t Target) bool {
	idx := -1
	if t.ByIndex {
		if t.Index >= 0 && t.Index < len(c.items) {
			idx = t.Index
		}
	} else {
		for i, label := range c.items {
			if label == t.Label {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return false
	}
	c.sel = idx
	c.selLast = idx
	return true
}

// ActivateItem selects target, when given, and confirms as one step.
func (c *Controller) ActivateItem(ctx context.Context, target *Target) Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == ModeHidden {
		return ignored(ReasonNotVisible)
	}
	if target != nil && !c.selectLocked(*target) {
		return failed(ErrNoSuchItem)
	}
	res := c.confirmLocked(ctx)
	res.Activated = true
	return res
}

// Tick advances the clock shown in the view.
func (c *Controller) Tick(now time.Time) {
	c.mu.Lock()
	c.clock = now
	c.mu.Unlock()
}

// Shutdown leaves no helper running and, if the menu was open, hands the player back to live.
func (c *Controller) Shutdown(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != ModeHidden {
		c.closeLocked(ctx)
		return
	}
	c.stopHelpers()
}

// anchor points the preview and footer at channelID. The preview restarts on the
// channel's current media, or stays stopped when nothing playable resolves.
func (c *Controller) anchor(ctx context.Context, channelID, name string) {
	if name == "" && channelID != "" {
		name = schedule.ChannelName(channelID)
	}
	c.footer = Footer{Visible: true, ChannelID: channelID, Name: name}
	c.startPreview(ctx, channelID)
}

func (c *Controller) startPreview(ctx context.Context, channelID string) {
	if channelID == "" {
		c.preview.Stop()
		return
	}
	p, ok := c.sched.CurrentPathAndOffset(ctx, channelID)
	if !ok || !c.exists(p.Path) {
		c.logger.Debug().
			Str(xglog.FieldEvent, "preview.unresolved").
			Str(xglog.FieldChannelID, channelID).
			Str(xglog.FieldPath, p.Path).
			Msg("no playable media for preview")
		c.preview.Stop()
		return
	}
	_ = c.preview.Start(p.Path, p.Offset)
}

// anchorFromStatus starts the preview on whatever the live player reports.
func (c *Controller) anchorFromStatus(ctx context.Context) {
	st, ok := c.player.Status(ctx)
	if !ok || st.Channel == "" {
		return
	}
	c.startPreview(ctx, st.Channel)
}

// footerFromStatus re-fetches status; it may differ from the one the preview used.
func (c *Controller) footerFromStatus(ctx context.Context) {
	st, _ := c.player.Status(ctx)
	c.footer = Footer{Visible: true, ChannelID: st.Channel, Name: st.DisplayName()}
}
