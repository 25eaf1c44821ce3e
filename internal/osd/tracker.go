// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package osd tracks what the live player is showing and derives the now/next
// info bar state from the schedule.
package osd

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/fsxmenu/internal/log"
	"github.com/ManuGH/fsxmenu/internal/player"
	"github.com/ManuGH/fsxmenu/internal/schedule"
)

const (
	DefaultInterval = 400 * time.Millisecond
	DefaultInfobar  = 2 * time.Second
)

// DefaultHideTags suppress the info bar and corner logo during non-program content.
var DefaultHideTags = []string{"commercial", "promo", "news"}

// StatusSource reports what the live player is tuned to.
type StatusSource interface {
	Status(ctx context.Context) (player.Status, bool)
}

// Schedule resolves the current and next event of a channel.
type Schedule interface {
	NowAndNext(ctx context.Context, channelID string, now time.Time) (current, next *schedule.Event)
}

// Config configures a Tracker.
type Config struct {
	Interval time.Duration
	Infobar  time.Duration
	HideTags []string
	Now      func() time.Time
}

// State is what the overlay should draw.
type State struct {
	Channel  string     `json:"channel"`
	Name     string     `json:"name"`
	Title    string     `json:"title"`
	Next     string     `json:"next"`
	Tag      string     `json:"tag,omitempty"`
	Start    *time.Time `json:"start,omitempty"`
	End      *time.Time `json:"end,omitempty"`
	Progress float64    `json:"progress"`
	Infobar  bool       `json:"infobar"`
	Logo     bool       `json:"logo"`
}

// Tracker polls the player and schedule. Poll and Run may be used concurrently with State.
type Tracker struct {
	status   StatusSource
	sched    Schedule
	interval time.Duration
	infobar  time.Duration
	now      func() time.Time
	logger   zerolog.Logger

	mu           sync.Mutex
	hide         map[string]bool
	state        State
	seen         bool
	infobarUntil time.Time
}

// NewTracker returns an idle tracker.
func NewTracker(status StatusSource, sched Schedule, cfg Config) *Tracker {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Infobar <= 0 {
		cfg.Infobar = DefaultInfobar
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.HideTags == nil {
		cfg.HideTags = DefaultHideTags
	}
	t := &Tracker{
		status:   status,
		sched:    sched,
		interval: cfg.Interval,
		infobar:  cfg.Infobar,
		now:      cfg.Now,
		logger:   xglog.WithComponent("osd"),
	}
	t.SetHideTags(cfg.HideTags)
	return t
}

// SetHideTags replaces the tag list that suppresses the info bar. Matching ignores case.
func (t *Tracker) SetHideTags(tags []string) {
	hide := make(map[string]bool, len(tags))
	for _, tag := range tags {
		if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" {
			hide[tag] = true
		}
	}
	t.mu.Lock()
	t.hide = hide
	t.mu.Unlock()
}

// Run polls until ctx is cancelled.
func (t *Tracker) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		t.Poll(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Poll performs one status + schedule round. An unreachable player leaves the state unchanged.
func (t *Tracker) Poll(ctx context.Context) {
	st, ok := t.status.Status(ctx)
	if !ok || st.Channel == "" {
		return
	}
	now := t.now()
	cur, next := t.sched.NowAndNext(ctx, st.Channel, now)

	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.state
	s.Start, s.End, s.Tag = nil, nil, ""
	if cur != nil {
		title := cur.Title
		if title == schedule.Placeholder || title == "" {
			title = st.Title
		}
		s.Title = schedule.CleanTitle(title)
		start, end := cur.Start, cur.End
		s.Start, s.End = &start, &end
		s.Tag = cur.Tag
	} else {
		s.Title = schedule.CleanTitle(st.Title)
	}
	s.Next = ""
	if next != nil && next.Title != schedule.Placeholder {
		s.Next = schedule.CleanTitle(next.Title)
	}

	if !t.seen || st.Channel != s.Channel {
		t.logger.Debug().
			Str(xglog.FieldEvent, "osd.channel_changed").
			Str(xglog.FieldChannelID, st.Channel).
			Msg("live channel changed")
		s.Channel = st.Channel
		s.Name = st.Name
		t.infobarUntil = now.Add(t.infobar)
	}
	// A tag change overrides the channel-change duration within the same poll.
	if !strings.EqualFold(s.Tag, t.state.Tag) && !t.hide[strings.ToLower(s.Tag)] {
		t.infobarUntil = now.Add(t.infobar * 6 / 10)
	}

	t.state = s
	t.seen = true
}

// State returns the overlay state at the tracker's clock.
func (t *Tracker) State() State {
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.state
	s.Infobar = t.seen && now.Before(t.infobarUntil)
	s.Logo = t.seen && !t.hide[strings.ToLower(s.Tag)]
	if s.Start != nil && s.End != nil {
		span := s.End.Sub(*s.Start)
		if span > 0 {
			p := float64(now.Sub(*s.Start)) / float64(span)
			s.Progress = min(1, max(0, p))
		}
	}
	return s
}
