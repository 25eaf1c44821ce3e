// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package menu

import (
	"context"
	"strconv"
	"time"

	"github.com/ManuGH/fsxmenu/internal/player"
	"github.com/ManuGH/fsxmenu/internal/schedule"
)

// Root menu labels.
const (
	ItemLiveTV   = "Live TV"
	ItemTVGuide  = "TV Guide"
	ItemPlanner  = "Planner"
	ItemOnDemand = "OnDemand"
)

// DefaultItems is the fixed root menu, in display order.
var DefaultItems = []string{ItemLiveTV, ItemTVGuide, ItemPlanner, ItemOnDemand}

// Mode is the menu state.
type Mode int

const (
	ModeHidden Mode = iota
	ModeRoot
	ModeGuide
)

func (m Mode) String() string {
	switch m {
	case ModeRoot:
		return "root"
	case ModeGuide:
		return "guide"
	default:
		return "hidden"
	}
}

// Direction is a navigation intent.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
	PageUp
	PageDown
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	case PageUp:
		return "pageup"
	case PageDown:
		return "pagedown"
	default:
		return "unknown"
	}
}

// Ignore reasons and failure messages reported to callers.
const (
	ReasonNotVisible = "not-visible"
	ReasonUnhandled  = "unhandled"
	ErrNoSuchItem    = "no such item"
)

// Result is the outcome of one command.
type Result struct {
	OK        bool    `json:"ok"`
	Action    string  `json:"action,omitempty"`
	Ignored   string  `json:"ignored,omitempty"`
	Error     string  `json:"error,omitempty"`
	Visible   *bool   `json:"visible,omitempty"`
	Selected  *string `json:"selected,omitempty"`
	Activated bool    `json:"activated,omitempty"`
}

func done() Result                 { return Result{OK: true} }
func action(name string) Result    { return Result{OK: true, Action: name} }
func ignored(reason string) Result { return Result{OK: true, Ignored: reason} }
func failed(reason string) Result  { return Result{OK: false, Error: reason} }

// Target addresses a root item by index or exact label.
type Target struct {
	Index   int
	Label   string
	ByIndex bool
}

// ParseTarget treats anything that parses as an integer as an index, otherwise a label.
func ParseTarget(s string) Target {
	if i, err := strconv.Atoi(s); err == nil {
		return Target{Index: i, ByIndex: true}
	}
	return Target{Label: s}
}

func (t Target) String() string {
	if t.ByIndex {
		return strconv.Itoa(t.Index)
	}
	return t.Label
}

// Schedule is the subset of the schedule resolver the menu needs.
type Schedule interface {
	CurrentPathAndOffset(ctx context.Context, channelID string) (schedule.Playable, bool)
	LoadGuideSnapshot(ctx context.Context, now time.Time) []schedule.Channel
}

// Player is the upstream player bridge.
type Player interface {
	Pause(ctx context.Context) error
	ResumeLive(ctx context.Context) error
	Tune(ctx context.Context, channelID string) error
	Status(ctx context.Context) (player.Status, bool)
}

// Previewer owns the preview helper process.
type Previewer interface {
	Start(path string, offset time.Duration) error
	Stop()
	Running() bool
}

// Audio owns the background track process.
type Audio interface {
	Start() error
	Stop()
	Running() bool
}
