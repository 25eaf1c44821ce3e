// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package menu

import (
	"context"
	"strings"
)

// Key is a raw keyboard key, as delivered by the window that hosts the menu.
type Key string

const (
	KeyUp       Key = "up"
	KeyDown     Key = "down"
	KeyLeft     Key = "left"
	KeyRight    Key = "right"
	KeyPageUp   Key = "pageup"
	KeyPageDown Key = "pagedown"
	KeyEnter    Key = "enter"
	KeyEscape   Key = "escape"
	KeyHome     Key = "home"
)

// ParseKey normalises common key names ("PageUp", "Return", "Esc").
func ParseKey(s string) (Key, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up":
		return KeyUp, true
	case "down":
		return KeyDown, true
	case "left":
		return KeyLeft, true
	case "right":
		return KeyRight, true
	case "pageup", "page_up", "prior":
		return KeyPageUp, true
	case "pagedown", "page_down", "next":
		return KeyPageDown, true
	case "enter", "return", "kp_enter":
		return KeyEnter, true
	case "escape", "esc":
		return KeyEscape, true
	case "home":
		return KeyHome, true
	}
	return "", false
}

// HandleKey applies raw keyboard input. Unlike remote commands, root-mode page
// keys jump two items and guide up/down move the row.
func (c *Controller) HandleKey(ctx context.Context, k Key) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch k {
	case KeyEscape:
		if c.mode == ModeHidden {
			c.stopHelpers()
			return ignored(ReasonNotVisible)
		}
		c.closeLocked(ctx)
		return action("close")
	case KeyHome:
		visible := c.mode == ModeHidden
		if visible {
			c.openLocked(ctx)
		} else {
			c.closeLocked(ctx)
		}
		return Result{OK: true, Visible: &visible}
	}

	switch c.mode {
	case ModeRoot:
		switch k {
		case KeyUp, KeyLeft:
			c.step(-1)
		case KeyDown, KeyRight:
			c.step(1)
		case KeyPageUp:
			c.step(-2)
		case KeyPageDown:
			c.step(2)
		case KeyEnter:
			return c.confirmLocked(ctx)
		default:
			return ignored(ReasonUnhandled)
		}
	case ModeGuide:
		switch k {
		case KeyLeft:
			c.browser.MoveColumn(-1)
		case KeyRight:
			c.browser.MoveColumn(1)
		case KeyUp, KeyPageUp:
			c.moveRow(ctx, -1)
		case KeyDown, KeyPageDown:
			c.moveRow(ctx, 1)
		case KeyEnter:
			return c.confirmLocked(ctx)
		default:
			return ignored(ReasonUnhandled)
		}
	default:
		return ignored(ReasonNotVisible)
	}
	return done()
}
