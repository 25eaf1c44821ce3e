// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package guide holds a frozen channel × event snapshot and the 2-D cursor over it.
package guide

import (
	"github.com/ManuGH/fsxmenu/internal/schedule"
)

// DefaultVisibleRows is the number of channel rows shown at once.
const DefaultVisibleRows = 8

// Cursor is the guide position: absolute row, column within that row's events,
// and the first visible row.
type Cursor struct {
	Row int `json:"row"`
	Col int `json:"col"`
	Top int `json:"top"`
}

// Browser is not safe for concurrent use; the menu controller serialises access.
type Browser struct {
	rows    []schedule.Channel
	cur     Cursor
	visible int
}

// NewBrowser returns an empty browser showing at most visible rows.
func NewBrowser(visible int) *Browser {
	if visible <= 0 {
		visible = DefaultVisibleRows
	}
	return &Browser{visible: visible}
}

// Load replaces the snapshot and resets the cursor to (0,0,0). The rows are
// frozen until the next Load.
func (b *Browser) Load(rows []schedule.Channel) {
	b.rows = rows
	b.cur = Cursor{}
}

// Reset drops the snapshot.
func (b *Browser) Reset() {
	b.Load(nil)
}

// Len returns the number of rows in the snapshot.
func (b *Browser) Len() int {
	return len(b.rows)
}

// VisibleRows returns the viewport height.
func (b *Browser) VisibleRows() int {
	return b.visible
}

// Cursor returns the current position.
func (b *Browser) Cursor() Cursor {
	return b.cur
}

// MoveColumn shifts the column by delta, clamped to the current row's events.
// It reports whether the column changed.
func (b *Browser) MoveColumn(delta int) bool {
	if len(b.rows) == 0 {
		return false
	}
	next := clamp(b.cur.Col+delta, 0, lastIndex(b.rows[b.cur.Row].Events))
	if next == b.cur.Col {
		return false
	}
	b.cur.Col = next
	return true
}

// MoveRow shifts the row by delta, clamped to the snapshot. The column is kept
// and only re-clamped to the new row's events; the viewport scrolls by the
// minimal amount to keep the row visible. It reports whether the row changed.
func (b *Browser) MoveRow(delta int) bool {
	if len(b.rows) == 0 {
		return false
	}
	next := clamp(b.cur.Row+delta, 0, len(b.rows)-1)
	if next == b.cur.Row {
		return false
	}
	b.cur.Row = next
	b.cur.Col = min(b.cur.Col, lastIndex(b.rows[next].Events))

	switch {
	case next < b.cur.Top:
		b.cur.Top = next
	case next >= b.cur.Top+b.visible:
		b.cur.Top = next - b.visible + 1
	}
	return true
}

// Current returns the channel under the cursor.
func (b *Browser) Current() (schedule.Channel, bool) {
	if len(b.rows) == 0 {
		return schedule.Channel{}, false
	}
	return b.rows[b.cur.Row], true
}

// SelectedEvent returns the event under the cursor.
func (b *Browser) SelectedEvent() (schedule.Event, bool) {
	ch, ok := b.Current()
	if !ok || len(ch.Events) == 0 {
		return schedule.Event{}, false
	}
	return ch.Events[min(b.cur.Col, len(ch.Events)-1)], true
}

// Window returns the rows inside the viewport, in order, and the absolute index of the first.
func (b *Browser) Window() ([]schedule.Channel, int) {
	if len(b.rows) == 0 {
		return nil, 0
	}
	end := min(b.cur.Top+b.visible, len(b.rows))
	return b.rows[b.cur.Top:end], b.cur.Top
}

func lastIndex(events []schedule.Event) int {
	return max(0, len(events)-1)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
