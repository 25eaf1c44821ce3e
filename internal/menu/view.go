// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package menu

import (
	"time"

	"github.com/ManuGH/fsxmenu/internal/guide"
)

// View is a render-ready copy of the controller state.
type View struct {
	Visible  bool       `json:"visible"`
	Mode     string     `json:"mode"`
	Items    []string   `json:"items"`
	Selected int        `json:"selected"`
	Guide    *GuideView `json:"guide,omitempty"`
	Footer   Footer     `json:"footer"`
	Date     string     `json:"date"`
	Time     string     `json:"time"`
}

// GuideView is the visible window of the guide.
type GuideView struct {
	Cursor  guide.Cursor `json:"cursor"`
	Total   int          `json:"total"`
	Visible int          `json:"visible"`
	Rows    []GuideRow   `json:"rows"`
}

// GuideRow is one visible channel row.
type GuideRow struct {
	Index    int          `json:"index"`
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Selected bool         `json:"selected"`
	Events   []GuideEvent `json:"events"`
}

// GuideEvent is one guide cell.
type GuideEvent struct {
	Title    string    `json:"title"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Selected bool      `json:"selected"`
}

// View snapshots the state for rendering. Clock strings use the configured zone.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	local := c.clock.In(c.loc)
	v := View{
		Visible:  c.mode != ModeHidden,
		Mode:     c.mode.String(),
		Items:    append([]string(nil), c.items...),
		Selected: c.sel,
		Footer:   c.footer,
		Date:     local.Format("Monday, 02 January"),
		Time:     local.Format("15:04"),
	}
	if c.mode != ModeGuide {
		return v
	}

	cur := c.browser.Cursor()
	rows, top := c.browser.Window()
	gv := &GuideView{
		Cursor:  cur,
		Total:   c.browser.Len(),
		Visible: c.browser.VisibleRows(),
		Rows:    make([]GuideRow, 0, len(rows)),
	}
	for i, ch := range rows {
		idx := top + i
		row := GuideRow{Index: idx, ID: ch.ID, Name: ch.Name, Selected: idx == cur.Row}
		for j, ev := range ch.Events {
			row.Events = append(row.Events, GuideEvent{
				Title:    ev.Title,
				Start:    ev.Start,
				End:      ev.End,
				Selected: row.Selected && j == cur.Col,
			})
		}
		gv.Rows = append(gv.Rows, row)
	}
	v.Guide = gv
	return v
}
