// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package schedule

import (
	"path/filepath"
	"strings"
	"time"
)

const (
	// Placeholder is shown wherever a title cannot be derived.
	Placeholder = "—"

	// MinEventLength is the duration forced onto rows whose end is not after their start.
	MinEventLength = 60 * time.Second

	// PlaceholderSpan is the length of the synthetic event of an empty guide row.
	PlaceholderSpan = time.Hour

	// DefaultGuideEvents caps a guide row to the current event plus the next five.
	DefaultGuideEvents = 6
)

// Event is one schedule row as exposed to consumers. End is always after Start.
type Event struct {
	Title string
	Start time.Time
	End   time.Time
	Path  string
	Tag   string
}

// Contains reports whether the event is airing at now.
func (e Event) Contains(now time.Time) bool {
	return !e.Start.After(now) && e.End.After(now)
}

// Channel is one guide row: a channel and its upcoming events.
type Channel struct {
	ID     string
	Name   string
	Events []Event
}

// Playable locates the media of a channel's current event and how far into it we are.
type Playable struct {
	Path   string
	Offset time.Duration
}

// ChannelName returns the display name used when the store has none.
func ChannelName(id string) string {
	return "Channel " + id
}

// PlaceholderEvent spans [now, now+1h) for rows with nothing scheduled.
func PlaceholderEvent(now time.Time) Event {
	return Event{Title: Placeholder, Start: now, End: now.Add(PlaceholderSpan)}
}

// clampEnd enforces end > start.
func clampEnd(start, end int64) int64 {
	if end <= start {
		return start + int64(MinEventLength/time.Second)
	}
	return end
}

// TitleFromPath derives a human title from a media file name: the extension is
// dropped and '_' / '.' become spaces.
func TitleFromPath(p string) string {
	if p == "" {
		return ""
	}
	base := filepath.Base(p)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	title := strings.TrimSpace(strings.NewReplacer("_", " ", ".", " ").Replace(stem))
	if title == "" {
		return base
	}
	return title
}

// CleanTitle strips a trailing file extension from a title that may be a file name.
func CleanTitle(t string) string {
	if t == "" {
		return ""
	}
	name := filepath.Base(t)
	if i := strings.LastIndex(name, "."); i > 0 {
		return name[:i]
	}
	return name
}

// resolveTitle applies the fallback chain title → path-derived → placeholder.
func resolveTitle(title, path string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	if t := TitleFromPath(path); t != "" {
		return t
	}
	return Placeholder
}
