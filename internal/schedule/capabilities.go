// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Table is the schedule table every supported store exposes.
const Table = "schedule_events"

// ErrNoScheduleTable is returned when the store lacks the schedule table or its key columns.
var ErrNoScheduleTable = errors.New("schedule: store has no usable schedule_events table")

// Capabilities records which optional columns a store connection exposes.
// It is detected once per connection and threaded through every query.
type Capabilities struct {
	HasTitle       bool
	HasPath        bool
	HasChannelName bool
	HasTag         bool
}

// detectCapabilities reads the table layout and validates the required key columns.
func detectCapabilities(ctx context.Context, db *sql.DB) (Capabilities, error) {
	rows, err := db.QueryContext(ctx, "PRAGMA table_info("+Table+")")
	if err != nil {
		return Capabilities{}, fmt.Errorf("schedule: table_info: %w", err)
	}
	defer rows.Close()

	cols := map[string]bool{}
	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     sql.NullString
			notnull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return Capabilities{}, fmt.Errorf("schedule: scan table_info: %w", err)
		}
		cols[strings.ToLower(name)] = true
	}
	if err := rows.Err(); err != nil {
		return Capabilities{}, fmt.Errorf("schedule: table_info rows: %w", err)
	}

	for _, required := range []string{"channel_id", "start_utc", "end_utc"} {
		if !cols[required] {
			return Capabilities{}, ErrNoScheduleTable
		}
	}

	return Capabilities{
		HasTitle:       cols["title"],
		HasPath:        cols["path"],
		HasChannelName: cols["channel_name"],
		HasTag:         cols["tag"],
	}, nil
}

// effectiveEnd is the SQL form of clampEnd so that "current" selection sees corrected rows.
const effectiveEnd = "(CASE WHEN CAST(end_utc AS INTEGER) <= CAST(start_utc AS INTEGER) " +
	"THEN CAST(start_utc AS INTEGER) + 60 ELSE CAST(end_utc AS INTEGER) END)"

// startCol normalises start_utc to integer seconds.
const startCol = "CAST(start_utc AS INTEGER)"

// eventColumns lists the select expressions for an event row under caps, in scan order:
// start, end, then title, path, tag when present.
func (c Capabilities) eventColumns(start, end string) string {
	cols := []string{start, end}
	if c.HasTitle {
		cols = append(cols, "title")
	}
	if c.HasPath {
		cols = append(cols, "path")
	}
	if c.HasTag {
		cols = append(cols, "tag")
	}
	return strings.Join(cols, ", ")
}

// eventScanner returns destinations for eventColumns and a function building the Event.
func (c Capabilities) eventScanner(prefix ...any) ([]any, func() Event) {
	var (
		start, end       int64
		title, path, tag sql.NullString
	)
	dest := append([]any{}, prefix...)
	dest = append(dest, &start, &end)
	if c.HasTitle {
		dest = append(dest, &title)
	}
	if c.HasPath {
		dest = append(dest, &path)
	}
	if c.HasTag {
		dest = append(dest, &tag)
	}
	build := func() Event {
		stop := clampEnd(start, end)
		return Event{
			Title: resolveTitle(title.String, path.String),
			Start: unix(start),
			End:   unix(stop),
			Path:  path.String,
			Tag:   strings.TrimSpace(tag.String),
		}
	}
	return dest, build
}
