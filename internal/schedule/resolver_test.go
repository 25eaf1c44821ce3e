// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package schedule

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullSchema = `CREATE TABLE schedule_events (
	channel_id TEXT, channel_name TEXT, start_utc INTEGER, end_utc INTEGER,
	title TEXT, path TEXT, tag TEXT)`

type row struct {
	ch, name    string
	start, end  int64
	title, path string
	tag         string
}

func writeStore(t *testing.T, schema string, insert string, rows ...[]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fsx_schedule.sqlite")
	writeStoreAt(t, path, schema, insert, rows...)
	return path
}

func writeStoreAt(t *testing.T, path, schema, insert string, rows ...[]any) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(schema)
	require.NoError(t, err)
	for _, r := range rows {
		_, err = db.Exec(insert, r...)
		require.NoError(t, err)
	}
}

func fullStore(t *testing.T, rows ...row) string {
	t.Helper()
	args := make([][]any, 0, len(rows))
	for _, r := range rows {
		args = append(args, []any{r.ch, r.name, r.start, r.end, r.title, r.path, r.tag})
	}
	return writeStore(t, fullSchema, `INSERT INTO schedule_events VALUES (?,?,?,?,?,?,?)`, args...)
}

func newTestResolver(t *testing.T, path string, now int64) *Resolver {
	t.Helper()
	r := NewResolver(Config{Path: path, Now: func() time.Time { return time.Unix(now, 0) }})
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestCurrentPathAndOffset(t *testing.T) {
	path := fullStore(t,
		row{ch: "1", start: 100, end: 200, title: "Early", path: "/media/early.mp4"},
		row{ch: "1", start: 150, end: 400, title: "Late", path: "/media/late.mp4"},
		row{ch: "2", start: 0, end: 1000, path: "/media/two.mp4"},
	)
	r := newTestResolver(t, path, 250)

	p, ok := r.CurrentPathAndOffset(context.Background(), "1")
	require.True(t, ok)
	assert.Equal(t, "/media/late.mp4", p.Path)
	assert.Equal(t, 100*time.Second, p.Offset)

	p, ok = r.CurrentPathAndOffset(context.Background(), "2")
	require.True(t, ok)
	assert.Equal(t, 250*time.Second, p.Offset)

	_, ok = r.CurrentPathAndOffset(context.Background(), "99")
	assert.False(t, ok)
}

func TestCurrentPathAndOffset_LatestStartWins(t *testing.T) {
	path := fullStore(t,
		row{ch: "1", start: 100, end: 300, path: "/a.mp4"},
		row{ch: "1", start: 150, end: 300, path: "/b.mp4"},
	)
	r := newTestResolver(t, path, 250)

	p, ok := r.CurrentPathAndOffset(context.Background(), "1")
	require.True(t, ok)
	assert.Equal(t, "/b.mp4", p.Path)
	assert.Equal(t, 100*time.Second, p.Offset)
}

func TestCurrentPathAndOffset_EmptyPath(t *testing.T) {
	path := fullStore(t, row{ch: "1", start: 0, end: 1000, title: "x", path: "  "})
	r := newTestResolver(t, path, 10)

	_, ok := r.CurrentPathAndOffset(context.Background(), "1")
	assert.False(t, ok)
}

func TestCurrentPathAndOffset_NoPathColumn(t *testing.T) {
	path := writeStore(t,
		`CREATE TABLE schedule_events (channel_id TEXT, start_utc INTEGER, end_utc INTEGER, title TEXT)`,
		`INSERT INTO schedule_events VALUES (?,?,?,?)`,
		[]any{"1", 0, 1000, "News"},
	)
	r := newTestResolver(t, path, 10)

	_, ok := r.CurrentPathAndOffset(context.Background(), "1")
	assert.False(t, ok)

	caps, ok := r.Capabilities(context.Background())
	require.True(t, ok)
	assert.Equal(t, Capabilities{HasTitle: true}, caps)
}

func TestCurrentPathAndOffset_ClampedEnd(t *testing.T) {
	path := fullStore(t, row{ch: "3", start: 500, end: 400, title: "Broken", path: "/b.mp4"})

	p, ok := newTestResolver(t, path, 530).CurrentPathAndOffset(context.Background(), "3")
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, p.Offset)

	_, ok = newTestResolver(t, path, 560).CurrentPathAndOffset(context.Background(), "3")
	assert.False(t, ok, "clamped end is exclusive")
}

func TestMissingStore(t *testing.T) {
	r := newTestResolver(t, filepath.Join(t.TempDir(), "absent.sqlite"), 100)
	ctx := context.Background()

	_, ok := r.CurrentPathAndOffset(ctx, "1")
	assert.False(t, ok)
	assert.Empty(t, r.LoadGuideSnapshot(ctx, time.Unix(100, 0)))
	cur, next := r.NowAndNext(ctx, "1", time.Unix(100, 0))
	assert.Nil(t, cur)
	assert.Nil(t, next)
	assert.ErrorIs(t, r.Ping(ctx), ErrStoreUnavailable)
}

func TestStoreWithoutRequiredColumns(t *testing.T) {
	path := writeStore(t, `CREATE TABLE schedule_events (channel_id TEXT, title TEXT)`, "")
	r := newTestResolver(t, path, 100)

	assert.Empty(t, r.LoadGuideSnapshot(context.Background(), time.Unix(100, 0)))
	assert.ErrorIs(t, r.Ping(context.Background()), ErrNoScheduleTable)
}

func TestStoreAppearsLater(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "fsx_schedule.sqlite")
	r := newTestResolver(t, target, 250)

	_, ok := r.CurrentPathAndOffset(context.Background(), "1")
	require.False(t, ok)

	writeStoreAt(t, target, fullSchema, `INSERT INTO schedule_events VALUES (?,?,?,?,?,?,?)`,
		[]any{"1", "One", 100, 400, "x", "/x.mp4", ""})

	p, ok := r.CurrentPathAndOffset(context.Background(), "1")
	require.True(t, ok)
	assert.Equal(t, "/x.mp4", p.Path)
}

func TestLoadGuideSnapshot(t *testing.T) {
	rows := []row{
		{ch: "10", name: "Ten", start: 0, end: 50, title: "Ended"},
		{ch: "2", name: "", start: 0, end: 1000, path: "/media/Morning_News.mp4"},
		{ch: "1", name: " ", start: 90, end: 80, title: "Clamped"},
	}
	for i := int64(0); i < 8; i++ {
		rows = append(rows, row{ch: "3", name: "Three", start: 100 + i*100, end: 200 + i*100, title: "Show"})
	}
	path := fullStore(t, rows...)
	r := newTestResolver(t, path, 100)

	snap := r.LoadGuideSnapshot(context.Background(), time.Unix(120, 0))
	require.Len(t, snap, 4)

	ids := []string{snap[0].ID, snap[1].ID, snap[2].ID, snap[3].ID}
	assert.Equal(t, []string{"1", "2", "3", "10"}, ids, "numeric ordering")

	assert.Equal(t, "Channel 1", snap[0].Name)
	require.Len(t, snap[0].Events, 1)
	assert.Equal(t, "Clamped", snap[0].Events[0].Title)
	assert.Equal(t, time.Unix(150, 0), snap[0].Events[0].End)

	assert.Equal(t, "Channel 2", snap[1].Name)
	require.Len(t, snap[1].Events, 1)
	assert.Equal(t, "Morning News", snap[1].Events[0].Title)

	assert.Equal(t, "Three", snap[2].Name)
	assert.Len(t, snap[2].Events, DefaultGuideEvents)
	for i := 1; i < len(snap[2].Events); i++ {
		assert.True(t, snap[2].Events[i-1].Start.Before(snap[2].Events[i].Start))
	}

	assert.Equal(t, "Ten", snap[3].Name)
	require.Len(t, snap[3].Events, 1)
	assert.Equal(t, Placeholder, snap[3].Events[0].Title)
	assert.Equal(t, time.Hour, snap[3].Events[0].End.Sub(snap[3].Events[0].Start))
}

func TestLoadGuideSnapshot_NonNumericIDsLast(t *testing.T) {
	path := fullStore(t,
		row{ch: "abc", start: 0, end: 1000, title: "Letters"},
		row{ch: "2", start: 0, end: 1000, title: "Two"},
		row{ch: "10", start: 0, end: 1000, title: "Ten"},
		row{ch: "1", start: 0, end: 1000, title: "One"},
	)
	snap := newTestResolver(t, path, 100).LoadGuideSnapshot(context.Background(), time.Unix(100, 0))

	ids := make([]string, 0, len(snap))
	for _, ch := range snap {
		ids = append(ids, ch.ID)
	}
	assert.Equal(t, []string{"1", "2", "10", "abc"}, ids)
}

func TestMinimalSchema(t *testing.T) {
	path := writeStore(t,
		`CREATE TABLE schedule_events (channel_id TEXT, start_utc INTEGER, end_utc INTEGER)`,
		`INSERT INTO schedule_events VALUES (?,?,?)`,
		[]any{"1", 500, 400},
		[]any{"2", 0, 100},
	)
	r := newTestResolver(t, path, 530)
	ctx := context.Background()

	caps, ok := r.Capabilities(ctx)
	require.True(t, ok)
	assert.Equal(t, Capabilities{}, caps)

	snap := r.LoadGuideSnapshot(ctx, time.Unix(250, 0))
	require.Len(t, snap, 2)
	assert.Equal(t, "Channel 1", snap[0].Name)
	require.Len(t, snap[0].Events, 1)
	assert.Equal(t, Placeholder, snap[0].Events[0].Title)
	assert.Equal(t, time.Unix(500, 0), snap[0].Events[0].Start)
	assert.Equal(t, time.Unix(560, 0), snap[0].Events[0].End)

	assert.Equal(t, "Channel 2", snap[1].Name)
	require.Len(t, snap[1].Events, 1)
	assert.Equal(t, PlaceholderEvent(time.Unix(250, 0)), snap[1].Events[0])

	cur, next := r.NowAndNext(ctx, "1", time.Unix(530, 0))
	require.NotNil(t, cur)
	assert.Equal(t, Placeholder, cur.Title)
	assert.Equal(t, time.Unix(560, 0), cur.End)
	assert.Nil(t, next)

	_, ok = r.CurrentPathAndOffset(ctx, "1")
	assert.False(t, ok, "no path column, nothing to play")
}

func TestPathWithoutTitleColumn(t *testing.T) {
	path := writeStore(t,
		`CREATE TABLE schedule_events (channel_id TEXT, start_utc INTEGER, end_utc INTEGER, path TEXT)`,
		`INSERT INTO schedule_events VALUES (?,?,?,?)`,
		[]any{"1", 0, 100, "/m/Evening_News.mp4"},
		[]any{"1", 100, 200, "/m/late.show.mkv"},
	)
	r := newTestResolver(t, path, 50)
	ctx := context.Background()

	caps, ok := r.Capabilities(ctx)
	require.True(t, ok)
	assert.Equal(t, Capabilities{HasPath: true}, caps)

	snap := r.LoadGuideSnapshot(ctx, time.Unix(50, 0))
	require.Len(t, snap, 1)
	require.Len(t, snap[0].Events, 2)
	assert.Equal(t, "Evening News", snap[0].Events[0].Title)
	assert.Equal(t, "late show", snap[0].Events[1].Title)

	cur, next := r.NowAndNext(ctx, "1", time.Unix(50, 0))
	require.NotNil(t, cur)
	require.NotNil(t, next)
	assert.Equal(t, "Evening News", cur.Title)
	assert.Equal(t, "late show", next.Title)

	p, ok := r.CurrentPathAndOffset(ctx, "1")
	require.True(t, ok)
	assert.Equal(t, Playable{Path: "/m/Evening_News.mp4", Offset: 50 * time.Second}, p)
}

func TestNowAndNext(t *testing.T) {
	path := fullStore(t,
		row{ch: "5", start: 0, end: 100, title: "A.mkv", tag: "show"},
		row{ch: "5", start: 100, end: 200, title: "B", tag: " commercial "},
		row{ch: "5", start: 300, end: 400, title: "C"},
		row{ch: "5", start: 200, end: 300, title: "", path: "/m/d_file.ts"},
	)
	r := newTestResolver(t, path, 0)

	cur, next := r.NowAndNext(context.Background(), "5", time.Unix(150, 0))
	require.NotNil(t, cur)
	require.NotNil(t, next)
	assert.Equal(t, "B", cur.Title)
	assert.Equal(t, "commercial", cur.Tag)
	assert.Equal(t, "d file", next.Title)

	cur, next = r.NowAndNext(context.Background(), "5", time.Unix(450, 0))
	assert.Nil(t, cur)
	assert.Nil(t, next)
}

func TestCurrentPathAndOffset_TextTimestamps(t *testing.T) {
	path := writeStore(t,
		`CREATE TABLE schedule_events (channel_id INTEGER, start_utc TEXT, end_utc TEXT, path TEXT)`,
		`INSERT INTO schedule_events VALUES (?,?,?,?)`,
		[]any{7, "100", "300", "/seven.mp4"},
	)
	r := newTestResolver(t, path, 200)

	p, ok := r.CurrentPathAndOffset(context.Background(), "7")
	require.True(t, ok)
	assert.Equal(t, 100*time.Second, p.Offset)
}
