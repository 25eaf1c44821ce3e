// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package schedule resolves now/next and guide data from the read-only schedule
// store. Every failure degrades to "no data"; nothing here is fatal to the menu.
package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	xglog "github.com/ManuGH/fsxmenu/internal/log"
	"github.com/ManuGH/fsxmenu/internal/metrics"
	"github.com/ManuGH/fsxmenu/internal/persistence/sqlite"
	"github.com/ManuGH/fsxmenu/internal/telemetry"
)

// ErrStoreUnavailable is returned by Ping when the store file is absent or unreadable.
var ErrStoreUnavailable = errors.New("schedule: store unavailable")

// Config configures a Resolver.
type Config struct {
	// Path of the SQLite schedule file.
	Path string
	// QueryTimeout bounds every public operation, including reconnects.
	QueryTimeout time.Duration
	// GuideEvents caps events per guide row (current plus upcoming).
	GuideEvents int
	// SQLite tunes the read-only connection pool.
	SQLite sqlite.Config
	// Now overrides the wall clock; nil means time.Now.
	Now func() time.Time
}

// Resolver answers schedule questions against a store whose optional columns vary.
type Resolver struct {
	cfg    Config
	logger zerolog.Logger
	tracer trace.Tracer

	mu   sync.Mutex
	db   *sql.DB
	caps Capabilities

	outage rate.Sometimes
}

// NewResolver returns a Resolver. The store is opened lazily so that it may appear
// after startup.
func NewResolver(cfg Config) *Resolver {
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = 400 * time.Millisecond
	}
	if cfg.GuideEvents <= 0 {
		cfg.GuideEvents = DefaultGuideEvents
	}
	if cfg.SQLite == (sqlite.Config{}) {
		cfg.SQLite = sqlite.DefaultConfig()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Resolver{
		cfg:    cfg,
		logger: xglog.WithComponent("schedule"),
		tracer: telemetry.Tracer("fsxmenu/schedule"),
		outage: rate.Sometimes{First: 1, Interval: 30 * time.Second},
	}
}

// conn returns the pooled connection and its capabilities, opening and probing on first use.
func (r *Resolver) conn(ctx context.Context) (*sql.DB, Capabilities, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.db != nil {
		return r.db, r.caps, nil
	}
	if r.cfg.Path == "" {
		return nil, Capabilities{}, ErrStoreUnavailable
	}
	if _, err := os.Stat(r.cfg.Path); err != nil {
		return nil, Capabilities{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	db, err := sqlite.OpenReadOnly(ctx, r.cfg.Path, r.cfg.SQLite)
	if err != nil {
		return nil, Capabilities{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	caps, err := detectCapabilities(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, Capabilities{}, err
	}

	r.db, r.caps = db, caps
	r.logger.Info().
		Str(xglog.FieldEvent, "schedule.connected").
		Str(xglog.FieldPath, r.cfg.Path).
		Bool("has_title", caps.HasTitle).
		Bool("has_path", caps.HasPath).
		Bool("has_channel_name", caps.HasChannelName).
		Bool("has_tag", caps.HasTag).
		Msg("schedule store opened")
	return db, caps, nil
}

// reset drops the connection after a failure so the next call reopens and re-reads the schema.
func (r *Resolver) reset(db *sql.DB) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db != nil && r.db == db {
		_ = r.db.Close()
		r.db = nil
		r.caps = Capabilities{}
	}
}

// fail records a failed operation and converts it to "no data".
func (r *Resolver) fail(op string, db *sql.DB, span trace.Span, err error) {
	result := "error"
	if errors.Is(err, ErrStoreUnavailable) {
		result = "unavailable"
	}
	metrics.IncScheduleQuery(op, result)
	span.RecordError(err)
	span.SetAttributes(telemetry.ErrorAttributes(result)...)
	span.SetStatus(codes.Error, result)
	if db != nil {
		r.reset(db)
	}
	r.outage.Do(func() {
		r.logger.Warn().
			Err(err).
			Str(xglog.FieldEvent, "schedule.query_failed").
			Str("op", op).
			Str(xglog.FieldPath, r.cfg.Path).
			Msg("schedule store query failed; serving placeholder data")
	})
}

func (r *Resolver) begin(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, context.CancelFunc, trace.Span) {
	ctx, span := r.tracer.Start(ctx, "schedule."+op, trace.WithAttributes(attrs...))
	ctx, cancel := context.WithTimeout(ctx, r.cfg.QueryTimeout)
	return ctx, func() {
		cancel()
		span.End()
	}, span
}

// Capabilities reports the optional columns of the current store, if reachable.
func (r *Resolver) Capabilities(ctx context.Context) (Capabilities, bool) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.QueryTimeout)
	defer cancel()
	_, caps, err := r.conn(ctx)
	return caps, err == nil
}

// Ping verifies the store can be opened and queried.
func (r *Resolver) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.QueryTimeout)
	defer cancel()
	db, _, err := r.conn(ctx)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		r.reset(db)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Close releases the connection pool.
func (r *Resolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// CurrentPathAndOffset returns the media path of channelID's current event and the
// elapsed time into it. ok is false when nothing playable is on air or the store
// has no path column.
func (r *Resolver) CurrentPathAndOffset(ctx context.Context, channelID string) (Playable, bool) {
	const op = "current_path"
	ctx, done, span := r.begin(ctx, op, telemetry.ChannelAttributes(channelID)...)
	defer done()

	db, caps, err := r.conn(ctx)
	if err != nil {
		r.fail(op, nil, span, err)
		return Playable{}, false
	}
	if !caps.HasPath {
		metrics.IncScheduleQuery(op, "empty")
		return Playable{}, false
	}

	now := r.cfg.Now()
	ts := now.Unix()
	var (
		path  sql.NullString
		start int64
	)
	err = db.QueryRowContext(ctx,
		"SELECT path, "+startCol+" FROM "+Table+
			" WHERE CAST(channel_id AS TEXT) = ? AND "+startCol+" <= ? AND "+effectiveEnd+" > ?"+
			" ORDER BY "+startCol+" DESC LIMIT 1",
		channelID, ts, ts,
	).Scan(&path, &start)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.IncScheduleQuery(op, "empty")
		return Playable{}, false
	}
	if err != nil {
		r.fail(op, db, span, err)
		return Playable{}, false
	}

	p := strings.TrimSpace(path.String)
	if p == "" {
		metrics.IncScheduleQuery(op, "empty")
		return Playable{}, false
	}
	offset := time.Duration(ts-start) * time.Second
	if offset < 0 {
		offset = 0
	}
	metrics.IncScheduleQuery(op, "ok")
	return Playable{Path: p, Offset: offset}, true
}

// NowAndNext returns channelID's current event (greatest start ≤ now with end > now)
// and next event (smallest start > now). The two are independent and may share a title.
func (r *Resolver) NowAndNext(ctx context.Context, channelID string, now time.Time) (current, next *Event) {
	const op = "now_next"
	ctx, done, span := r.begin(ctx, op, telemetry.ChannelAttributes(channelID)...)
	defer done()

	db, caps, err := r.conn(ctx)
	if err != nil {
		r.fail(op, nil, span, err)
		return nil, nil
	}

	ts := now.Unix()
	cols := caps.eventColumns(startCol, effectiveEnd)

	current, err = r.queryEvent(ctx, db, caps,
		"SELECT "+cols+" FROM "+Table+
			" WHERE CAST(channel_id AS TEXT) = ? AND "+startCol+" <= ? AND "+effectiveEnd+" > ?"+
			" ORDER BY "+startCol+" DESC LIMIT 1",
		channelID, ts, ts)
	if err != nil {
		r.fail(op, db, span, err)
		return nil, nil
	}

	next, err = r.queryEvent(ctx, db, caps,
		"SELECT "+cols+" FROM "+Table+
			" WHERE CAST(channel_id AS TEXT) = ? AND "+startCol+" > ?"+
			" ORDER BY "+startCol+" ASC LIMIT 1",
		channelID, ts)
	if err != nil {
		r.fail(op, db, span, err)
		return nil, nil
	}

	metrics.IncScheduleQuery(op, "ok")
	return current, next
}

func (r *Resolver) queryEvent(ctx context.Context, db *sql.DB, caps Capabilities, query string, args ...any) (*Event, error) {
	dest, build := caps.eventScanner()
	err := db.QueryRowContext(ctx, query, args...).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	ev := build()
	return &ev, nil
}

// LoadGuideSnapshot returns every channel of the store in ascending numeric id order,
// each with its events that have not ended at now (ascending start, capped). A channel
// with no such events carries one placeholder event. Failures yield an empty snapshot.
func (r *Resolver) LoadGuideSnapshot(ctx context.Context, now time.Time) []Channel {
	const op = "guide_snapshot"
	ctx, done, span := r.begin(ctx, op)
	defer done()

	db, caps, err := r.conn(ctx)
	if err != nil {
		r.fail(op, nil, span, err)
		return nil
	}

	channels, err := r.loadChannels(ctx, db, caps)
	if err != nil {
		r.fail(op, db, span, err)
		return nil
	}
	events, err := r.loadUpcoming(ctx, db, caps, now)
	if err != nil {
		r.fail(op, db, span, err)
		return nil
	}

	for i := range channels {
		channels[i].Events = events[channels[i].ID]
		if len(channels[i].Events) == 0 {
			channels[i].Events = []Event{PlaceholderEvent(now)}
		}
	}

	span.SetAttributes(attribute.Int(telemetry.GuideChannelsKey, len(channels)))
	metrics.IncScheduleQuery(op, "ok")
	return channels
}

// numericFirst sorts all-digit channel ids ahead of the rest; CAST alone maps "abc" to 0.
const numericFirst = "CASE WHEN cid <> '' AND cid NOT GLOB '*[^0-9]*' THEN 0 ELSE 1 END"

func (r *Resolver) loadChannels(ctx context.Context, db *sql.DB, caps Capabilities) ([]Channel, error) {
	nameExpr := "NULL"
	if caps.HasChannelName {
		nameExpr = "MIN(NULLIF(TRIM(channel_name), ''))"
	}
	rows, err := db.QueryContext(ctx,
		"SELECT CAST(channel_id AS TEXT) AS cid, "+nameExpr+" FROM "+Table+
			" WHERE channel_id IS NOT NULL"+
			" GROUP BY cid ORDER BY "+numericFirst+", CAST(cid AS INTEGER) ASC, cid ASC")
	if err != nil {
		return nil, fmt.Errorf("schedule: list channels: %w", err)
	}
	defer rows.Close()

	var out []Channel
	for rows.Next() {
		var (
			id   string
			name sql.NullString
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("schedule: scan channel: %w", err)
		}
		display := strings.TrimSpace(name.String)
		if display == "" {
			display = ChannelName(id)
		}
		out = append(out, Channel{ID: id, Name: display})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("schedule: channel rows: %w", err)
	}
	return out, nil
}

// loadUpcoming fetches, per channel, the first GuideEvents rows (by start) whose end is after now.
func (r *Resolver) loadUpcoming(ctx context.Context, db *sql.DB, caps Capabilities, now time.Time) (map[string][]Event, error) {
	inner := "SELECT CAST(channel_id AS TEXT) AS cid, " +
		caps.eventColumns(startCol+" AS s", effectiveEnd+" AS e") +
		", ROW_NUMBER() OVER (PARTITION BY CAST(channel_id AS TEXT) ORDER BY " + startCol + " ASC) AS rn" +
		" FROM " + Table + " WHERE channel_id IS NOT NULL AND " + effectiveEnd + " > ?"
	rows, err := db.QueryContext(ctx,
		"SELECT cid, "+caps.eventColumns("s", "e")+" FROM ("+inner+") WHERE rn <= ? ORDER BY cid, s ASC",
		now.Unix(), r.cfg.GuideEvents)
	if err != nil {
		return nil, fmt.Errorf("schedule: upcoming events: %w", err)
	}
	defer rows.Close()

	out := map[string][]Event{}
	for rows.Next() {
		var cid string
		dest, build := caps.eventScanner(&cid)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("schedule: scan event: %w", err)
		}
		out[cid] = append(out[cid], build())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("schedule: event rows: %w", err)
	}
	return out, nil
}

func unix(sec int64) time.Time {
	return time.Unix(sec, 0)
}
