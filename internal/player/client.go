// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package player

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxBody = 64 << 10

// Status is one on-demand snapshot of what the live player reports. It is never cached.
type Status struct {
	Channel string `json:"channel"`
	Name    string `json:"name"`
	Title   string `json:"title"`

	// FooterName resolves the same aliases with channel_name ahead of name.
	FooterName string `json:"-"`
}

// DisplayName is the footer label: FooterName, then Name, then "Channel {id}".
func (s Status) DisplayName() string {
	if s.FooterName != "" {
		return s.FooterName
	}
	if s.Name != "" {
		return s.Name
	}
	if s.Channel != "" {
		return "Channel " + s.Channel
	}
	return ""
}

// Client speaks the live player's HTTP control surface.
type Client struct {
	base          *url.URL
	http          *http.Client
	postTimeout   time.Duration
	statusTimeout time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithTimeouts sets per-request bounds for control posts and status reads.
func WithTimeouts(post, status time.Duration) ClientOption {
	return func(c *Client) {
		if post > 0 {
			c.postTimeout = post
		}
		if status > 0 {
			c.statusTimeout = status
		}
	}
}

// NewClient returns a client for base, e.g. "http://127.0.0.1:4243".
func NewClient(base string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return nil, fmt.Errorf("player: invalid base url %q: %w", base, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("player: unsupported scheme %q", u.Scheme)
	}
	c := &Client{
		base:          u,
		http:          &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		postTimeout:   500 * time.Millisecond,
		statusTimeout: 600 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the control endpoint.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Pause asks the player to pause.
func (c *Client) Pause(ctx context.Context) error {
	return c.post(ctx, "pause", "/pause")
}

// Live asks the player to return to the live position.
func (c *Client) Live(ctx context.Context) error {
	return c.post(ctx, "live", "/live")
}

// Zap tunes the player to channelID.
func (c *Client) Zap(ctx context.Context, channelID string) error {
	if channelID == "" {
		return &Error{Sentinel: ErrNoChannel, Operation: "zap"}
	}
	return c.post(ctx, "zap", "/zap/"+url.PathEscape(channelID))
}

func (c *Client) post(ctx context.Context, op, path string) error {
	ctx, cancel := context.WithTimeout(ctx, c.postTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base.String()+path, nil)
	if err != nil {
		return &Error{Sentinel: ErrUnavailable, Operation: op, Err: err}
	}
	res, err := c.http.Do(req)
	if err != nil {
		return classify(op, err)
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if res.StatusCode != http.StatusOK {
		return &Error{Sentinel: ErrRejected, Operation: op, Status: res.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return nil
}

// Status fetches the player's current channel, name and title.
func (c *Client) Status(ctx context.Context) (Status, error) {
	const op = "status"
	ctx, cancel := context.WithTimeout(ctx, c.statusTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.String()+"/status", nil)
	if err != nil {
		return Status{}, &Error{Sentinel: ErrUnavailable, Operation: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	res, err := c.http.Do(req)
	if err != nil {
		return Status{}, classify(op, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return Status{}, &Error{Sentinel: ErrRejected, Operation: op, Status: res.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var raw map[string]any
	if err := json.NewDecoder(io.LimitReader(res.Body, maxBody)).Decode(&raw); err != nil {
		return Status{}, &Error{Sentinel: ErrBadResponse, Operation: op, Status: res.StatusCode, Err: err}
	}
	return ParseStatus(raw), nil
}

// ParseStatus reads a status document, accepting the field aliases players use:
// channel|channel_id|ch, name|channel_name|ch_name and title. The overlay reads
// Name; the menu footer prefers channel_name and reads FooterName.
func ParseStatus(raw map[string]any) Status {
	return Status{
		Channel:    firstField(raw, "channel", "channel_id", "ch"),
		Name:       firstField(raw, "name", "channel_name", "ch_name"),
		Title:      firstField(raw, "title"),
		FooterName: firstField(raw, "channel_name", "name", "ch_name"),
	}
}

func firstField(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := scalar(raw[k]); s != "" {
			return s
		}
	}
	return ""
}

func scalar(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return ""
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func classify(op string, err error) error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return &Error{Sentinel: ErrTimeout, Operation: op, Err: err}
	}
	return &Error{Sentinel: ErrUnavailable, Operation: op, Err: err}
}
