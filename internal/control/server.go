// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package control

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/fsxmenu/internal/control/middleware"
	"github.com/ManuGH/fsxmenu/internal/health"
	xglog "github.com/ManuGH/fsxmenu/internal/log"
	"github.com/ManuGH/fsxmenu/internal/menu"
	"github.com/ManuGH/fsxmenu/internal/osd"
)

// Views exposes read-only menu state.
type Views interface {
	Visible() bool
	View() menu.View
}

// OSDSource exposes the now/next overlay state.
type OSDSource interface {
	State() osd.State
}

// ServerConfig configures the control HTTP surface.
type ServerConfig struct {
	// RateLimit is commands per second per client; zero disables limiting.
	RateLimit      int
	TracingService string
	// CommandTimeout bounds how long a request waits for the event loop.
	CommandTimeout time.Duration
}

// Server maps the menu's HTTP routes onto commands.
type Server struct {
	exec    Executor
	views   Views
	osd     OSDSource
	health  *health.Manager
	timeout time.Duration
	router  chi.Router
}

// NewServer builds the router. osdSrc and hm may be nil.
func NewServer(cfg ServerConfig, exec Executor, views Views, osdSrc OSDSource, hm *health.Manager) *Server {
	timeout := cfg.CommandTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	s := &Server{
		exec:    exec,
		views:   views,
		osd:     osdSrc,
		health:  hm,
		timeout: timeout,
	}
	s.router = s.routes(cfg)
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// enterRoutes are every path accepted as a confirm.
var enterRoutes = []string{"/menu/enter", "/menu/nav/enter", "/menu/key/enter", "/menu/ok", "/menu/select"}

func (s *Server) routes(cfg ServerConfig) chi.Router {
	r := chi.NewRouter()
	r.NotFound(unknown)
	r.MethodNotAllowed(unknown)

	r.Get("/healthz", s.serveHealth)
	r.Get("/readyz", s.serveReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		middleware.ApplyStack(r, middleware.StackConfig{
			RateLimit:      cfg.RateLimit,
			RateWindow:     time.Second,
			EnableMetrics:  true,
			TracingService: cfg.TracingService,
			EnableLogging:  true,
		})

		r.Get("/menu/visible", s.serveVisible)
		r.Get("/menu/state", s.serveState)
		r.Get("/osd", s.serveOSD)

		r.Post("/menu/open", s.command(CmdOpen))
		r.Post("/menu/close", s.command(CmdClose))
		r.Post("/menu/toggle", s.command(CmdToggle))
		r.Post("/menu/nav/up", s.command(CmdNavUp))
		r.Post("/menu/nav/down", s.command(CmdNavDown))
		r.Post("/menu/nav/left", s.command(CmdNavLeft))
		r.Post("/menu/nav/right", s.command(CmdNavRight))
		r.Post("/menu/nav/pageup", s.command(CmdNavPageUp))
		r.Post("/menu/nav/pagedown", s.command(CmdNavPageDown))
		for _, p := range enterRoutes {
			r.Post(p, s.command(CmdConfirm))
		}
		r.Post("/menu/esc", s.command(CmdCancel))
		r.Post("/menu/guide", s.command(CmdEnterGuide))
		r.Post("/menu/select/{target}", s.withArg(CmdSelect, "target"))
		r.Post("/menu/activate", s.command(CmdActivate))
		r.Post("/menu/activate/", s.command(CmdActivate))
		r.Post("/menu/activate/{target}", s.withArg(CmdActivate, "target"))
		r.Post("/menu/key/{key}", s.withArg(CmdKey, "key"))
	})
	return r
}

func (s *Server) command(cmd Command) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.run(w, r, Request{Command: cmd})
	}
}

func (s *Server) withArg(cmd Command, param string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, param)
		arg, err := url.PathUnescape(raw)
		if err != nil {
			arg = raw
		}
		s.run(w, r, Request{Command: cmd, Arg: arg})
	}
}

func (s *Server) run(w http.ResponseWriter, r *http.Request, req Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	res, err := s.exec.Execute(ctx, req)
	if err != nil {
		logger := xglog.WithComponentFromContext(r.Context(), "control")
		logger.Warn().Err(err).
			Str(xglog.FieldEvent, "control.execute_failed").
			Str(xglog.FieldCommand, req.String()).
			Msg("command not applied")
		status := http.StatusServiceUnavailable
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		writeJSON(w, status, menu.Result{OK: false, Error: "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type visibleResponse struct {
	OK      bool `json:"ok"`
	Visible bool `json:"visible"`
}

func (s *Server) serveVisible(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, visibleResponse{OK: true, Visible: s.views.Visible()})
}

func (s *Server) serveState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.views.View())
}

func (s *Server) serveOSD(w http.ResponseWriter, r *http.Request) {
	if s.osd == nil {
		unknown(w, r)
		return
	}
	writeJSON(w, http.StatusOK, s.osd.State())
}

func (s *Server) serveHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": string(health.StatusHealthy)})
		return
	}
	s.health.ServeHealth(w, r)
}

func (s *Server) serveReady(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]bool{"ready": true})
		return
	}
	s.health.ServeReady(w, r)
}

func unknown(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, menu.Result{OK: false, Error: "unknown"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"ok":false,"error":"encode"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// NewHTTPServer wraps h with the timeouts used for the control listener.
func NewHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
