// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api serves the local control API: recording lifecycle, settings,
// the recordings library and daemon health.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/flashscreen/internal/api/middleware"
	"github.com/ManuGH/flashscreen/internal/config"
	"github.com/ManuGH/flashscreen/internal/health"
	"github.com/ManuGH/flashscreen/internal/library"
	"github.com/ManuGH/flashscreen/internal/pipeline/exec/ffmpeg"
	"github.com/ManuGH/flashscreen/internal/recording"
	"github.com/ManuGH/flashscreen/internal/session"
)

// Controller drives the recording session.
type Controller interface {
	State(ctx context.Context) recording.Snapshot
	Start(ctx context.Context, req session.StartRequest) (string, error)
	Stop(ctx context.Context) (string, error)
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Cancel(ctx context.Context) error
}

// SettingsStore reads and replaces the settings document.
type SettingsStore interface {
	Get() config.Settings
	Update(ctx context.Context, s config.Settings) error
}

// Library manages finished recordings.
type Library interface {
	List(ctx context.Context) ([]library.Recording, error)
	Delete(ctx context.Context, path string) error
	Rename(ctx context.Context, path, newName string) (string, error)
}

// ProbeFunc reports whether an ffmpeg binary is usable.
type ProbeFunc func(ctx context.Context, bin string) (ffmpeg.ProbeResult, error)

// Config configures the HTTP surface.
type Config struct {
	RateLimit      int
	AllowedOrigins []string
	// TracingService names HTTP spans; empty disables HTTP tracing.
	TracingService string
	Version        string
}

// Server holds the API dependencies.
type Server struct {
	cfg      Config
	ctrl     Controller
	settings SettingsStore
	lib      Library
	probe    ProbeFunc
	checkers []health.Checker
	health   *health.Manager
}

// Option configures a Server.
type Option func(*Server)

// WithProbe replaces ffmpeg.Probe.
func WithProbe(p ProbeFunc) Option {
	return func(s *Server) { s.probe = p }
}

// WithHealthChecker adds a component check to /readyz and verbose /healthz.
func WithHealthChecker(c health.Checker) Option {
	return func(s *Server) { s.checkers = append(s.checkers, c) }
}

// New creates a Server.
func New(cfg Config, ctrl Controller, settings SettingsStore, lib Library, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		ctrl:     ctrl,
		settings: settings,
		lib:      lib,
		probe:    ffmpeg.Probe,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.health = health.NewManager(cfg.Version)
	s.health.RegisterChecker(health.NewFuncChecker("ffmpeg", s.checkFFmpeg))
	s.health.RegisterChecker(health.NewDirChecker("output_dir", func(context.Context) string {
		return s.settings.Get().Output.Directory
	}))
	for _, c := range s.checkers {
		s.health.RegisterChecker(c)
	}
	return s
}

// Handler returns the routed handler with the middleware stack applied.
func (s *Server) Handler() http.Handler {
	r := middleware.NewRouter(middleware.StackConfig{
		AllowedOrigins: s.cfg.AllowedOrigins,
		EnableMetrics:  true,
		TracingService: s.cfg.TracingService,
		EnableLogging:  true,
		RateLimit:      s.cfg.RateLimit,
	})

	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/recording", s.handleState)
		r.Post("/recording/start", s.handleStart)
		r.Post("/recording/stop", s.handleStop)
		r.Post("/recording/pause", s.lifecycle(Controller.Pause))
		r.Post("/recording/resume", s.lifecycle(Controller.Resume))
		r.Post("/recording/cancel", s.lifecycle(Controller.Cancel))

		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handlePutSettings)
		r.Get("/settings/output-directory", s.handleOutputDirectory)

		r.Get("/recordings", s.handleListRecordings)
		r.Delete("/recordings", s.handleDeleteRecording)
		r.Post("/recordings/rename", s.handleRenameRecording)

		r.Get("/ffmpeg", s.handleFFmpeg)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErrorCode(w, http.StatusNotFound, "not_found", "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeErrorCode(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})
	return r
}
