// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package middleware provides the HTTP middleware stack of the control API.
package middleware

import (
	"github.com/go-chi/chi/v5"
)

// StackConfig configures the control API middleware stack.
type StackConfig struct {
	// AllowedOrigins may issue state-changing browser requests in addition
	// to same-origin pages.
	AllowedOrigins []string

	EnableMetrics  bool
	TracingService string // empty disables tracing
	EnableLogging  bool

	// RateLimit is requests per client and minute; 0 disables limiting.
	RateLimit int
}

// NewRouter constructs a chi router with the middleware stack applied.
func NewRouter(cfg StackConfig) *chi.Mux {
	r := chi.NewRouter()
	ApplyStack(r, cfg)
	return r
}

// ApplyStack applies the middleware stack to r.
func ApplyStack(r chi.Router, cfg StackConfig) {
	// 1. Recoverer (outermost safety net)
	r.Use(Recoverer)
	// 2. RequestID (correlation early)
	r.Use(RequestID)
	// 3. Metrics
	if cfg.EnableMetrics {
		r.Use(Metrics())
	}
	// 4. Tracing
	if cfg.TracingService != "" {
		r.Use(OTelHTTP(cfg.TracingService))
	}
	// 5. Logging
	if cfg.EnableLogging {
		r.Use(Logging)
	}
	// 6. CSRF before anything mutates state
	r.Use(CSRFProtection(cfg.AllowedOrigins))
	// 7. Rate limit
	r.Use(ControlRateLimit(cfg.RateLimit))
}
