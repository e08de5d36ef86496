// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package session coordinates the capture process manager with the
// in-memory session record. Every lifecycle operation takes the recorder
// lock, then the state lock, performs the transition on the recorder and
// only on success updates the record.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ManuGH/flashscreen/internal/config"
	"github.com/ManuGH/flashscreen/internal/library"
	"github.com/ManuGH/flashscreen/internal/log"
	"github.com/ManuGH/flashscreen/internal/metrics"
	"github.com/ManuGH/flashscreen/internal/pipeline/exec/ffmpeg"
	"github.com/ManuGH/flashscreen/internal/recording"
	"github.com/ManuGH/flashscreen/internal/telemetry"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Recorder is the capture process manager driven by the controller.
type Recorder interface {
	Start(ctx context.Context, req ffmpeg.CaptureRequest) (string, error)
	Stop(ctx context.Context) (string, error)
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Cancel(ctx context.Context) error
	IsRecording() bool
	IsPaused() bool
	OutputPath() string
}

// SettingsProvider supplies the output settings read at start.
type SettingsProvider interface {
	Output(ctx context.Context) config.OutputSettings
}

// Catalog stores finished sessions.
type Catalog interface {
	Record(ctx context.Context, e library.Entry) error
}

// StartRequest is what a caller chooses per recording. Everything else
// comes from the settings.
type StartRequest struct {
	Mode     recording.Mode    `json:"mode"`
	Region   *recording.Region `json:"region,omitempty"`
	WindowID *string           `json:"windowId,omitempty"`
	Sources  recording.Sources `json:"sources"`
}

// Option configures a Controller.
type Option func(*Controller)

// WithCatalog records finished sessions in cat.
func WithCatalog(cat Catalog) Option {
	return func(c *Controller) { c.catalog = cat }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithIDGenerator replaces the UUID session id generator.
func WithIDGenerator(gen func() string) Option {
	return func(c *Controller) { c.newID = gen }
}

// WithTracer sets the tracer used for lifecycle spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *Controller) { c.tracer = t }
}

// sessionMeta keeps the capture parameters of the live session for the
// catalog entry written at stop.
type sessionMeta struct {
	resolution string
	frameRate  uint32
}

// Controller is the session coordinator. Lock order is recMu then stateMu.
type Controller struct {
	recMu sync.Mutex
	rec   Recorder

	stateMu sync.Mutex
	state   recording.State
	meta    sessionMeta

	settings SettingsProvider
	catalog  Catalog
	now      func() time.Time
	newID    func() string
	tracer   trace.Tracer
	logger   zerolog.Logger
}

// New creates a Controller in the idle state.
func New(rec Recorder, settings SettingsProvider, opts ...Option) *Controller {
	c := &Controller{
		rec:      rec,
		state:    recording.NewState(),
		settings: settings,
		now:      time.Now,
		newID:    uuid.NewString,
		tracer:   telemetry.Tracer("flashscreen/session"),
		logger:   log.WithComponent("session"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a snapshot of the session record.
func (c *Controller) State(_ context.Context) recording.Snapshot {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.state.Snapshot(c.now())
}

// Start begins a recording and returns the output path.
func (c *Controller) Start(ctx context.Context, req StartRequest) (string, error) {
	if req.Mode == "" {
		req.Mode = recording.ModeFullscreen
	}
	out := c.settings.Output(ctx)
	sessionID := c.newID()
	ctx = log.ContextWithSessionID(ctx, sessionID)
	logger := log.WithContext(ctx, c.logger)

	ctx, span := c.tracer.Start(ctx, "recording.start", trace.WithAttributes(
		telemetry.RecordingAttributes(req.Mode.String(), out.Resolution, out.FrameRate,
			req.Sources.Microphone, req.Sources.SystemAudio, req.Sources.Camera)...,
	))
	span.SetAttributes(attribute.String(telemetry.SessionIDKey, sessionID))
	defer span.End()

	c.recMu.Lock()
	defer c.recMu.Unlock()
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	fail := func(err error) (string, error) {
		result := "error"
		if errors.Is(err, recording.ErrAlreadyRecording) {
			result = "already_recording"
		}
		metrics.RecordStart(result)
		telemetry.RecordError(span, err, result)
		logger.Warn().
			Err(err).
			Str(log.FieldEvent, "recording.start_failed").
			Msg("recording start failed")
		return "", fmt.Errorf("start recording: %w", err)
	}

	if c.state.Status.Active() {
		return fail(recording.ErrAlreadyRecording)
	}

	path, err := c.rec.Start(ctx, ffmpeg.CaptureRequest{
		Mode:       req.Mode,
		Region:     req.Region,
		Sources:    req.Sources,
		OutputDir:  out.Directory,
		Resolution: out.Resolution,
		FrameRate:  out.FrameRate,
	})
	if err != nil {
		return fail(err)
	}

	old := c.state.Status
	c.state.Begin(sessionID, req.Mode, req.Region, req.WindowID, req.Sources, path, c.now())
	c.meta = sessionMeta{resolution: out.Resolution, frameRate: out.FrameRate}

	metrics.RecordStart("ok")
	metrics.SetActive(true)
	span.SetAttributes(attribute.String(telemetry.OutputPathKey, path))
	logger.Info().
		Str(log.FieldEvent, "recording.started").
		Str(log.FieldOldState, old.String()).
		Str(log.FieldNewState, c.state.Status.String()).
		Str(log.FieldMode, req.Mode.String()).
		Str(log.FieldPath, path).
		Msg("recording started")
	return path, nil
}

// Stop finalizes the recording and returns the output path, or "" when
// nothing was recording.
func (c *Controller) Stop(ctx context.Context) (string, error) {
	c.recMu.Lock()
	defer c.recMu.Unlock()
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	ctx, logger, span := c.begin(ctx, "recording.stop")
	defer span.End()

	path, err := c.rec.Stop(ctx)
	if err != nil {
		telemetry.RecordError(span, err, "stop_failed")
		switch {
		case errors.Is(err, recording.ErrConcatFailed):
			// the recorder has released the session; segment files are kept
			c.finish(ctx, library.OutcomeCompleted, "failed", false)
		case errors.Is(err, recording.ErrOutputMissing):
			c.finish(ctx, library.OutcomeFailed, "failed", true)
		}
		logger.Error().Err(err).Str(log.FieldEvent, "recording.stop_failed").Msg("recording stop failed")
		return "", fmt.Errorf("stop recording: %w", err)
	}

	if c.state.Status.Active() {
		c.finish(ctx, library.OutcomeCompleted, "completed", true)
		logger.Info().
			Str(log.FieldEvent, "recording.stopped").
			Str(log.FieldPath, path).
			Msg("recording stopped")
	} else {
		c.state.Reset()
	}
	return path, nil
}

// Cancel discards the recording and deletes its output.
func (c *Controller) Cancel(ctx context.Context) error {
	c.recMu.Lock()
	defer c.recMu.Unlock()
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	ctx, logger, span := c.begin(ctx, "recording.cancel")
	defer span.End()

	if err := c.rec.Cancel(ctx); err != nil {
		telemetry.RecordError(span, err, "cancel_failed")
		return fmt.Errorf("cancel recording: %w", err)
	}

	if c.state.Status.Active() {
		c.finish(ctx, library.OutcomeCancelled, "cancelled", true)
		logger.Info().Str(log.FieldEvent, "recording.cancelled").Msg("recording cancelled")
	} else {
		c.state.Reset()
	}
	return nil
}

// Pause marks the session paused.
func (c *Controller) Pause(ctx context.Context) error {
	return c.setPaused(ctx, true)
}

// Resume returns a paused session to recording.
func (c *Controller) Resume(ctx context.Context) error {
	return c.setPaused(ctx, false)
}

func (c *Controller) setPaused(ctx context.Context, paused bool) error {
	c.recMu.Lock()
	defer c.recMu.Unlock()
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	op, event := "recording.resume", "recording.resumed"
	if paused {
		op, event = "recording.pause", "recording.paused"
	}
	ctx, logger, span := c.begin(ctx, op)
	defer span.End()

	var err error
	if paused {
		err = c.rec.Pause(ctx)
	} else {
		err = c.rec.Resume(ctx)
	}
	if err != nil {
		telemetry.RecordError(span, err, op+"_failed")
		return fmt.Errorf("%s: %w", op, err)
	}

	old := c.state.Status
	c.state.SetPaused(paused)
	if old != c.state.Status {
		logger.Info().
			Str(log.FieldEvent, event).
			Str(log.FieldOldState, old.String()).
			Str(log.FieldNewState, c.state.Status.String()).
			Msg("recording state changed")
	}
	return nil
}

// begin opens a span and derives the session-scoped logger. Callers hold
// stateMu.
func (c *Controller) begin(ctx context.Context, op string) (context.Context, zerolog.Logger, trace.Span) {
	if id := c.state.SessionID; id != "" {
		ctx = log.ContextWithSessionID(ctx, id)
	}
	ctx, span := c.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String(telemetry.StatusKey, c.state.Status.String()),
	))
	if id := c.state.SessionID; id != "" {
		span.SetAttributes(attribute.String(telemetry.SessionIDKey, id))
	}
	return ctx, log.WithContext(ctx, c.logger), span
}

// finish writes metrics and the catalog entry for the ending session and
// resets the record. Callers hold stateMu.
func (c *Controller) finish(ctx context.Context, outcome library.Outcome, metricOutcome string, catalog bool) {
	now := c.now()
	var elapsed time.Duration
	if c.state.StartTime != nil {
		elapsed = now.Sub(*c.state.StartTime)
	}

	metrics.RecordStop(metricOutcome)
	metrics.SetActive(false)
	if outcome == library.OutcomeCompleted && catalog {
		metrics.ObserveDuration(elapsed.Seconds())
	}

	if catalog && c.catalog != nil && c.state.OutputPath != nil {
		entry := library.Entry{
			SessionID:  c.state.SessionID,
			Path:       *c.state.OutputPath,
			Mode:       c.state.Mode.String(),
			Resolution: c.meta.resolution,
			FrameRate:  c.meta.frameRate,
			Duration:   elapsed,
			Outcome:    outcome,
			EndedAt:    now,
		}
		if c.state.StartTime != nil {
			entry.StartedAt = *c.state.StartTime
		}
		if err := c.catalog.Record(ctx, entry); err != nil {
			logger := log.WithContext(ctx, c.logger)
			logger.Warn().Err(err).Msg("failed to record session in catalog")
		}
	}

	c.state.Reset()
	c.meta = sessionMeta{}
}
