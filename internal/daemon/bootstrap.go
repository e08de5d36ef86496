// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package daemon wires the recorder daemon together and runs it.
package daemon

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ManuGH/flashscreen/internal/api"
	"github.com/ManuGH/flashscreen/internal/config"
	"github.com/ManuGH/flashscreen/internal/health"
	"github.com/ManuGH/flashscreen/internal/library"
	"github.com/ManuGH/flashscreen/internal/log"
	"github.com/ManuGH/flashscreen/internal/pipeline/exec/ffmpeg"
	"github.com/ManuGH/flashscreen/internal/platform/paths"
	"github.com/ManuGH/flashscreen/internal/session"
	"github.com/ManuGH/flashscreen/internal/telemetry"
)

// Options configures Bootstrap.
type Options struct {
	// Version is the build version
	Version string

	// ConfigPath is the settings file. Empty means defaults and environment.
	ConfigPath string

	// LogOutput overrides the log writer (stdout).
	LogOutput io.Writer

	// Executor overrides the local ffmpeg executor.
	Executor ffmpeg.Executor
}

// catalogFile is the session catalog inside the data directory.
const catalogFile = "catalog.db"

// Bootstrap loads the settings and builds every component. The returned App
// owns them; Run starts serving and shutdown releases them.
func Bootstrap(ctx context.Context, opts Options) (*App, error) {
	loader := config.NewLoader(opts.ConfigPath)
	settings, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log.Configure(log.Config{
		Level:   settings.Log.Level,
		Output:  opts.LogOutput,
		Version: opts.Version,
	})
	logger := log.WithComponent("daemon")

	source := "env+defaults"
	if opts.ConfigPath != "" {
		source = "file"
	}
	logger.Info().
		Str(log.FieldEvent, "config.loaded").
		Str("source", source).
		Str(log.FieldPath, opts.ConfigPath).
		Msg("configuration loaded")

	holder := config.NewHolder(settings, loader)

	tel, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        settings.Telemetry.Enabled,
		ServiceName:    settings.Telemetry.ServiceName,
		ServiceVersion: opts.Version,
		ExporterType:   settings.Telemetry.Exporter,
		Endpoint:       settings.Telemetry.Endpoint,
		SamplingRate:   settings.Telemetry.SamplingRate,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Telemetry initialization failed, continuing without tracing")
		tel = nil
	}

	exec := opts.Executor
	if exec == nil {
		exec = ffmpeg.NewLocalExecutor()
	}
	rec := ffmpeg.NewRecorder(exec, recorderOptions(settings.FFmpeg))

	store := openCatalog(ctx, settings.DataDir)
	lib := library.NewService(func(ctx context.Context) string {
		return holder.Output(ctx).Directory
	}, store)

	ctrl := session.New(rec, holder, session.WithCatalog(lib))

	apiCfg := api.Config{
		RateLimit: settings.Server.RateLimit,
		Version:   opts.Version,
	}
	if settings.Telemetry.Enabled {
		apiCfg.TracingService = settings.Telemetry.ServiceName
	}
	apiSrv := api.New(apiCfg, ctrl, holder, lib,
		api.WithHealthChecker(health.NewFuncChecker("catalog", catalogCheck(store))))

	mgr, err := NewManager(DefaultServerConfig(settings.Server.Listen), Deps{
		Logger:     logger,
		APIHandler: apiSrv.Handler(),
	})
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, err
	}

	// LIFO: the live recording is finalized before the recorder and the
	// catalog go away.
	if tel != nil {
		mgr.RegisterShutdownHook("telemetry", tel.Shutdown)
	}
	if store != nil {
		mgr.RegisterShutdownHook("catalog", func(context.Context) error { return store.Close() })
	}
	mgr.RegisterShutdownHook("recorder", func(context.Context) error {
		rec.Close()
		return nil
	})
	mgr.RegisterShutdownHook("recording", func(ctx context.Context) error {
		return finalizeRecording(ctx, ctrl)
	})

	app := NewApp(logger, mgr, holder, opts.Version)
	app.logOutput = opts.LogOutput
	return app, nil
}

func recorderOptions(c config.FFmpegConfig) ffmpeg.Options {
	return ffmpeg.Options{
		BinPath:             c.Bin,
		GracefulStopTimeout: c.GracefulStopTimeout,
		CancelCleanupDelay:  c.CancelCleanupDelay,
		PauseMode:           ffmpeg.PauseMode(c.PauseMode),
		Display:             c.Display,
		Audio: ffmpeg.AudioDevices{
			SystemAudio: c.SystemAudio,
			Microphone:  c.Microphone,
		},
	}
}

// openCatalog opens the session catalog. The daemon runs without one when
// the data directory is unusable.
func openCatalog(ctx context.Context, dataDir string) *library.Store {
	logger := log.WithComponent("daemon")
	dbPath, err := paths.ResolveDataFilePath(dataDir, catalogFile, true)
	if err != nil {
		logger.Warn().Err(err).Str("data_dir", dataDir).Msg("catalog disabled: invalid data directory")
		return nil
	}
	store, err := library.NewStore(ctx, dbPath)
	if err != nil {
		logger.Warn().Err(err).Str(log.FieldPath, dbPath).Msg("catalog disabled: open failed")
		return nil
	}
	return store
}

// catalogCheck degrades health when the catalog is missing or unreachable.
// Recording still works without it.
func catalogCheck(store *library.Store) func(context.Context) health.CheckResult {
	return func(ctx context.Context) health.CheckResult {
		if store == nil {
			return health.CheckResult{Status: health.StatusDegraded, Message: "catalog disabled"}
		}
		if err := store.Ping(ctx); err != nil {
			return health.CheckResult{Status: health.StatusDegraded, Error: err.Error()}
		}
		return health.CheckResult{Status: health.StatusHealthy}
	}
}

// finalizeRecording stops a live recording so the output file is complete
// when the daemon exits.
func finalizeRecording(ctx context.Context, ctrl *session.Controller) error {
	if !ctrl.State(ctx).Status.Active() {
		return nil
	}
	logger := log.WithComponent("daemon")
	start := time.Now()
	path, err := ctrl.Stop(ctx)
	if err != nil {
		return fmt.Errorf("finalize recording: %w", err)
	}
	logger.Info().
		Str(log.FieldEvent, "recording.finalized").
		Str(log.FieldPath, path).
		Dur("duration", time.Since(start)).
		Msg("active recording stopped on shutdown")
	return nil
}
