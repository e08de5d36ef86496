// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/flashscreen/internal/config"
	"github.com/ManuGH/flashscreen/internal/log"
	"github.com/rs/zerolog"
)

// App owns the long-lived runtime lifecycle (config watcher, reload wiring)
// and delegates server management to Manager.
type App struct {
	logger       zerolog.Logger
	manager      Manager
	holder       *config.Holder
	reloadSignal os.Signal
	version      string
	logOutput    io.Writer
}

// NewApp creates a new App orchestrator. holder may be nil.
func NewApp(logger zerolog.Logger, manager Manager, holder *config.Holder, version string) *App {
	return &App{
		logger:       logger,
		manager:      manager,
		holder:       holder,
		reloadSignal: syscall.SIGHUP,
		version:      version,
	}
}

// Manager returns the server manager.
func (a *App) Manager() Manager {
	return a.manager
}

// Run starts all owned background subsystems and blocks until ctx is
// cancelled or a fatal error occurs.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, ctx := errgroup.WithContext(ctx)

	if a.holder != nil {
		// Best-effort: the daemon runs without hot reload if the watcher fails.
		if err := a.holder.StartWatcher(ctx); err != nil {
			a.logger.Warn().Err(err).Str(log.FieldEvent, "config.watcher_start_failed").Msg("failed to start config watcher")
		}
		defer a.holder.Wait()

		applyCh := make(chan config.Settings, 1)
		a.holder.RegisterListener(applyCh)
		current := a.holder.Get()

		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case next := <-applyCh:
					a.apply(current, next)
					current = next
				}
			}
		})
	}

	if a.holder != nil && a.reloadSignal != nil {
		g.Go(func() error {
			hupChan := make(chan os.Signal, 1)
			signal.Notify(hupChan, a.reloadSignal)
			defer signal.Stop(hupChan)

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-hupChan:
					a.logger.Info().
						Str(log.FieldEvent, "config.reload_signal").
						Str("signal", a.reloadSignal.String()).
						Msg("received reload signal, reloading config")

					if err := a.holder.Reload(ctx); err != nil {
						a.logger.Warn().
							Err(err).
							Str(log.FieldEvent, "config.reload_failed").
							Msg("config reload failed")
					}
				}
			}
		})
	}

	g.Go(func() error {
		err := a.manager.Start(ctx)
		if err != nil {
			_ = a.manager.Shutdown(context.Background())
		}
		return err
	})

	return g.Wait()
}

// apply makes reloaded settings effective. Output settings are read per
// recording and need nothing here; capture process options only apply
// after a restart.
func (a *App) apply(old, next config.Settings) {
	if old.Log.Level != next.Log.Level {
		log.Configure(log.Config{Level: next.Log.Level, Output: a.logOutput, Version: a.version})
		a.logger.Info().
			Str(log.FieldEvent, "log.level_changed").
			Str("level", next.Log.Level).
			Msg("log level applied")
	}
	if old.FFmpeg != next.FFmpeg {
		a.logger.Warn().
			Str(log.FieldEvent, "config.restart_required").
			Msg("config changed: ffmpeg (restart required)")
	}
}
