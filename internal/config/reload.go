// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/ManuGH/flashscreen/internal/log"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const reloadDebounce = 500 * time.Millisecond

// Holder holds the live settings with atomic reload. Reads are lock-free
// for callers apart from a short read lock.
type Holder struct {
	mu      sync.RWMutex
	current Settings
	loader  *Loader
	logger  zerolog.Logger

	watcher *fsnotify.Watcher
	done    chan struct{}

	listenMu  sync.RWMutex
	listeners []chan<- Settings
}

// NewHolder creates a holder with an already loaded initial configuration.
func NewHolder(initial Settings, loader *Loader) *Holder {
	return &Holder{
		current: initial.Clone(),
		loader:  loader,
		logger:  log.WithComponent("config"),
	}
}

// Get returns a copy of the current settings.
func (h *Holder) Get() Settings {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current.Clone()
}

// Output returns the output section consumed when a recording starts.
func (h *Holder) Output(_ context.Context) OutputSettings {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current.Output
}

// Path returns the backing settings file, or "" for ENV-only configuration.
func (h *Holder) Path() string {
	if h.loader == nil {
		return ""
	}
	return h.loader.Path()
}

// Reload re-reads the file. On any error the current settings are kept.
func (h *Holder) Reload(_ context.Context) error {
	if h.loader == nil {
		return nil
	}
	h.logger.Info().Str(log.FieldEvent, "config.reload_start").Msg("reloading configuration")

	next, err := h.loader.Load()
	if err != nil {
		h.logger.Error().
			Err(err).
			Str(log.FieldEvent, "config.reload_failed").
			Msg("failed to load new configuration")
		return fmt.Errorf("reload config: %w", err)
	}

	h.swap(next)
	h.logger.Info().
		Str(log.FieldEvent, "config.reload_success").
		Msg("configuration reloaded successfully")
	return nil
}

// Update validates s, persists it (when file-backed) and makes it current.
func (h *Holder) Update(_ context.Context, s Settings) error {
	if err := Validate(s); err != nil {
		return err
	}
	if path := h.Path(); path != "" {
		if err := Save(path, s); err != nil {
			return err
		}
	}
	h.swap(s)
	h.logger.Info().Str(log.FieldEvent, "config.updated").Msg("settings updated")
	return nil
}

func (h *Holder) swap(next Settings) {
	h.mu.Lock()
	old := h.current
	h.current = next.Clone()
	h.mu.Unlock()

	h.logChanges(old, next)
	h.notifyListeners(next)
}

// StartWatcher watches the settings file and reloads on change. Atomic
// replacement swaps the inode, so the parent directory is watched and
// events are filtered by name. No-op for ENV-only configuration.
func (h *Holder) StartWatcher(ctx context.Context) error {
	path := h.Path()
	if path == "" {
		h.logger.Info().
			Str(log.FieldEvent, "config.watcher_disabled").
			Msg("config file watcher disabled (using ENV-only configuration)")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch config directory: %w", err)
	}

	h.watcher = watcher
	h.done = make(chan struct{})
	h.logger.Info().
		Str(log.FieldEvent, "config.watcher_started").
		Str(log.FieldPath, path).
		Msg("watching config file for changes")

	go h.watchLoop(ctx, filepath.Clean(path))
	return nil
}

func (h *Holder) watchLoop(ctx context.Context, path string) {
	defer close(h.done)

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Str(log.FieldEvent, "config.watcher_stopped").Msg("config watcher stopped")
			_ = h.watcher.Close()
			return

		case ev, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			h.logger.Debug().
				Str(log.FieldEvent, "config.file_changed").
				Str("op", ev.Op.String()).
				Msg("config file changed")

			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			if err := h.Reload(ctx); err != nil {
				h.logger.Error().
					Err(err).
					Str(log.FieldEvent, "config.auto_reload_failed").
					Msg("automatic config reload failed")
			}

		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().
				Err(err).
				Str(log.FieldEvent, "config.watcher_error").
				Msg("config watcher error")
		}
	}
}

// Wait blocks until the watcher loop has exited. Returns immediately if no
// watcher was started.
func (h *Holder) Wait() {
	if h.done != nil {
		<-h.done
	}
}

// RegisterListener registers a channel receiving the new settings after
// every successful reload or update. Sends never block.
func (h *Holder) RegisterListener(ch chan<- Settings) {
	h.listenMu.Lock()
	defer h.listenMu.Unlock()
	h.listeners = append(h.listeners, ch)
}

func (h *Holder) notifyListeners(s Settings) {
	h.listenMu.RLock()
	defer h.listenMu.RUnlock()
	for _, ch := range h.listeners {
		select {
		case ch <- s.Clone():
		default:
			h.logger.Warn().
				Str(log.FieldEvent, "config.listener_skip").
				Msg("skipped notifying listener (channel full)")
		}
	}
}

func (h *Holder) logChanges(old, next Settings) {
	if old.Output.Directory != next.Output.Directory {
		h.logger.Info().Str("old", old.Output.Directory).Str("new", next.Output.Directory).Msg("config changed: output.directory")
	}
	if old.Output.Resolution != next.Output.Resolution {
		h.logger.Info().Str("old", old.Output.Resolution).Str("new", next.Output.Resolution).Msg("config changed: output.resolution")
	}
	if old.Output.FrameRate != next.Output.FrameRate {
		h.logger.Info().Uint32("old", old.Output.FrameRate).Uint32("new", next.Output.FrameRate).Msg("config changed: output.frame_rate")
	}
	if old.Log.Level != next.Log.Level {
		h.logger.Info().Str("old", old.Log.Level).Str("new", next.Log.Level).Msg("config changed: log.level")
	}
	if old.Server.Listen != next.Server.Listen {
		h.logger.Warn().Str("old", old.Server.Listen).Str("new", next.Server.Listen).Msg("config changed: server.listen (restart required)")
	}
}
