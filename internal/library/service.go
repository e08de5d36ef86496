// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package library

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ManuGH/flashscreen/internal/log"
	"github.com/ManuGH/flashscreen/internal/pipeline/exec/ffmpeg"
	"github.com/ManuGH/flashscreen/internal/platform/fs"
	"github.com/rs/zerolog"
)

// DirFunc returns the current output directory. It is read on every call
// so settings changes apply immediately.
type DirFunc func(ctx context.Context) string

// Service lists, deletes and renames recordings. Every path it accepts
// must resolve inside the output directory.
type Service struct {
	dir    DirFunc
	store  *Store
	logger zerolog.Logger
}

// NewService creates a library service. store may be nil, in which case
// listings carry file metadata only.
func NewService(dir DirFunc, store *Store) *Service {
	return &Service{
		dir:    dir,
		store:  store,
		logger: log.WithComponent("library"),
	}
}

// List returns the recordings in the output directory, newest first.
func (s *Service) List(ctx context.Context) ([]Recording, error) {
	dir, err := filepath.Abs(s.dir(ctx))
	if err != nil {
		return nil, fmt.Errorf("resolve output directory: %w", err)
	}
	recs, err := scanDir(dir)
	if err != nil {
		return nil, err
	}
	if s.store == nil {
		return recs, nil
	}
	for i := range recs {
		e, err := s.store.ByPath(ctx, recs[i].Path)
		if err != nil {
			s.logger.Warn().Err(err).Str(log.FieldPath, recs[i].Path).Msg("catalog lookup failed")
			continue
		}
		if e == nil {
			continue
		}
		recs[i].Duration = e.Duration.Seconds()
		recs[i].Resolution = e.Resolution
		recs[i].FrameRate = e.FrameRate
		recs[i].SessionID = e.SessionID
	}
	return recs, nil
}

// Delete removes a recording. A missing file is not an error.
func (s *Service) Delete(ctx context.Context, path string) error {
	resolved, err := s.confine(ctx, path)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if info, err := os.Lstat(resolved); err == nil && !info.Mode().IsRegular() {
		return fmt.Errorf("%w: not a regular file: %s", ErrInvalidName, path)
	}
	if err := os.Remove(resolved); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete recording: %w", err)
	}
	if s.store != nil {
		if err := s.store.Forget(ctx, path); err != nil {
			s.logger.Warn().Err(err).Str(log.FieldPath, path).Msg("failed to drop catalog rows")
		}
	}
	s.logger.Info().Str(log.FieldEvent, "library.deleted").Str(log.FieldPath, resolved).Msg("recording deleted")
	return nil
}

// Rename gives a recording a new file name in the same directory and
// returns the new path. The container extension is appended when missing;
// existing files are never overwritten.
func (s *Service) Rename(ctx context.Context, path, newName string) (string, error) {
	resolved, err := s.confine(ctx, path)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(resolved); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("stat recording: %w", err)
	}

	newName = strings.TrimSpace(newName)
	if !strings.EqualFold(filepath.Ext(newName), ffmpeg.ContainerExt) {
		newName += ffmpeg.ContainerExt
	}
	target, err := fs.ConfineName(filepath.Dir(resolved), newName)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidName, err)
	}
	if target == resolved {
		return resolved, nil
	}
	if _, err := os.Lstat(target); err == nil {
		return "", fmt.Errorf("%w: %s", ErrExists, filepath.Base(target))
	}

	if err := os.Rename(resolved, target); err != nil {
		return "", fmt.Errorf("rename recording: %w", err)
	}
	if s.store != nil {
		if err := s.store.Repath(ctx, path, target); err != nil {
			s.logger.Warn().Err(err).Str(log.FieldPath, target).Msg("failed to update catalog path")
		}
	}
	s.logger.Info().
		Str(log.FieldEvent, "library.renamed").
		Str("from", resolved).
		Str("to", target).
		Msg("recording renamed")
	return target, nil
}

// Record stores a session in the catalog. No-op without a store.
func (s *Service) Record(ctx context.Context, e Entry) error {
	if s.store == nil {
		return nil
	}
	return s.store.Record(ctx, e)
}

func (s *Service) confine(ctx context.Context, path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidName)
	}
	root, err := filepath.Abs(s.dir(ctx))
	if err != nil {
		return "", fmt.Errorf("resolve output directory: %w", err)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	resolved, err := fs.ConfineAbsPath(root, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("%w: %w", ErrOutsideDir, err)
	}
	return resolved, nil
}
