// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ManuGH/flashscreen/internal/log"
	"github.com/ManuGH/flashscreen/internal/recording"
)

// concatTimeout bounds the stream-copy merge of segment files.
const concatTimeout = 2 * time.Minute

// mergeSegments joins the recorded segments into outputPath. A single
// segment is renamed in place. On failure the segment files are kept so the
// footage can be recovered by hand.
func (r *Recorder) mergeSegments(ctx context.Context, segments []string, outputPath string) error {
	logger := log.WithContext(ctx, r.logger)

	existing := make([]string, 0, len(segments))
	for _, s := range segments {
		if info, err := os.Stat(s); err == nil && info.Size() > 0 {
			existing = append(existing, s)
		}
	}

	switch len(existing) {
	case 0:
		return fmt.Errorf("%w: no segment produced output", recording.ErrConcatFailed)
	case 1:
		if err := os.Rename(existing[0], outputPath); err != nil {
			return fmt.Errorf("%w: rename segment: %w", recording.ErrConcatFailed, err)
		}
		return nil
	}

	r.mu.RLock()
	exec := r.exec
	r.mu.RUnlock()
	if exec == nil {
		return recording.ErrContextUnavailable
	}

	listPath := strings.TrimSuffix(outputPath, ContainerExt) + ".concat.txt"
	if err := os.WriteFile(listPath, []byte(concatList(existing)), 0o600); err != nil {
		return fmt.Errorf("%w: write concat list: %w", recording.ErrConcatFailed, err)
	}
	defer func() {
		if err := os.Remove(listPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Debug().Err(err).Str(log.FieldPath, listPath).Msg("failed to remove concat list")
		}
	}()

	proc, err := exec.Spawn(ctx, r.opts.BinPath, BuildConcatArgs(listPath, outputPath))
	if err != nil {
		return fmt.Errorf("%w: %w", recording.ErrConcatFailed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, concatTimeout)
	defer cancel()
	select {
	case <-proc.Done():
	case <-ctx.Done():
		_ = proc.Kill()
		<-proc.Done()
		return fmt.Errorf("%w: %w", recording.ErrConcatFailed, ctx.Err())
	}
	if err := proc.Err(); err != nil {
		logger.Error().
			Err(err).
			Strs("stderr", proc.StderrTail(20)).
			Int(log.FieldExitCode, exitCode(err)).
			Msg("segment merge failed")
		return fmt.Errorf("%w: %w", recording.ErrConcatFailed, err)
	}

	for _, s := range existing {
		removeIfExists(logger, s)
	}
	logger.Info().
		Int("segments", len(existing)).
		Str(log.FieldPath, outputPath).
		Msg("merged recording segments")
	return nil
}

// concatList renders the concat demuxer input. Paths are single-quoted with
// embedded quotes escaped as '\''.
func concatList(paths []string) string {
	var b strings.Builder
	for _, p := range paths {
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(p, "'", `'\''`))
		b.WriteString("'\n")
	}
	return b.String()
}
