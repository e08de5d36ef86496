// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ManuGH/flashscreen/internal/log"
	"github.com/ManuGH/flashscreen/internal/metrics"
	"github.com/ManuGH/flashscreen/internal/recording"
	"github.com/rs/zerolog"
)

const (
	// DefaultGracefulStopTimeout bounds how long Stop waits for ffmpeg to
	// finalize the container after "q" before force-killing it.
	DefaultGracefulStopTimeout = 500 * time.Millisecond
	// DefaultCancelCleanupDelay lets the OS release the file handle of a
	// killed process before the partial output is deleted.
	DefaultCancelCleanupDelay = 100 * time.Millisecond

	// segmentReapTimeout bounds the wait for a killed segment process to be
	// reaped before its file is handed to the concat step.
	segmentReapTimeout = 2 * time.Second

	// maxNameAttempts bounds how many second boundaries Start waits for
	// an unused output name.
	maxNameAttempts = 3
)

// PauseMode selects how Pause/Resume affect the capture process.
type PauseMode string

const (
	// PauseModeFlag only toggles a flag; ffmpeg keeps capturing.
	PauseModeFlag PauseMode = "flag"
	// PauseModeSegment stops the current segment on pause, starts a new
	// one on resume and concatenates all segments on stop.
	PauseModeSegment PauseMode = "segment"
)

// Options tunes a Recorder. Zero values fall back to defaults.
type Options struct {
	BinPath             string
	GracefulStopTimeout time.Duration
	CancelCleanupDelay  time.Duration
	PauseMode           PauseMode
	Platform            Platform
	Display             string
	Audio               AudioDevices
	Now                 func() time.Time
	// Sleep waits between output name attempts. Defaults to a timer wait.
	Sleep               func(time.Duration)
}

// CaptureRequest carries the per-session capture parameters.
type CaptureRequest struct {
	Mode       recording.Mode
	Region     *recording.Region
	Sources    recording.Sources
	OutputDir  string
	Resolution string
	FrameRate  uint32
}

// handle is the single live capture process slot.
type handle struct {
	proc     Process
	segment  string
	stopping atomic.Bool
	exited   atomic.Bool // exited without being asked to
}

// Recorder is the capture process manager. It is the only component that
// spawns, signals or kills ffmpeg and the authority on the output path.
// Lifecycle calls are serialized internally; accessors never block on them.
type Recorder struct {
	opMu sync.Mutex // serializes lifecycle operations

	mu         sync.RWMutex // guards the fields below
	exec       Executor
	cur        *handle
	outputPath string
	paused     bool
	active     bool

	// segment mode bookkeeping
	req      CaptureRequest
	segments []string

	opts   Options
	logger zerolog.Logger
	wg     sync.WaitGroup
}

// NewRecorder creates a Recorder. exec may be nil and registered later with
// SetExecutor; Start fails with ErrContextUnavailable until then.
func NewRecorder(exec Executor, opts Options) *Recorder {
	if opts.BinPath == "" {
		opts.BinPath = "ffmpeg"
	}
	if opts.GracefulStopTimeout <= 0 {
		opts.GracefulStopTimeout = DefaultGracefulStopTimeout
	}
	if opts.CancelCleanupDelay <= 0 {
		opts.CancelCleanupDelay = DefaultCancelCleanupDelay
	}
	if opts.PauseMode == "" {
		opts.PauseMode = PauseModeFlag
	}
	if opts.Platform == "" {
		opts.Platform = DefaultPlatform()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}
	return &Recorder{
		exec:   exec,
		opts:   opts,
		logger: log.WithComponent("recorder"),
	}
}

// SetExecutor registers the execution context used to spawn ffmpeg.
func (r *Recorder) SetExecutor(exec Executor) {
	r.mu.Lock()
	r.exec = exec
	r.mu.Unlock()
}

// Start spawns the capture process and returns the resolved output path.
func (r *Recorder) Start(ctx context.Context, req CaptureRequest) (string, error) {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	r.mu.RLock()
	active, exec := r.active, r.exec
	r.mu.RUnlock()
	if active {
		return "", recording.ErrAlreadyRecording
	}
	if exec == nil {
		return "", recording.ErrContextUnavailable
	}
	if req.Mode == recording.ModeRegion {
		if req.Region == nil {
			return "", fmt.Errorf("%w: region mode requires a region", recording.ErrInvalidRegion)
		}
		if err := req.Region.Validate(); err != nil {
			return "", err
		}
	}

	dir, err := filepath.Abs(req.OutputDir)
	if err != nil {
		return "", fmt.Errorf("%w: resolve output directory: %w", recording.ErrFilesystem, err)
	}
	if err := ensureDir(dir); err != nil {
		return "", err
	}
	req.OutputDir = dir

	outputPath, err := r.freeOutputPath(ctx, dir)
	if err != nil {
		return "", err
	}
	target := outputPath
	if r.opts.PauseMode == PauseModeSegment {
		target = SegmentPath(outputPath, 0)
	}

	h, err := r.spawn(ctx, exec, req, target)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.cur = h
	r.outputPath = outputPath
	r.paused = false
	r.active = true
	r.req = req
	r.segments = nil
	if r.opts.PauseMode == PauseModeSegment {
		r.segments = []string{target}
	}
	r.mu.Unlock()

	return outputPath, nil
}

// Stop asks ffmpeg to finish ("q" on stdin), waits at most the grace
// interval, then force-kills. It returns the output path, or "" when nothing
// was recording.
func (r *Recorder) Stop(ctx context.Context) (string, error) {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	r.mu.RLock()
	active, h, outputPath, segments := r.active, r.cur, r.outputPath, append([]string(nil), r.segments...)
	r.mu.RUnlock()
	if !active {
		return "", nil
	}

	if h != nil {
		r.gracefulStop(ctx, h)
	}

	var err error
	if r.opts.PauseMode == PauseModeSegment {
		if h != nil {
			waitReaped(h.proc, segmentReapTimeout)
		}
		err = r.mergeSegments(ctx, segments, outputPath)
	}
	if err == nil {
		err = checkOutput(outputPath)
	}

	r.clear()

	if err != nil {
		logger := log.WithContext(ctx, r.logger)
		if h != nil && h.exited.Load() {
			logger = logger.With().Strs("stderr", h.proc.StderrTail(20)).Logger()
		}
		logger.Error().Err(err).Str(log.FieldPath, outputPath).Msg("recording stopped without a usable output")
		return "", err
	}
	return outputPath, nil
}

// Pause marks the session paused. In flag mode ffmpeg keeps capturing: it
// has no pause primitive, so the flag alone does not stop capture. In
// segment mode the current segment is finalized.
func (r *Recorder) Pause(ctx context.Context) error {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	r.mu.RLock()
	active, paused, h := r.active, r.paused, r.cur
	r.mu.RUnlock()

	if r.opts.PauseMode == PauseModeFlag {
		if active {
			r.setPaused(true)
		}
		return nil
	}

	if !active {
		return recording.ErrNotRecording
	}
	if paused {
		return nil
	}
	if h != nil {
		r.gracefulStop(ctx, h)
		waitReaped(h.proc, segmentReapTimeout)
	}
	r.mu.Lock()
	r.cur = nil
	r.paused = true
	r.mu.Unlock()
	return nil
}

// Resume clears the paused flag; in segment mode it starts the next segment.
func (r *Recorder) Resume(ctx context.Context) error {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	r.mu.RLock()
	active, paused, exec, req, outputPath, n := r.active, r.paused, r.exec, r.req, r.outputPath, len(r.segments)
	r.mu.RUnlock()

	if r.opts.PauseMode == PauseModeFlag {
		if active {
			r.setPaused(false)
		}
		return nil
	}

	if !active {
		return recording.ErrNotRecording
	}
	if !paused {
		return nil
	}
	if exec == nil {
		return recording.ErrContextUnavailable
	}

	target := SegmentPath(outputPath, n)
	h, err := r.spawn(ctx, exec, req, target)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.cur = h
	r.segments = append(r.segments, target)
	r.paused = false
	r.mu.Unlock()
	return nil
}

// Cancel kills ffmpeg without finalizing and deletes the partial output.
// Deletion is best effort. The handle and paused flag are always cleared.
func (r *Recorder) Cancel(ctx context.Context) error {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	logger := log.WithContext(ctx, r.logger)

	r.mu.RLock()
	active, h, outputPath, segments := r.active, r.cur, r.outputPath, append([]string(nil), r.segments...)
	r.mu.RUnlock()

	if active {
		if h != nil {
			h.stopping.Store(true)
			if err := h.proc.Kill(); err != nil {
				logger.Warn().Err(err).Int(log.FieldPID, h.proc.Pid()).Msg("force kill failed")
			}
			metrics.RecordFFmpegExit("cancelled")
		}

		sleep(r.opts.CancelCleanupDelay)

		for _, p := range append(segments, outputPath) {
			removeIfExists(logger, p)
		}
	}

	r.clear()
	return nil
}

// IsRecording reports whether a session is live and not paused.
func (r *Recorder) IsRecording() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active && !r.paused
}

// IsPaused reports the paused flag.
func (r *Recorder) IsPaused() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.paused
}

// OutputPath returns the output path of the live session, or "".
func (r *Recorder) OutputPath() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.outputPath
}

// PauseMode reports the configured pause strategy.
func (r *Recorder) PauseMode() PauseMode {
	return r.opts.PauseMode
}

// Close waits for exit watchers to finish. Callers stop or cancel first.
func (r *Recorder) Close() {
	r.wg.Wait()
}

func (r *Recorder) spawn(ctx context.Context, exec Executor, req CaptureRequest, target string) (*handle, error) {
	logger := log.WithContext(ctx, r.logger)

	args, err := BuildCaptureArgs(ArgsSpec{
		Platform:   r.opts.Platform,
		Display:    r.opts.Display,
		Mode:       req.Mode,
		Region:     req.Region,
		Sources:    req.Sources,
		Resolution: req.Resolution,
		FrameRate:  req.FrameRate,
		Audio:      r.opts.Audio,
		OutputPath: target,
	})
	if err != nil {
		return nil, err
	}

	proc, err := exec.Spawn(ctx, r.opts.BinPath, args)
	if err != nil {
		metrics.RecordFFmpegSpawn("error")
		if !errors.Is(err, recording.ErrSpawnFailed) {
			err = fmt.Errorf("%w: %w", recording.ErrSpawnFailed, err)
		}
		return nil, err
	}
	metrics.RecordFFmpegSpawn("ok")

	h := &handle{proc: proc, segment: target}
	logger.Info().
		Int(log.FieldPID, proc.Pid()).
		Str(log.FieldPath, target).
		Str(log.FieldMode, req.Mode.String()).
		Str(log.FieldResolution, req.Resolution).
		Uint32(log.FieldFPS, req.FrameRate).
		Msg("capture process started")

	r.wg.Add(1)
	go r.watch(logger, h)
	return h, nil
}

// watch logs capture processes that exit without being asked to.
func (r *Recorder) watch(logger zerolog.Logger, h *handle) {
	defer r.wg.Done()
	<-h.proc.Done()
	if h.stopping.Load() {
		return
	}
	h.exited.Store(true)
	err := h.proc.Err()
	metrics.RecordFFmpegExit("unexpected")
	logger.Error().
		Err(err).
		Int(log.FieldExitCode, exitCode(err)).
		Int(log.FieldPID, h.proc.Pid()).
		Strs("stderr", h.proc.StderrTail(20)).
		Str(log.FieldEvent, "ffmpeg.unexpected_exit").
		Msg("capture process exited on its own")
}

func (r *Recorder) gracefulStop(ctx context.Context, h *handle) {
	logger := log.WithContext(ctx, r.logger)
	h.stopping.Store(true)
	if h.exited.Load() {
		return
	}

	if err := h.proc.WriteInput([]byte("q")); err != nil {
		logger.Warn().
			Err(fmt.Errorf("%w: %w", recording.ErrSignalFailed, err)).
			Int(log.FieldPID, h.proc.Pid()).
			Msg("graceful stop request failed, falling back to kill")
	}

	timer := time.NewTimer(r.opts.GracefulStopTimeout)
	defer timer.Stop()
	select {
	case <-h.proc.Done():
		metrics.RecordFFmpegExit("graceful")
		return
	case <-timer.C:
	}

	if err := h.proc.Kill(); err != nil {
		logger.Warn().Err(err).Int(log.FieldPID, h.proc.Pid()).Msg("force kill failed")
	}
	metrics.RecordFFmpegExit("killed")
}

func (r *Recorder) setPaused(paused bool) {
	r.mu.Lock()
	r.paused = paused
	r.mu.Unlock()
}

func (r *Recorder) clear() {
	r.mu.Lock()
	r.cur = nil
	r.outputPath = ""
	r.paused = false
	r.active = false
	r.req = CaptureRequest{}
	r.segments = nil
	r.mu.Unlock()
}

// freeOutputPath names the output after the current second. An existing
// file of that name belongs to an earlier session, so Start waits for the
// next second boundary instead of overwriting it.
func (r *Recorder) freeOutputPath(ctx context.Context, dir string) (string, error) {
	for attempt := 1; ; attempt++ {
		now := r.opts.Now()
		path := filepath.Join(dir, OutputFilename(now))
		taken, err := nameTaken(path)
		if err != nil {
			return "", err
		}
		if !taken {
			return path, nil
		}
		if attempt >= maxNameAttempts {
			return "", fmt.Errorf("%w: output file %s already exists", recording.ErrFilesystem, filepath.Base(path))
		}
		logger := log.WithContext(ctx, r.logger)
		logger.Debug().
			Str(log.FieldPath, path).
			Msg("output name in use, waiting for the next second")
		r.opts.Sleep(now.Truncate(time.Second).Add(time.Second).Sub(now))
	}
}

// nameTaken reports whether path or its first segment already exists.
func nameTaken(path string) (bool, error) {
	for _, p := range []string{path, SegmentPath(path, 0)} {
		_, err := os.Lstat(p)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return false, fmt.Errorf("%w: stat output file: %w", recording.ErrFilesystem, err)
		}
	}
	return false, nil
}

// checkOutput fails when the capture process left no file behind, which
// happens when ffmpeg exits on its own before writing anything.
func checkOutput(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", recording.ErrOutputMissing, path)
		}
		return fmt.Errorf("%w: stat output file: %w", recording.ErrFilesystem, err)
	}
	return nil
}

func ensureDir(dir string) error {
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%w: output path %s is not a directory", recording.ErrFilesystem, dir)
		}
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: stat output directory: %w", recording.ErrFilesystem, err)
	}
	// #nosec G301 -- recordings are user media
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create output directory: %w", recording.ErrFilesystem, err)
	}
	return nil
}

func removeIfExists(logger zerolog.Logger, path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn().Err(err).Str(log.FieldPath, path).Msg("failed to delete partial recording")
	}
}

func waitReaped(p Process, timeout time.Duration) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-p.Done():
	case <-timer.C:
	}
}

func sleep(d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	<-timer.C
}
