// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package session

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/ManuGH/flashscreen/internal/config"
	"github.com/ManuGH/flashscreen/internal/library"
	"github.com/ManuGH/flashscreen/internal/pipeline/exec/ffmpeg"
	"github.com/ManuGH/flashscreen/internal/recording"
)

// fakeRecorder mimics the capture process manager's slot semantics.
type fakeRecorder struct {
	mu      sync.Mutex
	live    bool
	paused  bool
	path    string
	lastReq ffmpeg.CaptureRequest
	starts  int

	startErr, stopErr, pauseErr, resumeErr, cancelErr error
}

func (f *fakeRecorder) Start(_ context.Context, req ffmpeg.CaptureRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.live {
		return "", recording.ErrAlreadyRecording
	}
	if f.startErr != nil {
		return "", f.startErr
	}
	f.starts++
	f.live = true
	f.paused = false
	f.lastReq = req
	f.path = filepath.Join(req.OutputDir, "FlashScreen_20240102_030405.mp4")
	return f.path, nil
}

func (f *fakeRecorder) Stop(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopErr != nil {
		if f.stopErr == recording.ErrConcatFailed || f.stopErr == recording.ErrOutputMissing {
			f.live, f.paused, f.path = false, false, ""
		}
		return "", f.stopErr
	}
	if !f.live {
		return "", nil
	}
	p := f.path
	f.live, f.paused, f.path = false, false, ""
	return p, nil
}

func (f *fakeRecorder) Pause(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pauseErr != nil {
		return f.pauseErr
	}
	if f.live {
		f.paused = true
	}
	return nil
}

func (f *fakeRecorder) Resume(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resumeErr != nil {
		return f.resumeErr
	}
	if f.live {
		f.paused = false
	}
	return nil
}

func (f *fakeRecorder) Cancel(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.live, f.paused, f.path = false, false, ""
	return nil
}

func (f *fakeRecorder) IsRecording() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.live && !f.paused
}

func (f *fakeRecorder) IsPaused() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paused
}

func (f *fakeRecorder) OutputPath() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.path
}

type staticSettings config.OutputSettings

func (s staticSettings) Output(context.Context) config.OutputSettings {
	return config.OutputSettings(s)
}

type memCatalog struct {
	mu      sync.Mutex
	entries []library.Entry
}

func (m *memCatalog) Record(_ context.Context, e library.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *memCatalog) Entries() []library.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]library.Entry(nil), m.entries...)
}
