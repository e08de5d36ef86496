// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"context"
	"sync"

	"github.com/ManuGH/flashscreen/internal/config"
	"github.com/ManuGH/flashscreen/internal/recording"
	"github.com/ManuGH/flashscreen/internal/session"
)

type fakeController struct {
	mu       sync.Mutex
	snap     recording.Snapshot
	lastReq  session.StartRequest
	calls    []string
	startErr error
	opErr    error
	ctxErr   error
}

func (f *fakeController) record(ctx context.Context, op string) {
	f.calls = append(f.calls, op)
	f.ctxErr = ctx.Err()
}

func (f *fakeController) State(context.Context) recording.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeController) Start(ctx context.Context, req session.StartRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(ctx, "start")
	f.lastReq = req
	if f.startErr != nil {
		return "", f.startErr
	}
	return "/videos/FlashScreen_20240102_030405.mp4", nil
}

func (f *fakeController) Stop(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(ctx, "stop")
	if f.opErr != nil {
		return "", f.opErr
	}
	return "/videos/FlashScreen_20240102_030405.mp4", nil
}

func (f *fakeController) op(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(ctx, name)
	return f.opErr
}

func (f *fakeController) Pause(ctx context.Context) error  { return f.op(ctx, "pause") }
func (f *fakeController) Resume(ctx context.Context) error { return f.op(ctx, "resume") }
func (f *fakeController) Cancel(ctx context.Context) error { return f.op(ctx, "cancel") }

// memSettings is an in-memory SettingsStore with the real validation.
type memSettings struct {
	mu sync.Mutex
	s  config.Settings
}

func (m *memSettings) Get() config.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.Clone()
}

func (m *memSettings) Update(_ context.Context, s config.Settings) error {
	if err := config.Validate(s); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = s.Clone()
	return nil
}
