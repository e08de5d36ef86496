// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/flashscreen/internal/config"
	"github.com/ManuGH/flashscreen/internal/health"
	"github.com/ManuGH/flashscreen/internal/library"
	"github.com/ManuGH/flashscreen/internal/pipeline/exec/ffmpeg"
	"github.com/ManuGH/flashscreen/internal/recording"
)

type harness struct {
	ctrl     *fakeController
	settings *memSettings
	dir      string
	handler  http.Handler
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	dir := t.TempDir()
	settings := config.Default()
	settings.Output.Directory = dir
	h := &harness{
		ctrl:     &fakeController{snap: recording.NewState().Snapshot(time.Now())},
		settings: &memSettings{s: settings},
		dir:      dir,
	}
	lib := library.NewService(func(context.Context) string { return h.settings.Get().Output.Directory }, nil)
	srv := New(Config{Version: "v0.0.0-test"}, h.ctrl, h.settings, lib, opts...)
	h.handler = srv.Handler()
	return h
}

func (h *harness) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)
	w := h.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp health.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, health.StatusHealthy, resp.Status)
	assert.Equal(t, "v0.0.0-test", resp.Version)
	assert.Nil(t, resp.Checks)
}

func TestReadyz(t *testing.T) {
	installed := func(_ context.Context, bin string) (ffmpeg.ProbeResult, error) {
		return ffmpeg.ProbeResult{Path: "/usr/bin/" + bin, Version: "6.1.1"}, nil
	}
	missing := func(context.Context, string) (ffmpeg.ProbeResult, error) {
		return ffmpeg.ProbeResult{}, ffmpeg.ErrNotInstalled
	}

	t.Run("ready", func(t *testing.T) {
		h := newHarness(t, WithProbe(installed))
		w := h.do(t, http.MethodGet, "/readyz", "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp health.ReadinessResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Ready)
		assert.Equal(t, health.StatusHealthy, resp.Checks["ffmpeg"].Status)
		assert.Equal(t, "6.1.1", resp.Checks["ffmpeg"].Message)
		assert.Equal(t, health.StatusHealthy, resp.Checks["output_dir"].Status)
	})

	t.Run("ffmpeg missing", func(t *testing.T) {
		h := newHarness(t, WithProbe(missing))
		w := h.do(t, http.MethodGet, "/readyz", "")
		require.Equal(t, http.StatusServiceUnavailable, w.Code)

		var resp health.ReadinessResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Ready)
		assert.Equal(t, health.StatusUnhealthy, resp.Checks["ffmpeg"].Status)
	})

	t.Run("extra checker", func(t *testing.T) {
		h := newHarness(t, WithProbe(installed), WithHealthChecker(health.NewFuncChecker("catalog",
			func(context.Context) health.CheckResult {
				return health.CheckResult{Status: health.StatusDegraded, Message: "catalog disabled"}
			})))
		w := h.do(t, http.MethodGet, "/healthz?verbose=true", "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp health.HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, health.StatusDegraded, resp.Status)
		assert.Len(t, resp.Checks, 3)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodGet, "/api/v1/recording", "")
	w := h.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "flashscreen_http_request_duration_seconds")
}

func TestGetRecordingState(t *testing.T) {
	h := newHarness(t)
	w := h.do(t, http.MethodGet, "/api/v1/recording", "")
	require.Equal(t, http.StatusOK, w.Code)

	var snap recording.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, recording.StatusIdle, snap.Status)
	assert.Nil(t, snap.OutputPath)
}

func TestStartRecording(t *testing.T) {
	h := newHarness(t)
	body := `{"mode":"region","region":{"x":10,"y":20,"width":800,"height":600},"windowId":null,"sources":{"microphone":true,"systemAudio":false,"camera":false}}`
	w := h.do(t, http.MethodPost, "/api/v1/recording/start", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"outputPath":"/videos/FlashScreen_20240102_030405.mp4"}`, w.Body.String())

	req := h.ctrl.lastReq
	assert.Equal(t, recording.ModeRegion, req.Mode)
	require.NotNil(t, req.Region)
	assert.Equal(t, recording.Region{X: 10, Y: 20, Width: 800, Height: 600}, *req.Region)
	assert.True(t, req.Sources.Microphone)
	assert.NoError(t, h.ctrl.ctxErr)
}

func TestStartRecording_EmptyBodyUsesDefaults(t *testing.T) {
	h := newHarness(t)
	w := h.do(t, http.MethodPost, "/api/v1/recording/start", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, recording.Mode(""), h.ctrl.lastReq.Mode)
}

func TestStartRecording_BadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"mode":`},
		{"unknown field", `{"mode":"fullscreen","fps":30}`},
		{"unknown mode", `{"mode":"monitor"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			w := h.do(t, http.MethodPost, "/api/v1/recording/start", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "bad_request", decodeError(t, w).Code)
			assert.Empty(t, h.ctrl.calls)
		})
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{recording.ErrAlreadyRecording, http.StatusConflict, "already_recording"},
		{recording.ErrInvalidRegion, http.StatusBadRequest, "invalid_region"},
		{recording.ErrContextUnavailable, http.StatusServiceUnavailable, "context_unavailable"},
		{recording.ErrSpawnFailed, http.StatusInternalServerError, "spawn_failed"},
		{recording.ErrFilesystem, http.StatusInternalServerError, "filesystem"},
		{recording.ErrConcatFailed, http.StatusInternalServerError, "concat_failed"},
		{recording.ErrOutputMissing, http.StatusInternalServerError, "output_missing"},
		{errors.New("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			h := newHarness(t)
			h.ctrl.startErr = fmt.Errorf("start recording: %w", tt.err)
			w := h.do(t, http.MethodPost, "/api/v1/recording/start", `{"mode":"fullscreen"}`)
			assert.Equal(t, tt.status, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, tt.code, resp.Code)
			assert.Contains(t, resp.Error, tt.err.Error())
			assert.NotEmpty(t, resp.RequestID)
		})
	}
}

func TestStopRecording(t *testing.T) {
	h := newHarness(t)
	w := h.do(t, http.MethodPost, "/api/v1/recording/stop", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"outputPath":"/videos/FlashScreen_20240102_030405.mp4"}`, w.Body.String())
}

func TestLifecycleOperations(t *testing.T) {
	for _, op := range []string{"pause", "resume", "cancel"} {
		t.Run(op, func(t *testing.T) {
			h := newHarness(t)
			w := h.do(t, http.MethodPost, "/api/v1/recording/"+op, "")
			assert.Equal(t, http.StatusNoContent, w.Code)
			assert.Equal(t, []string{op}, h.ctrl.calls)
		})
	}
}

func TestLifecycleOperations_NotRecording(t *testing.T) {
	h := newHarness(t)
	h.ctrl.opErr = fmt.Errorf("pause recording: %w", recording.ErrNotRecording)
	w := h.do(t, http.MethodPost, "/api/v1/recording/pause", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "not_recording", decodeError(t, w).Code)
}

func TestLifecycle_MethodNotAllowed(t *testing.T) {
	h := newHarness(t)
	w := h.do(t, http.MethodGet, "/api/v1/recording/stop", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestSettingsRoundTrip(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodGet, "/api/v1/settings", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got config.Settings
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, h.dir, got.Output.Directory)

	w = h.do(t, http.MethodPut, "/api/v1/settings", `{"output":{"directory":`+jsonString(h.dir)+`,"resolution":"720p","frame_rate":30,"format":"mp4"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "720p", h.settings.Get().Output.Resolution)
	assert.Equal(t, uint32(30), h.settings.Get().Output.FrameRate)
	// Omitted sections keep their values.
	assert.Equal(t, config.Default().Hotkeys, h.settings.Get().Hotkeys)
}

func TestSettingsUpdate_Invalid(t *testing.T) {
	h := newHarness(t)
	w := h.do(t, http.MethodPut, "/api/v1/settings", `{"output":{"frame_rate":0}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_settings", decodeError(t, w).Code)
	assert.Equal(t, config.Default().Output.FrameRate, h.settings.Get().Output.FrameRate)
}

func TestOutputDirectory(t *testing.T) {
	h := newHarness(t)
	w := h.do(t, http.MethodGet, "/api/v1/settings/output-directory", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp OutputDirectoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, h.dir, resp.Directory)
}

func writeRecording(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte("mp4"), 0o600))
	return p
}

func TestRecordingsLibrary(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodGet, "/api/v1/recordings", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	p := writeRecording(t, h.dir, "FlashScreen_20240102_030405.mp4")

	w = h.do(t, http.MethodGet, "/api/v1/recordings", "")
	require.Equal(t, http.StatusOK, w.Code)
	var recs []library.Recording
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "FlashScreen_20240102_030405.mp4", recs[0].Name)

	w = h.do(t, http.MethodPost, "/api/v1/recordings/rename", `{"path":`+jsonString(p)+`,"newName":"demo"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var renamed RenameResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &renamed))
	assert.Equal(t, "demo.mp4", filepath.Base(renamed.Path))

	w = h.do(t, http.MethodDelete, "/api/v1/recordings?path="+url.QueryEscape(renamed.Path), "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NoFileExists(t, renamed.Path)

	// Deleting again is not an error.
	w = h.do(t, http.MethodDelete, "/api/v1/recordings?path="+url.QueryEscape(renamed.Path), "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRecordingsLibrary_Errors(t *testing.T) {
	h := newHarness(t)
	p := writeRecording(t, h.dir, "a.mp4")
	writeRecording(t, h.dir, "b.mp4")

	w := h.do(t, http.MethodDelete, "/api/v1/recordings", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodPost, "/api/v1/recordings/rename", `{"path":`+jsonString(p)+`,"newName":"b"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "exists", decodeError(t, w).Code)

	w = h.do(t, http.MethodPost, "/api/v1/recordings/rename", `{"path":`+jsonString(filepath.Join(h.dir, "missing.mp4"))+`,"newName":"c"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(t, http.MethodPost, "/api/v1/recordings/rename", `{"path":`+jsonString(p)+`,"newName":"../escape"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.FileExists(t, p)
}

func TestFFmpegProbe(t *testing.T) {
	h := newHarness(t, WithProbe(func(_ context.Context, bin string) (ffmpeg.ProbeResult, error) {
		return ffmpeg.ProbeResult{Path: "/usr/bin/" + bin, Version: "6.1.1"}, nil
	}))
	w := h.do(t, http.MethodGet, "/api/v1/ffmpeg", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"available":true,"version":"6.1.1","path":"/usr/bin/ffmpeg"}`, w.Body.String())

	h = newHarness(t, WithProbe(func(context.Context, string) (ffmpeg.ProbeResult, error) {
		return ffmpeg.ProbeResult{}, ffmpeg.ErrNotInstalled
	}))
	w = h.do(t, http.MethodGet, "/api/v1/ffmpeg", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"available":false}`, w.Body.String())
}

func TestNotFound(t *testing.T) {
	h := newHarness(t)
	w := h.do(t, http.MethodGet, "/api/v1/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decodeError(t, w).Code)
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
