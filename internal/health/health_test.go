// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockChecker struct {
	name   string
	status Status
}

func (m *mockChecker) Name() string { return m.name }

func (m *mockChecker) Check(context.Context) CheckResult {
	return CheckResult{Status: m.status}
}

type brokenWriter struct {
	header http.Header
}

func (w *brokenWriter) Header() http.Header { return w.header }

func (w *brokenWriter) Write([]byte) (int, error) { return 0, os.ErrClosed }

func (w *brokenWriter) WriteHeader(int) {}

func staticDir(dir string) func(context.Context) string {
	return func(context.Context) string { return dir }
}

func TestNewManager(t *testing.T) {
	m := NewManager("v1.2.3")
	assert.NotNil(t, m)
	assert.Equal(t, "v1.2.3", m.version)
	assert.Empty(t, m.checkers)
}

func TestManager_Health_NoCheckers(t *testing.T) {
	m := NewManager("v1.0.0")

	resp := m.Health(context.Background(), false)
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Equal(t, "v1.0.0", resp.Version)
	assert.GreaterOrEqual(t, resp.Uptime, int64(0))
	assert.Nil(t, resp.Checks)
}

func TestManager_Health_WithCheckers(t *testing.T) {
	m := NewManager("v1.0.0")
	m.RegisterChecker(&mockChecker{name: "healthy", status: StatusHealthy})
	m.RegisterChecker(&mockChecker{name: "degraded", status: StatusDegraded})

	// Non-verbose: no checks included
	resp := m.Health(context.Background(), false)
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Nil(t, resp.Checks)

	resp = m.Health(context.Background(), true)
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.Len(t, resp.Checks, 2)
	assert.Equal(t, StatusHealthy, resp.Checks["healthy"].Status)
	assert.Equal(t, StatusDegraded, resp.Checks["degraded"].Status)
}

func TestManager_Health_UnhealthyWinsOverDegraded(t *testing.T) {
	m := NewManager("v1.0.0")
	m.RegisterChecker(&mockChecker{name: "unhealthy", status: StatusUnhealthy})
	m.RegisterChecker(&mockChecker{name: "degraded", status: StatusDegraded})

	resp := m.Health(context.Background(), true)
	assert.Equal(t, StatusUnhealthy, resp.Status)
	assert.Len(t, resp.Checks, 2)
}

func TestManager_Ready(t *testing.T) {
	tests := []struct {
		name       string
		statuses   []Status
		wantReady  bool
		wantStatus Status
	}{
		{name: "no checkers", wantReady: true, wantStatus: StatusHealthy},
		{name: "all healthy", statuses: []Status{StatusHealthy, StatusHealthy}, wantReady: true, wantStatus: StatusHealthy},
		{name: "degraded", statuses: []Status{StatusDegraded}, wantReady: true, wantStatus: StatusDegraded},
		{name: "unhealthy", statuses: []Status{StatusHealthy, StatusUnhealthy}, wantReady: false, wantStatus: StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager("v1.0.0")
			for i, s := range tt.statuses {
				m.RegisterChecker(&mockChecker{name: string(rune('a' + i)), status: s})
			}
			resp := m.Ready(context.Background())
			assert.Equal(t, tt.wantReady, resp.Ready)
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Len(t, resp.Checks, len(tt.statuses))
		})
	}
}

func TestManager_ServeHealth(t *testing.T) {
	m := NewManager("v1.0.0")
	m.RegisterChecker(&mockChecker{name: "test", status: StatusUnhealthy})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	m.ServeHealth(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Nil(t, resp.Checks)

	// Liveness stays 200 even when a component is unhealthy.
	req = httptest.NewRequest(http.MethodGet, "/healthz?verbose=true", nil)
	w = httptest.NewRecorder()
	m.ServeHealth(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, StatusUnhealthy, resp.Status)
	assert.Len(t, resp.Checks, 1)
}

func TestManager_ServeHealth_EncodingError(t *testing.T) {
	m := NewManager("v1.0.0")
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := &brokenWriter{header: make(http.Header)}

	// Should not panic even if encoding fails
	m.ServeHealth(w, req)
}

func TestManager_ServeReady(t *testing.T) {
	tests := []struct {
		name           string
		status         Status
		expectedStatus int
		expectedReady  bool
	}{
		{name: "healthy", status: StatusHealthy, expectedStatus: http.StatusOK, expectedReady: true},
		{name: "degraded", status: StatusDegraded, expectedStatus: http.StatusOK, expectedReady: true},
		{name: "unhealthy", status: StatusUnhealthy, expectedStatus: http.StatusServiceUnavailable, expectedReady: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager("v1.0.0")
			m.RegisterChecker(&mockChecker{name: "test", status: tt.status})

			req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
			w := httptest.NewRecorder()
			m.ServeReady(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var resp ReadinessResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.expectedReady, resp.Ready)
			assert.Equal(t, tt.status, resp.Checks["test"].Status)
		})
	}
}

func TestFuncChecker(t *testing.T) {
	c := NewFuncChecker("ffmpeg", func(context.Context) CheckResult {
		return CheckResult{Status: StatusDegraded, Message: "slow"}
	})
	assert.Equal(t, "ffmpeg", c.Name())
	assert.Equal(t, CheckResult{Status: StatusDegraded, Message: "slow"}, c.Check(context.Background()))
}

func TestDirChecker(t *testing.T) {
	ctx := context.Background()

	t.Run("writable", func(t *testing.T) {
		dir := t.TempDir()
		res := NewDirChecker("output_dir", staticDir(dir)).Check(ctx)
		assert.Equal(t, StatusHealthy, res.Status)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries, "probe file must be removed")
	})

	t.Run("missing", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "later")
		res := NewDirChecker("output_dir", staticDir(dir)).Check(ctx)
		assert.Equal(t, StatusDegraded, res.Status)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
		res := NewDirChecker("output_dir", staticDir(path)).Check(ctx)
		assert.Equal(t, StatusUnhealthy, res.Status)
		assert.Equal(t, "expected directory, got file", res.Error)
	})

	t.Run("unset", func(t *testing.T) {
		res := NewDirChecker("output_dir", staticDir("")).Check(ctx)
		assert.Equal(t, StatusUnhealthy, res.Status)
	})

	t.Run("follows resolver", func(t *testing.T) {
		dir := t.TempDir()
		current := filepath.Join(dir, "missing")
		c := NewDirChecker("output_dir", func(context.Context) string { return current })
		assert.Equal(t, StatusDegraded, c.Check(ctx).Status)
		current = dir
		assert.Equal(t, StatusHealthy, c.Check(ctx).Status)
	})
}
