// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/flashscreen/internal/recording"
	"github.com/ManuGH/flashscreen/internal/session"
)

type seenRequest struct {
	method string
	path   string
	body   string
}

// fakeDaemon answers like the control API and records what it got.
type fakeDaemon struct {
	mu   sync.Mutex
	seen []seenRequest
	fail bool
}

func (d *fakeDaemon) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	d.mu.Lock()
	d.seen = append(d.seen, seenRequest{r.Method, r.URL.Path, string(body)})
	fail := d.fail
	d.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if fail {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"start recording: recording already in progress","code":"already_recording"}`))
		return
	}
	switch r.URL.Path {
	case "/api/v1/recording/start", "/api/v1/recording/stop":
		_, _ = w.Write([]byte(`{"outputPath":"/videos/FlashScreen_20240102_030405.mp4"}`))
	case "/api/v1/recording":
		_, _ = w.Write([]byte(`{"status":"recording","mode":"fullscreen","duration":3,"region":null,"windowId":null,"sources":{"microphone":false,"systemAudio":false,"camera":false},"outputPath":"/videos/a.mp4"}`))
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func runCtlAgainst(t *testing.T, d *fakeDaemon, args ...string) (string, error) {
	t.Helper()
	srv := httptest.NewServer(d)
	t.Cleanup(srv.Close)

	var out bytes.Buffer
	cmd := newCtlCmd(&out)
	cmd.SetArgs(append([]string{"--addr", srv.URL}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCtlStart_BuildsRequest(t *testing.T) {
	d := &fakeDaemon{}
	out, err := runCtlAgainst(t, d, "start", "--mode", "region", "--region", "10,20,800,600", "--mic")
	require.NoError(t, err)
	assert.Equal(t, "/videos/FlashScreen_20240102_030405.mp4\n", out)

	require.Len(t, d.seen, 1)
	assert.Equal(t, http.MethodPost, d.seen[0].method)
	assert.Equal(t, "/api/v1/recording/start", d.seen[0].path)

	var req session.StartRequest
	require.NoError(t, json.Unmarshal([]byte(d.seen[0].body), &req))
	assert.Equal(t, recording.ModeRegion, req.Mode)
	require.NotNil(t, req.Region)
	assert.Equal(t, recording.Region{X: 10, Y: 20, Width: 800, Height: 600}, *req.Region)
	assert.True(t, req.Sources.Microphone)
	assert.False(t, req.Sources.SystemAudio)
	assert.Nil(t, req.WindowID)
}

func TestCtlStart_InvalidFlags(t *testing.T) {
	d := &fakeDaemon{}
	_, err := runCtlAgainst(t, d, "start", "--mode", "monitor")
	assert.Error(t, err)

	_, err = runCtlAgainst(t, d, "start", "--mode", "region", "--region", "1,2,0,4")
	assert.ErrorIs(t, err, recording.ErrInvalidRegion)
	assert.Empty(t, d.seen)
}

func TestCtlLifecycleCommands(t *testing.T) {
	for _, op := range []string{"pause", "resume", "cancel"} {
		t.Run(op, func(t *testing.T) {
			d := &fakeDaemon{}
			out, err := runCtlAgainst(t, d, op)
			require.NoError(t, err)
			assert.Empty(t, out)
			require.Len(t, d.seen, 1)
			assert.Equal(t, "/api/v1/recording/"+op, d.seen[0].path)
		})
	}
}

func TestCtlStopAndState(t *testing.T) {
	d := &fakeDaemon{}
	out, err := runCtlAgainst(t, d, "stop")
	require.NoError(t, err)
	assert.Equal(t, "/videos/FlashScreen_20240102_030405.mp4\n", out)

	out, err = runCtlAgainst(t, d, "state")
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "recording"`)
}

func TestCtl_SurfacesAPIError(t *testing.T) {
	d := &fakeDaemon{fail: true}
	_, err := runCtlAgainst(t, d, "start")
	require.Error(t, err)

	var apiErr *apiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "already_recording", apiErr.Code)
	assert.True(t, strings.HasSuffix(err.Error(), "(already_recording)"))
}

func TestParseRegion(t *testing.T) {
	r, err := parseRegion(" -5, 7 ,1920,1080")
	require.NoError(t, err)
	assert.Equal(t, recording.Region{X: -5, Y: 7, Width: 1920, Height: 1080}, r)

	for _, bad := range []string{"", "1,2,3", "a,b,c,d", "0,0,-1,10"} {
		_, err := parseRegion(bad)
		assert.Error(t, err, bad)
	}
}

func TestNewClient_AddsScheme(t *testing.T) {
	assert.Equal(t, "http://127.0.0.1:7878", newClient("127.0.0.1:7878", 0).base)
	assert.Equal(t, "https://host:1", newClient("https://host:1/", 0).base)
}
