// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ManuGH/flashscreen/internal/config"
	"github.com/ManuGH/flashscreen/internal/library"
	"github.com/ManuGH/flashscreen/internal/log"
	"github.com/ManuGH/flashscreen/internal/recording"
)

// errBadRequest marks malformed request bodies and parameters.
var errBadRequest = errors.New("bad request")

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

type errorMapping struct {
	err    error
	status int
	code   string
}

// First match wins.
var errorMappings = []errorMapping{
	{recording.ErrAlreadyRecording, http.StatusConflict, "already_recording"},
	{recording.ErrInvalidRegion, http.StatusBadRequest, "invalid_region"},
	{recording.ErrNotRecording, http.StatusConflict, "not_recording"},
	{recording.ErrContextUnavailable, http.StatusServiceUnavailable, "context_unavailable"},
	{recording.ErrSpawnFailed, http.StatusInternalServerError, "spawn_failed"},
	{recording.ErrSignalFailed, http.StatusInternalServerError, "signal_failed"},
	{recording.ErrConcatFailed, http.StatusInternalServerError, "concat_failed"},
	{recording.ErrOutputMissing, http.StatusInternalServerError, "output_missing"},
	{recording.ErrFilesystem, http.StatusInternalServerError, "filesystem"},
	{config.ErrInvalidConfig, http.StatusBadRequest, "invalid_settings"},
	{library.ErrNotFound, http.StatusNotFound, "not_found"},
	{library.ErrInvalidName, http.StatusBadRequest, "invalid_name"},
	{library.ErrOutsideDir, http.StatusBadRequest, "outside_output_dir"},
	{library.ErrExists, http.StatusConflict, "exists"},
	{errBadRequest, http.StatusBadRequest, "bad_request"},
}

func classify(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status and error code.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().Err(err).Str(log.FieldEvent, "api.error").Str("code", code).Msg("request failed")
	}
	writeJSON(w, status, ErrorResponse{
		Error:     err.Error(),
		Code:      code,
		RequestID: log.RequestIDFromContext(r.Context()),
	})
}

func writeErrorCode(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Code: code})
}
