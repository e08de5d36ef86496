// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ManuGH/flashscreen/internal/recording"
	"github.com/ManuGH/flashscreen/internal/session"
)

const maxBodyBytes = 1 << 20

// OutputPathResponse answers start and stop.
type OutputPathResponse struct {
	OutputPath string `json:"outputPath"`
}

// decodeJSON decodes the request body into v. An empty body leaves v
// untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.State(r.Context()))
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req session.StartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Mode != "" {
		mode, err := recording.ParseMode(string(req.Mode))
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: %w", errBadRequest, err))
			return
		}
		req.Mode = mode
	}

	// A lifecycle transition must not be torn down halfway by a client
	// hanging up.
	path, err := s.ctrl.Start(context.WithoutCancel(r.Context()), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, OutputPathResponse{OutputPath: path})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	path, err := s.ctrl.Stop(context.WithoutCancel(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, OutputPathResponse{OutputPath: path})
}

// lifecycle adapts a controller operation without a result to a handler
// answering 204.
func (s *Server) lifecycle(op func(Controller, context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := op(s.ctrl, context.WithoutCancel(r.Context())); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
