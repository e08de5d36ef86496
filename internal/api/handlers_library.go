// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/ManuGH/flashscreen/internal/library"
)

// RenameRequest is the body of POST /recordings/rename.
type RenameRequest struct {
	Path    string `json:"path"`
	NewName string `json:"newName"`
}

// RenameResponse carries the path after renaming.
type RenameResponse struct {
	Path string `json:"path"`
}

func (s *Server) handleListRecordings(w http.ResponseWriter, r *http.Request) {
	recs, err := s.lib.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if recs == nil {
		recs = []library.Recording{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleDeleteRecording(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSpace(r.URL.Query().Get("path"))
	if path == "" {
		writeError(w, r, fmt.Errorf("%w: missing path parameter", errBadRequest))
		return
	}
	if err := s.lib.Delete(r.Context(), path); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRenameRecording(w http.ResponseWriter, r *http.Request) {
	var req RenameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Path == "" || req.NewName == "" {
		writeError(w, r, fmt.Errorf("%w: path and newName are required", errBadRequest))
		return
	}
	path, err := s.lib.Rename(r.Context(), req.Path, req.NewName)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RenameResponse{Path: path})
}
