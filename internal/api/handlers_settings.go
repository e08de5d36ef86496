// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"
)

// OutputDirectoryResponse answers GET /settings/output-directory.
type OutputDirectoryResponse struct {
	Directory string `json:"directory"`
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.settings.Get())
}

// handlePutSettings applies the body on top of the current settings, so
// omitted sections keep their values, then validates and persists.
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	next := s.settings.Get()
	if err := decodeJSON(w, r, &next); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.settings.Update(r.Context(), next); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.settings.Get())
}

func (s *Server) handleOutputDirectory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, OutputDirectoryResponse{Directory: s.settings.Get().Output.Directory})
}
