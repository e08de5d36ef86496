// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"context"
	"net/http"

	"github.com/ManuGH/flashscreen/internal/health"
	"github.com/ManuGH/flashscreen/internal/log"
)

// FFmpegResponse answers GET /api/v1/ffmpeg.
type FFmpegResponse struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Path      string `json:"path,omitempty"`
}

// checkFFmpeg fails readiness when no encoder can be spawned.
func (s *Server) checkFFmpeg(ctx context.Context) health.CheckResult {
	res, err := s.probe(ctx, s.settings.Get().FFmpeg.Bin)
	if err != nil {
		return health.CheckResult{Status: health.StatusUnhealthy, Error: err.Error()}
	}
	return health.CheckResult{Status: health.StatusHealthy, Message: res.Version}
}

func (s *Server) handleFFmpeg(w http.ResponseWriter, r *http.Request) {
	res, err := s.probe(r.Context(), s.settings.Get().FFmpeg.Bin)
	if err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Debug().Err(err).Str(log.FieldEvent, "ffmpeg.unavailable").Msg("ffmpeg probe failed")
		writeJSON(w, http.StatusOK, FFmpegResponse{Available: false})
		return
	}
	writeJSON(w, http.StatusOK, FFmpegResponse{Available: true, Version: res.Version, Path: res.Path})
}
