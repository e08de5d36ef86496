// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"net"
	"strings"

	"github.com/rs/zerolog"
)

// Validate checks the settings for consistency. All problems are reported
// at once, joined; each wraps ErrInvalidConfig.
func Validate(s Settings) error {
	var errs []error
	add := func(field string, value any, msg string) {
		errs = append(errs, &ValidationError{Field: field, Value: value, Message: msg})
	}

	if strings.TrimSpace(s.Output.Directory) == "" {
		add("output.directory", s.Output.Directory, "must not be empty")
	}
	if s.Output.FrameRate == 0 || s.Output.FrameRate > 240 {
		add("output.frame_rate", s.Output.FrameRate, "must be between 1 and 240")
	}
	if s.Output.Format != DefaultFormat {
		add("output.format", s.Output.Format, "only mp4 is supported")
	}
	if s.Recording.CountdownDuration > 60 {
		add("recording.countdown_duration", s.Recording.CountdownDuration, "must be at most 60 seconds")
	}
	if s.Camera.Size == 0 {
		add("camera.size", s.Camera.Size, "must be positive")
	}

	if _, _, err := net.SplitHostPort(s.Server.Listen); err != nil {
		add("server.listen", s.Server.Listen, "must be host:port")
	}
	if s.Server.RateLimit < 0 {
		add("server.rate_limit", s.Server.RateLimit, "must not be negative")
	}

	if strings.TrimSpace(s.FFmpeg.Bin) == "" {
		add("ffmpeg.bin", s.FFmpeg.Bin, "must not be empty")
	}
	if s.FFmpeg.GracefulStopTimeout < 0 {
		add("ffmpeg.graceful_stop_timeout", s.FFmpeg.GracefulStopTimeout, "must not be negative")
	}
	if s.FFmpeg.CancelCleanupDelay < 0 {
		add("ffmpeg.cancel_cleanup_delay", s.FFmpeg.CancelCleanupDelay, "must not be negative")
	}
	switch s.FFmpeg.PauseMode {
	case "flag", "segment":
	default:
		add("ffmpeg.pause_mode", s.FFmpeg.PauseMode, `must be "flag" or "segment"`)
	}

	if _, err := zerolog.ParseLevel(strings.ToLower(s.Log.Level)); err != nil {
		add("log.level", s.Log.Level, "unknown log level")
	}

	if s.Telemetry.Enabled {
		switch s.Telemetry.Exporter {
		case "grpc", "http":
		default:
			add("telemetry.exporter", s.Telemetry.Exporter, `must be "grpc" or "http"`)
		}
		if strings.TrimSpace(s.Telemetry.Endpoint) == "" {
			add("telemetry.endpoint", s.Telemetry.Endpoint, "required when telemetry is enabled")
		}
	}
	if s.Telemetry.SamplingRate < 0 || s.Telemetry.SamplingRate > 1 {
		add("telemetry.sampling_rate", s.Telemetry.SamplingRate, "must be between 0 and 1")
	}

	if strings.TrimSpace(s.DataDir) == "" {
		add("data_dir", s.DataDir, "must not be empty")
	}

	return errors.Join(errs...)
}
