// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"time"

	"github.com/ManuGH/flashscreen/internal/platform/paths"
)

const (
	DefaultResolution = "1080p"
	DefaultFrameRate  = 60
	DefaultFormat     = "mp4"
	DefaultListen     = "127.0.0.1:7878"
	DefaultRateLimit  = 120
	DefaultPauseMode  = "flag"
)

// Default returns the settings used when no file exists.
func Default() Settings {
	return Settings{
		Output: OutputSettings{
			Directory:  paths.DefaultOutputDir(),
			Resolution: DefaultResolution,
			FrameRate:  DefaultFrameRate,
			Format:     DefaultFormat,
		},
		Hotkeys: HotkeySettings{
			StartStop:    "F1",
			PauseResume:  "F2",
			Cancel:       "F3",
			ToggleCamera: "F4",
		},
		Recording: RecordingSettings{
			CountdownDuration: 3,
			CursorSmoothing:   true,
			PlayStartSound:    true,
			PlayEndSound:      true,
		},
		Camera: CameraSettings{
			Position: "bottom-right",
			Size:     150,
			Shape:    "circle",
		},
		General: GeneralSettings{
			Language:                  "zh-CN",
			MinimizeToTray:            true,
			ShowPreviewAfterRecording: true,
		},
		IsFirstLaunch: true,
		Server: ServerConfig{
			Listen:    DefaultListen,
			RateLimit: DefaultRateLimit,
		},
		FFmpeg: FFmpegConfig{
			Bin:                 "ffmpeg",
			GracefulStopTimeout: 500 * time.Millisecond,
			CancelCleanupDelay:  100 * time.Millisecond,
			PauseMode:           DefaultPauseMode,
		},
		Log: LogConfig{Level: "info"},
		Telemetry: TelemetryConfig{
			ServiceName:  "flashscreen",
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
		},
		DataDir: paths.DefaultDataDir(),
	}
}
