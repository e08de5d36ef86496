// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

// Settings is the persisted settings document. The first six sections are
// user preferences; the rest configure the daemon.
type Settings struct {
	Output        OutputSettings    `yaml:"output" json:"output"`
	Hotkeys       HotkeySettings    `yaml:"hotkeys" json:"hotkeys"`
	Recording     RecordingSettings `yaml:"recording" json:"recording"`
	Camera        CameraSettings    `yaml:"camera" json:"camera"`
	General       GeneralSettings   `yaml:"general" json:"general"`
	IsFirstLaunch bool              `yaml:"is_first_launch" json:"is_first_launch"`

	Server    ServerConfig    `yaml:"server" json:"server"`
	FFmpeg    FFmpegConfig    `yaml:"ffmpeg" json:"ffmpeg"`
	Log       LogConfig       `yaml:"log" json:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry"`
	DataDir   string          `yaml:"data_dir" json:"data_dir"`
}

// OutputSettings controls where and how recordings are written.
type OutputSettings struct {
	Directory  string `yaml:"directory" json:"directory"`
	Resolution string `yaml:"resolution" json:"resolution"`
	FrameRate  uint32 `yaml:"frame_rate" json:"frame_rate"`
	Format     string `yaml:"format" json:"format"`
}

// HotkeySettings are the accelerators bound by the desktop shell.
type HotkeySettings struct {
	StartStop    string `yaml:"start_stop" json:"start_stop"`
	PauseResume  string `yaml:"pause_resume" json:"pause_resume"`
	Cancel       string `yaml:"cancel" json:"cancel"`
	ToggleCamera string `yaml:"toggle_camera" json:"toggle_camera"`
}

type RecordingSettings struct {
	ShowCountdown     bool   `yaml:"show_countdown" json:"show_countdown"`
	CountdownDuration uint32 `yaml:"countdown_duration" json:"countdown_duration"`
	CursorSmoothing   bool   `yaml:"cursor_smoothing" json:"cursor_smoothing"`
	HighlightClicks   bool   `yaml:"highlight_clicks" json:"highlight_clicks"`
	PlayStartSound    bool   `yaml:"play_start_sound" json:"play_start_sound"`
	PlayEndSound      bool   `yaml:"play_end_sound" json:"play_end_sound"`
}

type CameraSettings struct {
	DeviceID *string `yaml:"device_id" json:"device_id"`
	Position string  `yaml:"position" json:"position"`
	Size     uint32  `yaml:"size" json:"size"`
	Shape    string  `yaml:"shape" json:"shape"`
}

type GeneralSettings struct {
	Language                  string `yaml:"language" json:"language"`
	LaunchAtStartup           bool   `yaml:"launch_at_startup" json:"launch_at_startup"`
	MinimizeToTray            bool   `yaml:"minimize_to_tray" json:"minimize_to_tray"`
	ShowPreviewAfterRecording bool   `yaml:"show_preview_after_recording" json:"show_preview_after_recording"`
}

// ServerConfig configures the control API listener.
type ServerConfig struct {
	Listen string `yaml:"listen" json:"listen"`
	// RateLimit is the number of control requests allowed per client and minute.
	RateLimit int `yaml:"rate_limit" json:"rate_limit"`
}

// FFmpegConfig configures the capture process manager.
type FFmpegConfig struct {
	Bin                 string        `yaml:"bin" json:"bin"`
	GracefulStopTimeout time.Duration `yaml:"graceful_stop_timeout" json:"graceful_stop_timeout"`
	CancelCleanupDelay  time.Duration `yaml:"cancel_cleanup_delay" json:"cancel_cleanup_delay"`
	// PauseMode is "flag" (pause only marks the session) or "segment".
	PauseMode   string `yaml:"pause_mode" json:"pause_mode"`
	Display     string `yaml:"display" json:"display"`
	SystemAudio string `yaml:"system_audio_device" json:"system_audio_device"`
	Microphone  string `yaml:"microphone_device" json:"microphone_device"`
}

type LogConfig struct {
	Level string `yaml:"level" json:"level"`
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	ServiceName  string  `yaml:"service_name" json:"service_name"`
	Exporter     string  `yaml:"exporter" json:"exporter"` // "grpc" or "http"
	Endpoint     string  `yaml:"endpoint" json:"endpoint"`
	SamplingRate float64 `yaml:"sampling_rate" json:"sampling_rate"`
}
