// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package recording holds the in-memory session record of the recorder:
// lifecycle status, capture mode, region, sources and the timing marker
// used to derive elapsed duration. It performs no I/O.
package recording

import (
	"fmt"
	"strings"
)

// Status is the lifecycle status of the recording session.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusSelecting Status = "selecting"
	StatusCountdown Status = "countdown"
	StatusRecording Status = "recording"
	StatusPaused    Status = "paused"
	StatusEncoding  Status = "encoding"
	StatusPreview   Status = "preview"
)

// String returns the string representation of Status.
func (s Status) String() string {
	return string(s)
}

// Active reports whether a capture process is expected to exist.
func (s Status) Active() bool {
	return s == StatusRecording || s == StatusPaused
}

// Mode selects what part of the screen is captured.
type Mode string

const (
	ModeFullscreen Mode = "fullscreen"
	ModeWindow     Mode = "window"
	ModeRegion     Mode = "region"
)

// String returns the string representation of Mode.
func (m Mode) String() string {
	return string(m)
}

// ParseMode parses a capture mode name (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeFullscreen, "":
		return ModeFullscreen, nil
	case ModeWindow:
		return ModeWindow, nil
	case ModeRegion:
		return ModeRegion, nil
	}
	return "", fmt.Errorf("unknown capture mode %q", s)
}

// Region is a rectangular area of the desktop in screen coordinates.
type Region struct {
	X      int32  `json:"x"`
	Y      int32  `json:"y"`
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// Validate rejects zero-area regions.
func (r Region) Validate() error {
	if r.Width == 0 || r.Height == 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidRegion, r.Width, r.Height)
	}
	return nil
}

// Size formats the region as the capture size token ("800x600").
func (r Region) Size() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// Sources selects the optional inputs mixed into the capture.
type Sources struct {
	Microphone  bool `json:"microphone"`
	SystemAudio bool `json:"systemAudio"`
	Camera      bool `json:"camera"`
}

// HasAudio reports whether any audio input is enabled.
func (s Sources) HasAudio() bool {
	return s.Microphone || s.SystemAudio
}
