// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package recording

import "time"

// State is the mutable session record. OutputPath and StartTime are set
// exactly when Status is recording or paused.
type State struct {
	Status     Status
	Mode       Mode
	Region     *Region
	WindowID   *string
	Sources    Sources
	OutputPath *string
	StartTime  *time.Time
	SessionID  string
}

// NewState returns the idle default record.
func NewState() State {
	return State{Status: StatusIdle, Mode: ModeFullscreen}
}

// Reset returns the record to its idle default.
func (s *State) Reset() {
	*s = NewState()
}

// Begin moves the record into recording for a freshly started capture.
func (s *State) Begin(sessionID string, mode Mode, region *Region, windowID *string, sources Sources, outputPath string, now time.Time) {
	s.Status = StatusRecording
	s.Mode = mode
	s.Region = cloneRegion(region)
	s.WindowID = cloneString(windowID)
	s.Sources = sources
	s.OutputPath = &outputPath
	s.StartTime = &now
	s.SessionID = sessionID
}

// SetPaused flips between recording and paused. Other statuses are left alone.
func (s *State) SetPaused(paused bool) {
	switch {
	case paused && s.Status == StatusRecording:
		s.Status = StatusPaused
	case !paused && s.Status == StatusPaused:
		s.Status = StatusRecording
	}
}

// Consistent reports whether the output path / start time invariant holds.
func (s State) Consistent() bool {
	hasPath := s.OutputPath != nil
	hasStart := s.StartTime != nil
	if hasPath != hasStart {
		return false
	}
	return hasPath == s.Status.Active()
}

// Snapshot is the externally visible view of the session record.
type Snapshot struct {
	Status     Status  `json:"status"`
	Mode       Mode    `json:"mode"`
	Duration   uint64  `json:"duration"`
	Region     *Region `json:"region"`
	WindowID   *string `json:"windowId"`
	Sources    Sources `json:"sources"`
	OutputPath *string `json:"outputPath"`
	SessionID  string  `json:"sessionId,omitempty"`
}

// Snapshot copies the record and derives the elapsed duration in whole
// seconds. Duration is zero when no start time is recorded.
func (s State) Snapshot(now time.Time) Snapshot {
	var duration uint64
	if s.StartTime != nil {
		if d := now.Sub(*s.StartTime); d > 0 {
			duration = uint64(d / time.Second)
		}
	}
	return Snapshot{
		Status:     s.Status,
		Mode:       s.Mode,
		Duration:   duration,
		Region:     cloneRegion(s.Region),
		WindowID:   cloneString(s.WindowID),
		Sources:    s.Sources,
		OutputPath: cloneString(s.OutputPath),
		SessionID:  s.SessionID,
	}
}

func cloneRegion(r *Region) *Region {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
