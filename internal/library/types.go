// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package library lists and manages finished recordings in the output
// directory and keeps a catalog of recorded sessions.
package library

import (
	"errors"
	"time"
)

var (
	ErrNotFound    = errors.New("recording not found")
	ErrInvalidName = errors.New("invalid recording name")
	ErrExists      = errors.New("recording already exists")
	ErrOutsideDir  = errors.New("path outside output directory")
)

// Outcome is how a cataloged session ended.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeCancelled Outcome = "cancelled"
	// OutcomeFailed marks a session whose capture process left no output.
	OutcomeFailed Outcome = "failed"
)

// Recording is one finished file in the output directory. Duration,
// resolution and frame rate come from the catalog when the file was
// recorded by this daemon; they are zero otherwise.
type Recording struct {
	Path       string    `json:"path"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	Duration   float64   `json:"duration"`
	Resolution string    `json:"resolution"`
	FrameRate  uint32    `json:"frameRate"`
	CreatedAt  time.Time `json:"createdAt"`
	SessionID  string    `json:"sessionId,omitempty"`
}

// Entry is a catalog row describing one recording session.
type Entry struct {
	SessionID  string
	Path       string
	Mode       string
	Resolution string
	FrameRate  uint32
	Duration   time.Duration
	Outcome    Outcome
	StartedAt  time.Time
	EndedAt    time.Time
}
