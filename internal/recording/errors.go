// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package recording

import "errors"

// Error kinds returned by lifecycle operations. Callers match them with
// errors.Is; the wrapped message carries the detail.
var (
	ErrAlreadyRecording   = errors.New("recording already in progress")
	ErrContextUnavailable = errors.New("capture execution context not available")
	ErrSpawnFailed        = errors.New("failed to spawn capture process")
	ErrSignalFailed       = errors.New("failed to signal capture process")
	ErrFilesystem         = errors.New("filesystem operation failed")
	ErrInvalidRegion      = errors.New("invalid capture region")
	ErrNotRecording       = errors.New("no recording in progress")
	ErrConcatFailed       = errors.New("failed to merge recording segments")
	ErrOutputMissing      = errors.New("capture process produced no output")
)
