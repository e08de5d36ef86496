// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldSessionID = "session_id"
	FieldRequestID = "request_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldPID       = "pid"
	FieldCommand   = "command"
	FieldExitCode  = "exit_code"

	// Capture fields
	FieldMode       = "mode"
	FieldResolution = "resolution"
	FieldFPS        = "fps"
	FieldSources    = "sources"
	FieldSegment    = "segment"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// Path fields
	FieldPath      = "path"
	FieldOutputDir = "output_dir"
)
