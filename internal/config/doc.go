// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads, validates, persists and hot-reloads the recorder
// settings.
//
// Precedence is ENV > file > defaults. The YAML file is decoded strictly:
// unknown keys are rejected so typos fail loudly instead of silently
// falling back to defaults.
package config
