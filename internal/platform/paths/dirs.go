// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package paths resolves the per-user directories the recorder writes to.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// AppDirName is the directory created under the user's videos, config and
// data locations.
const AppDirName = "FlashScreen"

// VideosDir returns the user's videos directory: $XDG_VIDEOS_DIR when set,
// otherwise ~/Videos, falling back to the working directory.
func VideosDir() string {
	if dir := strings.TrimSpace(os.Getenv("XDG_VIDEOS_DIR")); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, "Videos")
}

// DefaultOutputDir is where recordings go unless configured otherwise.
func DefaultOutputDir() string {
	return filepath.Join(VideosDir(), AppDirName)
}

// DefaultConfigPath is the settings file location.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, strings.ToLower(AppDirName), "config.yaml")
}

// DefaultDataDir holds the catalog database.
func DefaultDataDir() string {
	if dir := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); dir != "" {
		return filepath.Join(dir, strings.ToLower(AppDirName))
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".", "data")
	}
	return filepath.Join(home, ".local", "share", strings.ToLower(AppDirName))
}
