// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrNotInstalled is returned by Probe when the ffmpeg binary cannot run.
var ErrNotInstalled = errors.New("ffmpeg not installed")

const probeTimeout = 5 * time.Second

// ProbeResult describes an installed ffmpeg.
type ProbeResult struct {
	Path    string `json:"path"`
	Version string `json:"version"`
}

// Probe runs "<bin> -version" and reports the first line of its output.
func Probe(ctx context.Context, bin string) (ProbeResult, error) {
	if bin == "" {
		bin = "ffmpeg"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("%w: %w", ErrNotInstalled, err)
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, path, "-version").Output() // #nosec G204
	if err != nil {
		return ProbeResult{}, fmt.Errorf("%w: %w", ErrNotInstalled, err)
	}
	return ProbeResult{Path: path, Version: parseVersion(string(out))}, nil
}

// parseVersion extracts "6.1.1" from "ffmpeg version 6.1.1 Copyright ...".
func parseVersion(out string) string {
	line, _, _ := strings.Cut(out, "\n")
	fields := strings.Fields(line)
	for i, f := range fields {
		if f == "version" && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	return strings.TrimSpace(line)
}
