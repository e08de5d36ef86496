// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolveDataFilePath resolves a relative path inside the data directory
// while protecting against traversal and symlink escapes. With allowMissing
// the file need not exist; the data directory is then created.
func ResolveDataFilePath(dataDir, relPath string, allowMissing bool) (string, error) {
	clean := filepath.Clean(relPath)
	if filepath.IsAbs(clean) {
		return "", fmt.Errorf("data file path must be relative: %s", relPath)
	}
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("data file path contains traversal: %s", relPath)
	}

	root, err := filepath.Abs(dataDir)
	if err != nil {
		return "", fmt.Errorf("resolve data directory: %w", err)
	}
	if allowMissing {
		// #nosec G301
		if err := os.MkdirAll(root, 0o750); err != nil {
			return "", fmt.Errorf("create data directory: %w", err)
		}
	}
	resolvedRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		resolvedRoot = root
	}

	full := filepath.Join(resolvedRoot, clean)
	resolved := full
	info, statErr := os.Stat(full)
	switch {
	case statErr == nil:
		if info.IsDir() {
			return "", fmt.Errorf("data file path points to directory: %s", relPath)
		}
		if p, evalErr := filepath.EvalSymlinks(full); evalErr == nil {
			resolved = p
		}
	case !errors.Is(statErr, os.ErrNotExist):
		return "", fmt.Errorf("stat data file: %w", statErr)
	case !allowMissing:
		return "", fmt.Errorf("data file not found: %s", relPath)
	default:
		if realDir, evalErr := filepath.EvalSymlinks(filepath.Dir(full)); evalErr == nil {
			resolved = filepath.Join(realDir, filepath.Base(full))
		}
	}

	rel, err := filepath.Rel(resolvedRoot, resolved)
	if err != nil {
		return "", fmt.Errorf("resolve relative path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("data file escapes data directory: %s", relPath)
	}
	return resolved, nil
}
