// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ManuGH/flashscreen/internal/pipeline/exec/ffmpeg"
)

// scanDir lists finished recordings directly inside dir, newest first.
// Intermediate segment files are skipped. A missing directory yields an
// empty list.
func scanDir(dir string) ([]Recording, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read output directory: %w", err)
	}

	out := make([]Recording, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), ffmpeg.ContainerExt) || ffmpeg.IsSegmentFile(name) {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		out = append(out, Recording{
			Path:      filepath.Join(dir, name),
			Name:      name,
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Name > out[j].Name
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
