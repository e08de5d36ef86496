// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ffmpeg

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const (
	// FilePrefix starts every recording file name.
	FilePrefix = "FlashScreen"
	// ContainerExt is the extension of finished recordings.
	ContainerExt = ".mp4"

	timestampLayout = "20060102_150405"
)

var segmentSuffix = regexp.MustCompile(`\.part\d{3}\.mp4$`)

// OutputFilename returns "FlashScreen_YYYYMMDD_HHMMSS.mp4" for t in local time.
func OutputFilename(t time.Time) string {
	return FilePrefix + "_" + t.Local().Format(timestampLayout) + ContainerExt
}

// SegmentPath names the n-th segment belonging to a final output path.
func SegmentPath(outputPath string, n int) string {
	return fmt.Sprintf("%s.part%03d%s", strings.TrimSuffix(outputPath, ContainerExt), n, ContainerExt)
}

// IsSegmentFile reports whether name is an intermediate segment file.
func IsSegmentFile(name string) bool {
	return segmentSuffix.MatchString(filepath.Base(name))
}
