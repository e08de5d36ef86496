// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ffmpeg

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/ManuGH/flashscreen/internal/recording"
)

// Platform selects the desktop grab and audio input devices.
type Platform string

const (
	PlatformWindows Platform = "windows"
	PlatformLinux   Platform = "linux"
	PlatformDarwin  Platform = "darwin"
)

// DefaultPlatform maps the running OS to a capture platform.
func DefaultPlatform() Platform {
	switch runtime.GOOS {
	case "windows":
		return PlatformWindows
	case "darwin":
		return PlatformDarwin
	default:
		return PlatformLinux
	}
}

// AudioDevices names the capture devices used for the audio stanzas.
// Empty fields fall back to the platform default.
type AudioDevices struct {
	SystemAudio string
	Microphone  string
}

// ArgsSpec is everything the argument builder needs. BuildCaptureArgs is a
// pure function of it.
type ArgsSpec struct {
	Platform   Platform
	Display    string // X11 display (linux only, default ":0.0")
	Mode       recording.Mode
	Region     *recording.Region
	Sources    recording.Sources
	Resolution string
	FrameRate  uint32
	Audio      AudioDevices
	OutputPath string
}

// Fixed encoder settings tuned for real-time capture.
const (
	videoCodec   = "libx264"
	videoPreset  = "ultrafast"
	videoTune    = "zerolatency"
	videoCRF     = "23"
	audioCodec   = "aac"
	audioBitrate = "128k"
	containerFmt = "mp4"
)

var scalePresets = map[string]string{
	"720p":  "scale=1280:720",
	"1080p": "scale=1920:1080",
	"1440p": "scale=2560:1440",
	"4k":    "scale=3840:2160",
}

// ScaleFilter returns the scaling filter for a known resolution preset.
// Unknown or empty presets keep the native capture size.
func ScaleFilter(resolution string) (string, bool) {
	f, ok := scalePresets[strings.ToLower(strings.TrimSpace(resolution))]
	return f, ok
}

// BuildCaptureArgs constructs the ffmpeg argument vector for a screen capture.
// ffmpeg parses positionally: input options precede their -i, output options
// follow every input, and the output path is the last positional argument.
func BuildCaptureArgs(spec ArgsSpec) ([]string, error) {
	if spec.OutputPath == "" {
		return nil, fmt.Errorf("missing output path")
	}
	if spec.Mode == recording.ModeRegion {
		if spec.Region == nil {
			return nil, fmt.Errorf("%w: region mode requires a region", recording.ErrInvalidRegion)
		}
		if err := spec.Region.Validate(); err != nil {
			return nil, err
		}
	}
	if spec.Platform == "" {
		spec.Platform = DefaultPlatform()
	}
	frameRate := spec.FrameRate
	if frameRate == 0 {
		frameRate = 60
	}

	var args []string
	var filters []string

	// 1+2. Desktop input with frame rate and optional region.
	switch spec.Platform {
	case PlatformWindows:
		args = append(args, "-f", "gdigrab", "-framerate", strconv.FormatUint(uint64(frameRate), 10))
		if r := regionOf(spec); r != nil {
			args = append(args,
				"-offset_x", strconv.FormatInt(int64(r.X), 10),
				"-offset_y", strconv.FormatInt(int64(r.Y), 10),
				"-video_size", r.Size(),
			)
		}
		args = append(args, "-i", "desktop")
	case PlatformDarwin:
		args = append(args,
			"-f", "avfoundation",
			"-framerate", strconv.FormatUint(uint64(frameRate), 10),
			"-capture_cursor", "1",
			"-i", "1:none",
		)
		// avfoundation has no grab offset, crop after capture instead.
		if r := regionOf(spec); r != nil {
			filters = append(filters, fmt.Sprintf("crop=%d:%d:%d:%d", r.Width, r.Height, r.X, r.Y))
		}
	default:
		display := spec.Display
		if display == "" {
			display = ":0.0"
		}
		args = append(args, "-f", "x11grab", "-framerate", strconv.FormatUint(uint64(frameRate), 10))
		// Input options must precede -i to take effect.
		if r := regionOf(spec); r != nil {
			args = append(args,
				"-grab_x", strconv.FormatInt(int64(r.X), 10),
				"-grab_y", strconv.FormatInt(int64(r.Y), 10),
				"-video_size", r.Size(),
			)
		}
		args = append(args, "-i", display)
	}

	// 3. Audio inputs, system audio before microphone.
	audioInputs := 0
	devices := audioDefaults(spec.Platform, spec.Audio)
	if spec.Sources.SystemAudio {
		args = append(args, audioStanza(spec.Platform, devices.SystemAudio)...)
		audioInputs++
	}
	if spec.Sources.Microphone {
		args = append(args, audioStanza(spec.Platform, devices.Microphone)...)
		audioInputs++
	}
	// Default stream selection keeps a single audio stream, so map every
	// input explicitly once there is more than one.
	if audioInputs > 1 {
		args = append(args, "-map", "0:v")
		for i := 1; i <= audioInputs; i++ {
			args = append(args, "-map", fmt.Sprintf("%d:a", i))
		}
	}

	// 4. Video encoding.
	args = append(args,
		"-c:v", videoCodec,
		"-preset", videoPreset,
		"-tune", videoTune,
		"-crf", videoCRF,
	)

	// 5. Scaling.
	if f, ok := ScaleFilter(spec.Resolution); ok {
		filters = append(filters, f)
	}
	if len(filters) > 0 {
		args = append(args, "-vf", strings.Join(filters, ","))
	}

	// 6. Audio encoding.
	if audioInputs > 0 {
		args = append(args, "-c:a", audioCodec, "-b:a", audioBitrate)
	}

	// 7. Container and overwrite.
	args = append(args, "-f", containerFmt, "-movflags", "+faststart", "-y")

	// 8. Output path, then diagnostics flags.
	args = append(args, spec.OutputPath, "-hide_banner", "-loglevel", "error")

	return args, nil
}

// BuildConcatArgs builds the argument vector that joins segment files listed
// in listPath into outputPath without re-encoding.
func BuildConcatArgs(listPath, outputPath string) []string {
	return []string{
		"-hide_banner", "-loglevel", "error", "-nostdin",
		"-f", "concat", "-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-movflags", "+faststart",
		"-y", outputPath,
	}
}

func regionOf(spec ArgsSpec) *recording.Region {
	if spec.Mode != recording.ModeRegion {
		return nil
	}
	return spec.Region
}

func audioDefaults(p Platform, in AudioDevices) AudioDevices {
	var d AudioDevices
	switch p {
	case PlatformWindows:
		d = AudioDevices{SystemAudio: "audio=Stereo Mix", Microphone: "audio=Microphone"}
	case PlatformDarwin:
		d = AudioDevices{SystemAudio: ":BlackHole 2ch", Microphone: ":0"}
	default:
		d = AudioDevices{SystemAudio: "@DEFAULT_MONITOR@", Microphone: "default"}
	}
	if in.SystemAudio != "" {
		d.SystemAudio = in.SystemAudio
	}
	if in.Microphone != "" {
		d.Microphone = in.Microphone
	}
	return d
}

func audioStanza(p Platform, device string) []string {
	switch p {
	case PlatformWindows:
		return []string{"-f", "dshow", "-i", device}
	case PlatformDarwin:
		return []string{"-f", "avfoundation", "-i", device}
	default:
		return []string{"-f", "pulse", "-i", device}
	}
}
