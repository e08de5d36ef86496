// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence.
type Loader struct {
	configPath      string
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a loader for configPath. An empty path means defaults
// and environment only.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath:      configPath,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// Path returns the settings file path.
func (l *Loader) Path() string {
	return l.configPath
}

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

// Load loads configuration with precedence ENV > file > defaults and
// validates the result. A missing file is not an error.
func (l *Loader) Load() (Settings, error) {
	cfg := Default()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return Settings{}, fmt.Errorf("load config file %s: %w", l.configPath, err)
			}
		}
	}

	l.mergeEnv(&cfg)

	if err := Validate(cfg); err != nil {
		return Settings{}, err
	}
	return cfg, nil
}

// loadFile decodes path on top of cfg with STRICT parsing. Unknown fields
// are fatal to prevent misconfiguration.
func (l *Loader) loadFile(path string, cfg *Settings) error {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- the settings path is provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return nil
}

func (l *Loader) mergeEnv(cfg *Settings) {
	cfg.Output.Directory = l.envString(EnvOutputDir, cfg.Output.Directory)
	cfg.Output.Resolution = l.envString(EnvResolution, cfg.Output.Resolution)
	if fps := l.envInt(EnvFrameRate, int(cfg.Output.FrameRate)); fps >= 0 {
		cfg.Output.FrameRate = uint32(fps) // #nosec G115 -- range checked by Validate
	}
	cfg.Server.Listen = l.envString(EnvListen, cfg.Server.Listen)
	cfg.Log.Level = l.envString(EnvLogLevel, cfg.Log.Level)
	cfg.FFmpeg.Bin = l.envString(EnvFFmpegBin, cfg.FFmpeg.Bin)
	cfg.FFmpeg.PauseMode = l.envString(EnvPauseMode, cfg.FFmpeg.PauseMode)
	cfg.DataDir = l.envString(EnvDataDir, cfg.DataDir)
}
