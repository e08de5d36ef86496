// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// validate checks a flashscreen settings file without starting the daemon.
//
// Usage:
//
//	validate -f settings.yaml
//	validate --file settings.yaml
//
// Exit codes:
//   - 0: Configuration is valid
//   - 1: Configuration is invalid (parse or validation error)
//   - 2: Usage error (missing required flag)
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ManuGH/flashscreen/internal/config"
	"github.com/ManuGH/flashscreen/internal/log"
	"github.com/ManuGH/flashscreen/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var file string
	var showVersion bool

	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&file, "file", "", "path to YAML settings file")
	fs.StringVar(&file, "f", "", "path to YAML settings file (shorthand)")
	fs.BoolVar(&showVersion, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if showVersion {
		_, _ = fmt.Fprintln(stdout, version.String())
		return 0
	}

	if file == "" {
		_, _ = fmt.Fprintln(stderr, "Error: --file is required")
		_, _ = fmt.Fprintln(stderr, "")
		_, _ = fmt.Fprintln(stderr, "Usage:")
		_, _ = fmt.Fprintln(stderr, "  validate -f settings.yaml")
		_, _ = fmt.Fprintln(stderr, "  validate --file settings.yaml")
		return 2
	}

	// The loader treats a missing file as "defaults only".
	if _, err := os.Stat(file); err != nil {
		_, _ = fmt.Fprintf(stderr, "Configuration error in %s:\n  %v\n", file, err)
		return 1
	}

	log.Configure(log.Config{Level: "error", Output: io.Discard})

	// Strict YAML decode, environment overrides, then validation.
	if _, err := config.NewLoader(file).Load(); err != nil {
		kind := "Configuration"
		if errors.Is(err, config.ErrInvalidConfig) {
			kind = "Validation"
		}
		_, _ = fmt.Fprintf(stderr, "%s error in %s:\n  %v\n", kind, file, err)
		return 1
	}

	_, _ = fmt.Fprintf(stdout, "✓ %s is valid\n", file)
	return 0
}
