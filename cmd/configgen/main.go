// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// configgen renders the default settings as settings.example.yaml.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ManuGH/flashscreen/internal/config"
)

const defaultOutput = "settings.example.yaml"

const header = `# flashscreen settings
#
# Generated by cmd/configgen from the built-in defaults. Do not edit by hand.
# Every key is optional; omitted keys keep their default. Environment
# variables (FLASHSCREEN_*) override values from this file.

`

// Placeholders for machine-specific defaults.
const (
	exampleOutputDir = "/path/to/Videos/FlashScreen"
	exampleDataDir   = "/path/to/flashscreen-data"
)

var errStale = errors.New("generated example is out of date")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("configgen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	out := fs.String("o", defaultOutput, "output path, - for stdout")
	check := fs.Bool("check", false, "fail if the output file differs from the generated content")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	content, err := render()
	if err != nil {
		return fail(stderr, err)
	}

	switch {
	case *out == "-":
		_, err = stdout.Write(content)
	case *check:
		err = compare(*out, content)
	default:
		// #nosec G306 -- example file is meant to be world readable
		err = os.WriteFile(*out, content, 0o644)
	}
	if err != nil {
		return fail(stderr, err)
	}
	return 0
}

func fail(w io.Writer, err error) int {
	_, _ = fmt.Fprintf(w, "configgen: %v\n", err)
	return 1
}

func render() ([]byte, error) {
	s := config.Default()
	s.Output.Directory = exampleOutputDir
	s.DataDir = exampleDataDir

	var buf bytes.Buffer
	buf.WriteString(header)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("encode defaults: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("flush defaults: %w", err)
	}
	return buf.Bytes(), nil
}

func compare(path string, want []byte) error {
	got, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return err
	}
	if !bytes.Equal(got, want) {
		return fmt.Errorf("%w: run go run ./cmd/configgen", errStale)
	}
	return nil
}
