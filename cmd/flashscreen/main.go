// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command flashscreen runs the screen recorder daemon. "flashscreen ctl"
// drives a running daemon over its control API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ManuGH/flashscreen/internal/config"
	"github.com/ManuGH/flashscreen/internal/daemon"
	"github.com/ManuGH/flashscreen/internal/log"
	"github.com/ManuGH/flashscreen/internal/platform/paths"
	"github.com/ManuGH/flashscreen/internal/version"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "ctl" {
		os.Exit(runCtl(os.Args[2:]))
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to settings file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	// Safe defaults until the settings are loaded.
	log.Configure(log.Config{
		Level:   "info",
		Version: version.Version,
	})
	logger := log.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := daemon.Bootstrap(ctx, daemon.Options{
		Version:    version.Version,
		ConfigPath: resolveConfigPath(*configPath),
	})
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(log.FieldEvent, "startup.failed").
			Msg("failed to start daemon")
	}

	if err := app.Run(ctx); err != nil {
		logger.Error().Err(err).Str(log.FieldEvent, "daemon.failed").Msg("daemon exited with error")
		stop()
		os.Exit(1)
	}
}

// resolveConfigPath picks the settings file: -config, then
// FLASHSCREEN_CONFIG, then the per-user default.
func resolveConfigPath(flagValue string) string {
	if p := strings.TrimSpace(flagValue); p != "" {
		return p
	}
	if p := strings.TrimSpace(config.ParseString(config.EnvConfigPath, "")); p != "" {
		return p
	}
	return paths.DefaultConfigPath()
}
