// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package procgroup starts capture processes in their own process group so
// a force kill also reaps any helpers the encoder forked.
package procgroup

import (
	"errors"
	"os/exec"
	"syscall"
)

// ErrNotStarted is returned when signalling a command that was never started.
var ErrNotStarted = errors.New("process not started")

// ForceKill sends SIGKILL to the command's process group.
// A process that already exited is not an error.
func ForceKill(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return ErrNotStarted
	}
	return Kill(cmd, syscall.SIGKILL)
}
