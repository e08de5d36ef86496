// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/ManuGH/flashscreen/internal/log"
	"github.com/ManuGH/flashscreen/internal/procgroup"
	"github.com/ManuGH/flashscreen/internal/recording"
)

// Process is a running external capture process.
type Process interface {
	Pid() int
	// WriteInput writes to the process's stdin (ffmpeg quits on "q").
	WriteInput(p []byte) error
	// Kill force-terminates the process. Killing an exited process is a no-op.
	Kill() error
	// Done is closed once the process has exited and been reaped.
	Done() <-chan struct{}
	// Err returns the exit error. Only meaningful after Done is closed.
	Err() error
	// StderrTail returns the last n lines the process wrote to stderr.
	StderrTail(n int) []string
}

// Executor is the execution context able to spawn capture processes.
type Executor interface {
	Spawn(ctx context.Context, name string, args []string) (Process, error)
}

// LocalExecutor spawns processes on the local machine in their own process group.
type LocalExecutor struct {
	// RingSize is the number of stderr lines kept per process.
	RingSize int
}

// NewLocalExecutor returns an executor backed by os/exec.
func NewLocalExecutor() *LocalExecutor {
	return &LocalExecutor{RingSize: 256}
}

// Spawn starts name with args. The process outlives ctx: its lifetime is
// owned by the Recorder, ctx only scopes logging.
func (e *LocalExecutor) Spawn(ctx context.Context, name string, args []string) (Process, error) {
	logger := log.WithComponentFromContext(ctx, "ffmpeg")

	cmd := exec.Command(name, args...) // #nosec G204 -- args are built by BuildCaptureArgs, no shell
	procgroup.Set(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdin pipe: %w", recording.ErrSpawnFailed, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stderr pipe: %w", recording.ErrSpawnFailed, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %w", recording.ErrSpawnFailed, err)
	}

	p := &localProcess{
		cmd:   cmd,
		stdin: stdin,
		ring:  NewLineRing(e.RingSize),
		done:  make(chan struct{}),
	}
	go p.supervise(stderr)

	logger.Debug().
		Int(log.FieldPID, cmd.Process.Pid).
		Str(log.FieldCommand, cmd.String()).
		Msg("spawned capture process")

	return p, nil
}

type localProcess struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	ring  *LineRing

	inMu sync.Mutex
	done chan struct{}
	err  error
}

// supervise drains stderr to EOF before reaping; exec.Cmd.Wait must not
// race the pipe reader.
func (p *localProcess) supervise(stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		_, _ = p.ring.Write(scanner.Bytes())
	}
	p.err = p.cmd.Wait()
	close(p.done)
}

func (p *localProcess) Pid() int {
	return p.cmd.Process.Pid
}

func (p *localProcess) WriteInput(b []byte) error {
	p.inMu.Lock()
	defer p.inMu.Unlock()
	select {
	case <-p.done:
		return errProcessExited
	default:
	}
	_, err := p.stdin.Write(b)
	return err
}

func (p *localProcess) Kill() error {
	select {
	case <-p.done:
		return nil
	default:
	}
	return procgroup.ForceKill(p.cmd)
}

func (p *localProcess) Done() <-chan struct{} {
	return p.done
}

func (p *localProcess) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

func (p *localProcess) StderrTail(n int) []string {
	return p.ring.LastN(n)
}

var errProcessExited = errors.New("process already exited")

// exitCode extracts the process exit code from a wait error.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
