// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ffmpeg

import (
	"context"
	"errors"
	"os"
	"slices"
	"sync"
	"sync/atomic"
)

type fakeProcess struct {
	pid  int
	args []string

	quitOnQ  bool
	writeErr error

	mu     sync.Mutex
	input  []byte
	killed atomic.Bool

	once sync.Once
	done chan struct{}
	err  error
}

func newFakeProcess(pid int, args []string) *fakeProcess {
	return &fakeProcess{pid: pid, args: args, quitOnQ: true, done: make(chan struct{})}
}

func (p *fakeProcess) Pid() int { return p.pid }

func (p *fakeProcess) WriteInput(b []byte) error {
	if p.writeErr != nil {
		return p.writeErr
	}
	p.mu.Lock()
	p.input = append(p.input, b...)
	p.mu.Unlock()
	if p.quitOnQ && slices.Contains(b, 'q') {
		p.exit(nil)
	}
	return nil
}

func (p *fakeProcess) Kill() error {
	p.killed.Store(true)
	p.exit(errors.New("signal: killed"))
	return nil
}

func (p *fakeProcess) Done() <-chan struct{} { return p.done }

func (p *fakeProcess) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

func (p *fakeProcess) StderrTail(int) []string { return []string{"fake stderr"} }

func (p *fakeProcess) exit(err error) {
	p.once.Do(func() {
		p.err = err
		close(p.done)
	})
}

func (p *fakeProcess) Input() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return string(p.input)
}

// fakeExecutor records spawns. Capture processes create their output file on
// spawn; concat processes write the merged file and exit immediately.
type fakeExecutor struct {
	mu       sync.Mutex
	procs    []*fakeProcess
	spawnErr error
	ignoreQ  bool
	concatRC error
	noOutput bool // capture processes write nothing
}

func (e *fakeExecutor) Spawn(_ context.Context, _ string, args []string) (Process, error) {
	if e.spawnErr != nil {
		return nil, e.spawnErr
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	p := newFakeProcess(1000+len(e.procs), args)
	p.quitOnQ = !e.ignoreQ
	e.procs = append(e.procs, p)

	if slices.Contains(args, "concat") {
		out := args[len(args)-1]
		if e.concatRC == nil {
			_ = os.WriteFile(out, []byte("merged"), 0o600)
		}
		p.exit(e.concatRC)
		return p, nil
	}
	if !e.noOutput {
		_ = os.WriteFile(outputArg(args), []byte("frames"), 0o600)
	}
	return p, nil
}

func (e *fakeExecutor) Procs() []*fakeProcess {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.procs)
}

// outputArg returns the output path of a capture argument vector, which is
// followed by "-hide_banner -loglevel error".
func outputArg(args []string) string {
	return args[len(args)-4]
}
