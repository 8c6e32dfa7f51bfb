package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
)

const lineQueueSize = 1024

// Transport is a line-oriented channel to an engine worker.
type Transport interface {
	Send(cmd string) error
	// Lines is closed when the worker stops producing output.
	Lines() <-chan string
	// Err reports why Lines was closed, nil on a clean exit.
	Err() error
	Close(ctx context.Context) error
}

// Launcher starts a new worker.
type Launcher func(ctx context.Context) (Transport, error)

// Process runs a UCI engine binary as a child process.
type Process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser

	lines    chan string
	waitDone chan struct{}

	errMu sync.Mutex
	err   error

	closeOnce sync.Once
	alive     atomic.Bool
}

// Stockfish returns a Launcher for the binary at path, or "stockfish" on PATH.
func Stockfish(path string) Launcher {
	return func(ctx context.Context) (Transport, error) {
		return StartProcess(ctx, path)
	}
}

func resolveBinaryPath(configured string) (string, error) {
	trimmed := strings.TrimSpace(configured)
	if trimmed != "" {
		if found, err := exec.LookPath(trimmed); err == nil {
			return found, nil
		}
		return "", fmt.Errorf("engine binary not found at %q", trimmed)
	}
	found, err := exec.LookPath("stockfish")
	if err != nil {
		return "", fmt.Errorf("stockfish binary not found in PATH")
	}
	return found, nil
}

func StartProcess(ctx context.Context, path string) (*Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, &TransportError{Op: "start process", Err: err}
	}
	bin, err := resolveBinaryPath(path)
	if err != nil {
		return nil, &TransportError{Op: "resolve binary", Err: err}
	}

	cmd := exec.Command(bin)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &TransportError{Op: "stdin pipe", Err: err}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &TransportError{Op: "stdout pipe", Err: err}
	}
	cmd.Stderr = io.Discard

	if err := cmd.Start(); err != nil {
		return nil, &TransportError{Op: "start process", Err: err}
	}

	p := &Process{
		cmd:      cmd,
		stdin:    stdin,
		stdout:   stdout,
		lines:    make(chan string, lineQueueSize),
		waitDone: make(chan struct{}),
	}
	p.alive.Store(true)

	go p.readLoop()
	return p, nil
}

func (p *Process) readLoop() {
	defer close(p.lines)
	scanner := bufio.NewScanner(p.stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		p.lines <- strings.TrimSpace(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		p.setErr(&TransportError{Op: "read output", Err: err})
	}

	err := p.cmd.Wait()
	p.alive.Store(false)
	if err != nil {
		p.setErr(&TransportError{Op: "wait process", Err: err})
	}
	close(p.waitDone)
}

func (p *Process) Send(cmd string) error {
	if !p.alive.Load() {
		return ErrEngineStopped
	}
	if _, err := io.WriteString(p.stdin, cmd+"\n"); err != nil {
		p.alive.Store(false)
		return &TransportError{Op: "write command", Err: err}
	}
	return nil
}

func (p *Process) Lines() <-chan string {
	return p.lines
}

func (p *Process) Err() error {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	return p.err
}

func (p *Process) setErr(err error) {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	if p.err == nil {
		p.err = err
	}
}

// Close asks the engine to quit and kills it if it is still running when ctx
// is done.
func (p *Process) Close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var closeErr error
	p.closeOnce.Do(func() {
		_ = p.Send("quit")
		_ = p.stdin.Close()

		select {
		case <-p.waitDone:
		case <-ctx.Done():
			if p.cmd.Process != nil {
				if err := p.cmd.Process.Kill(); err != nil {
					closeErr = &TransportError{Op: "kill process", Err: err}
				}
			}
			// drain so readLoop can reach Wait
			go func() {
				for range p.lines {
				}
			}()
			<-p.waitDone
		}
		p.alive.Store(false)
	})
	return closeErr
}
