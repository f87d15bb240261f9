package recorder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"
)

// FileDevice captures from an existing file or named pipe.
type FileDevice struct {
	Path string
}

func (d FileDevice) Acquire(ctx context.Context) (io.ReadCloser, error) {
	f, err := os.Open(d.Path)
	if err != nil {
		return nil, fmt.Errorf("open capture source: %w", err)
	}
	return f, nil
}

// killGrace is how long a capture command gets to flush after an interrupt.
const killGrace = 2 * time.Second

// CommandDevice captures the stdout of an external recorder, for example
// ffmpeg reading the default microphone and writing webm to stdout.
type CommandDevice struct {
	Name string
	Args []string
}

func (d CommandDevice) Acquire(ctx context.Context) (io.ReadCloser, error) {
	path, err := exec.LookPath(d.Name)
	if err != nil {
		return nil, fmt.Errorf("capture command %q: %w", d.Name, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("capture pipe: %w", err)
	}

	cmd := exec.Command(path, d.Args...)
	cmd.Stdout = pw
	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return nil, fmt.Errorf("start capture command: %w", err)
	}
	pw.Close()

	return &commandStream{cmd: cmd, out: pr}, nil
}

// commandStream keeps reading until the command exits so data flushed on
// interrupt is not lost.
type commandStream struct {
	cmd *exec.Cmd
	out *os.File

	closeOnce sync.Once
	closeErr  error
}

func (c *commandStream) Read(p []byte) (int, error) {
	n, err := c.out.Read(p)
	if err != nil {
		c.out.Close()
	}
	return n, err
}

// Close interrupts the command and waits for it, killing it after killGrace.
func (c *commandStream) Close() error {
	c.closeOnce.Do(func() {
		if err := c.cmd.Process.Signal(os.Interrupt); err != nil && !errors.Is(err, os.ErrProcessDone) {
			c.cmd.Process.Kill()
		}

		done := make(chan error, 1)
		go func() { done <- c.cmd.Wait() }()

		select {
		case err := <-done:
			c.closeErr = ignoreExit(err)
		case <-time.After(killGrace):
			c.cmd.Process.Kill()
			c.closeErr = ignoreExit(<-done)
		}
	})
	return c.closeErr
}

// ignoreExit drops the non-zero exit status recorders report when
// interrupted.
func ignoreExit(err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}
