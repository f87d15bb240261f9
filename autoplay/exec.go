package autoplay

import (
	"errors"
	"log"
	"os"
	"os/exec"
	"sync"

	"masterboxer.com/project-spoque/models"
)

// ExecSource plays a clip through an external player process such as
// ffplay. Pause stops the process, so the next Play starts from the top.
type ExecSource struct {
	Name string
	Args []string

	mu  sync.Mutex
	cmd *exec.Cmd
}

// ExecFactory returns a Factory that runs name with args followed by the
// post's audio reference.
func ExecFactory(name string, args ...string) Factory {
	return func(post models.Post) Source {
		full := append(append([]string(nil), args...), post.AudioRef)
		return &ExecSource{Name: name, Args: full}
	}
}

// FFPlay is the default player: no window, exit at end of stream.
func FFPlay() Factory {
	return ExecFactory("ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet")
}

func (e *ExecSource) Play(onEnded func()) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cmd != nil {
		return nil
	}

	cmd := exec.Command(e.Name, e.Args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	e.cmd = cmd

	go func() {
		err := cmd.Wait()

		e.mu.Lock()
		natural := e.cmd == cmd
		if natural {
			e.cmd = nil
		}
		e.mu.Unlock()

		if !natural {
			return
		}
		var exitErr *exec.ExitError
		if err != nil && !errors.As(err, &exitErr) {
			log.Printf("[Autoplay] %s: %v", e.Name, err)
		}
		if onEnded != nil {
			onEnded()
		}
	}()
	return nil
}

func (e *ExecSource) Pause() {
	e.mu.Lock()
	cmd := e.cmd
	e.cmd = nil
	e.mu.Unlock()

	if cmd != nil && cmd.Process != nil {
		if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			log.Printf("[Autoplay] stopping %s: %v", e.Name, err)
		}
	}
}

func (e *ExecSource) Playing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cmd != nil
}
