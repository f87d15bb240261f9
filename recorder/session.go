// Package recorder implements the bounded-duration capture session: an
// explicit Idle/Recording/Stopped state machine that owns one capture device
// handle and one ticker, and stops itself at the 20 second cap.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"masterboxer.com/project-spoque/clock"
	"masterboxer.com/project-spoque/models"
)

const (
	// MaxDuration is the hard ceiling on a single take.
	MaxDuration = 20 * time.Second

	// TickInterval is how often elapsed time advances.
	TickInterval = 100 * time.Millisecond

	maxTicks = int(MaxDuration / TickInterval)
)

var (
	// ErrPermissionDenied means the capture device was refused or missing.
	ErrPermissionDenied = errors.New("microphone permission denied")

	// ErrInvalidPhase is returned by Start outside the Idle phase.
	ErrInvalidPhase = errors.New("invalid recording phase")

	// ErrNoClip is returned when no finalized recording is available.
	ErrNoClip = errors.New("no finalized recording")
)

type Phase int

const (
	Idle Phase = iota
	Recording
	Stopped
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Device is the host capture capability.
type Device interface {
	// Acquire opens the device and returns a stream of encoded audio.
	// Closing the stream releases the device and must unblock a pending Read.
	Acquire(ctx context.Context) (io.ReadCloser, error)
}

// State is a point-in-time view of a session.
type State struct {
	Phase       Phase
	Elapsed     float64
	HasClip     bool
	PreviewPath string
}

type Option func(*Session)

// WithClock replaces the real clock, mainly for tests.
func WithClock(c clock.Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithPreviewDir makes Stop write the finalized clip to a temp file in dir
// so it can be played back locally. Reset and Close remove it.
func WithPreviewDir(dir string) Option {
	return func(s *Session) { s.previewDir = dir }
}

// WithAutoStop registers fn to run once each time the cap stops a take. It
// runs without the session lock held.
func WithAutoStop(fn func()) Option {
	return func(s *Session) { s.onAutoStop = fn }
}

// Session is a single recording surface. Start, Stop and Reset are expected
// to be issued sequentially by one owner; the ticker and device reader run
// on their own goroutines and serialize with the owner through mu.
type Session struct {
	device     Device
	clock      clock.Clock
	previewDir string
	onAutoStop func()

	mu      sync.Mutex
	phase   Phase
	ticks   int
	take    int
	stream  io.ReadCloser
	capture *capture
	ticker  clock.Ticker
	quit    chan struct{}
	clip    *Clip
}

func NewSession(device Device, opts ...Option) *Session {
	s := &Session{
		device: device,
		clock:  clock.Real(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start acquires the device and begins a new take from zero.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != Idle {
		return fmt.Errorf("start from %s: %w", s.phase, ErrInvalidPhase)
	}

	stream, err := s.device.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}

	s.take++
	s.ticks = 0
	s.clip = nil
	s.stream = stream
	s.capture = startCapture(stream)
	s.ticker = s.clock.NewTicker(TickInterval)
	s.quit = make(chan struct{})
	s.phase = Recording

	go s.runTicker(s.take, s.ticker, s.quit)
	return nil
}

// Stop finalizes the take. It is a no-op unless the session is recording.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != Recording {
		return
	}
	s.finishLocked()
}

// Reset discards the clip and preview and returns to Idle. A take still in
// progress is torn down and discarded. Safe to call repeatedly.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

// Close releases everything the session holds. Owners should defer it so
// the device is released even if they go away mid-recording.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resetLocked()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Phase:   s.phase,
		Elapsed: elapsedSeconds(s.ticks),
		HasClip: s.clip != nil,
	}
	if s.clip != nil {
		st.PreviewPath = s.clip.PreviewPath
	}
	return st
}

// Elapsed returns seconds recorded in the current take, in [0, 20].
func (s *Session) Elapsed() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return elapsedSeconds(s.ticks)
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Clip returns the finalized recording. It fails with ErrNoClip unless the
// session is stopped.
func (s *Session) Clip() (*Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != Stopped || s.clip == nil {
		return nil, fmt.Errorf("session is %s: %w", s.phase, ErrNoClip)
	}
	return s.clip, nil
}

func (s *Session) runTicker(take int, t clock.Ticker, quit <-chan struct{}) {
	for {
		select {
		case <-quit:
			return
		case <-t.C():
			if !s.tick(take) {
				return
			}
		}
	}
}

// tick advances elapsed time by one interval and reports whether the take
// is still running.
func (s *Session) tick(take int) bool {
	s.mu.Lock()
	if s.phase != Recording || take != s.take {
		s.mu.Unlock()
		return false
	}

	s.ticks++
	if s.ticks < maxTicks {
		s.mu.Unlock()
		return true
	}

	s.finishLocked()
	hook := s.onAutoStop
	s.mu.Unlock()

	log.Printf("[Recorder] take %d reached %.1fs cap, stopped", take, MaxDuration.Seconds())
	if hook != nil {
		hook()
	}
	return false
}

func (s *Session) finishLocked() {
	captured := s.capture
	if err := s.haltLocked(); err != nil {
		log.Printf("[Recorder] releasing device: %v", err)
	}
	if captured.err != nil {
		log.Printf("[Recorder] capture ended with error: %v", captured.err)
	}

	clip := &Clip{
		data:        captured.bytes(),
		ContentType: models.AudioContentType,
		Duration:    time.Duration(s.ticks) * TickInterval,
	}
	if s.previewDir != "" {
		path, err := writePreview(s.previewDir, clip.data)
		if err != nil {
			log.Printf("[Recorder] writing preview: %v", err)
		} else {
			clip.PreviewPath = path
		}
	}

	s.clip = clip
	s.phase = Stopped
}

// haltLocked stops the ticker and releases the device, waiting for the
// reader to drain. It leaves phase untouched.
func (s *Session) haltLocked() error {
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
	if s.quit != nil {
		close(s.quit)
		s.quit = nil
	}

	var err error
	if s.stream != nil {
		err = s.stream.Close()
		s.stream = nil
		<-s.capture.done
	}
	s.capture = nil
	return err
}

func (s *Session) resetLocked() error {
	var err error
	if s.phase == Recording {
		err = s.haltLocked()
	}
	if s.clip != nil && s.clip.PreviewPath != "" {
		if rmErr := os.Remove(s.clip.PreviewPath); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Printf("[Recorder] removing preview %s: %v", s.clip.PreviewPath, rmErr)
		}
	}
	s.clip = nil
	s.ticks = 0
	s.phase = Idle
	return err
}

func elapsedSeconds(ticks int) float64 {
	if ticks > maxTicks {
		ticks = maxTicks
	}
	return float64(ticks) / float64(time.Second/TickInterval)
}

func writePreview(dir string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, "spoque-preview-*.webm")
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
