package recorder

import (
	"bytes"
	"errors"
	"io"
	"os"
	"sync"
	"time"
)

// Clip is an immutable finalized recording.
type Clip struct {
	data []byte

	ContentType string
	Duration    time.Duration

	// PreviewPath is a local file holding the clip, if one was written.
	PreviewPath string
}

// NewClip wraps already-finalized audio, for example an upload from a client
// that recorded on its own. data is copied.
func NewClip(data []byte, contentType string, duration time.Duration) *Clip {
	return &Clip{
		data:        append([]byte(nil), data...),
		ContentType: contentType,
		Duration:    duration,
	}
}

// Clip returns c, so a finalized clip can stand in wherever a stopped
// session is accepted.
func (c *Clip) Clip() (*Clip, error) {
	return c, nil
}

func (c *Clip) Len() int {
	return len(c.data)
}

// Bytes returns a copy of the audio.
func (c *Clip) Bytes() []byte {
	return append([]byte(nil), c.data...)
}

func (c *Clip) Reader() io.Reader {
	return bytes.NewReader(c.data)
}

// capture drains a device stream into chunks on its own goroutine.
type capture struct {
	mu     sync.Mutex
	chunks [][]byte
	size   int

	err  error
	done chan struct{}
}

func startCapture(r io.Reader) *capture {
	c := &capture{done: make(chan struct{})}
	go c.run(r)
	return c
}

func (c *capture) run(r io.Reader) {
	defer close(c.done)

	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			c.mu.Lock()
			c.chunks = append(c.chunks, chunk)
			c.size += n
			c.mu.Unlock()
		}
		if err != nil {
			if !isClosed(err) {
				c.err = err
			}
			return
		}
	}
}

func (c *capture) bytes() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]byte, 0, c.size)
	for _, chunk := range c.chunks {
		out = append(out, chunk...)
	}
	return out
}

func isClosed(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, os.ErrClosed)
}
