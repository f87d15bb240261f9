package recorder

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"masterboxer.com/project-spoque/clock/clocktest"
)

// fakeDevice hands out io.Pipe streams and counts acquire/release pairs.
type fakeDevice struct {
	mu       sync.Mutex
	deny     error
	acquired int
	released int
	open     int
	maxOpen  int
	writers  []*io.PipeWriter
}

func (d *fakeDevice) Acquire(ctx context.Context) (io.ReadCloser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.deny != nil {
		return nil, d.deny
	}
	pr, pw := io.Pipe()
	d.acquired++
	d.open++
	if d.open > d.maxOpen {
		d.maxOpen = d.open
	}
	d.writers = append(d.writers, pw)
	return &fakeStream{PipeReader: pr, dev: d}, nil
}

// write pushes audio bytes into the most recent stream.
func (d *fakeDevice) write(t *testing.T, data string) {
	t.Helper()
	d.mu.Lock()
	pw := d.writers[len(d.writers)-1]
	d.mu.Unlock()
	_, err := pw.Write([]byte(data))
	require.NoError(t, err)
}

func (d *fakeDevice) counts() (acquired, released, open, maxOpen int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.acquired, d.released, d.open, d.maxOpen
}

type fakeStream struct {
	*io.PipeReader
	dev  *fakeDevice
	once sync.Once
}

func (s *fakeStream) Close() error {
	s.once.Do(func() {
		s.dev.mu.Lock()
		s.dev.released++
		s.dev.open--
		s.dev.mu.Unlock()
	})
	return s.PipeReader.Close()
}

func newTestSession(t *testing.T, opts ...Option) (*Session, *fakeDevice, *clocktest.Clock) {
	t.Helper()
	dev := &fakeDevice{}
	clk := clocktest.New(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	s := NewSession(dev, append([]Option{WithClock(clk)}, opts...)...)
	t.Cleanup(func() { s.Close() })
	return s, dev, clk
}

func TestSession_StartPermissionDenied(t *testing.T) {
	s, dev, _ := newTestSession(t)
	dev.deny = errors.New("NotAllowedError")

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, Idle, s.Phase())

	// recoverable by retrying
	dev.deny = nil
	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, Recording, s.Phase())
}

func TestSession_StartOnlyFromIdle(t *testing.T) {
	s, _, _ := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, s.Start(ctx))
	assert.ErrorIs(t, s.Start(ctx), ErrInvalidPhase)

	s.Stop()
	assert.ErrorIs(t, s.Start(ctx), ErrInvalidPhase)
}

func TestSession_TicksAdvanceElapsed(t *testing.T) {
	s, _, _ := newTestSession(t)
	require.NoError(t, s.Start(context.Background()))

	for i := 0; i < 35; i++ {
		require.True(t, s.tick(s.take))
	}
	assert.InDelta(t, 3.5, s.Elapsed(), 1e-9)
	assert.Equal(t, Recording, s.Phase())
}

func TestSession_AutoStopExactlyOnceAtCap(t *testing.T) {
	var fired int32
	s, dev, _ := newTestSession(t, WithAutoStop(func() { atomic.AddInt32(&fired, 1) }))
	require.NoError(t, s.Start(context.Background()))
	take := s.take

	for i := 1; i < maxTicks; i++ {
		require.True(t, s.tick(take), "tick %d", i)
		assert.LessOrEqual(t, s.Elapsed(), 20.0)
	}
	assert.Equal(t, Recording, s.Phase(), "must not stop before 20.0")
	assert.Equal(t, int32(0), atomic.LoadInt32(&fired))

	assert.False(t, s.tick(take))
	assert.Equal(t, Stopped, s.Phase())
	assert.Equal(t, 20.0, s.Elapsed())

	// late ticks from a jittery source are ignored
	for i := 0; i < 5; i++ {
		assert.False(t, s.tick(take))
	}
	assert.Equal(t, 20.0, s.Elapsed())
	assert.Equal(t, int32(1), atomic.LoadInt32(&fired))

	_, released, open, _ := dev.counts()
	assert.Equal(t, 1, released)
	assert.Equal(t, 0, open)
}

func TestSession_TickerDrivesCap(t *testing.T) {
	stopped := make(chan struct{})
	s, _, clk := newTestSession(t, WithAutoStop(func() { close(stopped) }))
	require.NoError(t, s.Start(context.Background()))

	ticker := clk.Latest()
	require.NotNil(t, ticker)
	assert.Equal(t, TickInterval, ticker.Interval)

	for i := 0; i < maxTicks; i++ {
		require.True(t, ticker.Fire())
	}

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("auto-stop did not fire")
	}
	assert.Equal(t, Stopped, s.Phase())
	assert.True(t, ticker.Stopped())
	assert.False(t, ticker.Fire())
}

func TestSession_StopFinalizesChunks(t *testing.T) {
	s, dev, _ := newTestSession(t)
	require.NoError(t, s.Start(context.Background()))

	dev.write(t, "chunk-1;")
	dev.write(t, "chunk-2")
	for i := 0; i < 50; i++ {
		s.tick(s.take)
	}
	s.Stop()

	clip, err := s.Clip()
	require.NoError(t, err)
	assert.Equal(t, "chunk-1;chunk-2", string(clip.Bytes()))
	assert.Equal(t, "audio/webm", clip.ContentType)
	assert.Equal(t, 5*time.Second, clip.Duration)

	acquired, released, open, _ := dev.counts()
	assert.Equal(t, 1, acquired)
	assert.Equal(t, 1, released)
	assert.Equal(t, 0, open)
}

func TestSession_StopIsIdempotent(t *testing.T) {
	s, dev, _ := newTestSession(t)

	s.Stop()
	assert.Equal(t, Idle, s.Phase())

	require.NoError(t, s.Start(context.Background()))
	s.Stop()
	s.Stop()
	assert.Equal(t, Stopped, s.Phase())

	_, released, _, _ := dev.counts()
	assert.Equal(t, 1, released)
}

func TestSession_ClipRequiresStopped(t *testing.T) {
	s, _, _ := newTestSession(t)
	_, err := s.Clip()
	assert.ErrorIs(t, err, ErrNoClip)

	require.NoError(t, s.Start(context.Background()))
	_, err = s.Clip()
	assert.ErrorIs(t, err, ErrNoClip)
}

func TestSession_ResetThenStartIsClean(t *testing.T) {
	s, dev, _ := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, s.Start(ctx))
	dev.write(t, "first take")
	for i := 0; i < 30; i++ {
		s.tick(s.take)
	}
	s.Stop()

	s.Reset()
	s.Reset()
	assert.Equal(t, State{Phase: Idle}, s.State())

	require.NoError(t, s.Start(ctx))
	assert.Equal(t, 0.0, s.Elapsed())
	assert.False(t, s.State().HasClip)

	dev.write(t, "second")
	s.Stop()
	clip, err := s.Clip()
	require.NoError(t, err)
	assert.Equal(t, "second", string(clip.Bytes()))
}

func TestSession_StaleTickerIgnoredAfterRestart(t *testing.T) {
	s, _, _ := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, s.Start(ctx))
	oldTake := s.take
	s.Stop()
	s.Reset()
	require.NoError(t, s.Start(ctx))

	assert.False(t, s.tick(oldTake))
	assert.Equal(t, 0.0, s.Elapsed())
}

func TestSession_CloseMidRecordingReleasesDevice(t *testing.T) {
	s, dev, clk := newTestSession(t)
	require.NoError(t, s.Start(context.Background()))
	ticker := clk.Latest()

	require.NoError(t, s.Close())
	assert.Equal(t, Idle, s.Phase())
	assert.True(t, ticker.Stopped())

	acquired, released, open, maxOpen := dev.counts()
	assert.Equal(t, 1, acquired)
	assert.Equal(t, 1, released)
	assert.Equal(t, 0, open)
	assert.Equal(t, 1, maxOpen)
}

func TestSession_OneDeviceHandleAcrossTakes(t *testing.T) {
	s, dev, _ := newTestSession(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Start(ctx))
		s.Stop()
		s.Reset()
	}

	acquired, released, open, maxOpen := dev.counts()
	assert.Equal(t, 5, acquired)
	assert.Equal(t, 5, released)
	assert.Equal(t, 0, open)
	assert.Equal(t, 1, maxOpen)
}

func TestSession_PreviewLifecycle(t *testing.T) {
	dir := t.TempDir()
	s, dev, _ := newTestSession(t, WithPreviewDir(dir))

	require.NoError(t, s.Start(context.Background()))
	dev.write(t, "preview me")
	s.Stop()

	path := s.State().PreviewPath
	require.NotEmpty(t, path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "preview me", string(data))

	s.Reset()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFileDevice_MissingSourceIsPermissionDenied(t *testing.T) {
	s := NewSession(FileDevice{Path: "/nonexistent/capture.webm"})
	defer s.Close()

	err := s.Start(context.Background())
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestCommandDevice_MissingBinary(t *testing.T) {
	_, err := CommandDevice{Name: "definitely-not-a-recorder-binary"}.Acquire(context.Background())
	assert.Error(t, err)
}

func TestNewClip_CopiesData(t *testing.T) {
	data := []byte("abc")
	clip := NewClip(data, "audio/webm", time.Second)
	data[0] = 'x'
	assert.Equal(t, "abc", string(clip.Bytes()))

	same, err := clip.Clip()
	require.NoError(t, err)
	assert.Same(t, clip, same)
}
