// Package clocktest provides a manually driven clock for tests.
package clocktest

import (
	"sync"
	"time"

	"masterboxer.com/project-spoque/clock"
)

// Clock is a clock.Clock whose time only moves when told to and whose
// tickers only fire through Fire.
type Clock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*Ticker
}

// New returns a manual clock set to now.
func New(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *Clock) NewTicker(d time.Duration) clock.Ticker {
	t := &Ticker{
		Interval: d,
		ch:       make(chan time.Time),
		stopped:  make(chan struct{}),
	}
	c.mu.Lock()
	c.tickers = append(c.tickers, t)
	c.mu.Unlock()
	return t
}

// Tickers returns every ticker created so far, oldest first.
func (c *Clock) Tickers() []*Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Ticker, len(c.tickers))
	copy(out, c.tickers)
	return out
}

// Latest returns the most recently created ticker, or nil.
func (c *Clock) Latest() *Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.tickers) == 0 {
		return nil
	}
	return c.tickers[len(c.tickers)-1]
}

// Ticker is a manual ticker. Its channel is unbuffered so Fire returns only
// once a receiver has taken the tick.
type Ticker struct {
	Interval time.Duration

	ch       chan time.Time
	stopOnce sync.Once
	stopped  chan struct{}
}

func (t *Ticker) C() <-chan time.Time {
	return t.ch
}

func (t *Ticker) Stop() {
	t.stopOnce.Do(func() { close(t.stopped) })
}

// Stopped reports whether Stop has been called.
func (t *Ticker) Stopped() bool {
	select {
	case <-t.stopped:
		return true
	default:
		return false
	}
}

// Fire delivers one tick. It returns false without delivering if the ticker
// is stopped before anyone receives.
func (t *Ticker) Fire() bool {
	select {
	case <-t.stopped:
		return false
	default:
	}
	select {
	case t.ch <- time.Now():
		return true
	case <-t.stopped:
		return false
	}
}
