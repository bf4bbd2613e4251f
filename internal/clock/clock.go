// Package clock provides the single time source a play session is judged by.
package clock

import (
	"errors"
	"sync"
	"time"
)

var ErrArmed = errors.New("clock is already armed")

// Source returns the current instant. It must carry a monotonic reading,
// as time.Now does.
type Source func() time.Time

// Reader is the read only view of the clock handed to every component
type Reader interface {
	Now() time.Duration
}

// Clock measures time since audio playback position zero.
// Now is negative during the lead in.
type Clock struct {
	mu       sync.RWMutex
	src      Source
	zero     time.Time
	armed    bool
	paused   bool
	pausedAt time.Duration
}

func New(src Source) *Clock {
	if nil == src {
		src = time.Now
	}
	return &Clock{src: src}
}

// Arm anchors the clock so that Now is zero leadIn after now
func (c *Clock) Arm(now time.Time, leadIn time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.armed {
		return ErrArmed
	}
	c.zero = now.Add(leadIn)
	c.armed = true
	return nil
}

func (c *Clock) Armed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.armed
}

func (c *Clock) Now() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.armed {
		return 0
	}
	if c.paused {
		return c.pausedAt
	}
	return c.src().Sub(c.zero)
}

// Source returns the instant source the clock reads
func (c *Clock) Source() Source {
	return c.src
}

func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.armed || c.paused {
		return
	}
	c.pausedAt = c.src().Sub(c.zero)
	c.paused = true
}

// Resume continues from the paused position without a jump
func (c *Clock) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.paused {
		return
	}
	c.zero = c.src().Add(-c.pausedAt)
	c.paused = false
}

func (c *Clock) Paused() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.paused
}

// Manual is a Source that only moves when told to
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}
