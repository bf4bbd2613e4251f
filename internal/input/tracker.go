// Package input turns physical key transitions into lane presses and releases.
package input

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"git.lost.host/meutraa/lanes/internal/clock"
	"git.lost.host/meutraa/lanes/internal/game"
	"github.com/sirupsen/logrus"
)

var ErrOutOfRange = errors.New("input for an unbound lane")

// RawEvent is a physical transition as reported by an input source
type RawEvent struct {
	Binding    game.Binding
	Transition game.Transition
}

type Lane struct {
	Column           int
	Binding          game.Binding
	Pressed          bool
	LastTransitionAt time.Duration
}

type stamped struct {
	column     int
	transition game.Transition
	at         time.Duration
	paused     bool // Arrived while the clock was paused, never judged
}

type pauser interface {
	Paused() bool
}

// Tracker buffers transitions as they arrive, from any goroutine, and hands
// them to the update loop once per tick.
type Tracker struct {
	clock   clock.Reader
	log     logrus.FieldLogger
	columns map[game.Binding]int

	mu     sync.Mutex
	buffer []stamped

	// Only touched by Drain
	lanes []Lane
}

func NewTracker(clk clock.Reader, bindings []game.Binding, log logrus.FieldLogger) (*Tracker, error) {
	t := &Tracker{
		clock:   clk,
		log:     log,
		columns: make(map[game.Binding]int, len(bindings)),
		lanes:   make([]Lane, len(bindings)),
	}
	for i, b := range bindings {
		if _, ok := t.columns[b]; ok {
			return nil, fmt.Errorf("binding %q is used by more than one lane", b)
		}
		t.columns[b] = i
		t.lanes[i] = Lane{Column: i, Binding: b}
	}
	return t, nil
}

// Push stamps the event with the clock and buffers it
func (t *Tracker) Push(ev RawEvent) error {
	column, ok := t.columns[ev.Binding]
	if !ok {
		t.log.WithField("binding", ev.Binding).Debug(ErrOutOfRange)
		return ErrOutOfRange
	}

	paused := false
	if p, ok := t.clock.(pauser); ok {
		paused = p.Paused()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	// Stamped under the lock so the buffer stays in time order
	t.buffer = append(t.buffer, stamped{column: column, transition: ev.Transition, at: t.clock.Now(), paused: paused})
	return nil
}

// Listen pushes every event from the channel until it closes or ctx ends
func (t *Tracker) Listen(ctx context.Context, events <-chan RawEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			t.Push(ev)
		}
	}
}

// Drain returns the transitions that happened at or before now, in arrival
// order. Presses of a pressed lane and releases of a released lane are dropped.
// Transitions made while the clock was paused only change the lane state.
func (t *Tracker) Drain(now time.Duration) []game.LaneEvent {
	t.mu.Lock()
	n := 0
	for n < len(t.buffer) && t.buffer[n].at <= now {
		n++
	}
	due := make([]stamped, n)
	copy(due, t.buffer[:n])
	t.buffer = append(t.buffer[:0], t.buffer[n:]...)
	t.mu.Unlock()

	events := []game.LaneEvent{}
	for _, s := range due {
		lane := &t.lanes[s.column]
		pressed := s.transition == game.Press
		if lane.Pressed == pressed {
			continue
		}
		lane.Pressed = pressed
		lane.LastTransitionAt = s.at
		if s.paused {
			continue
		}
		events = append(events, game.LaneEvent{Column: s.column, Transition: s.transition, At: s.at})
	}
	return events
}

// Lanes returns a copy of the current lane state
func (t *Tracker) Lanes() []Lane {
	lanes := make([]Lane, len(t.lanes))
	copy(lanes, t.lanes)
	return lanes
}
