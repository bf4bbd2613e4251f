// Package schedule moves notes through their lifetime as the clock advances.
//
// Notes are kept in hit time order and walked by two cursors: next is the
// first note that has not spawned, first is the first note that is not yet
// resolved. Every tick only looks at notes between the two plus those that
// are now due to spawn, so stopping the session is just a matter of no longer
// advancing the cursors.
package schedule

import (
	"time"

	"git.lost.host/meutraa/lanes/internal/game"
)

// Sink receives spawn and despawn events for note visuals
type Sink interface {
	Note(ev game.NoteEvent)
}

// Expiry is an end of a note whose judgement window has passed
type Expiry struct {
	Note *game.Note
	Part game.Part
}

type Scheduler struct {
	notes   []*game.Note
	windows game.Windows
	lead    time.Duration
	sink    Sink

	first, next int
	stopped     bool
}

// New schedules notes, which must be sorted by hit time
func New(notes []*game.Note, windows game.Windows, lead time.Duration, sink Sink) *Scheduler {
	return &Scheduler{
		notes:   notes,
		windows: windows,
		lead:    lead,
		sink:    sink,
	}
}

func (s *Scheduler) emit(n *game.Note, kind game.Kind, action game.Action, t, fall time.Duration) {
	if nil == s.sink {
		return
	}
	s.sink.Note(game.NoteEvent{
		NoteID: n.ID,
		Column: n.Column,
		Kind:   kind,
		Action: action,
		At:     t,
		Fall:   fall,
	})
}

// advance slides the start of the active window past resolved notes
func (s *Scheduler) advance() {
	for s.first < s.next && s.notes[s.first].Resolved() {
		s.first++
	}
}

// Spawn activates every note whose spawn time has been reached
func (s *Scheduler) Spawn(t time.Duration) {
	if s.stopped {
		return
	}
	s.advance()

	for s.next < len(s.notes) {
		n := s.notes[s.next]
		if t < n.SpawnAt(s.lead) {
			break
		}
		n.Spawn()
		s.emit(n, n.Kind(), game.Spawn, t, n.HitTime-t)
		s.next++
	}

	// Tails of long holds enter the field after their heads
	for _, n := range s.notes[s.first:s.next] {
		if n.IsHold && !n.TailSpawned && !n.Resolved() && t >= n.TailSpawnAt(s.lead) {
			n.TailSpawned = true
			s.emit(n, game.HoldTail, game.Spawn, t, n.ReleaseDeadline()-t)
		}
	}
}

// Expire returns every unresolved end whose window closed before t.
// The caller is expected to resolve them.
func (s *Scheduler) Expire(t time.Duration) []Expiry {
	if s.stopped {
		return nil
	}
	s.advance()

	expiries := []Expiry{}
	for _, n := range s.notes[s.first:s.next] {
		if n.Resolved() {
			continue
		}
		if !n.Head.Done {
			if t > n.ExpireAt(s.windows) {
				expiries = append(expiries, Expiry{Note: n, Part: game.Head})
			}
			continue
		}
		if n.IsHold && !n.Tail.Done && t > n.TailExpireAt(s.windows) {
			expiries = append(expiries, Expiry{Note: n, Part: game.Tail})
		}
	}
	return expiries
}

// Candidates returns the spawned notes in a column whose head is not yet
// judged, earliest first
func (s *Scheduler) Candidates(column int) []*game.Note {
	candidates := []*game.Note{}
	for _, n := range s.notes[s.first:s.next] {
		if n.Column == column && !n.Head.Done {
			candidates = append(candidates, n)
		}
	}
	return candidates
}

// Despawn removes a visual that was previously spawned
func (s *Scheduler) Despawn(n *game.Note, kind game.Kind, t time.Duration) {
	if n.State == game.Pending || (kind == game.HoldTail && !n.TailSpawned) {
		return
	}
	s.emit(n, kind, game.Despawn, t, 0)
}

// Stop halts every future spawn and expiry
func (s *Scheduler) Stop() {
	s.stopped = true
}

func (s *Scheduler) Stopped() bool {
	return s.stopped
}

// Done reports whether every note has been resolved
func (s *Scheduler) Done() bool {
	s.advance()
	return s.first == len(s.notes)
}

// Active returns the notes between the two cursors and their indexes
func (s *Scheduler) Active() ([]*game.Note, int, int) {
	return s.notes[s.first:s.next], s.first, s.next
}

func (s *Scheduler) Windows() game.Windows {
	return s.windows
}
