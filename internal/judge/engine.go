// Package judge turns lane presses and releases into graded judgements.
package judge

import (
	"time"

	"git.lost.host/meutraa/lanes/internal/game"
	"git.lost.host/meutraa/lanes/internal/schedule"
	"git.lost.host/meutraa/lanes/internal/score"
	"github.com/sirupsen/logrus"
)

type Engine struct {
	sched   *schedule.Scheduler
	score   *score.State
	windows game.Windows
	log     logrus.FieldLogger

	// A press that matches no note resets the combo
	GhostTapBreaksCombo bool

	// Hold notes whose head was hit and whose key is still down
	holding   [game.Columns]*game.Note
	observers []func(game.Outcome)
}

func New(sched *schedule.Scheduler, state *score.State, windows game.Windows, log logrus.FieldLogger) *Engine {
	return &Engine{
		sched:   sched,
		score:   state,
		windows: windows,
		log:     log,
	}
}

// OnOutcome registers f to be called with every judgement after it is scored
func (e *Engine) OnOutcome(f func(game.Outcome)) {
	e.observers = append(e.observers, f)
}

// Holding returns the hold note currently held in a column
func (e *Engine) Holding(column int) *game.Note {
	return e.holding[column]
}

func (e *Engine) Apply(ev game.LaneEvent) {
	if ev.Column < 0 || ev.Column >= game.Columns {
		e.log.WithField("column", ev.Column).Warn("input for a lane that does not exist")
		return
	}
	switch ev.Transition {
	case game.Press:
		e.press(ev)
	case game.Release:
		e.release(ev)
	}
}

func (e *Engine) press(ev game.LaneEvent) {
	for _, n := range e.sched.Candidates(ev.Column) {
		offset := ev.At - n.HitTime
		if offset > e.windows.Bad {
			// Too late to hit, this one is left to expire
			continue
		}
		grade, ok := e.windows.Classify(offset)
		if !ok {
			// Too early, and every later note is further away
			break
		}
		e.resolve(n, game.Head, grade, offset, ev.At)
		if n.IsHold {
			e.holding[ev.Column] = n
		}
		return
	}

	e.log.WithFields(logrus.Fields{"column": ev.Column, "at": ev.At}).Debug("stray press")
	if e.GhostTapBreaksCombo {
		e.score.BreakCombo()
	}
}

func (e *Engine) release(ev game.LaneEvent) {
	n := e.holding[ev.Column]
	if nil == n {
		return
	}
	e.holding[ev.Column] = nil

	offset := ev.At - n.ReleaseDeadline()
	var grade game.Grade
	switch {
	case offset < -e.windows.Bad:
		// Let go early, the best it can be is bad
		grade = game.Bad
	case offset > e.windows.Bad:
		grade = game.Miss
	default:
		grade, _ = e.windows.Classify(offset)
	}
	e.resolve(n, game.Tail, grade, offset, ev.At)
}

// Expire misses every note end whose window closed before t
func (e *Engine) Expire(t time.Duration) {
	for _, x := range e.sched.Expire(t) {
		n := x.Note
		switch x.Part {
		case game.Head:
			e.resolve(n, game.Head, game.Miss, t-n.HitTime, t)
			if n.IsHold {
				// Nothing to hold if the head was never hit
				e.resolve(n, game.Tail, game.Miss, t-n.ReleaseDeadline(), t)
			}
		case game.Tail:
			if e.holding[n.Column] == n {
				e.holding[n.Column] = nil
			}
			e.resolve(n, game.Tail, game.Miss, t-n.ReleaseDeadline(), t)
		}
	}
}

func (e *Engine) resolve(n *game.Note, part game.Part, grade game.Grade, offset, at time.Duration) {
	n.Resolve(part, game.Resolution{Grade: grade, Offset: offset, At: at})

	o := game.Outcome{
		NoteID: n.ID,
		Column: n.Column,
		Part:   part,
		Grade:  grade,
		Offset: offset,
		At:     at,
	}
	e.score.Apply(o)
	for _, f := range e.observers {
		f(o)
	}

	kind := n.Kind()
	if part == game.Tail {
		kind = game.HoldTail
	}
	e.sched.Despawn(n, kind, at)

	e.log.WithFields(logrus.Fields{
		"note":   n.ID,
		"column": n.Column,
		"part":   part,
		"grade":  grade,
		"offset": offset,
	}).Debug("judged")
}
