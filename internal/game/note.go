package game

import (
	"errors"
	"fmt"
	"time"
)

// Columns is the number of lanes every chart is played on
const Columns = 4

// ErrInvariant marks a broken note state machine. It is only ever panicked with.
var ErrInvariant = errors.New("scheduler invariant violation")

type State uint8

const (
	Pending State = iota
	Spawned
	Judged
	Missed
)

var stateNames = [...]string{"Pending", "Spawned", "Judged", "Missed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Unknown"
}

type Part uint8

const (
	Head Part = iota
	Tail
)

func (p Part) String() string {
	if p == Tail {
		return "tail"
	}
	return "head"
}

// Resolution is the judgement given to one end of a note
type Resolution struct {
	Grade  Grade
	Offset time.Duration // Signed, negative is early
	At     time.Duration // Clock time the judgement was made at
	Done   bool
}

type Note struct {
	ID           int
	Column       int           // The chart column
	HitTime      time.Duration // The time the note should be hit
	IsHold       bool
	HoldDuration time.Duration // How long a hold must be held for, 0 for taps

	// This is state
	State       State
	Head        Resolution
	Tail        Resolution
	TailSpawned bool
}

// ReleaseDeadline is the time a hold note should be released
func (n *Note) ReleaseDeadline() time.Duration {
	return n.HitTime + n.HoldDuration
}

func (n *Note) SpawnAt(lead time.Duration) time.Duration {
	return n.HitTime - lead
}

func (n *Note) ExpireAt(w Windows) time.Duration {
	return n.HitTime + w.Miss
}

func (n *Note) TailSpawnAt(lead time.Duration) time.Duration {
	return n.ReleaseDeadline() - lead
}

func (n *Note) TailExpireAt(w Windows) time.Duration {
	return n.ReleaseDeadline() + w.Bad
}

func (n *Note) Kind() Kind {
	if n.IsHold {
		return HoldHead
	}
	return Tap
}

func (n *Note) Resolved() bool {
	return n.State == Judged || n.State == Missed
}

// Grade is the head grade of a tap, or the worse end of a hold
func (n *Note) Grade() Grade {
	if n.IsHold {
		return Worse(n.Head.Grade, n.Tail.Grade)
	}
	return n.Head.Grade
}

func (n *Note) Spawn() {
	if n.State != Pending {
		panic(fmt.Errorf("%w: note %d spawned while %v", ErrInvariant, n.ID, n.State))
	}
	n.State = Spawned
}

// Resolve records the judgement of one end and moves the note to its
// terminal state once every end it has is resolved.
func (n *Note) Resolve(p Part, r Resolution) {
	if n.State != Spawned {
		panic(fmt.Errorf("%w: note %d judged while %v", ErrInvariant, n.ID, n.State))
	}
	r.Done = true
	switch p {
	case Head:
		if n.Head.Done {
			panic(fmt.Errorf("%w: note %d head judged twice", ErrInvariant, n.ID))
		}
		n.Head = r
	case Tail:
		if !n.IsHold || !n.Head.Done || n.Tail.Done {
			panic(fmt.Errorf("%w: note %d tail judged out of order", ErrInvariant, n.ID))
		}
		n.Tail = r
	}

	if n.IsHold && !n.Tail.Done {
		return
	}
	if n.Head.Grade == Miss {
		n.State = Missed
	} else {
		n.State = Judged
	}
}

// Fresh returns a copy of the note with all state cleared
func (n *Note) Fresh() *Note {
	return &Note{
		ID:           n.ID,
		Column:       n.Column,
		HitTime:      n.HitTime,
		IsHold:       n.IsHold,
		HoldDuration: n.HoldDuration,
	}
}
