package game

import "time"

// Kind is the visual a note event refers to
type Kind uint8

const (
	Tap Kind = iota
	HoldHead
	HoldTail
)

var kindNames = [...]string{"Tap", "HoldHead", "HoldTail"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

type Action uint8

const (
	Spawn Action = iota
	Despawn
)

func (a Action) String() string {
	if a == Despawn {
		return "Despawn"
	}
	return "Spawn"
}

// NoteEvent tells a renderer to place or remove a note visual.
// Fall is the time left until the visual reaches the judgement line.
type NoteEvent struct {
	NoteID int
	Column int
	Kind   Kind
	Action Action
	At     time.Duration
	Fall   time.Duration
}

type Transition uint8

const (
	Press Transition = iota
	Release
)

func (t Transition) String() string {
	if t == Release {
		return "Release"
	}
	return "Press"
}

// Binding names the physical input bound to a lane, e.g. "d" for a keyboard
type Binding string

// LaneEvent is a debounced press or release of a lane
type LaneEvent struct {
	Column     int
	Transition Transition
	At         time.Duration
}

// Outcome is a single resolved judgement
type Outcome struct {
	NoteID int
	Column int
	Part   Part
	Grade  Grade
	Offset time.Duration
	At     time.Duration
}
