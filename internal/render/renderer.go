package render

import (
	"time"

	"git.lost.host/meutraa/lanes/internal/game"
	"git.lost.host/meutraa/lanes/internal/score"
)

// Sink receives every note visual and lane transition as it happens
type Sink interface {
	Note(ev game.NoteEvent)
	Lane(ev game.LaneEvent)
}

// Framer is a Sink that is also drawn once per tick
type Framer interface {
	Sink
	Frame(now time.Duration, snap score.Snapshot) error
}

// Nop discards everything
type Nop struct{}

func (Nop) Note(game.NoteEvent) {}
func (Nop) Lane(game.LaneEvent) {}
