// Package score aggregates judgements into the running totals shown to the player.
package score

import (
	"math"
	"time"

	"git.lost.host/meutraa/lanes/internal/game"
)

// Rules are indexed by game.Grade
type Rules struct {
	Weights        [4]int64
	Accuracy       [4]float64
	Health         [4]float64 // Added to health, negative drains
	MaxHealth      float64
	BadBreaksCombo bool
}

func DefaultRules() Rules {
	return Rules{
		Weights:        [4]int64{300, 100, 50, 0},
		Accuracy:       [4]float64{1, 2.0 / 3.0, 1.0 / 3.0, 0},
		Health:         [4]float64{2, 1, 0, -10},
		MaxHealth:      100,
		BadBreaksCombo: true,
	}
}

type Snapshot struct {
	Score    int64
	Combo    int
	MaxCombo int
	Accuracy float64 // Percent
	Health   float64
	Perfect  int
	Good     int
	Bad      int
	Miss     int
	Mean     time.Duration // Mean signed offset of every hit
	Stdev    time.Duration
}

// Judged is the number of outcomes counted so far
func (s Snapshot) Judged() int {
	return s.Perfect + s.Good + s.Bad + s.Miss
}

// State is only ever changed by the judgement engine
type State struct {
	rules    Rules
	score    int64
	combo    int
	maxCombo int
	health   float64
	counts   [4]int
	accuracy float64

	// Offsets of hits in milliseconds
	hits        int
	sumOfOffset float64
	sumOfSquare float64
}

func New(rules Rules) *State {
	return &State{rules: rules, health: rules.MaxHealth}
}

func (s *State) Apply(o game.Outcome) {
	g := o.Grade
	s.counts[g]++
	s.score += s.rules.Weights[g]
	s.accuracy += s.rules.Accuracy[g]

	switch {
	case g == game.Perfect || g == game.Good:
		s.combo++
		if s.combo > s.maxCombo {
			s.maxCombo = s.combo
		}
	case g == game.Miss || s.rules.BadBreaksCombo:
		s.combo = 0
	}

	s.health = math.Max(0, math.Min(s.rules.MaxHealth, s.health+s.rules.Health[g]))

	if g.Hit() {
		d := float64(o.Offset) / float64(time.Millisecond)
		s.hits++
		s.sumOfOffset += d
		s.sumOfSquare += d * d
	}
}

// BreakCombo resets the combo without judging anything
func (s *State) BreakCombo() {
	s.combo = 0
}

func (s *State) Combo() int {
	return s.combo
}

func (s *State) Health() float64 {
	return s.health
}

func (s *State) Failed() bool {
	return s.health <= 0
}

// Accuracy is the weighted hit percentage of everything judged so far
func (s *State) Accuracy() float64 {
	judged := s.counts[0] + s.counts[1] + s.counts[2] + s.counts[3]
	if judged == 0 {
		return 100
	}
	return 100 * s.accuracy / float64(judged)
}

func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		Score:    s.score,
		Combo:    s.combo,
		MaxCombo: s.maxCombo,
		Accuracy: s.Accuracy(),
		Health:   s.health,
		Perfect:  s.counts[game.Perfect],
		Good:     s.counts[game.Good],
		Bad:      s.counts[game.Bad],
		Miss:     s.counts[game.Miss],
	}
	if s.hits > 0 {
		mean := s.sumOfOffset / float64(s.hits)
		snap.Mean = time.Duration(mean * float64(time.Millisecond))
	}
	if s.hits > 1 {
		n := float64(s.hits)
		variance := (s.sumOfSquare - s.sumOfOffset*s.sumOfOffset/n) / (n - 1)
		if variance > 0 {
			snap.Stdev = time.Duration(math.Sqrt(variance) * float64(time.Millisecond))
		}
	}
	return snap
}
