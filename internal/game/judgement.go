package game

import (
	"errors"
	"time"
)

type Grade uint8

// Grades are ordered from best to worst, Miss is always last
const (
	Perfect Grade = iota
	Good
	Bad
	Miss
)

var gradeNames = [...]string{"Perfect", "Good", "Bad", "Miss"}

func (g Grade) String() string {
	if int(g) < len(gradeNames) {
		return gradeNames[g]
	}
	return "Unknown"
}

func (g Grade) Hit() bool {
	return g != Miss
}

// Worse returns the lower of two grades
func Worse(a, b Grade) Grade {
	if a > b {
		return a
	}
	return b
}

// Windows holds the half width of every judgement around a note's hit time.
// Edges are inclusive to the tighter grade.
type Windows struct {
	Perfect time.Duration
	Good    time.Duration
	Bad     time.Duration
	Miss    time.Duration // A head is missed once this much time has passed its hit time
}

func DefaultWindows() Windows {
	return Windows{
		Perfect: 50 * time.Millisecond,
		Good:    100 * time.Millisecond,
		Bad:     150 * time.Millisecond,
		Miss:    200 * time.Millisecond,
	}
}

func (w Windows) Validate() error {
	if w.Perfect < 0 {
		return errors.New("perfect window must not be negative")
	}
	if !(w.Perfect <= w.Good && w.Good <= w.Bad && w.Bad <= w.Miss) {
		return errors.New("judgement windows must satisfy perfect <= good <= bad <= miss")
	}
	return nil
}

// Classify grades a signed offset. The second return is false when the
// offset lies outside the bad window and cannot be judged by a press.
func (w Windows) Classify(offset time.Duration) (Grade, bool) {
	d := Abs(offset)
	switch {
	case d <= w.Perfect:
		return Perfect, true
	case d <= w.Good:
		return Good, true
	case d <= w.Bad:
		return Bad, true
	}
	return Miss, false
}

func Abs(x time.Duration) time.Duration {
	if x < 0 {
		return -x
	}
	return x
}
