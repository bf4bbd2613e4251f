package input

import (
	"context"
	"errors"
	"testing"
	"time"

	"git.lost.host/meutraa/lanes/internal/clock"
	"git.lost.host/meutraa/lanes/internal/game"
	"github.com/sirupsen/logrus/hooks/test"
)

var bindings = []game.Binding{"d", "f", "j", "k"}

func newTracker(t *testing.T) (*Tracker, *clock.Manual) {
	t.Helper()
	m := clock.NewManual(time.Unix(0, 0))
	c := clock.New(m.Now)
	c.Arm(m.Now(), 0)
	log, _ := test.NewNullLogger()
	tr, err := NewTracker(c, bindings, log)
	if nil != err {
		t.Fatal(err)
	}
	return tr, m
}

func TestPressRelease(t *testing.T) {
	tr, m := newTracker(t)

	m.Advance(100 * time.Millisecond)
	tr.Push(RawEvent{Binding: "j", Transition: game.Press})
	m.Advance(50 * time.Millisecond)
	tr.Push(RawEvent{Binding: "j", Transition: game.Release})

	events := tr.Drain(time.Second)
	expected := []game.LaneEvent{
		{Column: 2, Transition: game.Press, At: 100 * time.Millisecond},
		{Column: 2, Transition: game.Release, At: 150 * time.Millisecond},
	}
	if len(events) != len(expected) {
		t.Fatalf("expected %v events, got %v", expected, events)
	}
	for i := range expected {
		if events[i] != expected[i] {
			t.Errorf("event %v: expected %v, got %v", i, expected[i], events[i])
		}
	}
	lane := tr.Lanes()[2]
	if lane.Pressed || lane.LastTransitionAt != 150*time.Millisecond {
		t.Errorf("unexpected lane state %+v", lane)
	}
}

func TestRepeatedPressIsDebounced(t *testing.T) {
	tr, m := newTracker(t)
	for i := 0; i < 5; i++ {
		tr.Push(RawEvent{Binding: "d", Transition: game.Press})
		m.Advance(10 * time.Millisecond)
	}
	tr.Push(RawEvent{Binding: "d", Transition: game.Release})
	tr.Push(RawEvent{Binding: "d", Transition: game.Release})

	events := tr.Drain(time.Second)
	if len(events) != 2 || events[0].Transition != game.Press || events[1].Transition != game.Release {
		t.Fatalf("expected one press and one release, got %v", events)
	}
	if events[0].At != 0 {
		t.Errorf("press should keep the first transition time, got %v", events[0].At)
	}
}

func TestDebounceSpansTicks(t *testing.T) {
	tr, m := newTracker(t)
	tr.Push(RawEvent{Binding: "f", Transition: game.Press})
	if events := tr.Drain(0); len(events) != 1 {
		t.Fatalf("expected press, got %v", events)
	}
	m.Advance(time.Millisecond)
	tr.Push(RawEvent{Binding: "f", Transition: game.Press})
	if events := tr.Drain(time.Millisecond); len(events) != 0 {
		t.Fatalf("expected repeated press to be dropped, got %v", events)
	}
}

func TestDrainLeavesFutureEvents(t *testing.T) {
	tr, m := newTracker(t)
	m.Advance(20 * time.Millisecond)
	tr.Push(RawEvent{Binding: "k", Transition: game.Press})

	if events := tr.Drain(10 * time.Millisecond); len(events) != 0 {
		t.Fatalf("drained an event from the future: %v", events)
	}
	if events := tr.Drain(20 * time.Millisecond); len(events) != 1 {
		t.Fatalf("expected the buffered press, got %v", events)
	}
}

func TestOutOfRange(t *testing.T) {
	tr, _ := newTracker(t)
	if err := tr.Push(RawEvent{Binding: "q", Transition: game.Press}); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if events := tr.Drain(time.Second); len(events) != 0 {
		t.Fatalf("unbound input reached the lanes: %v", events)
	}
}

func TestDuplicateBinding(t *testing.T) {
	log, _ := test.NewNullLogger()
	if _, err := NewTracker(clock.New(nil), []game.Binding{"d", "d", "j", "k"}, log); nil == err {
		t.Fatal("expected duplicate bindings to be rejected")
	}
}

func TestListen(t *testing.T) {
	tr, _ := newTracker(t)
	events := make(chan RawEvent, 2)
	events <- RawEvent{Binding: "d", Transition: game.Press}
	events <- RawEvent{Binding: "d", Transition: game.Release}
	close(events)

	tr.Listen(context.Background(), events)
	if drained := tr.Drain(0); len(drained) != 2 {
		t.Fatalf("expected 2 events, got %v", drained)
	}
}

func TestPausedTransitionsOnlyMoveLanes(t *testing.T) {
	m := clock.NewManual(time.Unix(0, 0))
	c := clock.New(m.Now)
	c.Arm(m.Now(), 0)
	log, _ := test.NewNullLogger()
	tr, err := NewTracker(c, bindings, log)
	if nil != err {
		t.Fatal(err)
	}

	m.Advance(100 * time.Millisecond)
	tr.Push(RawEvent{Binding: "f", Transition: game.Press})
	c.Pause()
	m.Advance(time.Second)
	tr.Push(RawEvent{Binding: "f", Transition: game.Release})
	tr.Push(RawEvent{Binding: "d", Transition: game.Press})
	c.Resume()

	events := tr.Drain(c.Now())
	if len(events) != 1 || events[0].Column != 1 || events[0].Transition != game.Press {
		t.Fatalf("expected only the press made before the pause, got %v", events)
	}
	lanes := tr.Lanes()
	if lanes[1].Pressed || !lanes[0].Pressed {
		t.Fatalf("lane state not kept across the pause %+v", lanes)
	}

	// Releasing the key pressed during the pause is an ordinary release
	m.Advance(10 * time.Millisecond)
	tr.Push(RawEvent{Binding: "d", Transition: game.Release})
	events = tr.Drain(c.Now())
	if len(events) != 1 || events[0].Column != 0 || events[0].Transition != game.Release {
		t.Fatalf("expected the release, got %v", events)
	}
}
