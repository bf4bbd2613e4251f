package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"git.lost.host/meutraa/lanes/internal/clock"
	"git.lost.host/meutraa/lanes/internal/fixture"
	"git.lost.host/meutraa/lanes/internal/game"
	"git.lost.host/meutraa/lanes/internal/input"
	"git.lost.host/meutraa/lanes/internal/parser"
	"git.lost.host/meutraa/lanes/internal/score"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

type fakeAudio struct {
	prepareErr error
	source     *clock.Manual
	started    time.Time
	lag        time.Duration // How far playback falls behind
	plays      int
	paused     bool
	closed     bool
}

func (a *fakeAudio) Prepare() error {
	return a.prepareErr
}

func (a *fakeAudio) Play() error {
	a.plays++
	a.started = a.source.Now()
	return nil
}

func (a *fakeAudio) CurrentPlaybackTime() time.Duration {
	return a.source.Now().Sub(a.started) - a.lag
}

func (a *fakeAudio) Pause()  { a.paused = true }
func (a *fakeAudio) Resume() { a.paused = false }

func (a *fakeAudio) Close() error {
	a.closed = true
	return nil
}

type recorder struct {
	notes []game.NoteEvent
	lanes []game.LaneEvent
}

func (r *recorder) Note(ev game.NoteEvent) { r.notes = append(r.notes, ev) }
func (r *recorder) Lane(ev game.LaneEvent) { r.lanes = append(r.lanes, ev) }

type harness struct {
	session *Session
	source  *clock.Manual
	audio   *fakeAudio
	sink    *recorder
	hook    *test.Hook
}

func newHarness(t *testing.T, chart string, change func(o *Options)) *harness {
	t.Helper()
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	p := parser.DefaultParser{Log: log}
	b, err := p.Parse(strings.NewReader(chart))
	if nil != err {
		t.Fatal(err)
	}

	source := clock.NewManual(time.Unix(1000, 0))
	h := &harness{source: source, audio: &fakeAudio{source: source}, sink: &recorder{}, hook: hook}
	opts := Options{
		Beatmap:  b,
		Audio:    h.audio,
		Source:   source.Now,
		Bindings: []game.Binding{"d", "f", "j", "k"},
		Sink:     h.sink,
		Log:      log,
		Windows:  game.DefaultWindows(),
		Rules:    score.DefaultRules(),
		LeadTime: 800 * time.Millisecond,
	}
	if nil != change {
		change(&opts)
	}
	s, err := New(opts)
	if nil != err {
		t.Fatal(err)
	}
	h.session = s
	return h
}

// at moves the clock to t and ticks
func (h *harness) at(t time.Duration) bool {
	h.source.Set(time.Unix(1000, 0).Add(t))
	return h.session.Tick()
}

func (h *harness) push(t *testing.T, binding game.Binding, transition game.Transition) {
	t.Helper()
	if err := h.session.Input().Push(input.RawEvent{Binding: binding, Transition: transition}); nil != err {
		t.Fatal(err)
	}
}

func TestStartWithoutAudio(t *testing.T) {
	h := newHarness(t, fixture.SingleTap, nil)
	h.audio.prepareErr = errors.New("no device")
	if err := h.session.Start(); nil == err {
		t.Fatal("expected start to fail")
	}
}

func TestPlaySingleTap(t *testing.T) {
	h := newHarness(t, fixture.SingleTap, nil)
	if err := h.session.Start(); nil != err {
		t.Fatal(err)
	}
	if !h.at(0) || h.audio.plays != 1 {
		t.Fatal("song did not start at position zero")
	}
	h.at(500 * time.Millisecond)
	if len(h.sink.notes) != 1 || h.sink.notes[0].Action != game.Spawn {
		t.Fatalf("expected a spawn, got %v", h.sink.notes)
	}

	h.source.Set(time.Unix(1000, 0).Add(1020 * time.Millisecond))
	h.push(t, "d", game.Press)
	if h.session.Tick() {
		t.Fatal("session should end once every note is judged")
	}

	snap := h.session.Snapshot()
	if snap.Score != 300 || snap.Combo != 1 || snap.Perfect != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if len(h.sink.lanes) != 1 || h.sink.lanes[0].At != 1020*time.Millisecond {
		t.Fatalf("unexpected lane events %v", h.sink.lanes)
	}
	if err := h.session.Close(); nil != err {
		t.Fatal(err)
	}
	if !h.audio.closed {
		t.Fatal("audio not closed")
	}
	ended := false
	for _, e := range h.hook.AllEntries() {
		ended = ended || e.Message == "session ended"
	}
	if !ended {
		t.Fatal("session end was not logged")
	}
}

func TestLeadIn(t *testing.T) {
	h := newHarness(t, fixture.SingleTap, func(o *Options) {
		o.Delay = time.Second
		o.Offset = 20 * time.Millisecond
	})
	h.session.Start()
	h.session.Tick()
	if now := h.session.Now(); now != -1020*time.Millisecond {
		t.Fatalf("expected the clock to start at -1.02s, got %v", now)
	}
	if h.audio.plays != 0 {
		t.Fatal("song started during the delay")
	}
	// The song starts 20ms before the chart reaches zero
	h.source.Advance(time.Second)
	h.session.Tick()
	if h.audio.plays != 1 || h.session.Now() != -20*time.Millisecond {
		t.Fatalf("song not started at %v", h.session.Now())
	}
}

func TestMissesEverythingAndVerifies(t *testing.T) {
	h := newHarness(t, fixture.Beatmap, func(o *Options) {
		o.NoFail = true
	})
	h.session.Start()
	var now time.Duration
	for now = 0; h.at(now); now += 16 * time.Millisecond {
		if now > 10*time.Second {
			t.Fatal("session never ended")
		}
	}
	snap := h.session.Snapshot()
	if snap.Miss != 6 || snap.Combo != 0 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if err := h.session.Close(); nil != err {
		t.Fatal(err)
	}
}

func TestFailEndsSession(t *testing.T) {
	rules := score.DefaultRules()
	rules.Health[game.Miss] = -100
	h := newHarness(t, fixture.Beatmap, func(o *Options) {
		o.Rules = rules
	})
	h.session.Start()
	h.at(500 * time.Millisecond)
	if h.at(1800 * time.Millisecond) {
		t.Fatal("expected the session to end")
	}
	if h.session.Snapshot().Miss == 6 {
		t.Fatal("notes after the failure were judged")
	}
	// A partial play is not replayed
	if err := h.session.Close(); nil != err {
		t.Fatal(err)
	}
}

func TestPauseFreezesClock(t *testing.T) {
	h := newHarness(t, fixture.SingleTap, nil)
	h.session.Start()
	h.at(100 * time.Millisecond)

	h.session.Pause()
	if !h.audio.paused {
		t.Fatal("audio not paused")
	}
	h.source.Advance(5 * time.Second)
	if !h.session.Tick() || h.session.Now() != 100*time.Millisecond {
		t.Fatalf("clock moved while paused to %v", h.session.Now())
	}
	h.session.Resume()
	h.source.Advance(10 * time.Millisecond)
	if h.session.Now() != 110*time.Millisecond || h.audio.paused {
		t.Fatalf("clock jumped on resume to %v", h.session.Now())
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	h := newHarness(t, fixture.SingleTap, nil)
	h.session.Start()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := h.session.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if h.session.Tick() {
		t.Fatal("session still ticking after cancellation")
	}
}

func TestOutOfRangeInput(t *testing.T) {
	h := newHarness(t, fixture.SingleTap, nil)
	h.session.Start()
	if err := h.session.Input().Push(input.RawEvent{Binding: "q", Transition: game.Press}); !errors.Is(err, input.ErrOutOfRange) {
		t.Fatal(err)
	}
}

func TestNewRejectsEmptyBeatmap(t *testing.T) {
	if _, err := New(Options{Beatmap: &game.Beatmap{}}); nil == err {
		t.Fatal("expected an error")
	}
}

func TestPressWhilePausedIsNotJudged(t *testing.T) {
	h := newHarness(t, fixture.SingleTap, nil)
	h.session.Start()
	h.at(990 * time.Millisecond)

	h.session.Pause()
	h.source.Advance(6 * time.Second)
	h.push(t, "d", game.Press)
	h.session.Resume()
	h.session.Tick()

	if snap := h.session.Snapshot(); snap.Judged() != 0 || snap.Score != 0 {
		t.Fatalf("press made while paused was judged %+v", snap)
	}
	if len(h.sink.lanes) != 0 {
		t.Fatalf("press made while paused reached the renderer %v", h.sink.lanes)
	}

	// The key is still down, it has to be let go before it can hit
	h.source.Advance(20 * time.Millisecond)
	h.push(t, "d", game.Release)
	h.push(t, "d", game.Press)
	h.session.Tick()
	if snap := h.session.Snapshot(); snap.Perfect != 1 {
		t.Fatalf("expected a perfect after resuming, got %+v", snap)
	}
}

func TestDriftIsMeasured(t *testing.T) {
	h := newHarness(t, fixture.SingleTap, nil)
	h.audio.lag = 15 * time.Millisecond
	h.session.Start()
	h.at(0)
	h.at(100 * time.Millisecond)
	if drift := h.session.Drift(); drift != 15*time.Millisecond {
		t.Fatalf("expected 15ms of drift, got %v", drift)
	}
}
