// Package session runs one play of a beatmap.
//
// Everything that changes notes, lanes or the score happens on the goroutine
// calling Tick. Each tick reads the clock once and then, in order, spawns the
// notes that are due, judges the input that arrived up to that instant and
// misses whatever is left behind. Input sources only ever push into the
// tracker, which is safe to use from any goroutine.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"git.lost.host/meutraa/lanes/internal/clock"
	"git.lost.host/meutraa/lanes/internal/game"
	"git.lost.host/meutraa/lanes/internal/input"
	"git.lost.host/meutraa/lanes/internal/judge"
	"git.lost.host/meutraa/lanes/internal/render"
	"git.lost.host/meutraa/lanes/internal/schedule"
	"git.lost.host/meutraa/lanes/internal/score"
	"github.com/sirupsen/logrus"
)

// Audio is the song being played along to
type Audio interface {
	Prepare() error
	Play() error
	CurrentPlaybackTime() time.Duration
	Pause()
	Resume()
	Close() error
}

type Options struct {
	Beatmap  *game.Beatmap
	Audio    Audio        // nil plays without sound
	Source   clock.Source // nil uses time.Now
	Bindings []game.Binding
	Sink     render.Sink // nil draws nothing
	Log      logrus.FieldLogger

	Windows     game.Windows
	Rules       score.Rules
	LeadTime    time.Duration
	Delay       time.Duration
	Offset      time.Duration
	FramePeriod time.Duration

	GhostTapBreaksCombo bool
	NoFail              bool
}

type Session struct {
	opts    Options
	log     logrus.FieldLogger
	clock   *clock.Clock
	tracker *input.Tracker
	sched   *schedule.Scheduler
	engine  *judge.Engine
	state   *score.State
	journal *score.Journal

	playing bool
	ended   bool
	drift   time.Duration // Largest difference seen between the song and the clock
}

func New(opts Options) (*Session, error) {
	if nil == opts.Beatmap || len(opts.Beatmap.Notes) == 0 {
		return nil, errors.New("nothing to play")
	}
	if nil == opts.Sink {
		opts.Sink = render.Nop{}
	}
	if nil == opts.Log {
		opts.Log = logrus.StandardLogger()
	}
	if opts.FramePeriod <= 0 {
		opts.FramePeriod = time.Millisecond
	}

	s := &Session{
		opts:  opts,
		log:   opts.Log,
		clock: clock.New(opts.Source),
		state: score.New(opts.Rules),
	}

	tracker, err := input.NewTracker(s.clock, opts.Bindings, s.log)
	if nil != err {
		return nil, err
	}
	s.tracker = tracker

	journal, err := score.OpenJournal()
	if nil != err {
		return nil, fmt.Errorf("unable to open journal: %w", err)
	}
	s.journal = journal

	s.sched = schedule.New(opts.Beatmap.Notes, opts.Windows, opts.LeadTime, opts.Sink)
	s.engine = judge.New(s.sched, s.state, opts.Windows, s.log)
	s.engine.GhostTapBreaksCombo = opts.GhostTapBreaksCombo
	s.engine.OnOutcome(func(o game.Outcome) {
		if err := s.journal.RecordOutcome(o); nil != err {
			s.log.WithError(err).Warn("unable to record outcome")
		}
	})
	return s, nil
}

// Input is where input sources push their events
func (s *Session) Input() *input.Tracker {
	return s.tracker
}

// OnOutcome registers f to be called with every judgement
func (s *Session) OnOutcome(f func(game.Outcome)) {
	s.engine.OnOutcome(f)
}

func (s *Session) Now() time.Duration {
	return s.clock.Now()
}

// Drift is the largest difference seen so far between the song position and
// the clock
func (s *Session) Drift() time.Duration {
	return s.drift
}

func (s *Session) Snapshot() score.Snapshot {
	return s.state.Snapshot()
}

// Start opens the audio device and arms the clock. The song starts playing
// from the tick at which it should be at position zero.
func (s *Session) Start() error {
	if nil != s.opts.Audio {
		if err := s.opts.Audio.Prepare(); nil != err {
			return err
		}
	}
	leadIn := s.opts.Delay + s.opts.Beatmap.AudioLeadIn + s.opts.Offset
	if err := s.clock.Arm(s.clock.Source()(), leadIn); nil != err {
		return err
	}
	s.log.WithFields(logrus.Fields{
		"title":   s.opts.Beatmap.Title,
		"notes":   len(s.opts.Beatmap.Notes),
		"holds":   s.opts.Beatmap.HoldCount(),
		"lead-in": leadIn,
	}).Info("session started")
	return nil
}

// Tick advances the session to the current time. It returns false once
// there is nothing left to play.
func (s *Session) Tick() bool {
	if s.ended {
		return false
	}
	if s.clock.Paused() {
		return true
	}

	t := s.clock.Now()
	s.play(t)

	s.sched.Spawn(t)
	for _, ev := range s.tracker.Drain(t) {
		if err := s.journal.RecordInput(ev); nil != err {
			s.log.WithError(err).Warn("unable to record input")
		}
		s.opts.Sink.Lane(ev)
		s.engine.Apply(ev)
	}
	s.engine.Expire(t)

	if f, ok := s.opts.Sink.(render.Framer); ok {
		if err := f.Frame(t, s.state.Snapshot()); nil != err {
			s.log.WithError(err).Warn("unable to draw frame")
		}
	}

	switch {
	case s.sched.Done():
		s.log.Info("every note has been judged")
		s.End()
	case s.state.Failed() && !s.opts.NoFail:
		s.log.Info("out of health")
		s.End()
	}
	return !s.ended
}

// play starts the song once the clock reaches its position zero, and keeps
// track of how far the two drift apart afterwards
func (s *Session) play(t time.Duration) {
	if nil == s.opts.Audio {
		return
	}
	position := t + s.opts.Offset
	if !s.playing {
		if position < 0 {
			return
		}
		s.playing = true
		if err := s.opts.Audio.Play(); nil != err {
			s.log.WithError(err).Error("unable to play audio")
		}
		return
	}
	drift := game.Abs(s.opts.Audio.CurrentPlaybackTime() - position)
	if drift > s.drift {
		s.drift = drift
	}
}

// Run ticks every frame period until the session ends or ctx is done
func (s *Session) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			s.End()
			return ctx.Err()
		default:
		}

		deadline := time.Now().Add(s.opts.FramePeriod)
		if !s.Tick() {
			return nil
		}
		time.Sleep(time.Until(deadline))
	}
}

func (s *Session) Pause() {
	s.clock.Pause()
	if nil != s.opts.Audio {
		s.opts.Audio.Pause()
	}
}

func (s *Session) Resume() {
	s.clock.Resume()
	if nil != s.opts.Audio {
		s.opts.Audio.Resume()
	}
}

// End stops every further spawn and judgement
func (s *Session) End() {
	s.sched.Stop()
	s.ended = true
}

// Close ends the session, checks that the recorded input judges the same way
// again and logs the per lane report
func (s *Session) Close() error {
	s.End()
	defer func() {
		if err := s.journal.Close(); nil != err {
			s.log.WithError(err).Warn("unable to close journal")
		}
	}()
	if nil != s.opts.Audio {
		defer s.opts.Audio.Close()
	}

	snap := s.state.Snapshot()
	s.log.WithFields(logrus.Fields{
		"score":    snap.Score,
		"accuracy": fmt.Sprintf("%.2f", snap.Accuracy),
		"combo":    snap.MaxCombo,
		"mean":     snap.Mean,
		"stdev":    snap.Stdev,
		"drift":    s.drift,
	}).Info("session ended")

	reports, err := s.journal.Report()
	if nil != err {
		return fmt.Errorf("unable to build report: %w", err)
	}
	for _, r := range reports {
		s.log.WithFields(logrus.Fields{
			"column": r.Column,
			"hits":   r.Hits,
			"misses": r.Misses,
			"mean":   r.Mean,
		}).Info("lane")
	}

	if !s.sched.Done() {
		// Nothing to compare a partial play against
		return nil
	}
	return s.verify()
}

func (s *Session) verify() error {
	inputs, err := s.journal.Inputs()
	if nil != err {
		return fmt.Errorf("unable to read inputs: %w", err)
	}
	result := judge.Replay(s.opts.Beatmap, inputs, judge.Config{
		Windows:             s.opts.Windows,
		LeadTime:            s.opts.LeadTime,
		Rules:               s.opts.Rules,
		GhostTapBreaksCombo: s.opts.GhostTapBreaksCombo,
	}, s.log)
	if err := judge.Compare(s.opts.Beatmap.Notes, result.Notes); nil != err {
		return fmt.Errorf("replay differs: %w", err)
	}
	s.log.WithField("score", result.Snapshot.Score).Debug("replay matches")
	return nil
}
