package judge

import (
	"fmt"
	"time"

	"git.lost.host/meutraa/lanes/internal/game"
	"git.lost.host/meutraa/lanes/internal/schedule"
	"git.lost.host/meutraa/lanes/internal/score"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Windows             game.Windows
	LeadTime            time.Duration
	Rules               score.Rules
	GhostTapBreaksCombo bool
}

type Result struct {
	Notes    []*game.Note
	Snapshot score.Snapshot
}

// Replay judges a recorded input stream against fresh copies of the notes,
// ticking at every input and finally once every window has closed
func Replay(b *game.Beatmap, inputs []game.LaneEvent, cfg Config, log logrus.FieldLogger) Result {
	notes := b.Fresh().Notes
	state := score.New(cfg.Rules)
	sched := schedule.New(notes, cfg.Windows, cfg.LeadTime, nil)
	engine := New(sched, state, cfg.Windows, log)
	engine.GhostTapBreaksCombo = cfg.GhostTapBreaksCombo

	for _, ev := range inputs {
		sched.Spawn(ev.At)
		engine.Apply(ev)
		engine.Expire(ev.At)
	}
	end := b.End(cfg.Windows) + time.Millisecond
	sched.Spawn(end)
	engine.Expire(end)

	return Result{Notes: notes, Snapshot: state.Snapshot()}
}

// Compare checks that two plays of the same beatmap judged every note alike
func Compare(live, replayed []*game.Note) error {
	if len(live) != len(replayed) {
		return fmt.Errorf("note count differs, %d and %d", len(live), len(replayed))
	}
	for i, n := range live {
		r := replayed[i]
		if n.State != r.State || !same(n.Head, r.Head) || !same(n.Tail, r.Tail) {
			return fmt.Errorf("note %d judged %v/%v live and %v/%v on replay",
				n.ID, n.Head.Grade, n.Tail.Grade, r.Head.Grade, r.Tail.Grade)
		}
	}
	return nil
}

// same ignores when misses were noticed, which depends on the tick rate
func same(a, b game.Resolution) bool {
	if a.Done != b.Done || a.Grade != b.Grade {
		return false
	}
	return a.Grade == game.Miss || (a.Offset == b.Offset && a.At == b.At)
}
