// Package render draws the playfield on an ANSI terminal.
package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"git.lost.host/meutraa/lanes/internal/game"
	"git.lost.host/meutraa/lanes/internal/score"
	"git.lost.host/meutraa/lanes/internal/theme"
	"golang.org/x/term"
)

type Terminal struct {
	Out     io.Writer
	Theme   theme.Theme
	Lead    time.Duration // How long a note takes to fall to the bar
	BarRow  int           // Rows between the bar and the bottom of the screen
	Spacing int           // Columns between lanes

	rows, cols   int
	buffer       strings.Builder
	restoreState *term.State
	fd           int

	sprites     map[spriteKey]*sprite
	pressed     [game.Columns]bool
	painted     []cell
	decorations []*decoration
}

type spriteKey struct {
	id   int
	kind game.Kind
}

type sprite struct {
	column int
	kind   game.Kind
	due    time.Duration // When it reaches the bar
}

type cell struct {
	row, column int
}

type decoration struct {
	X, Y    int
	Content string
	Frames  int // remaining frames until removed
}

func NewTerminal(out io.Writer, th theme.Theme, lead time.Duration) *Terminal {
	return &Terminal{
		Out:     out,
		Theme:   th,
		Lead:    lead,
		BarRow:  8,
		Spacing: 6,
		rows:    24,
		cols:    80,
		fd:      -1,
		sprites: map[spriteKey]*sprite{},
	}
}

// Init puts fd in raw mode and switches to the alternate buffer. The size of
// the screen is only read when fd is a terminal.
func (r *Terminal) Init(fd int) error {
	if term.IsTerminal(fd) {
		state, err := term.MakeRaw(fd)
		if nil != err {
			return fmt.Errorf("unable to make terminal raw: %w", err)
		}
		r.restoreState = state
		r.fd = fd

		columns, rows, err := term.GetSize(fd)
		if nil != err {
			return fmt.Errorf("unable to get terminal size: %w", err)
		}
		r.rows, r.cols = rows, columns
	}

	r.buffer.WriteString("\033[?1049h") // Enable alternate buffer
	r.buffer.WriteString("\033[?25l")   // Make the cursor invisible
	r.buffer.WriteString("\033[J")      // Clear the screen
	return r.flush()
}

func (r *Terminal) Deinit() error {
	r.buffer.WriteString("\033[?1049l") // Disable alternate buffer
	r.buffer.WriteString("\033[?25h")   // Make the cursor visible
	if err := r.flush(); nil != err {
		return err
	}
	if nil == r.restoreState {
		return nil
	}
	return term.Restore(r.fd, r.restoreState)
}

func (r *Terminal) Note(ev game.NoteEvent) {
	key := spriteKey{id: ev.NoteID, kind: ev.Kind}
	switch ev.Action {
	case game.Spawn:
		r.sprites[key] = &sprite{column: ev.Column, kind: ev.Kind, due: ev.At + ev.Fall}
	case game.Despawn:
		delete(r.sprites, key)
	}
}

func (r *Terminal) Lane(ev game.LaneEvent) {
	r.pressed[ev.Column] = ev.Transition == game.Press
}

// Judged flashes the grade of an outcome in the middle of the screen
func (r *Terminal) Judged(o game.Outcome) {
	r.AddDecoration(r.column(0)-2, r.rows>>1, r.Theme.RenderGrade(o.Grade), 30)
}

func (r *Terminal) AddDecoration(col, row int, content string, frames int) {
	r.decorations = append(r.decorations, &decoration{
		X:       col,
		Y:       row,
		Content: content,
		Frames:  frames,
	})
}

func (r *Terminal) tickDecorations() {
	nd := make([]*decoration, 0, len(r.decorations))
	for _, d := range r.decorations {
		if d.Frames == 0 {
			continue
		}
		r.paint(d.Y, d.X, d.Content)
		nd = append(nd, d)
		d.Frames--
	}
	r.decorations = nd
}

// column is the screen column of a lane
func (r *Terminal) column(lane int) int {
	mc := r.cols >> 1
	return mc + r.Spacing*(2*lane-3)
}

func (r *Terminal) bar() int {
	return r.rows - r.BarRow
}

// row is where a note due at due is drawn at now
func (r *Terminal) row(due, now time.Duration) int {
	if r.Lead <= 0 {
		return r.bar()
	}
	distance := float64(due-now) / float64(r.Lead)
	return r.bar() - int(distance*float64(r.bar()-1))
}

func (r *Terminal) Frame(now time.Duration, snap score.Snapshot) error {
	// Clear everything drawn by the last frame
	for _, c := range r.painted {
		r.Fill(c.row, c.column, " ")
	}
	r.painted = r.painted[:0]

	for i := 0; i < game.Columns; i++ {
		r.Fill(r.bar(), r.column(i), r.Theme.RenderHitField(i, r.pressed[i]))
	}

	for _, s := range r.sprites {
		row := r.row(s.due, now)
		if row < 1 || row > r.rows {
			continue
		}
		r.paint(row, r.column(s.column), r.Theme.RenderNote(s.kind, s.column))
	}

	r.tickDecorations()

	side := r.column(game.Columns-1) + 8
	r.Fill(10, side, fmt.Sprintf("   Score:  %8v", snap.Score))
	r.Fill(11, side, fmt.Sprintf("   Combo:  %8v", snap.Combo))
	r.Fill(12, side, fmt.Sprintf("Accuracy:  %7.2f%%", snap.Accuracy))
	r.Fill(13, side, fmt.Sprintf("  Health:  %8.0f", snap.Health))
	r.Fill(14, side, fmt.Sprintf("    Mean:  %8v", snap.Mean.Round(time.Millisecond/10)))
	r.Fill(15, side, fmt.Sprintf("   Stdev:  %8v", snap.Stdev.Round(time.Millisecond/10)))
	for i, n := range []int{snap.Perfect, snap.Good, snap.Bad, snap.Miss} {
		r.Fill(17+i, side, fmt.Sprintf("%v:  %6v", r.Theme.RenderGrade(game.Grade(i)), n))
	}

	return r.flush()
}

// paint fills a cell that is cleared again on the next frame
func (r *Terminal) paint(row, column int, message string) {
	r.painted = append(r.painted, cell{row: row, column: column})
	r.Fill(row, column, message)
}

func (r *Terminal) Fill(row, column int, message string) {
	r.buffer.WriteString("\033[")
	r.buffer.WriteString(strconv.FormatInt(int64(row), 10))
	r.buffer.WriteString(";")
	r.buffer.WriteString(strconv.FormatInt(int64(column), 10))
	r.buffer.WriteString("H")
	r.buffer.WriteString(message)
}

func (r *Terminal) flush() error {
	_, err := io.WriteString(r.Out, r.buffer.String())
	r.buffer.Reset()
	return err
}
