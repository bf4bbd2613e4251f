// Package theme decides how notes, lanes and grades look on a terminal.
package theme

import (
	"fmt"
	"image/color"

	"git.lost.host/meutraa/lanes/internal/game"
)

type DefaultTheme struct {
}

func (t *DefaultTheme) RenderNote(kind game.Kind, column int) string {
	return paint(columnColors[column%len(columnColors)], noteSyms[kind])
}

func (t *DefaultTheme) RenderHitField(column int, pressed bool) string {
	if pressed {
		return paint(columnColors[column%len(columnColors)], pressedSym)
	}
	return barSym
}

func (t *DefaultTheme) RenderGrade(grade game.Grade) string {
	return fmt.Sprintf("%s\033[0m", gradeNames[grade])
}

func paint(c color.RGBA, sym string) string {
	return fmt.Sprintf("\033[38;2;%v;%v;%vm%v\033[0m", c.R, c.G, c.B, sym)
}

const (
	barSym     = "-"
	pressedSym = "="
)

var (
	noteSyms = [...]string{
		game.Tap:      "⬤",
		game.HoldHead: "▼",
		game.HoldTail: "▲",
	}
	columnColors = [...]color.RGBA{
		{236, 30, 0, 255},  // red
		{0, 118, 236, 255}, // blue
		{0, 118, 236, 255}, // blue
		{236, 30, 0, 255},  // red
	}
	gradeNames = [...]string{
		game.Perfect: "\033[38;5;153mPerfect",
		game.Good:    "   \033[1;32mGood",
		game.Bad:     "    \033[1;33mBad",
		game.Miss:    "   \033[1;31mMiss",
	}
)
