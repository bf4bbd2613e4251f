package theme

import "git.lost.host/meutraa/lanes/internal/game"

type Theme interface {
	RenderNote(kind game.Kind, column int) string
	RenderHitField(column int, pressed bool) string
	RenderGrade(grade game.Grade) string
}
