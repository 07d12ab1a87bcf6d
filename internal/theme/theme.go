package theme

import "git.lost.host/meutraa/notefall/internal/game"

type Theme interface {
	RenderNote(t game.NoteType, denom int, alpha float64) string
	RenderHoldBody(alpha float64) string
	RenderHitField(lane int, lit bool) string
}
