package theme

import (
	"fmt"
	"image/color"

	"git.lost.host/meutraa/notefall/internal/game"
)

type DefaultTheme struct{}

func (t *DefaultTheme) RenderNote(nt game.NoteType, denom int, alpha float64) string {
	sym := tapSym
	if nt == game.Hold {
		sym = holdSym
	}
	return paint(fade(getNoteColor(denom), alpha), sym)
}

func (t *DefaultTheme) RenderHoldBody(alpha float64) string {
	return paint(fade(holdColor, alpha), holdBodySym)
}

func (t *DefaultTheme) RenderHitField(lane int, lit bool) string {
	if lit {
		return paint(litColor, litSym)
	}
	return barSym
}

const (
	tapSym      = "⬤"
	holdSym     = "▣"
	holdBodySym = "┃"
	barSym      = "◯"
	litSym      = "◉"
)

var (
	holdColor  = color.RGBA{160, 160, 160, 255}
	litColor   = color.RGBA{255, 255, 255, 255}
	noteColors = map[int]color.RGBA{
		1:  {236, 30, 0, 255},    // 1/4 red
		2:  {0, 118, 236, 255},   // 1/8 blue
		3:  {106, 0, 236, 255},   // 1/12 purple
		4:  {236, 195, 0, 255},   // 1/16 yellow
		6:  {236, 0, 106, 255},   // 1/24 pink
		8:  {236, 128, 0, 255},   // 1/32 orange
		12: {173, 236, 236, 255}, // 1/48 light blue
		16: {0, 236, 128, 255},   // 1/64 green
		48: {110, 147, 89, 255},  // 1/192 olive
		-1: {106, 106, 106, 255}, // other grey
	}
)

func getNoteColor(d int) color.RGBA {
	col, ok := noteColors[d]
	if !ok {
		return noteColors[-1]
	}
	return col
}

// fade darkens towards the black terminal background, there is no real alpha.
func fade(c color.RGBA, alpha float64) color.RGBA {
	if alpha < 0 {
		alpha = 0
	} else if alpha > 1 {
		alpha = 1
	}
	return color.RGBA{
		R: uint8(float64(c.R) * alpha),
		G: uint8(float64(c.G) * alpha),
		B: uint8(float64(c.B) * alpha),
		A: uint8(255 * alpha),
	}
}

func paint(c color.RGBA, sym string) string {
	return fmt.Sprintf("\033[38;2;%v;%v;%vm%v\033[0m", c.R, c.G, c.B, sym)
}
