package render

import (
	"math"

	"git.lost.host/meutraa/notefall/internal/position"
)

// Projector maps travel space onto terminal cells. The hit line sits on
// HitRow and the spawn plane on row 1, lanes narrow towards the spawn plane.
type Projector struct {
	Rows, Cols  int
	HitRow      int
	ColsPerUnit float64
	SpawnZ      float64
	HitZ        float64
}

// Project reports false for points outside the screen.
func (p *Projector) Project(v position.Vec3) (row, col int, ok bool) {
	depth := p.SpawnZ - p.HitZ
	if depth <= 0 {
		return 0, 0, false
	}
	t := (v.Z - p.HitZ) / depth // 0 at the hit line, 1 at spawn
	row = p.HitRow - int(math.Round(t*float64(p.HitRow-1)))
	narrow := 1 - 0.5*math.Max(0, math.Min(1, t))
	col = p.Cols/2 + int(math.Round(v.X*p.ColsPerUnit*narrow))
	ok = row >= 1 && row <= p.Rows && col >= 1 && col <= p.Cols
	return row, col, ok
}
