// Package position maps a note and the current beat to where, how large and
// how opaque the note is drawn. Everything here is a pure function of its
// inputs.
package position

import (
	"math"

	"git.lost.host/meutraa/notefall/internal/clock"
	"git.lost.host/meutraa/notefall/internal/game"
)

const (
	MinScale      = 0.5 // At the spawn plane
	MaxScale      = 1.5 // At the hit line
	FadeThreshold = 0.7 // Fraction of spawn distance below which notes are opaque
)

type Vec3 struct {
	X, Y, Z float64
}

type Position3D struct {
	X, Y, Z float64
}

func (p Position3D) Vector() Vec3 {
	return Vec3{X: p.X, Y: p.Y, Z: p.Z}
}

// DistanceToHit is negative once the note has passed the hit line.
func (p Position3D) DistanceToHit(hitZ float64) float64 {
	return p.Z - hitZ
}

// Lanes builds a lane table symmetric about 0, with spacing between
// neighbouring lanes. Lanes(4, 2) is {-3, -1, 1, 3}.
func Lanes(count int, spacing float64) []float64 {
	if count <= 0 {
		return nil
	}
	lanes := make([]float64, count)
	center := float64(count-1) / 2
	for i := range lanes {
		lanes[i] = (float64(i) - center) * spacing
	}
	return lanes
}

type Calculator struct {
	Lanes         []float64
	Heights       map[game.NoteType]float64
	Clock         clock.Params
	FadeThreshold float64 // 0 means FadeThreshold
}

// Position ignores out of range lanes by placing the note at X 0.
func (c *Calculator) Position(note *game.Note, currentBeat float64) Position3D {
	var x float64
	if note.Lane >= 0 && note.Lane < len(c.Lanes) {
		x = c.Lanes[note.Lane]
	}
	return Position3D{
		X: x,
		Y: c.Heights[note.Type],
		Z: c.Clock.NoteZ(note.Beat, currentBeat),
	}
}

// Scale and Alpha measure z from the hit line.
func (c *Calculator) Scale(z float64) float64 {
	return ScaleByDistance(z-c.Clock.HitZ, c.Clock.SpawnZ-c.Clock.HitZ)
}

func (c *Calculator) Alpha(z float64) float64 {
	threshold := c.FadeThreshold
	if threshold <= 0 {
		threshold = FadeThreshold
	}
	return AlphaByDistanceRatio(z-c.Clock.HitZ, c.Clock.SpawnZ-c.Clock.HitZ, threshold)
}

// ScaleByDistance goes linearly from MaxScale at z 0 to MinScale at spawnZ,
// clamped outside that range.
func ScaleByDistance(z, spawnZ float64) float64 {
	if spawnZ <= 0 {
		return MaxScale
	}
	t := clamp01(z / spawnZ)
	return MaxScale - t*(MaxScale-MinScale)
}

func AlphaByDistance(z, spawnZ float64) float64 {
	return AlphaByDistanceRatio(z, spawnZ, FadeThreshold)
}

// AlphaByDistanceRatio is opaque up to threshold*spawnZ and fades linearly
// to transparent at spawnZ.
func AlphaByDistanceRatio(z, spawnZ, threshold float64) float64 {
	if spawnZ <= 0 {
		return 1
	}
	start := threshold * spawnZ
	if z <= start {
		return 1
	}
	if z >= spawnZ {
		return 0
	}
	return (spawnZ - z) / (spawnZ - start)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
