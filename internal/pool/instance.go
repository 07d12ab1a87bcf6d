package pool

import (
	"image/color"

	"git.lost.host/meutraa/notefall/internal/game"
	"git.lost.host/meutraa/notefall/internal/position"
)

// Template is the host supplied prototype for one note type.
type Template struct {
	Name  string
	Scale float64 // Base scale, 0 means 1
	Color color.RGBA
}

type Quat struct {
	X, Y, Z, W float64
}

type Transform struct {
	Position position.Vec3
	Rotation Quat
	Scale    position.Vec3
}

// Identity is zero offset, no rotation and unit scale.
func Identity() Transform {
	return Transform{
		Rotation: Quat{W: 1},
		Scale:    position.Vec3{X: 1, Y: 1, Z: 1},
	}
}

type state uint8

const (
	pooled state = iota
	active
	destroyed
)

// Instance is a recyclable note visual. While active it belongs to whoever
// called Get, while pooled it belongs to the Pool.
type Instance struct {
	Transform Transform
	Alpha     float64
	Note      *game.Note // The note being shown, nil while pooled

	id       int
	noteType game.NoteType
	template *Template
	state    state
	slot     int // Index in the active list, -1 when not active
}

func (i *Instance) ID() int {
	return i.id
}

func (i *Instance) Type() game.NoteType {
	return i.noteType
}

func (i *Instance) Template() *Template {
	return i.template
}

func (i *Instance) Active() bool {
	return i.state == active
}

// SetScale applies a uniform scale on top of the template scale.
func (i *Instance) SetScale(s float64) {
	base := i.template.Scale
	if base == 0 {
		base = 1
	}
	i.Transform.Scale = position.Vec3{X: s * base, Y: s * base, Z: s * base}
}

func (i *Instance) reset() {
	i.Transform = Identity()
	i.Alpha = 0
	i.Note = nil
	i.slot = -1
}
