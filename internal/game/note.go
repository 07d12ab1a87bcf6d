package game

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

type NoteType uint8

const (
	Tap NoteType = iota
	Hold
)

// NoteTypes lists every variant, in pool category order.
var NoteTypes = [...]NoteType{Tap, Hold}

func (t NoteType) String() string {
	switch t {
	case Tap:
		return "tap"
	case Hold:
		return "hold"
	}
	return fmt.Sprintf("NoteType(%d)", uint8(t))
}

func ParseNoteType(s string) (NoteType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tap":
		return Tap, nil
	case "hold":
		return Hold, nil
	}
	return Tap, errors.Errorf("unknown note type %q", s)
}

type Note struct {
	Lane         int      // The chart column, 0 is leftmost
	Type         NoteType
	Beat         float64  // The beat the note should be hit on
	HoldDuration float64  // Beats the note must be held for, holds only

	// Presentation only, none of these change when a note spawns or retires.
	// Scale multiplies the instance scale the scheduler computes.
	Denom  int     // The beat length, as a denominator, 4 = 1/4 beat
	Scale  float64 // Visual scale multiplier, 0 means 1
	Weight float64 // Score weight
}

// EndBeat is the beat at which the note stops needing input.
func (n *Note) EndBeat() float64 {
	if n.Type == Hold {
		return n.Beat + n.HoldDuration
	}
	return n.Beat
}
