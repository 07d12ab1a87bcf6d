package clock

// Params describe the travel axis, spawn plane at SpawnZ, hit line at HitZ.
// NoteSpeed is in distance units per beat.
type Params struct {
	SpawnZ    float64
	HitZ      float64
	NoteSpeed float64
}

var DefaultParams = Params{SpawnZ: 20, HitZ: 0, NoteSpeed: 20.0 / 3.0}

// NoteZ is linear in beats until hit, it does not clamp.
func (p Params) NoteZ(noteBeat, currentBeat float64) float64 {
	return p.HitZ + (noteBeat-currentBeat)*p.NoteSpeed
}

// LeadBeats is how many beats a note needs to travel from spawn to hit line.
func (p Params) LeadBeats() float64 {
	if p.NoteSpeed <= 0 {
		return 0
	}
	return (p.SpawnZ - p.HitZ) / p.NoteSpeed
}
