package clock

import (
	"math"
	"time"

	"git.lost.host/meutraa/notefall/internal/log"
)

// Conductor maps audio playback time to beats. The beat is always derived
// from the audio source, never accumulated from frame deltas.
type Conductor struct {
	src    Source
	bpm    float64
	params Params
	offset time.Duration
	logger *log.Logger

	started          bool
	inert            bool
	audioStartTime   time.Duration
	currentAudioTime time.Duration
}

type Option func(*Conductor)

// WithOffset shifts beat 0 later into the audio by d.
func WithOffset(d time.Duration) Option {
	return func(c *Conductor) { c.offset = d }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Conductor) { c.logger = l }
}

// New falls back to game tempo 120 when bpm is not positive.
func New(src Source, bpm float64, params Params, opts ...Option) *Conductor {
	c := &Conductor{
		src:    src,
		bpm:    120,
		params: params,
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if bpm > 0 {
		c.bpm = bpm
	} else {
		c.logger.Warnf("conductor created with bpm %v, using %v", bpm, c.bpm)
	}
	return c
}

// Start marks the current source time as the start of playback.
func (c *Conductor) Start() {
	if c.inert {
		return
	}
	c.audioStartTime = c.src.Time() + c.offset
	c.currentAudioTime = c.src.Time()
	c.started = true
}

// Stop forgets the start time, the beat reads 0 until the next Start.
func (c *Conductor) Stop() {
	if c.inert {
		return
	}
	c.started = false
	c.audioStartTime = 0
	c.currentAudioTime = 0
}

// Sample reads the audio source once and returns the current beat.
func (c *Conductor) Sample() float64 {
	if !c.inert && c.Playing() {
		c.currentAudioTime = c.src.Time()
	}
	return c.CurrentBeat()
}

func (c *Conductor) Playing() bool {
	return c.started && c.src.Playing()
}

func (c *Conductor) Started() bool {
	return c.started
}

// Inert conductors lost registration to another instance.
func (c *Conductor) Inert() bool {
	return c.inert
}

func (c *Conductor) BPM() float64 {
	return c.bpm
}

func (c *Conductor) Params() Params {
	return c.params
}

// BeatDuration is 60/bpm seconds.
func (c *Conductor) BeatDuration() float64 {
	return 60 / c.bpm
}

func (c *Conductor) AudioStartTime() time.Duration {
	return c.audioStartTime
}

func (c *Conductor) CurrentAudioTime() time.Duration {
	return c.currentAudioTime
}

func (c *Conductor) CurrentBeat() float64 {
	if !c.started {
		return 0
	}
	return (c.currentAudioTime - c.audioStartTime).Seconds() / c.BeatDuration()
}

// ChangeBPM ignores anything that is not a positive finite tempo.
func (c *Conductor) ChangeBPM(bpm float64) bool {
	if c.inert {
		return false
	}
	if !(bpm > 0) || math.IsInf(bpm, 1) {
		c.logger.Warnf("rejected bpm change to %v, keeping %v", bpm, c.bpm)
		return false
	}
	c.bpm = bpm
	return true
}

// ShouldSpawnNote is true once the lead window before noteBeat has opened.
func (c *Conductor) ShouldSpawnNote(noteBeat, leadBeats float64) bool {
	return c.CurrentBeat() >= noteBeat-leadBeats
}

func (c *Conductor) IsNoteInHitZone(beatOffset, toleranceBeats float64) bool {
	return math.Abs(beatOffset) <= toleranceBeats
}

// TimeUntilBeat is negative once the target has passed.
func (c *Conductor) TimeUntilBeat(targetBeat float64) time.Duration {
	seconds := (targetBeat - c.CurrentBeat()) * c.BeatDuration()
	return time.Duration(math.Round(seconds * float64(time.Second)))
}

func (c *Conductor) NoteZPosition(noteBeat float64) float64 {
	return c.params.NoteZ(noteBeat, c.CurrentBeat())
}
