package clock

import "time"

// Source is the audio subsystem clock. Time must increase monotonically
// while Playing reports true.
type Source interface {
	Playing() bool
	Time() time.Duration
}

// ManualSource is a Source driven by hand, for tests and headless runs.
type ManualSource struct {
	playing bool
	now     time.Duration
}

func (s *ManualSource) Playing() bool {
	return s.playing
}

func (s *ManualSource) Time() time.Duration {
	return s.now
}

func (s *ManualSource) Play() {
	s.playing = true
}

func (s *ManualSource) Stop() {
	s.playing = false
}

func (s *ManualSource) Set(t time.Duration) {
	s.now = t
}

func (s *ManualSource) Advance(d time.Duration) {
	s.now += d
}
