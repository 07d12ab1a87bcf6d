package schedule

import (
	"git.lost.host/meutraa/notefall/internal/clock"
	"git.lost.host/meutraa/notefall/internal/game"
	"git.lost.host/meutraa/notefall/internal/log"
	"git.lost.host/meutraa/notefall/internal/pool"
	"git.lost.host/meutraa/notefall/internal/position"
)

// Clock is the part of clock.Conductor the scheduler reads.
type Clock interface {
	Sample() float64
	Playing() bool
	ShouldSpawnNote(noteBeat, leadBeats float64) bool
	Params() clock.Params
}

// Pool is the part of pool.Pool the scheduler drives.
type Pool interface {
	Get(t game.NoteType) (*pool.Instance, error)
	Put(inst *pool.Instance)
}

type Config struct {
	LeadBeats     float64 // 0 means the clock's travel time from spawn to hit line
	GraceDistance float64 // How far past the hit line a tap travels before retiring
}

var DefaultConfig = Config{GraceDistance: 2}

type Statistics struct {
	Total     int
	Spawned   int
	Active    int
	Retired   int
	Skipped   int // Notes that could not get an instance
	Remaining int // Notes still pending
}

// Scheduler moves each chart note through Pending, Active and Retired. All
// methods must be called from the tick goroutine.
type Scheduler struct {
	clock  Clock
	chart  *game.Chart
	pool   Pool
	calc   *position.Calculator
	cfg    Config
	logger *log.Logger

	// OnRetire runs after an instance went back to the pool
	OnRetire func(note *game.Note)

	spawning bool
	next     int // Index of the first pending note
	active   []*pool.Instance
	beat     float64
	spawned  int
	retired  int
	skipped  int
}

func New(c Clock, chart *game.Chart, p Pool, calc *position.Calculator, cfg Config, logger *log.Logger) *Scheduler {
	if nil == logger {
		logger = log.Discard()
	}
	if cfg.LeadBeats <= 0 {
		cfg.LeadBeats = c.Params().LeadBeats()
	}
	if cfg.GraceDistance < 0 {
		cfg.GraceDistance = 0
	}
	return &Scheduler{
		clock:  c,
		chart:  chart,
		pool:   p,
		calc:   calc,
		cfg:    cfg,
		logger: logger,
		active: make([]*pool.Instance, 0, 64),
	}
}

// Start begins spawning. Ticks do nothing until the clock is playing.
func (s *Scheduler) Start() {
	s.spawning = true
}

func (s *Scheduler) Spawning() bool {
	return s.spawning
}

// Beat is the beat sampled by the last tick.
func (s *Scheduler) Beat() float64 {
	return s.beat
}

// Active lists the instances on screen. The slice is reused every tick.
func (s *Scheduler) Active() []*pool.Instance {
	return s.active
}

func (s *Scheduler) Config() Config {
	return s.cfg
}

// Tick samples the clock, then spawns, repositions and retires, in that order.
func (s *Scheduler) Tick() {
	if !s.spawning || !s.clock.Playing() {
		return
	}
	s.beat = s.clock.Sample()
	s.prune()
	s.spawn()
	s.reposition()
	s.retire()
}

func (s *Scheduler) spawn() {
	notes := s.chart.Notes
	for s.next < len(notes) {
		note := notes[s.next]
		if !s.clock.ShouldSpawnNote(note.Beat, s.cfg.LeadBeats) {
			return
		}
		s.next++

		inst, err := s.pool.Get(note.Type)
		if nil != err {
			s.skipped++
			s.logger.Warnf("skipping %v note at beat %v lane %d: %v", note.Type, note.Beat, note.Lane, err)
			continue
		}
		inst.Note = note
		s.active = append(s.active, inst)
		s.spawned++
	}
}

// prune drops instances the pool took back behind the scheduler's back, as
// Pool.Clear does. They count as retired.
func (s *Scheduler) prune() {
	kept := s.active[:0]
	for _, inst := range s.active {
		if !inst.Active() || nil == inst.Note {
			s.retired++
			continue
		}
		kept = append(kept, inst)
	}
	if dropped := len(s.active) - len(kept); dropped > 0 {
		s.logger.Warnf("%d active notes were returned to the pool outside the scheduler", dropped)
	}
	for i := len(kept); i < len(s.active); i++ {
		s.active[i] = nil
	}
	s.active = kept
}

func (s *Scheduler) reposition() {
	params := s.clock.Params()
	for _, inst := range s.active {
		note := inst.Note
		p := s.calc.Position(note, s.beat)
		if note.Type == game.Hold && s.beat >= note.Beat && p.Z < params.HitZ {
			// The head waits on the hit line while the hold runs
			p.Z = params.HitZ
		}
		if p.Z > params.SpawnZ {
			p.Z = params.SpawnZ
		}
		inst.Transform.Position = p.Vector()
		inst.SetScale(s.calc.Scale(p.Z) * noteScale(note))
		inst.Alpha = s.calc.Alpha(p.Z)
	}
}

func noteScale(n *game.Note) float64 {
	if n.Scale == 0 {
		return 1
	}
	return n.Scale
}

func (s *Scheduler) retire() {
	params := s.clock.Params()
	kept := s.active[:0]
	for _, inst := range s.active {
		if s.done(inst.Note, params) {
			note := inst.Note
			s.pool.Put(inst)
			s.retired++
			if nil != s.OnRetire {
				s.OnRetire(note)
			}
			continue
		}
		kept = append(kept, inst)
	}
	for i := len(kept); i < len(s.active); i++ {
		s.active[i] = nil
	}
	s.active = kept
}

func (s *Scheduler) done(note *game.Note, params clock.Params) bool {
	if note.Type == game.Hold {
		return s.beat >= note.EndBeat()
	}
	return params.NoteZ(note.Beat, s.beat) < params.HitZ-s.cfg.GraceDistance
}

// StopAndReset halts spawning, returns every active instance and rewinds to
// the first note.
func (s *Scheduler) StopAndReset() {
	s.spawning = false
	for i, inst := range s.active {
		s.pool.Put(inst)
		s.active[i] = nil
	}
	s.active = s.active[:0]
	s.next = 0
	s.beat = 0
	s.spawned = 0
	s.retired = 0
	s.skipped = 0
}

func (s *Scheduler) Statistics() Statistics {
	total := len(s.chart.Notes)
	return Statistics{
		Total:     total,
		Spawned:   s.spawned,
		Active:    len(s.active),
		Retired:   s.retired,
		Skipped:   s.skipped,
		Remaining: total - s.spawned - s.skipped,
	}
}

// Finished is true once every note has been retired or skipped.
func (s *Scheduler) Finished() bool {
	return s.next >= len(s.chart.Notes) && len(s.active) == 0
}
