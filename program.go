package main

import (
	"fmt"
	"math"
	"time"

	"git.lost.host/meutraa/notefall/internal/audio"
	"git.lost.host/meutraa/notefall/internal/clock"
	"git.lost.host/meutraa/notefall/internal/config"
	"git.lost.host/meutraa/notefall/internal/game"
	"git.lost.host/meutraa/notefall/internal/history"
	"git.lost.host/meutraa/notefall/internal/log"
	"git.lost.host/meutraa/notefall/internal/pool"
	"git.lost.host/meutraa/notefall/internal/position"
	"git.lost.host/meutraa/notefall/internal/render"
	"git.lost.host/meutraa/notefall/internal/schedule"
	"git.lost.host/meutraa/notefall/internal/theme"
	"github.com/eiannone/keyboard"
)

var templates = map[game.NoteType]pool.Template{
	game.Tap:  {Name: "tap", Scale: 1},
	game.Hold: {Name: "hold", Scale: 1},
}

type Program struct {
	Renderer render.Renderer
	Theme    theme.Theme

	chart     *game.Chart
	stats     game.Statistics
	track     *audio.Track
	store     *history.Store
	logger    *log.Logger
	conductor *clock.Conductor
	pool      *pool.Pool
	calc      *position.Calculator
	scheduler *schedule.Scheduler
	projector render.Projector

	hitWindow float64 // Beats either side of a note that count as in the hit zone
	saved     bool
}

func NewProgram(chart *game.Chart, track *audio.Track, store *history.Store, logger *log.Logger) *Program {
	p := &Program{
		Renderer: &render.DefaultRenderer{},
		Theme:    &theme.DefaultTheme{},
		chart:    chart,
		stats:    chart.Statistics(),
		track:    track,
		store:    store,
		logger:   logger,

		hitWindow: config.HitWindow(),
	}

	offset := chart.Offset + *config.Offset
	p.conductor = clock.Register(clock.New(track, chart.BPM(), config.ClockParams(),
		clock.WithOffset(offset), clock.WithLogger(logger)))
	if *config.BPM != 0 {
		p.conductor.ChangeBPM(*config.BPM)
	}

	p.pool = pool.New(config.Pool(), templates, logger)
	p.calc = config.Calculator(chart.Difficulty.NKeys)
	p.scheduler = schedule.New(p.conductor, chart, p.pool, p.calc, config.Schedule(), logger)
	p.scheduler.OnRetire = func(n *game.Note) {
		logger.Debugf("retired %v lane %d beat %v", n.Type, n.Lane, n.Beat)
	}
	return p
}

func (p *Program) Resize() {
	rows, cols := p.Renderer.Size()
	params := p.conductor.Params()
	p.projector = render.Projector{
		Rows:        rows,
		Cols:        cols,
		HitRow:      rows - *config.BarRow,
		ColsPerUnit: 3,
		SpawnZ:      params.SpawnZ,
		HitZ:        params.HitZ,
	}
}

func (p *Program) Run(keys <-chan keyboard.KeyEvent) error {
	if err := p.Renderer.Init(); nil != err {
		return fmt.Errorf("unable to initialise terminal: %w", err)
	}
	defer p.Renderer.Deinit()
	p.Resize()

	p.start(*config.Delay)
	p.Renderer.RenderLoop(*config.FramePeriod, func(now time.Time) bool {
		if !p.Update(keys) {
			return false
		}
		p.Render()
		return !p.done()
	})
	p.save()
	return nil
}

func (p *Program) start(delay time.Duration) {
	p.conductor.Start()
	p.track.Play(delay)
	p.scheduler.Start()
	p.saved = false
}

func (p *Program) replay() {
	p.save()
	p.scheduler.StopAndReset()
	p.conductor.Stop()
	if err := p.track.Restart(); nil != err {
		p.logger.Errorf("unable to rewind track: %v", err)
		return
	}
	p.start(0)
}

// Update handles input and advances the scheduler by one tick. It returns
// false when the player quits.
func (p *Program) Update(keys <-chan keyboard.KeyEvent) bool {
	// get the key inputs that occured so far
	for i := len(keys); i > 0; i-- {
		key := <-keys
		switch {
		case key.Key == keyboard.KeyEsc:
			return false
		case key.Rune == 'r':
			p.replay()
		case key.Key == keyboard.KeySpace:
			p.track.Pause(p.track.Playing())
		default:
			if lane := config.KeyColumn(key.Rune, p.chart.Difficulty.NKeys); lane >= 0 {
				p.press(lane)
			}
		}
	}

	p.scheduler.Tick()
	beat := p.scheduler.Beat()
	start, end := p.chart.IndexRange(beat, beat+p.scheduler.Config().LeadBeats)
	p.chart.SetActive(start, end)
	return true
}

// press lights the receptor when a note in the lane is inside the hit zone.
func (p *Program) press(lane int) {
	beat := p.scheduler.Beat()
	for _, inst := range p.scheduler.Active() {
		n := inst.Note
		if n.Lane != lane || !p.conductor.IsNoteInHitZone(n.Beat-beat, p.hitWindow) {
			continue
		}
		row, col, ok := p.projector.Project(position.Vec3{X: p.calc.Lanes[lane], Z: p.projector.HitZ})
		if ok {
			p.Renderer.AddDecoration(col, row, p.Theme.RenderHitField(lane, true), 24)
		}
		return
	}
}

func (p *Program) done() bool {
	return p.scheduler.Finished() && p.scheduler.Beat() > p.stats.LastBeat+4
}

func (p *Program) Render() {
	p.renderStatic()
	p.renderNotes()
	p.renderStats()
}

func (p *Program) renderStatic() {
	for i, x := range p.calc.Lanes {
		row, col, ok := p.projector.Project(position.Vec3{X: x, Z: p.projector.HitZ})
		if !ok {
			continue
		}
		p.Renderer.Fill(row, col, p.Theme.RenderHitField(i, false))
	}
}

func (p *Program) renderNotes() {
	params := p.conductor.Params()
	for _, inst := range p.scheduler.Active() {
		n := inst.Note
		v := inst.Transform.Position
		row, col, ok := p.projector.Project(v)

		if n.Type == game.Hold {
			// Draw the body from the head up to the tail
			tail := math.Min(params.NoteZ(n.EndBeat(), p.scheduler.Beat()), params.SpawnZ)
			tailRow, _, _ := p.projector.Project(position.Vec3{X: v.X, Z: tail})
			top := row - 1
			if top > p.projector.Rows {
				top = p.projector.Rows
			}
			for r := top; r > tailRow && r >= 1; r-- {
				p.Renderer.Fill(r, col, p.Theme.RenderHoldBody(inst.Alpha))
			}
		}
		if ok {
			p.Renderer.Fill(row, col, p.Theme.RenderNote(n.Type, n.Denom, inst.Alpha))
		}
	}
}

func (p *Program) renderStats() {
	st := p.scheduler.Statistics()
	_, start, end := p.chart.Active()
	lines := []string{
		fmt.Sprintf("       Beat: %8.2f", p.scheduler.Beat()),
		fmt.Sprintf("        BPM: %8.2f", p.conductor.BPM()),
		fmt.Sprintf("     Window: [%v - %v]", start, end),
		fmt.Sprintf("      Total: %6v", st.Total),
		fmt.Sprintf("      Holds: %6v", p.stats.Holds),
		fmt.Sprintf("    Spawned: %6v", st.Spawned),
		fmt.Sprintf("     Active: %6v", st.Active),
		fmt.Sprintf("    Retired: %6v", st.Retired),
		fmt.Sprintf("  Remaining: %6v", st.Remaining),
	}
	if st.Skipped > 0 {
		lines = append(lines, fmt.Sprintf("    Skipped: %6v", st.Skipped))
	}
	for _, nt := range game.NoteTypes {
		ps := p.pool.Stats(nt)
		lines = append(lines, fmt.Sprintf("%5v pool: %3v active %3v pooled", nt, ps.Active, ps.Pooled))
	}
	for i, l := range lines {
		p.Renderer.Fill(2+i, 2, l)
	}
}

func (p *Program) record() history.Record {
	st := p.scheduler.Statistics()
	peak := 0
	for _, ps := range p.pool.Statistics() {
		peak += ps.Peak
	}
	return history.Record{
		BPM:       p.conductor.BPM(),
		Total:     st.Total,
		Spawned:   st.Spawned,
		Retired:   st.Retired,
		Skipped:   st.Skipped,
		PoolPeak:  peak,
		Completed: p.scheduler.Finished() && st.Remaining == 0,
	}
}

func (p *Program) save() {
	if nil == p.store || p.saved || p.scheduler.Statistics().Spawned == 0 {
		return
	}
	p.saved = true
	if err := p.store.Save(p.chart, p.record()); nil != err {
		p.logger.Errorf("%v", err)
		return
	}
	if records, err := p.store.Load(p.chart); nil == err {
		p.logger.Infof("%d sessions recorded for %s", len(records), p.chart.Difficulty.Name)
	}
}

func (p *Program) Close() {
	p.scheduler.StopAndReset()
	p.pool.Clear()
	clock.Release(p.conductor)
}
