package schedule

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"git.lost.host/meutraa/notefall/internal/clock"
	"git.lost.host/meutraa/notefall/internal/game"
	"git.lost.host/meutraa/notefall/internal/log"
	"git.lost.host/meutraa/notefall/internal/pool"
	"git.lost.host/meutraa/notefall/internal/position"
	"git.lost.host/meutraa/notefall/internal/testdata"
)

// Four beats from spawn plane to hit line
var params = clock.Params{SpawnZ: 20, HitZ: 0, NoteSpeed: 5}

var templates = map[game.NoteType]pool.Template{
	game.Tap:  {Name: "tap", Scale: 1},
	game.Hold: {Name: "hold", Scale: 1},
}

type session struct {
	src       *clock.ManualSource
	conductor *clock.Conductor
	pool      *pool.Pool
	scheduler *Scheduler
}

func newSession(chart *game.Chart, tmpl map[game.NoteType]pool.Template, cfg Config, logger *log.Logger) *session {
	src := &clock.ManualSource{}
	conductor := clock.New(src, chart.BPM(), params)
	p := pool.New(pool.Config{InitialSize: 4, MaxSize: 16}, tmpl, logger)
	calc := &position.Calculator{
		Lanes:   position.Lanes(4, 2),
		Heights: map[game.NoteType]float64{game.Tap: 0, game.Hold: 0.1},
		Clock:   params,
	}
	return &session{
		src:       src,
		conductor: conductor,
		pool:      p,
		scheduler: New(conductor, chart, p, calc, cfg, logger),
	}
}

func (s *session) play() {
	s.src.Play()
	s.conductor.Start()
	s.scheduler.Start()
}

func (s *session) at(d time.Duration) {
	s.src.Set(d)
	s.scheduler.Tick()
}

func checkStatistics(t *testing.T, s Statistics) {
	t.Helper()
	if s.Spawned != s.Active+s.Retired || s.Remaining != s.Total-s.Spawned-s.Skipped || s.Remaining < 0 {
		t.Log("stats", s)
		t.Fail()
	}
}

func TestSingleTapLifecycle(t *testing.T) {
	chart := &game.Chart{
		BPMs:       []game.BPM{{Value: 120}},
		Difficulty: game.Difficulty{NKeys: 4},
		Notes:      []*game.Note{{Lane: 1, Beat: 4}},
	}
	s := newSession(chart, templates, Config{LeadBeats: 3}, nil)
	s.play()

	var inst *pool.Instance
	lastZ := math.Inf(1)
	retiredAt := -1.0
	for ms := 0; ms <= 3000; ms += 10 {
		s.at(time.Duration(ms) * time.Millisecond)
		beat := s.scheduler.Beat()
		stats := s.scheduler.Statistics()
		checkStatistics(t, stats)

		if beat < 1 && stats.Spawned != 0 {
			t.Log("spawned early at beat", beat)
			t.Fail()
		}
		if beat >= 1 && beat <= 4 && stats.Active != 1 {
			t.Log("not active at beat", beat)
			t.Fail()
		}
		if stats.Active == 1 {
			inst = s.scheduler.Active()[0]
			z := inst.Transform.Position.Z
			if z >= lastZ {
				t.Log("z did not decrease at beat", beat, z, lastZ)
				t.Fail()
			}
			lastZ = z
			if inst.Transform.Position.X != -1 {
				t.Log("x", inst.Transform.Position.X)
				t.Fail()
			}
		}
		if stats.Retired == 1 && retiredAt < 0 {
			retiredAt = beat
		}
	}

	if retiredAt <= 4 {
		t.Log("retired at", retiredAt)
		t.Fail()
	}
	if inst.Active() {
		t.Log("instance still active after retirement")
		t.Fail()
	}
	if ps := s.pool.Stats(game.Tap); ps.Active != 0 {
		t.Log("pool", ps)
		t.Fail()
	}
	if !s.scheduler.Finished() {
		t.Fail()
	}
}

func TestSpawnsOnSpawnPlane(t *testing.T) {
	chart := &game.Chart{Notes: []*game.Note{{Lane: 0, Beat: 6}}, Difficulty: game.Difficulty{NKeys: 4}}
	s := newSession(chart, templates, Config{}, nil)
	s.play()
	s.at(1000 * time.Millisecond) // beat 2, lead defaults to 4 beats

	active := s.scheduler.Active()
	if len(active) != 1 {
		t.Fatal("expected one active note")
	}
	inst := active[0]
	if math.Abs(inst.Transform.Position.Z-params.SpawnZ) > 1e-9 {
		t.Log("z", inst.Transform.Position.Z)
		t.Fail()
	}
	if math.Abs(inst.Transform.Scale.X-position.MinScale) > 1e-9 || inst.Alpha > 1e-9 {
		t.Log("scale", inst.Transform.Scale)
		t.Log("alpha", inst.Alpha)
		t.Fail()
	}
	s.at(3000 * time.Millisecond) // beat 6, on the hit line
	if math.Abs(inst.Transform.Scale.X-position.MaxScale) > 1e-9 || inst.Alpha != 1 {
		t.Log("scale", inst.Transform.Scale)
		t.Log("alpha", inst.Alpha)
		t.Fail()
	}
}

func TestNoteScaleMultipliesInstanceScale(t *testing.T) {
	chart := &game.Chart{
		Notes: []*game.Note{
			{Lane: 0, Beat: 6, Scale: 2},
			{Lane: 1, Beat: 6},
		},
		Difficulty: game.Difficulty{NKeys: 4},
	}
	s := newSession(chart, templates, Config{}, nil)
	s.play()
	s.at(3000 * time.Millisecond) // beat 6, on the hit line

	active := s.scheduler.Active()
	if len(active) != 2 {
		t.Fatal("expected two active notes, got", len(active))
	}
	for i, expected := range []float64{2 * position.MaxScale, position.MaxScale} {
		if got := active[i].Transform.Scale.X; math.Abs(got-expected) > 1e-9 {
			t.Log("note    ", i)
			t.Log("scale   ", got)
			t.Log("expected", expected)
			t.Fail()
		}
	}
}

func TestGraceDistance(t *testing.T) {
	chart := &game.Chart{Notes: []*game.Note{{Lane: 0, Beat: 4}}, Difficulty: game.Difficulty{NKeys: 4}}
	s := newSession(chart, templates, Config{GraceDistance: 10}, nil)
	s.play()
	// 10 units past the hit line is 2 beats
	s.at(2900 * time.Millisecond) // beat 5.8
	if s.scheduler.Statistics().Retired != 0 {
		t.Log("retired inside grace")
		t.Fail()
	}
	s.at(3100 * time.Millisecond) // beat 6.2
	if s.scheduler.Statistics().Retired != 1 {
		t.Log("not retired after grace", s.scheduler.Statistics())
		t.Fail()
	}
}

func TestHoldStaysThroughDuration(t *testing.T) {
	chart := &game.Chart{
		Difficulty: game.Difficulty{NKeys: 4},
		Notes:      []*game.Note{{Lane: 2, Beat: 4, Type: game.Hold, HoldDuration: 2}},
	}
	s := newSession(chart, templates, Config{}, nil)
	s.play()

	s.at(2500 * time.Millisecond) // beat 5
	active := s.scheduler.Active()
	if len(active) != 1 {
		t.Fatal("hold not active during its window")
	}
	if z := active[0].Transform.Position.Z; z != params.HitZ {
		t.Log("hold head left the hit line", z)
		t.Fail()
	}
	if y := active[0].Transform.Position.Y; y != 0.1 {
		t.Log("y", y)
		t.Fail()
	}
	s.at(2990 * time.Millisecond)
	if len(s.scheduler.Active()) != 1 {
		t.Log("hold retired early")
		t.Fail()
	}
	s.at(3000 * time.Millisecond) // beat 6
	if st := s.scheduler.Statistics(); st.Retired != 1 || st.Active != 0 {
		t.Log("stats", st)
		t.Fail()
	}
}

func TestMissingTemplateSkips(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, log.LevelWarn)
	chart, err := testdata.GetChart()
	if nil != err {
		t.Fatal("unable to parse chart", err)
	}
	s := newSession(chart, map[game.NoteType]pool.Template{game.Tap: {Name: "tap"}}, Config{}, logger)
	s.play()
	for ms := 0; ms <= 8000; ms += 16 {
		s.at(time.Duration(ms) * time.Millisecond)
		checkStatistics(t, s.scheduler.Statistics())
	}

	st := s.scheduler.Statistics()
	if st.Skipped != 2 || st.Spawned != 8 || st.Retired != 8 || st.Remaining != 0 {
		t.Log("stats", st)
		t.Fail()
	}
	if strings.Count(buf.String(), "WARN: skipping hold note") != 2 {
		t.Log(buf.String())
		t.Fail()
	}
}

func TestNoProgressUntilPlaying(t *testing.T) {
	chart, _ := testdata.GetChart()
	s := newSession(chart, templates, Config{}, nil)
	s.src.Set(10 * time.Second)
	s.scheduler.Tick()
	if s.scheduler.Statistics().Spawned != 0 {
		t.Log("spawned before start")
		t.Fail()
	}

	s.scheduler.Start()
	s.scheduler.Tick()
	if s.scheduler.Statistics().Spawned != 0 {
		t.Log("spawned before the clock played")
		t.Fail()
	}

	s.src.Play()
	s.conductor.Start()
	s.at(10 * time.Second) // beat 0, only the note at beat 4 is due
	if s.scheduler.Statistics().Spawned != 1 {
		t.Log("stats", s.scheduler.Statistics())
		t.Fail()
	}

	// A stalled clock freezes everything
	s.src.Stop()
	before := s.scheduler.Statistics()
	beat := s.scheduler.Beat()
	s.at(20 * time.Second)
	if s.scheduler.Statistics() != before || s.scheduler.Beat() != beat {
		t.Log("progressed while stalled")
		t.Fail()
	}
}

func TestStopAndReset(t *testing.T) {
	chart, _ := testdata.GetChart()
	s := newSession(chart, templates, Config{}, nil)
	s.play()
	s.at(3 * time.Second) // beat 6
	if s.scheduler.Statistics().Active == 0 {
		t.Fatal("expected active notes")
	}
	held := append([]*pool.Instance(nil), s.scheduler.Active()...)

	s.scheduler.StopAndReset()
	for _, inst := range held {
		if inst.Active() {
			t.Log("instance left active", inst.ID())
			t.Fail()
		}
	}
	st := s.scheduler.Statistics()
	if st.Spawned != 0 || st.Active != 0 || st.Retired != 0 || st.Remaining != st.Total || s.scheduler.Spawning() {
		t.Log("stats", st)
		t.Fail()
	}
	for _, nt := range game.NoteTypes {
		if ps := s.pool.Stats(nt); ps.Active != 0 {
			t.Log("pool", nt, ps)
			t.Fail()
		}
	}

	// Ticks after a stop do nothing
	s.at(4 * time.Second)
	if s.scheduler.Statistics().Spawned != 0 {
		t.Fail()
	}

	// Replay from the start
	s.src.Set(0)
	s.conductor.Start()
	s.scheduler.Start()
	total := 0
	s.scheduler.OnRetire = func(note *game.Note) { total++ }
	for ms := 0; ms <= 8000; ms += 16 {
		s.at(time.Duration(ms) * time.Millisecond)
	}
	if total != st.Total || !s.scheduler.Finished() {
		t.Log("retired on replay", total)
		t.Fail()
	}
}

func TestPoolClearedMidSession(t *testing.T) {
	chart, _ := testdata.GetChart()
	var out bytes.Buffer
	s := newSession(chart, templates, Config{}, log.New(&out, log.LevelWarn))
	s.play()
	s.at(3 * time.Second) // beat 6, every note spawned
	before := s.scheduler.Statistics()
	if before.Active == 0 || before.Spawned != before.Total {
		t.Fatal("stats before clear", before)
	}

	s.pool.Clear()
	s.at(3*time.Second + 16*time.Millisecond)
	st := s.scheduler.Statistics()
	checkStatistics(t, st)
	if st.Active != 0 || st.Retired != st.Spawned {
		t.Log("stats after clear", st)
		t.Fail()
	}
	if !strings.Contains(out.String(), "outside the scheduler") {
		t.Log("log", out.String())
		t.Fail()
	}

	for ms := 3100; ms <= 8000; ms += 100 {
		s.at(time.Duration(ms) * time.Millisecond)
	}
	if !s.scheduler.Finished() {
		t.Log("stats", s.scheduler.Statistics())
		t.Fail()
	}
	for _, nt := range game.NoteTypes {
		ps := s.pool.Stats(nt)
		if ps.Active != 0 || ps.Created != ps.Active+ps.Pooled+ps.Destroyed {
			t.Log("pool", nt, ps)
			t.Fail()
		}
	}
}

func TestSpawnOrderAscending(t *testing.T) {
	chart := testdata.Generate(200, 4, 3)
	chart.Sort()
	s := newSession(chart, templates, Config{}, nil)
	s.play()

	last := -1.0
	for ms := 0; ms <= 100000; ms += 16 {
		s.at(time.Duration(ms) * time.Millisecond)
		for _, inst := range s.scheduler.Active() {
			if nil == inst.Note {
				t.Fatal("active instance without note")
			}
		}
		st := s.scheduler.Statistics()
		if st.Spawned > 0 {
			spawnedLast := chart.Notes[st.Spawned-1].Beat
			if spawnedLast < last {
				t.Log("spawn order went backwards")
				t.Fail()
			}
			last = spawnedLast
		}
	}
}

func TestThousandNoteChart(t *testing.T) {
	chart := testdata.Generate(1000, 4, 42)
	chart.Sort()
	if err := chart.Validate(); nil != err {
		t.Fatal(err)
	}
	s := newSession(chart, templates, Config{}, nil)
	s.play()

	seen := map[*game.Note]int{}
	s.scheduler.OnRetire = func(note *game.Note) { seen[note]++ }
	end := time.Duration((chart.Statistics().LastBeat+8)*0.5*1000) * time.Millisecond
	for d := time.Duration(0); d <= end; d += 16 * time.Millisecond {
		s.at(d)
		checkStatistics(t, s.scheduler.Statistics())
	}

	st := s.scheduler.Statistics()
	if st.Spawned != 1000 || st.Retired != 1000 || st.Remaining != 0 || st.Active != 0 {
		t.Log("stats", st)
		t.Fail()
	}
	if len(seen) != 1000 {
		t.Log("distinct notes retired", len(seen))
		t.Fail()
	}
	for n, count := range seen {
		if count != 1 {
			t.Log("note retired more than once", n, count)
			t.Fail()
		}
	}
	for _, nt := range game.NoteTypes {
		ps := s.pool.Stats(nt)
		if ps.Active != 0 || ps.Created != ps.Pooled+ps.Destroyed {
			t.Log("pool", nt, ps)
			t.Fail()
		}
	}
}

func BenchmarkTick(b *testing.B) {
	chart := testdata.Generate(5000, 4, 1)
	chart.Sort()
	s := newSession(chart, templates, Config{}, nil)
	s.play()
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		s.src.Advance(time.Millisecond)
		s.scheduler.Tick()
	}
}
