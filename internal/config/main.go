package config

import (
	"git.lost.host/meutraa/notefall/internal/clock"
	"git.lost.host/meutraa/notefall/internal/game"
	"git.lost.host/meutraa/notefall/internal/log"
	"git.lost.host/meutraa/notefall/internal/pool"
	"git.lost.host/meutraa/notefall/internal/position"
	"git.lost.host/meutraa/notefall/internal/schedule"
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	app = kingpin.New("notefall", "Lane based rhythm game")

	Directory   = app.Arg("directory", "Song/chart directory").Required().ExistingDir()
	BPM         = app.Flag("bpm", "Override the chart tempo, 0 keeps it").Default("0").Float64()
	Offset      = app.Flag("offset", "Global offset").Default("0ms").Short('o').Duration()
	Delay       = app.Flag("delay", "Start delay").Default("1.5s").Short('d').Duration()
	LaneSpacing = app.Flag("spacing", "Distance between lanes").Default("2").Short('S').Float64()
	SpawnZ      = app.Flag("spawn-z", "Distance of the spawn plane").Default("20").Float64()
	HitZ        = app.Flag("hit-z", "Distance of the hit line").Default("0").Float64()
	NoteSpeed   = app.Flag("note-speed", "Distance travelled per beat").Default("5").Short('s').Float64()
	Lead        = app.Flag("lead", "Beats a note is visible before its hit, 0 derives it from the speed").Default("0").Float64()
	Grace       = app.Flag("grace", "Distance past the hit line before a tap is retired").Default("2").Float64()
	PoolInitial = app.Flag("pool-initial", "Instances created per note type up front").Default("32").Int()
	PoolMax     = app.Flag("pool-max", "Pooled instances kept per note type, 0 is unbounded").Default("128").Int()
	FramePeriod = app.Flag("frame-period", "Render frame period").Default("4ms").Short('p').Duration()
	BarRow      = app.Flag("bar-row", "Console rows from the bottom to render the hit bar").Default("4").Int()
	Database    = app.Flag("db", "Session history database").Default("./sessions.db").String()
	LogLevel    = app.Flag("log-level", "debug, info, warn, error or none").Default("warn").String()
	LogFile     = app.Flag("log-file", "Log destination, the terminal is busy rendering").Default("./notefall.log").String()
	keysFour    = app.Flag("keys-single", "Keys for 4k").Default("dfjk").Short('k').String()
	keysSix     = app.Flag("keys-solo", "Keys for 6k").Default("sdfjkl").String()
	keysEight   = app.Flag("keys-double", "Keys for 8k").Default("asdfjkl;").String()
	holdHeight  = app.Flag("hold-height", "Height of hold notes above the lane").Default("0.1").Float64()
	tolerance   = app.Flag("hit-window", "Hit zone tolerance in beats").Default("0.25").Float64()
)

func init() {
	app.Version("0.3.0")
}

// Parse reads the command line, exiting on bad flags like kingpin does.
func Parse(args []string) {
	kingpin.MustParse(app.Parse(args))
}

func Keys(nKeys uint8) []rune {
	switch nKeys {
	case 4:
		return []rune(*keysFour)
	case 6:
		return []rune(*keysSix)
	case 8:
		return []rune(*keysEight)
	}
	return []rune(*keysFour)
}

func KeyColumn(r rune, nKeys uint8) int {
	for i, c := range Keys(nKeys) {
		if r == c {
			return i
		}
	}
	return -1
}

func HitWindow() float64 {
	return *tolerance
}

func Level() log.Level {
	return log.LevelFromString(*LogLevel)
}

func ClockParams() clock.Params {
	return clock.Params{SpawnZ: *SpawnZ, HitZ: *HitZ, NoteSpeed: *NoteSpeed}
}

func Pool() pool.Config {
	return pool.Config{InitialSize: *PoolInitial, MaxSize: *PoolMax}
}

func Schedule() schedule.Config {
	return schedule.Config{LeadBeats: *Lead, GraceDistance: *Grace}
}

func Calculator(nKeys uint8) *position.Calculator {
	return &position.Calculator{
		Lanes: position.Lanes(int(nKeys), *LaneSpacing),
		Heights: map[game.NoteType]float64{
			game.Tap:  0,
			game.Hold: *holdHeight,
		},
		Clock: ClockParams(),
	}
}
