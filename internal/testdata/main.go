package testdata

import (
	"encoding/json"
	"math/rand"

	"git.lost.host/meutraa/notefall/internal/game"
)

// GetChart decodes a short 4 key chart with taps and holds.
func GetChart() (*game.Chart, error) {
	var chart game.Chart
	if err := json.Unmarshal([]byte(data), &chart); nil != err {
		return nil, err
	}
	return &chart, nil
}

// Generate builds a chart of n notes in random order, for sorting and load
// tests. The same seed always gives the same chart.
func Generate(n int, lanes uint8, seed int64) *game.Chart {
	r := rand.New(rand.NewSource(seed))
	notes := make([]*game.Note, n)
	for i := range notes {
		note := &game.Note{
			Lane:  r.Intn(int(lanes)),
			Beat:  float64(r.Intn(n*2)) / 4,
			Denom: 1 << uint(r.Intn(4)),
		}
		if r.Intn(5) == 0 {
			note.Type = game.Hold
			note.HoldDuration = float64(1+r.Intn(8)) / 4
		}
		notes[i] = note
	}
	return &game.Chart{
		Notes:      notes,
		BPMs:       []game.BPM{{StartingBeat: 0, Value: 120}},
		Difficulty: game.Difficulty{Name: "Generated", NKeys: lanes},
	}
}

const data = `{
  "BPMs": [{"StartingBeat": 0, "Value": 120}],
  "Offset": 0,
  "Difficulty": {"Name": "Beginner", "Msd": "1", "NKeys": 4},
  "Notes": [
    {"Lane": 0, "Type": 0, "Beat": 4, "Denom": 1},
    {"Lane": 1, "Type": 0, "Beat": 5, "Denom": 1},
    {"Lane": 2, "Type": 1, "Beat": 6, "HoldDuration": 2, "Denom": 1},
    {"Lane": 3, "Type": 0, "Beat": 6.5, "Denom": 2},
    {"Lane": 0, "Type": 0, "Beat": 7, "Denom": 1},
    {"Lane": 3, "Type": 0, "Beat": 7, "Denom": 1},
    {"Lane": 1, "Type": 1, "Beat": 8, "HoldDuration": 1, "Denom": 1},
    {"Lane": 2, "Type": 0, "Beat": 8.25, "Denom": 4},
    {"Lane": 3, "Type": 0, "Beat": 8.5, "Denom": 2},
    {"Lane": 0, "Type": 0, "Beat": 9, "Denom": 1}
  ]
}`
