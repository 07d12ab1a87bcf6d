package parser

import (
	"encoding/json"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.lost.host/meutraa/notefall/internal/game"
	"github.com/pkg/errors"
)

// FixedHoldBeats is the length of every hold in a grid chart. Rows only mark
// where a hold starts, so the real length is unknown.
const FixedHoldBeats = 1.0

// GridParser reads JSON note grids:
//
//	{"name": "Easy", "bpm": 120, "offset": 0.05, "lanes": 4, "rowsPerBeat": 4,
//	 "rows": ["1000", "0000", "0200", ...]}
//
// Each row is one 1/rowsPerBeat slice of a beat, '1' is a tap and '2' a hold.
type GridParser struct{}

type grid struct {
	Name        string   `json:"name"`
	BPM         float64  `json:"bpm"`
	Offset      float64  `json:"offset"` // Seconds into the audio of beat 0
	Lanes       uint8    `json:"lanes"`
	RowsPerBeat int      `json:"rowsPerBeat"`
	Rows        []string `json:"rows"`
}

func isGrid(file string) bool {
	return strings.EqualFold(filepath.Ext(file), ".json")
}

func (p *GridParser) Parse(file string) ([]*game.Chart, error) {
	f, err := os.Open(file)
	if nil != err {
		return nil, errors.Wrap(err, "unable to open chart")
	}
	defer f.Close()
	chart, err := p.Decode(f)
	if nil != err {
		return nil, errors.Wrapf(err, "unable to parse %s", file)
	}
	return []*game.Chart{chart}, nil
}

func (p *GridParser) Decode(r io.Reader) (*game.Chart, error) {
	var g grid
	if err := json.NewDecoder(r).Decode(&g); nil != err {
		return nil, errors.Wrap(err, "bad grid json")
	}
	if g.Lanes == 0 {
		return nil, errors.New("grid has no lanes")
	}
	if g.RowsPerBeat <= 0 {
		return nil, errors.Errorf("rowsPerBeat must be positive, got %d", g.RowsPerBeat)
	}
	if g.Name == "" {
		g.Name = "Grid"
	}

	notes := []*game.Note{}
	for i, row := range g.Rows {
		if len(row) > int(g.Lanes) {
			return nil, errors.Errorf("row %d has %d lanes, want %d", i, len(row), g.Lanes)
		}
		beat := float64(i) / float64(g.RowsPerBeat)
		denom := big.NewRat(int64(i), int64(g.RowsPerBeat)).Denom().Int64()
		for lane := 0; lane < len(row); lane++ {
			note := &game.Note{Lane: lane, Beat: beat, Denom: int(denom)}
			switch row[lane] {
			case '0', '.':
				continue
			case '1':
			case '2':
				note.Type = game.Hold
				note.HoldDuration = FixedHoldBeats
			default:
				return nil, errors.Errorf("row %d lane %d: unknown cell %q", i, lane, row[lane])
			}
			notes = append(notes, note)
		}
	}

	chart := &game.Chart{
		Notes:      notes,
		BPMs:       []game.BPM{{StartingBeat: 0, Value: g.BPM}},
		Offset:     time.Duration(g.Offset * float64(time.Second)),
		Difficulty: game.Difficulty{Name: g.Name, NKeys: g.Lanes},
	}
	if err := finish(chart); nil != err {
		return nil, err
	}
	return chart, nil
}
