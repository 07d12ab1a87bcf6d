package game_test

import (
	"errors"
	"testing"

	"git.lost.host/meutraa/notefall/internal/game"
	"git.lost.host/meutraa/notefall/internal/testdata"
)

func TestLargeChartSortAndStatistics(t *testing.T) {
	chart := testdata.Generate(1000, 4, 42)
	if chart.IsSorted() {
		t.Log("generated chart should start unsorted")
		t.Fail()
	}
	chart.Sort()
	if !chart.IsSorted() {
		t.Log("chart not sorted after Sort")
		t.Fail()
	}
	if err := chart.Validate(); nil != err {
		t.Log(err)
		t.Fail()
	}

	s := chart.Statistics()
	if s.Total != 1000 || s.Taps+s.Holds != s.Total {
		t.Log("stats", s)
		t.Fail()
	}
	laneSum := 0
	for _, c := range s.Lanes {
		laneSum += c
	}
	if laneSum != s.Total {
		t.Log("lanes", s.Lanes)
		t.Fail()
	}
	if s.FirstBeat != chart.Notes[0].Beat || s.LastBeat < chart.Notes[len(chart.Notes)-1].Beat {
		t.Log("stats", s)
		t.Fail()
	}
}

func TestSortIsStableOnLaneTies(t *testing.T) {
	chart := &game.Chart{Notes: []*game.Note{
		{Lane: 3, Beat: 2},
		{Lane: 1, Beat: 2},
		{Lane: 0, Beat: 1},
	}}
	chart.Sort()
	lanes := []int{0, 1, 3}
	for i, n := range chart.Notes {
		if n.Lane != lanes[i] {
			t.Log("notes", chart.Notes[0], chart.Notes[1], chart.Notes[2])
			t.Fail()
		}
	}
}

func TestRange(t *testing.T) {
	chart, err := testdata.GetChart()
	if nil != err {
		t.Fatal("unable to parse chart", err)
	}
	tests := []struct {
		from, to float64
		expected int
	}{
		{0, 4, 0},
		{4, 5, 1},
		{4, 7, 4},
		{7, 7.0001, 2},
		{6, 9, 7},
		{0, 100, 10},
		{9.5, 100, 0},
		{5, 4, 0},
	}
	for _, test := range tests {
		out := chart.Range(test.from, test.to)
		if len(out) != test.expected {
			t.Log("range   ", test.from, test.to)
			t.Log("out     ", len(out))
			t.Log("expected", test.expected)
			t.Fail()
		}
		for _, n := range out {
			if n.Beat < test.from || n.Beat >= test.to {
				t.Log("note outside range", n)
				t.Fail()
			}
		}
	}
}

func TestValidate(t *testing.T) {
	chart, err := testdata.GetChart()
	if nil != err {
		t.Fatal("unable to parse chart", err)
	}
	if err := chart.Validate(); nil != err {
		t.Log(err)
		t.Fail()
	}

	bad := &game.Chart{
		Difficulty: game.Difficulty{NKeys: 4},
		Notes: []*game.Note{
			{Lane: 0, Beat: 2},
			{Lane: 4, Beat: 1},
			{Lane: -1, Beat: -1, HoldDuration: -2, Type: game.Hold},
		},
	}
	err = bad.Validate()
	var verr *game.ValidationError
	if !errors.As(err, &verr) {
		t.Log("expected a validation error, got", err)
		t.FailNow()
	}
	// lane 4, order, negative beat, negative hold, lane -1, order
	if len(verr.Problems) != 6 {
		t.Log(verr.Problems)
		t.Fail()
	}
}

func TestStatisticsFromTestdata(t *testing.T) {
	chart, err := testdata.GetChart()
	if nil != err {
		t.Fatal("unable to parse chart", err)
	}
	s := chart.Statistics()
	if s.Total != 10 || s.Taps != 8 || s.Holds != 2 {
		t.Log("stats", s)
		t.Fail()
	}
	if s.FirstBeat != 4 || s.LastBeat != 9 {
		t.Log("stats", s)
		t.Fail()
	}
	if chart.BPM() != 120 {
		t.Fail()
	}
}

func TestBPMDefault(t *testing.T) {
	if (&game.Chart{}).BPM() != game.DefaultBPM {
		t.Fail()
	}
	c := &game.Chart{BPMs: []game.BPM{{StartingBeat: 0, Value: 0}, {StartingBeat: 8, Value: 150}}}
	if c.BPM() != game.DefaultBPM {
		t.Log("bpm", c.BPM())
		t.Fail()
	}
}

func TestSetActiveClamps(t *testing.T) {
	chart, _ := testdata.GetChart()
	chart.SetActive(-3, 400)
	notes, start, end := chart.Active()
	if start != 0 || end != 10 || len(notes) != 10 {
		t.Log(start, end, len(notes))
		t.Fail()
	}
}

func TestNoteType(t *testing.T) {
	for _, nt := range game.NoteTypes {
		out, err := game.ParseNoteType(nt.String())
		if nil != err || out != nt {
			t.Log(nt, out, err)
			t.Fail()
		}
	}
	if _, err := game.ParseNoteType("mine"); nil == err {
		t.Fail()
	}
	hold := game.Note{Type: game.Hold, Beat: 2, HoldDuration: 1.5}
	tap := game.Note{Type: game.Tap, Beat: 2, HoldDuration: 1.5}
	if hold.EndBeat() != 3.5 || tap.EndBeat() != 2 {
		t.Fail()
	}
}
