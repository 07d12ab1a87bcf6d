package parser

import (
	"math/big"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"git.lost.host/meutraa/notefall/internal/game"
	"github.com/pkg/errors"
)

// DefaultParser reads StepMania .sm files.
type DefaultParser struct{}

// tempo walks the chart's tempo markers, keeping only positive tempos in
// beat order. Beats before the first marker play at base.
type tempo struct {
	base  float64
	rates []game.BPM
}

func newTempo(bpms []game.BPM) tempo {
	rates := []game.BPM{}
	for _, b := range bpms {
		if b.Value > 0 {
			rates = append(rates, b)
		}
	}
	sort.SliceStable(rates, func(i, j int) bool {
		return rates[i].StartingBeat < rates[j].StartingBeat
	})
	return tempo{
		base:  (&game.Chart{BPMs: bpms}).BPM(),
		rates: rates,
	}
}

// beatAt moves a chart beat onto the base tempo grid, where one beat is
// always 60/base seconds of audio.
func (t tempo) beatAt(beat float64) float64 {
	out, from, bpm := 0.0, 0.0, t.base
	for _, r := range t.rates {
		if r.StartingBeat >= beat {
			break
		}
		if r.StartingBeat > from {
			out += t.scaled(r.StartingBeat-from, bpm)
			from = r.StartingBeat
		}
		bpm = r.Value
	}
	return out + t.scaled(beat-from, bpm)
}

func (t tempo) scaled(beats, bpm float64) float64 {
	if bpm == t.base {
		return beats
	}
	return beats * t.base / bpm
}

// 0 – No note
// 1 – Normal note
// 2 – Hold head
// 3 – Hold/Roll tail
// 4 – Roll head
// M – Mine (or other negative note)
// K – Automatic keysound
// L – Lift note
// F – Fake note

func (p *DefaultParser) noteType(ch byte) (game.NoteType, bool) {
	switch ch {
	case '1':
		return game.Tap, true
	case '2', '4':
		return game.Hold, true
	}
	return game.Tap, false
}

func (p *DefaultParser) Parse(file string) ([]*game.Chart, error) {
	data, err := os.ReadFile(file)
	if nil != err {
		return nil, errors.Wrap(err, "unable to read chart")
	}
	charts, err := p.parse(string(data))
	if nil != err {
		return nil, errors.Wrapf(err, "unable to parse %s", file)
	}
	return charts, nil
}

func (p *DefaultParser) parse(data string) ([]*game.Chart, error) {
	str := strings.ReplaceAll(data, "\r", "")
	sections := strings.Split(str, "#NOTES:")
	meta := sections[0]
	difficulties := []game.Difficulty{}
	for _, section := range sections[1:] {
		lines := strings.SplitN(section, "\n", 7)
		if len(lines) < 7 {
			continue
		}
		chartType := strings.TrimSpace(lines[1])
		chartType = strings.TrimSuffix(chartType, ":")
		nKeys, ok := game.NKeyMap[chartType]
		if !ok {
			continue
		}
		difficulties = append(difficulties, game.Difficulty{
			Name:    strings.TrimSuffix(strings.TrimSpace(lines[3]), ":"),
			Msd:     strings.TrimSuffix(strings.TrimSpace(lines[4]), ":"),
			Section: lines[6],
			NKeys:   nKeys,
		})
	}
	if len(difficulties) == 0 {
		return nil, errors.New("no supported difficulties")
	}

	offset := 0.0
	bpms := []game.BPM{}

	for _, mdl := range strings.Split(meta, "\n#") {
		mdl = strings.TrimPrefix(strings.TrimSpace(mdl), "#")
		if strings.HasPrefix(mdl, "OFFSET:") {
			mdl = strings.TrimPrefix(mdl, "OFFSET:")
			mdl = strings.TrimSuffix(mdl, ";")
			offs, err := strconv.ParseFloat(strings.TrimSpace(mdl), 64)
			if nil != err {
				return nil, errors.Wrap(err, "bad #OFFSET")
			}
			offset = -offs
		} else if strings.HasPrefix(mdl, "BPMS:") {
			mdl = strings.TrimPrefix(mdl, "BPMS:")
			mdl = strings.ReplaceAll(mdl, "\n", "")
			for _, bpm := range strings.Split(strings.TrimSuffix(mdl, ";"), ",") {
				as := strings.Split(bpm, "=")
				if len(as) != 2 {
					return nil, errors.Errorf("bad #BPMS entry %q", bpm)
				}
				sb, err := strconv.ParseFloat(strings.TrimSpace(as[0]), 64)
				if nil != err {
					return nil, errors.Wrap(err, "bad #BPMS beat")
				}
				value, err := strconv.ParseFloat(strings.TrimSpace(as[1]), 64)
				if nil != err {
					return nil, errors.Wrap(err, "bad #BPMS value")
				}
				bpms = append(bpms, game.BPM{
					StartingBeat: sb,
					Value:        value,
				})
			}
		}
	}

	charts := []*game.Chart{}
	for _, difficulty := range difficulties {
		chart := &game.Chart{
			Notes:      p.notes(difficulty, newTempo(bpms)),
			BPMs:       bpms,
			Offset:     time.Duration(offset * float64(time.Second)),
			Difficulty: difficulty,
		}
		if err := finish(chart); nil != err {
			return nil, errors.Wrapf(err, "difficulty %s", difficulty.Name)
		}
		charts = append(charts, chart)
	}

	return charts, nil
}

// notes reads the rows of a difficulty. Beats are on the base tempo grid so
// a constant tempo clock reaches every note at its audio time.
func (p *DefaultParser) notes(difficulty game.Difficulty, tm tempo) []*game.Note {
	var currentBeat float64
	notes := []*game.Note{}
	// Open hold heads per lane, closed by a '3'
	heads := make([]*game.Note, difficulty.NKeys)

	for _, block := range strings.Split(difficulty.Section, "\n,") {
		lines := []string{}
		for _, l := range strings.Split(block, "\n") {
			if strings.HasPrefix(l, " ") || strings.Contains(l, "-") || strings.HasPrefix(l, "//") {
				continue
			}
			l = strings.TrimSpace(l)
			if len(l) > 3 {
				lines = append(lines, l)
			}
		}
		if len(lines) == 0 {
			continue
		}

		// Beat count is 4 per block
		lineCount := int64(len(lines))
		beatsPerRow := 4.0 / float64(lineCount) // 1/4, 1/8, 1/16, 1/24 etc

		for i, line := range lines {
			denom := big.NewRat(int64(i*4), lineCount).Denom().Int64()
			beat := tm.beatAt(currentBeat)
			for lane := 0; lane < len(line) && lane < int(difficulty.NKeys); lane++ {
				c := line[lane]
				if t, ok := p.noteType(c); ok {
					note := &game.Note{
						Lane:  lane,
						Type:  t,
						Beat:  beat,
						Denom: int(denom),
					}
					notes = append(notes, note)
					if t == game.Hold {
						heads[lane] = note
					}
				} else if c == '3' && nil != heads[lane] {
					heads[lane].HoldDuration = beat - heads[lane].Beat
					heads[lane] = nil
				}
			}
			currentBeat += beatsPerRow
		}
	}

	return notes
}
