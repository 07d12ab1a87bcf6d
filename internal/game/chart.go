package game

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const DefaultBPM = 120.0

type Chart struct {
	Notes      []*Note
	BPMs       []BPM
	Offset     time.Duration // Audio time at which beat 0 occurs
	Difficulty Difficulty

	activeNotes    []*Note
	startNoteIndex int
	endNoteIndex   int
}

type Statistics struct {
	Total     int
	Taps      int
	Holds     int
	Lanes     []int // Note count per lane, length NKeys
	FirstBeat float64
	LastBeat  float64 // Largest end beat, hold tails included
}

type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid chart: %s", strings.Join(e.Problems, "; "))
}

func (c *Chart) Active() ([]*Note, int, int) {
	return c.activeNotes, c.startNoteIndex, c.endNoteIndex
}

func (c *Chart) SetActive(start int, end int) {
	if start < 0 {
		start = 0
	}
	if end > len(c.Notes) {
		end = len(c.Notes)
	}
	if start > end {
		start = end
	}
	c.activeNotes = c.Notes[start:end]
	c.startNoteIndex = start
	c.endNoteIndex = end
}

// BPM is the tempo at beat 0.
func (c *Chart) BPM() float64 {
	for _, b := range c.BPMs {
		if b.StartingBeat <= 0 && b.Value > 0 {
			return b.Value
		}
	}
	if len(c.BPMs) > 0 && c.BPMs[0].Value > 0 {
		return c.BPMs[0].Value
	}
	return DefaultBPM
}

// Sort orders notes by beat, lane breaks ties. It must not run while a
// scheduler is reading the chart.
func (c *Chart) Sort() {
	sort.SliceStable(c.Notes, func(i, j int) bool {
		a, b := c.Notes[i], c.Notes[j]
		if a.Beat != b.Beat {
			return a.Beat < b.Beat
		}
		return a.Lane < b.Lane
	})
	c.SetActive(0, 0)
}

func (c *Chart) IsSorted() bool {
	for i := 1; i < len(c.Notes); i++ {
		if c.Notes[i].Beat < c.Notes[i-1].Beat {
			return false
		}
	}
	return true
}

// Range returns the notes with from <= Beat < to. The result shares the
// chart's backing array.
func (c *Chart) Range(from, to float64) []*Note {
	start, end := c.IndexRange(from, to)
	return c.Notes[start:end]
}

// IndexRange is Range as indexes into Notes, start == end when empty.
func (c *Chart) IndexRange(from, to float64) (int, int) {
	start := sort.Search(len(c.Notes), func(i int) bool { return c.Notes[i].Beat >= from })
	if to <= from {
		return start, start
	}
	end := sort.Search(len(c.Notes), func(i int) bool { return c.Notes[i].Beat >= to })
	return start, end
}

// Validate reports every note that breaks the import contract.
func (c *Chart) Validate() error {
	var problems []string
	lanes := int(c.Difficulty.NKeys)
	for i, n := range c.Notes {
		if nil == n {
			problems = append(problems, fmt.Sprintf("note %d is nil", i))
			continue
		}
		if n.Beat < 0 {
			problems = append(problems, fmt.Sprintf("note %d at negative beat %v", i, n.Beat))
		}
		if n.HoldDuration < 0 {
			problems = append(problems, fmt.Sprintf("note %d has negative hold %v", i, n.HoldDuration))
		}
		if n.Lane < 0 || n.Lane >= lanes {
			problems = append(problems, fmt.Sprintf("note %d lane %d outside [0, %d)", i, n.Lane, lanes))
		}
		if i > 0 && nil != c.Notes[i-1] && n.Beat < c.Notes[i-1].Beat {
			problems = append(problems, fmt.Sprintf("note %d at beat %v is before note %d", i, n.Beat, i-1))
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func (c *Chart) Statistics() Statistics {
	s := Statistics{
		Total: len(c.Notes),
		Lanes: make([]int, c.Difficulty.NKeys),
	}
	for i, n := range c.Notes {
		switch n.Type {
		case Hold:
			s.Holds++
		default:
			s.Taps++
		}
		if n.Lane >= 0 && n.Lane < len(s.Lanes) {
			s.Lanes[n.Lane]++
		}
		if i == 0 || n.Beat < s.FirstBeat {
			s.FirstBeat = n.Beat
		}
		if end := n.EndBeat(); end > s.LastBeat {
			s.LastBeat = end
		}
	}
	return s
}
