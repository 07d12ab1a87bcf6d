package parser

import "git.lost.host/meutraa/notefall/internal/game"

// Parser turns a chart file into sorted, validated charts, one per difficulty.
type Parser interface {
	Parse(file string) ([]*game.Chart, error)
}

// ForFile picks a parser by file extension.
func ForFile(file string) Parser {
	if isGrid(file) {
		return &GridParser{}
	}
	return &DefaultParser{}
}

func finish(c *game.Chart) error {
	if !c.IsSorted() {
		c.Sort()
	}
	return c.Validate()
}
