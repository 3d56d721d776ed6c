package world

import (
	"errors"
	"fmt"
	"math/rand"
)

// ErrBadDimensions is returned when a grid would have no cells.
var ErrBadDimensions = errors.New("grid dimensions must be positive")

// Grid is a finite toroidal 2D grid. Any number of occupants may share a
// cell. Occupants are identified by uint64 ids; the order of occupants
// within a cell is insertion order, which keeps neighbour queries
// deterministic.
type Grid struct {
	Width  int
	Height int

	cells     [][]uint64       // index y*Width+x → occupant ids
	positions map[uint64]Coord // occupant id → cell
}

// NewGrid creates an empty width×height torus.
func NewGrid(width, height int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%dx%d: %w", width, height, ErrBadDimensions)
	}
	return &Grid{
		Width:     width,
		Height:    height,
		cells:     make([][]uint64, width*height),
		positions: make(map[uint64]Coord),
	}, nil
}

// Wrap normalises a coordinate onto the torus.
func (g *Grid) Wrap(c Coord) Coord {
	return Coord{X: wrap(c.X, g.Width), Y: wrap(c.Y, g.Height)}
}

// RandomCoord returns a uniformly random cell.
func (g *Grid) RandomCoord(rng *rand.Rand) Coord {
	return Coord{X: rng.Intn(g.Width), Y: rng.Intn(g.Height)}
}

// Place puts an occupant on a cell. Placing an id that is already on the
// grid is an error; use Move instead.
func (g *Grid) Place(id uint64, c Coord) error {
	if _, ok := g.positions[id]; ok {
		return fmt.Errorf("occupant %d already placed", id)
	}
	c = g.Wrap(c)
	idx := g.index(c)
	g.cells[idx] = append(g.cells[idx], id)
	g.positions[id] = c
	return nil
}

// Move relocates an occupant.
func (g *Grid) Move(id uint64, to Coord) error {
	from, ok := g.positions[id]
	if !ok {
		return fmt.Errorf("occupant %d not on grid", id)
	}
	to = g.Wrap(to)
	if from == to {
		return nil
	}
	g.remove(id, from)
	idx := g.index(to)
	g.cells[idx] = append(g.cells[idx], id)
	g.positions[id] = to
	return nil
}

// Position returns the cell an occupant is on.
func (g *Grid) Position(id uint64) (Coord, bool) {
	c, ok := g.positions[id]
	return c, ok
}

// At returns the occupants of one cell.
func (g *Grid) At(c Coord) []uint64 {
	return g.cells[g.index(g.Wrap(c))]
}

// Len returns the number of placed occupants.
func (g *Grid) Len() int {
	return len(g.positions)
}

// Neighborhood returns the distinct cells of the Moore neighbourhood of
// radius around center, wrapped onto the torus, centre excluded. When the
// radius is large enough to wrap past the grid edge the same cell is only
// listed once, and the centre never reappears.
func (g *Grid) Neighborhood(center Coord, radius int) []Coord {
	center = g.Wrap(center)
	offsets := MooreOffsets(radius)
	if len(offsets) == 0 {
		return nil
	}

	seen := make(map[Coord]struct{}, len(offsets))
	seen[center] = struct{}{}
	result := make([]Coord, 0, len(offsets))
	for _, o := range offsets {
		c := g.Wrap(Coord{X: center.X + o.X, Y: center.Y + o.Y})
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		result = append(result, c)
	}
	return result
}

// Neighbors returns every occupant in the Moore neighbourhood of radius
// around center, excluding occupants of the centre cell itself.
func (g *Grid) Neighbors(center Coord, radius int) []uint64 {
	var result []uint64
	for _, c := range g.Neighborhood(center, radius) {
		result = append(result, g.cells[g.index(c)]...)
	}
	return result
}

func (g *Grid) index(c Coord) int {
	return c.Y*g.Width + c.X
}

func (g *Grid) remove(id uint64, c Coord) {
	idx := g.index(c)
	cell := g.cells[idx]
	for i, v := range cell {
		if v == id {
			g.cells[idx] = append(cell[:i], cell[i+1:]...)
			break
		}
	}
}

// String returns a summary of the grid.
func (g *Grid) String() string {
	return fmt.Sprintf("Grid(%dx%d, occupants=%d)", g.Width, g.Height, g.Len())
}
