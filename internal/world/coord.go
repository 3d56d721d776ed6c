// Package world provides the toroidal grid agents live on.
// Cells are addressed by integer (x, y); both axes wrap.
package world

import "fmt"

// Coord is a cell position on the grid.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// String returns "(x,y)".
func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// MooreOffsets returns the offsets of a Moore neighbourhood of the given
// radius, centre excluded, in row-major order (dy outer, dx inner).
func MooreOffsets(radius int) []Coord {
	if radius <= 0 {
		return nil
	}
	side := 2*radius + 1
	result := make([]Coord, 0, side*side-1)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			result = append(result, Coord{X: dx, Y: dy})
		}
	}
	return result
}

// wrap maps v into [0, n).
func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
