package world

import (
	"errors"
	"math/rand"
	"sort"
	"testing"
)

func TestNewGridRejectsEmpty(t *testing.T) {
	for _, dims := range [][2]int{{0, 5}, {5, 0}, {-1, 3}} {
		if _, err := NewGrid(dims[0], dims[1]); !errors.Is(err, ErrBadDimensions) {
			t.Errorf("NewGrid(%d,%d): expected ErrBadDimensions, got %v", dims[0], dims[1], err)
		}
	}
}

func TestWrap(t *testing.T) {
	g, _ := NewGrid(10, 5)
	tests := []struct {
		in, want Coord
	}{
		{Coord{0, 0}, Coord{0, 0}},
		{Coord{-1, -1}, Coord{9, 4}},
		{Coord{10, 5}, Coord{0, 0}},
		{Coord{23, -7}, Coord{3, 3}},
	}
	for _, tt := range tests {
		if got := g.Wrap(tt.in); got != tt.want {
			t.Errorf("Wrap(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNeighborhoodWrapsAtEdges(t *testing.T) {
	g, _ := NewGrid(10, 10)
	cells := g.Neighborhood(Coord{0, 0}, 1)
	if len(cells) != 8 {
		t.Fatalf("expected 8 cells, got %d", len(cells))
	}
	want := map[Coord]bool{
		{9, 9}: true, {0, 9}: true, {1, 9}: true,
		{9, 0}: true, {1, 0}: true,
		{9, 1}: true, {0, 1}: true, {1, 1}: true,
	}
	for _, c := range cells {
		if !want[c] {
			t.Errorf("unexpected cell %v in corner neighbourhood", c)
		}
	}
}

func TestNeighborhoodLargeRadiusDedups(t *testing.T) {
	g, _ := NewGrid(3, 3)
	cells := g.Neighborhood(Coord{1, 1}, 5)
	if len(cells) != 8 {
		t.Fatalf("3x3 torus should yield 8 distinct non-centre cells, got %d", len(cells))
	}
	for _, c := range cells {
		if c == (Coord{1, 1}) {
			t.Fatal("centre cell must not appear")
		}
	}
}

func TestNeighborsExcludesCentreCell(t *testing.T) {
	g, _ := NewGrid(20, 20)
	mustPlace(t, g, 1, Coord{5, 5})  // centre
	mustPlace(t, g, 2, Coord{5, 5})  // shares centre
	mustPlace(t, g, 3, Coord{6, 5})  // radius 1
	mustPlace(t, g, 4, Coord{7, 7})  // radius 2
	mustPlace(t, g, 5, Coord{12, 5}) // far

	got := sorted(g.Neighbors(Coord{5, 5}, 1))
	if len(got) != 1 || got[0] != 3 {
		t.Errorf("radius 1 neighbours = %v, want [3]", got)
	}

	got = sorted(g.Neighbors(Coord{5, 5}, 2))
	if len(got) != 2 || got[0] != 3 || got[1] != 4 {
		t.Errorf("radius 2 neighbours = %v, want [3 4]", got)
	}

	if got := g.Neighbors(Coord{5, 5}, 0); len(got) != 0 {
		t.Errorf("radius 0 should find nobody, got %v", got)
	}
}

func TestNeighborsAcrossSeam(t *testing.T) {
	g, _ := NewGrid(50, 50)
	mustPlace(t, g, 1, Coord{49, 0})
	got := g.Neighbors(Coord{0, 49}, 1)
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("expected occupant across both seams, got %v", got)
	}
}

func TestMoveUpdatesCells(t *testing.T) {
	g, _ := NewGrid(4, 4)
	mustPlace(t, g, 7, Coord{0, 0})
	mustPlace(t, g, 8, Coord{0, 0})

	if err := g.Move(7, Coord{-1, 0}); err != nil {
		t.Fatalf("move: %v", err)
	}
	if pos, _ := g.Position(7); pos != (Coord{3, 0}) {
		t.Errorf("position after wrap move = %v, want (3,0)", pos)
	}
	if at := g.At(Coord{0, 0}); len(at) != 1 || at[0] != 8 {
		t.Errorf("origin cell = %v, want [8]", at)
	}
	if at := g.At(Coord{3, 0}); len(at) != 1 || at[0] != 7 {
		t.Errorf("destination cell = %v, want [7]", at)
	}
	if g.Len() != 2 {
		t.Errorf("Len = %d, want 2", g.Len())
	}

	if err := g.Move(99, Coord{1, 1}); err == nil {
		t.Error("expected error moving unplaced occupant")
	}
	if err := g.Place(8, Coord{1, 1}); err == nil {
		t.Error("expected error placing an occupant twice")
	}
}

func TestDensityFieldSampleInBounds(t *testing.T) {
	g, _ := NewGrid(30, 20)
	f := NewDensityField(g, DefaultDensityConfig(11))
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 500; i++ {
		c := f.Sample(rng, 64)
		if c.X < 0 || c.X >= 30 || c.Y < 0 || c.Y >= 20 {
			t.Fatalf("sample %v out of bounds", c)
		}
		if w := f.Weight(c); w < 0.05 || w > 1 {
			t.Fatalf("weight %f outside [floor,1]", w)
		}
	}
}

func mustPlace(t *testing.T, g *Grid, id uint64, c Coord) {
	t.Helper()
	if err := g.Place(id, c); err != nil {
		t.Fatalf("place %d: %v", id, err)
	}
}

func sorted(ids []uint64) []uint64 {
	out := append([]uint64(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
