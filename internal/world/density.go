// Density fields for clustered placement. Layered simplex noise gives a
// smooth 0..1 weight per cell; placement rejection-samples against it so
// agents bunch into neighbourhoods instead of spreading evenly.
package world

import (
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// DensityConfig controls the noise used for clustered placement.
type DensityConfig struct {
	Seed        int64
	Octaves     int
	Frequency   float64
	Persistence float64
	Floor       float64 // Minimum acceptance weight so no cell is unreachable
}

// DefaultDensityConfig returns settings that produce a few large clusters
// on a 50×50 grid.
func DefaultDensityConfig(seed int64) DensityConfig {
	return DensityConfig{
		Seed:        seed,
		Octaves:     3,
		Frequency:   0.08,
		Persistence: 0.5,
		Floor:       0.05,
	}
}

// DensityField holds one acceptance weight per cell.
type DensityField struct {
	width   int
	height  int
	weights []float64
}

// NewDensityField samples noise for every cell of g.
func NewDensityField(g *Grid, cfg DensityConfig) *DensityField {
	noise := opensimplex.NewNormalized(cfg.Seed)
	f := &DensityField{
		width:   g.Width,
		height:  g.Height,
		weights: make([]float64, g.Width*g.Height),
	}
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			w := octaveNoise(noise, float64(x), float64(y), cfg.Octaves, cfg.Frequency, cfg.Persistence)
			if w < cfg.Floor {
				w = cfg.Floor
			}
			if w > 1 {
				w = 1
			}
			f.weights[y*g.Width+x] = w
		}
	}
	return f
}

// Weight returns the acceptance weight of a cell.
func (f *DensityField) Weight(c Coord) float64 {
	return f.weights[wrap(c.Y, f.height)*f.width+wrap(c.X, f.width)]
}

// Sample draws a cell by rejection sampling. Gives up after maxTries and
// returns the last candidate, so the call always terminates.
func (f *DensityField) Sample(rng *rand.Rand, maxTries int) Coord {
	var c Coord
	for i := 0; i < maxTries; i++ {
		c = Coord{X: rng.Intn(f.width), Y: rng.Intn(f.height)}
		if rng.Float64() < f.Weight(c) {
			return c
		}
	}
	return c
}

func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	if maxVal == 0 {
		return 0
	}
	return total / maxVal
}
