// Package scenario holds the world-narrative presets that shape adoption:
// adopter-group splits, receptivity and peer-threshold means, the peer
// pressure coin and the reach/vision/friend-count draw.
package scenario

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
)

// ErrInvalidConfiguration marks every configuration the simulation refuses
// to run with. Callers test for it with errors.Is.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Scenario is a world narrative tag.
type Scenario uint8

const (
	Familiar   Scenario = iota + 1 // Balanced adoption curve
	Fragmented                     // Few innovators, many laggards
	Unified                        // Many innovators, few laggards
)

// All lists the known scenarios in declaration order.
var All = []Scenario{Familiar, Fragmented, Unified}

var scenarioNames = map[Scenario]string{
	Familiar:   "Familiar",
	Fragmented: "Fragmented",
	Unified:    "Unified",
}

// String returns the narrative name, or "Scenario(n)" for unknown values.
func (s Scenario) String() string {
	if name, ok := scenarioNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Scenario(%d)", uint8(s))
}

// Parse resolves a scenario tag, case-insensitively.
func Parse(tag string) (Scenario, error) {
	for s, name := range scenarioNames {
		if strings.EqualFold(strings.TrimSpace(tag), name) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown scenario %q: %w", tag, ErrInvalidConfiguration)
}

// AdopterGroup is a diffusion-of-innovation category.
type AdopterGroup uint8

const (
	GroupUnset AdopterGroup = iota
	Innovator
	EarlyAdopter
	EarlyMajority
	LateMajority
	Laggard
)

// Groups lists the five categories in slice order.
var Groups = [5]AdopterGroup{Innovator, EarlyAdopter, EarlyMajority, LateMajority, Laggard}

// String returns the display name of the group.
func (g AdopterGroup) String() string {
	switch g {
	case Innovator:
		return "Innovator"
	case EarlyAdopter:
		return "Early Adopter"
	case EarlyMajority:
		return "Early Majority"
	case LateMajority:
		return "Late Majority"
	case Laggard:
		return "Laggard"
	default:
		return "Unset"
	}
}

var groupStdDev = math.Sqrt(0.05)

// GroupStdDev is the standard deviation shared by every receptivity and
// peer-threshold draw.
func GroupStdDev() float64 { return groupStdDev }

// Receptivity means per group. Identical across scenarios.
var receptivityMean = map[AdopterGroup]float64{
	Innovator:     0.85,
	EarlyAdopter:  0.70,
	EarlyMajority: 0.50,
	LateMajority:  0.30,
	Laggard:       0.15,
}

// Share of a friend list that must have joined before peer pressure can act.
var thresholdMean = map[AdopterGroup]float64{
	Innovator:     0.2,
	EarlyAdopter:  0.4,
	EarlyMajority: 0.6,
	LateMajority:  0.75,
	Laggard:       0.9,
}

// ReceptivityMean returns the receptivity mean of a classified group.
func ReceptivityMean(g AdopterGroup) (float64, error) {
	m, ok := receptivityMean[g]
	if !ok {
		return 0, fmt.Errorf("no receptivity for group %s: %w", g, ErrInvalidConfiguration)
	}
	return m, nil
}

// ThresholdMean returns the mean peer threshold of a classified group.
func ThresholdMean(g AdopterGroup) (float64, error) {
	m, ok := thresholdMean[g]
	if !ok {
		return 0, fmt.Errorf("no peer threshold for group %s: %w", g, ErrInvalidConfiguration)
	}
	return m, nil
}

// RangeDraw describes the integer draw used for reach, vision and friend
// counts. With probability Split the value comes from Low, otherwise from
// High. Bounds are inclusive.
type RangeDraw struct {
	Low   [2]int
	High  [2]int
	Split float64
}

// Draw samples one value. The split coin is always consumed first so the
// RNG stream has the same shape for every scenario with a split.
func (d RangeDraw) Draw(rng *rand.Rand) int {
	if d.Split <= 0 {
		return intInclusive(rng, d.High)
	}
	if rng.Float64() < d.Split {
		return intInclusive(rng, d.Low)
	}
	return intInclusive(rng, d.High)
}

func intInclusive(rng *rand.Rand, r [2]int) int {
	return r[0] + rng.Intn(r[1]-r[0]+1)
}

// Profile is the full parameter set of one scenario.
type Profile struct {
	Scenario Scenario

	// Fractions of the prospect population per adopter group, in Groups
	// order. The last slice absorbs truncation remainders.
	Fractions [5]float64

	// JoinProbability is the coin flipped once the peer threshold is met.
	JoinProbability float64

	// Social draws reach (members) plus vision and friend count (prospects).
	Social RangeDraw
}

var profiles = map[Scenario]Profile{
	Familiar: {
		Scenario:        Familiar,
		Fractions:       [5]float64{0.025, 0.135, 0.34, 0.34, 0.16},
		JoinProbability: 0.5,
		Social:          RangeDraw{High: [2]int{1, 4}},
	},
	Fragmented: {
		Scenario:        Fragmented,
		Fractions:       [5]float64{0.005, 0.075, 0.34, 0.34, 0.24},
		JoinProbability: 0.4,
		// Mostly short range: 80% fall in 0..2.
		Social: RangeDraw{Low: [2]int{0, 2}, High: [2]int{3, 5}, Split: 0.8},
	},
	Unified: {
		Scenario:        Unified,
		Fractions:       [5]float64{0.065, 0.175, 0.34, 0.34, 0.08},
		JoinProbability: 0.6,
		Social:          RangeDraw{Low: [2]int{0, 2}, High: [2]int{3, 5}, Split: 0.2},
	},
}

// Lookup returns the profile of a scenario.
func Lookup(s Scenario) (Profile, error) {
	p, ok := profiles[s]
	if !ok {
		return Profile{}, fmt.Errorf("scenario %s: %w", s, ErrInvalidConfiguration)
	}
	return p, nil
}

// SliceSizes splits n prospects into the five group slices. Each of the
// first four is truncated toward zero and the remainder goes to Laggard.
func (p Profile) SliceSizes(n int) [5]int {
	var sizes [5]int
	used := 0
	for i := 0; i < 4; i++ {
		sizes[i] = int(p.Fractions[i] * float64(n))
		used += sizes[i]
	}
	sizes[4] = n - used
	return sizes
}
