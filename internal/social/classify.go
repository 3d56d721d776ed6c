// Package social covers how prospects relate to the innovation and to each
// other: adopter-group classification and the peer network.
package social

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/talgya/community-sim/internal/agents"
	"github.com/talgya/community-sim/internal/scenario"
)

// ErrAlreadyClassified is returned when classification runs twice on the
// same prospects.
var ErrAlreadyClassified = errors.New("prospects already classified")

// Classify assigns each prospect an adopter group and a receptivity draw.
// Prospects are split in slice order, not randomly: the first slice is
// Innovators, the last Laggards, which also absorbs rounding remainders.
// Receptivity for a prospect in group g is drawn from N(mean_g, √0.05).
//
// Classification must happen once per model; a second call fails without
// touching any prospect.
func Classify(prospects []*agents.Prospect, s scenario.Scenario, rng *rand.Rand) ([5]int, error) {
	var sizes [5]int
	profile, err := scenario.Lookup(s)
	if err != nil {
		return sizes, fmt.Errorf("classify: %w", err)
	}
	for _, p := range prospects {
		if p.AdopterGroup != scenario.GroupUnset || p.Receptivity != nil {
			return sizes, fmt.Errorf("classify prospect %d: %w: %w", p.ID, ErrAlreadyClassified, scenario.ErrInvalidConfiguration)
		}
	}

	sizes = profile.SliceSizes(len(prospects))
	start := 0
	for i, group := range scenario.Groups {
		mean, err := scenario.ReceptivityMean(group)
		if err != nil {
			return sizes, err
		}
		end := start + sizes[i]
		for _, p := range prospects[start:end] {
			r := mean + rng.NormFloat64()*scenario.GroupStdDev()
			p.AdopterGroup = group
			p.Receptivity = &r
		}
		start = end
	}
	return sizes, nil
}

// GroupCounts tallies prospects per adopter group, and how many of each
// have joined.
func GroupCounts(prospects []*agents.Prospect) (total, joined map[scenario.AdopterGroup]int) {
	total = make(map[scenario.AdopterGroup]int)
	joined = make(map[scenario.AdopterGroup]int)
	for _, p := range prospects {
		total[p.AdopterGroup]++
		if p.Joined() {
			joined[p.AdopterGroup]++
		}
	}
	return total, joined
}
