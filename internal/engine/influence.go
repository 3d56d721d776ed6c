// Influence: how prospects come to join. Members canvas nearby prospects
// and prospects follow friends who already joined.
package engine

import (
	"math"

	"github.com/talgya/community-sim/internal/agents"
	"github.com/talgya/community-sim/internal/scenario"
)

// OutreachProbability is the chance one canvassing contact converts a
// prospect. Prowess can be negative, so the product is taken as a
// magnitude.
func OutreachProbability(receptivity, prowess float64) float64 {
	return math.Abs(receptivity * prowess)
}

// moveAgents activates agents by kind in random order: the order of kinds
// is shuffled, then the agents within each kind. Every agent steps to a
// random cell of its radius-1 neighbourhood.
func (s *Simulation) moveAgents() {
	kinds := []agents.Kind{agents.KindMember, agents.KindProspect}
	s.rng.Shuffle(len(kinds), func(i, j int) { kinds[i], kinds[j] = kinds[j], kinds[i] })

	for _, k := range kinds {
		batch := s.Population.ByKind(k)
		s.rng.Shuffle(len(batch), func(i, j int) { batch[i], batch[j] = batch[j], batch[i] })
		for _, a := range batch {
			s.step(a)
		}
	}
}

func (s *Simulation) step(a agents.Agent) {
	cells := s.Grid.Neighborhood(a.Pos(), 1)
	if len(cells) == 0 {
		return
	}
	next := cells[s.rng.Intn(len(cells))]
	if err := s.Grid.Move(uint64(a.AgentID()), next); err != nil {
		return
	}
	a.SetPos(next)
}

// outreach lets every member, in id order, canvas the prospects within its
// reach. Each classified prospect found costs one attempt and one uniform
// draw, joined or not; a joined prospect simply stays joined. Returns the
// number of prospects converted.
func (s *Simulation) outreach() int {
	converted := 0
	for _, m := range s.Population.Members {
		for _, id := range s.Grid.Neighbors(m.Position, m.Reach) {
			p := s.Population.Prospect(agents.AgentID(id))
			if p == nil || p.Receptivity == nil {
				continue
			}
			s.Attempts++
			if s.rng.Float64() < OutreachProbability(*p.Receptivity, m.ConvincingProwess) {
				if p.Join() {
					converted++
				}
			}
		}
	}
	return converted
}

// peerPressure walks prospects in id order. A prospect that has not joined
// and has friends draws a fresh threshold share from its group; if strictly
// more friends than that share have joined it flips the scenario coin.
// Later prospects see conversions made earlier in the same pass.
func (s *Simulation) peerPressure() (int, error) {
	converted := 0
	for _, p := range s.Population.Prospects {
		if p.Joined() || len(p.Friends) == 0 {
			continue
		}
		mean, err := scenario.ThresholdMean(p.AdopterGroup)
		if err != nil {
			return converted, err
		}
		share := mean + s.rng.NormFloat64()*scenario.GroupStdDev()
		if peerThresholdMet(p.JoinedFriends(), len(p.Friends), share) {
			if s.rng.Float64() < s.Profile.JoinProbability {
				p.Join()
				converted++
			}
		}
	}
	return converted, nil
}

// peerThresholdMet reports whether strictly more than share of friends
// have joined.
func peerThresholdMet(joined, friends int, share float64) bool {
	return float64(joined) > float64(friends)*share
}
