// Agent spawning: creates members with their latent traits and
// prospects with their scenario draws.
package agents

import (
	"fmt"
	"math/rand"

	"github.com/talgya/community-sim/internal/scenario"
)

// Spawner creates agents for one model instance. It shares the model's RNG
// so a whole run is reproducible from a single seed.
type Spawner struct {
	rng     *rand.Rand
	traits  TraitConfig
	profile scenario.Profile
	nextID  AgentID
}

// NewSpawner creates a spawner drawing from rng.
func NewSpawner(rng *rand.Rand, traits TraitConfig, s scenario.Scenario) (*Spawner, error) {
	profile, err := scenario.Lookup(s)
	if err != nil {
		return nil, fmt.Errorf("spawner: %w", err)
	}
	return &Spawner{
		rng:     rng,
		traits:  traits,
		profile: profile,
	}, nil
}

// NextID returns the id the next spawned agent will get.
func (s *Spawner) NextID() AgentID {
	return s.nextID
}

// SpawnMember creates one member. Traits are drawn in the order
// environmental, community, financial, energy; reach follows.
func (s *Spawner) SpawnMember() *Member {
	id := s.nextID
	s.nextID++

	env := newTrait(s.normal(s.traits.EnvironmentalConcern), s.traits.EnvironmentalConcern)
	comm := newTrait(s.normal(s.traits.CommunitySensitivity), s.traits.CommunitySensitivity)
	fin := newTrait(s.normal(s.traits.FinancialConcern), s.traits.FinancialConcern)
	nrg := newTrait(s.normal(s.traits.EnergyIndependence), s.traits.EnergyIndependence)

	return &Member{
		ID:                   id,
		EnvironmentalConcern: env,
		FinancialConcern:     fin,
		SenseOfCommunity:     comm,
		EnergyIndependence:   nrg,
		Typology:             Typology(env.Deviation, fin.Deviation, comm.Deviation, nrg.Deviation),
		Reach:                s.profile.Social.Draw(s.rng),
		ConvincingProwess:    ConvincingProwess(env.Deviation, fin.Deviation, comm.Deviation, nrg.Deviation),
	}
}

// SpawnProspect creates one unclassified prospect.
func (s *Spawner) SpawnProspect() *Prospect {
	id := s.nextID
	s.nextID++

	vision := s.profile.Social.Draw(s.rng)
	friends := s.profile.Social.Draw(s.rng)

	return &Prospect{
		ID:              id,
		Status:          StatusNotJoined,
		Vision:          vision,
		NumberOfFriends: friends,
	}
}

func (s *Spawner) normal(p TraitParams) float64 {
	return p.Mean + s.rng.NormFloat64()*p.Std
}
