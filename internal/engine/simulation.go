// Package engine runs the adoption model: it builds a world and population
// from a configuration and advances them tick by tick until every prospect
// has joined.
package engine

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sort"

	"github.com/talgya/community-sim/internal/agents"
	"github.com/talgya/community-sim/internal/config"
	"github.com/talgya/community-sim/internal/scenario"
	"github.com/talgya/community-sim/internal/social"
	"github.com/talgya/community-sim/internal/world"
)

// placementTries bounds rejection sampling for clustered placement.
const placementTries = 64

// Simulation holds the complete state of one model instance. Nothing in it
// is shared with other instances.
type Simulation struct {
	Grid       *world.Grid
	Population *agents.Population
	Network    *social.PeerNetwork
	Scenario   scenario.Scenario
	Profile    scenario.Profile
	Seed       int64
	LastTick   uint64

	NumMembers   int
	NumProspects int

	// GroupSizes is the classifier's slice split, in scenario.Groups order.
	GroupSizes [5]int

	// Aggregates, appended once per tick.
	NewMembersCount  int
	NewMembersSeries []int
	GrowthSeries     []float64
	History          []TickRecord

	// Attempts counts every member–prospect outreach evaluation.
	Attempts int

	Stats SimStats

	rng *rand.Rand
}

// SimStats tracks conversion totals by path.
type SimStats struct {
	OutreachConversions int `json:"outreach_conversions"`
	PeerConversions     int `json:"peer_conversions"`
}

// TickRecord is what one tick produced.
type TickRecord struct {
	Tick                uint64  `json:"tick" db:"step"`
	NewMembers          int     `json:"new_members" db:"new_members"`
	GrowthPercentage    float64 `json:"growth_percentage" db:"growth_pct"`
	OutreachConversions int     `json:"outreach_conversions" db:"outreach"`
	PeerConversions     int     `json:"peer_conversions" db:"peer"`
	Attempts            int     `json:"attempts" db:"attempts"`
}

// NewSimulation builds a model from cfg with the given seed: places
// members then prospects, classifies prospects into adopter groups and
// builds their peer network. The seed overrides cfg.Seed so callers can
// resolve a zero seed first.
func NewSimulation(cfg *config.Config, seed int64) (*Simulation, error) {
	if cfg.NumMembers <= 0 || cfg.NumProspects <= 0 {
		return nil, fmt.Errorf("population sizes %d members / %d prospects must be positive: %w",
			cfg.NumMembers, cfg.NumProspects, scenario.ErrInvalidConfiguration)
	}
	tag, err := cfg.ScenarioTag()
	if err != nil {
		return nil, err
	}
	profile, err := scenario.Lookup(tag)
	if err != nil {
		return nil, err
	}
	grid, err := world.NewGrid(cfg.Width, cfg.Height)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, scenario.ErrInvalidConfiguration)
	}

	rng := rand.New(rand.NewSource(seed))
	spawner, err := agents.NewSpawner(rng, cfg.Traits, tag)
	if err != nil {
		return nil, err
	}

	place := func() world.Coord { return grid.RandomCoord(rng) }
	switch cfg.Placement {
	case "", config.PlacementUniform:
	case config.PlacementClustered:
		field := world.NewDensityField(grid, world.DefaultDensityConfig(seed+1))
		place = func() world.Coord { return field.Sample(rng, placementTries) }
	default:
		return nil, fmt.Errorf("placement %q: %w", cfg.Placement, scenario.ErrInvalidConfiguration)
	}

	pop := agents.NewPopulation()
	for i := 0; i < cfg.NumMembers; i++ {
		m := spawner.SpawnMember()
		if err := placeAgent(grid, m, place()); err != nil {
			return nil, err
		}
		pop.AddMember(m)
	}
	for i := 0; i < cfg.NumProspects; i++ {
		p := spawner.SpawnProspect()
		if err := placeAgent(grid, p, place()); err != nil {
			return nil, err
		}
		pop.AddProspect(p)
	}

	sizes, err := social.Classify(pop.Prospects, tag, rng)
	if err != nil {
		return nil, err
	}
	network, err := social.BuildPeerNetwork(pop.Prospects, rng)
	if err != nil {
		return nil, err
	}

	sim := &Simulation{
		Grid:         grid,
		Population:   pop,
		Network:      network,
		Scenario:     tag,
		Profile:      profile,
		Seed:         seed,
		NumMembers:   cfg.NumMembers,
		NumProspects: cfg.NumProspects,
		GroupSizes:   sizes,
		rng:          rng,
	}
	sim.logSetup()
	return sim, nil
}

func placeAgent(g *world.Grid, a agents.Agent, c world.Coord) error {
	c = g.Wrap(c)
	if err := g.Place(uint64(a.AgentID()), c); err != nil {
		return fmt.Errorf("place agent %d: %w", a.AgentID(), err)
	}
	a.SetPos(c)
	return nil
}

// CurrentTick returns the most recently processed tick number.
func (s *Simulation) CurrentTick() uint64 {
	return s.LastTick
}

// Saturated reports whether every prospect has joined.
func (s *Simulation) Saturated() bool {
	return s.NewMembersCount >= s.NumProspects
}

// Tick advances the model one step: move, outreach, peer pressure,
// aggregate. Phases never overlap.
func (s *Simulation) Tick(tick uint64) (TickRecord, error) {
	s.LastTick = tick

	s.moveAgents()
	attemptsBefore := s.Attempts
	outreach := s.outreach()
	peer, err := s.peerPressure()
	if err != nil {
		return TickRecord{}, fmt.Errorf("tick %d: %w", tick, err)
	}
	s.Stats.OutreachConversions += outreach
	s.Stats.PeerConversions += peer

	s.aggregate()

	rec := TickRecord{
		Tick:                tick,
		NewMembers:          s.NewMembersCount,
		GrowthPercentage:    s.GrowthSeries[len(s.GrowthSeries)-1],
		OutreachConversions: outreach,
		PeerConversions:     peer,
		Attempts:            s.Attempts - attemptsBefore,
	}
	s.History = append(s.History, rec)

	slog.Debug("tick",
		"tick", tick,
		"new_members", rec.NewMembers,
		"outreach", outreach,
		"peer", peer,
		"attempts", rec.Attempts,
	)
	return rec, nil
}

// aggregate rescans every prospect, clamps the count to the prospect
// population and appends to both series. Growth is measured against the
// existing member count.
func (s *Simulation) aggregate() {
	count := s.Population.JoinedCount()
	if count > s.NumProspects {
		count = s.NumProspects
	}
	s.NewMembersCount = count
	s.NewMembersSeries = append(s.NewMembersSeries, count)
	s.GrowthSeries = append(s.GrowthSeries, float64(count)/float64(s.NumMembers)*100)
}

// Typologies returns the member typology table in id order.
func (s *Simulation) Typologies() []agents.TypologyRow {
	return s.Population.TypologyTable()
}

func (s *Simulation) logSetup() {
	counts := s.Population.TypologyCounts()
	typologies := make([]string, 0, len(counts))
	for t := range counts {
		typologies = append(typologies, t)
	}
	sort.Strings(typologies)
	attrs := make([]any, 0, 2*len(typologies))
	for _, t := range typologies {
		attrs = append(attrs, t, counts[t])
	}

	slog.Info("community ready",
		"scenario", s.Scenario.String(),
		"seed", s.Seed,
		"grid", s.Grid.String(),
		"members", s.NumMembers,
		"prospects", s.NumProspects,
		"peer_links", s.Network.Links(),
	)
	slog.Info("adopter groups",
		"innovators", s.GroupSizes[0],
		"early_adopters", s.GroupSizes[1],
		"early_majority", s.GroupSizes[2],
		"late_majority", s.GroupSizes[3],
		"laggards", s.GroupSizes[4],
	)
	slog.Info("member typologies", attrs...)
}
