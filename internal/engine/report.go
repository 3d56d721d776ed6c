package engine

import (
	"github.com/talgya/community-sim/internal/agents"
	"github.com/talgya/community-sim/internal/scenario"
	"github.com/talgya/community-sim/internal/social"
)

// Report is everything a finished run hands to exporters: the per-tick
// series, the member typology table and the group breakdown.
type Report struct {
	Seed         int64                `json:"seed"`
	Scenario     string               `json:"scenario"`
	NumMembers   int                  `json:"num_members"`
	NumProspects int                  `json:"num_prospects"`
	Result       Result               `json:"result"`
	Stats        SimStats             `json:"stats"`
	Ticks        []TickRecord         `json:"ticks"`
	Typologies   []agents.TypologyRow `json:"typologies"`
	Groups       []GroupSummary       `json:"groups"`
	Reciprocity  float64              `json:"reciprocity"`
}

// GroupSummary is the outcome for one adopter group.
type GroupSummary struct {
	Group  string `json:"group" db:"grp"`
	Size   int    `json:"size" db:"size"`
	Joined int    `json:"joined" db:"joined"`
}

// Report assembles the exporter view of the simulation after a run.
func (s *Simulation) Report(res Result) Report {
	total, joined := social.GroupCounts(s.Population.Prospects)
	groups := make([]GroupSummary, 0, len(scenario.Groups))
	for _, g := range scenario.Groups {
		groups = append(groups, GroupSummary{Group: g.String(), Size: total[g], Joined: joined[g]})
	}

	ticks := make([]TickRecord, len(s.History))
	copy(ticks, s.History)

	return Report{
		Seed:         s.Seed,
		Scenario:     s.Scenario.String(),
		NumMembers:   s.NumMembers,
		NumProspects: s.NumProspects,
		Result:       res,
		Stats:        s.Stats,
		Ticks:        ticks,
		Typologies:   s.Typologies(),
		Groups:       groups,
		Reciprocity:  s.Network.Reciprocity(),
	}
}
