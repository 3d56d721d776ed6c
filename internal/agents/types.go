// Package agents provides the two agent kinds of the community model:
// Members, who have already joined and canvas their surroundings, and
// Prospects, who may be convinced to join.
package agents

import (
	"github.com/talgya/community-sim/internal/world"
)

// AgentID is a unique identifier for an agent. Members are numbered
// first, then prospects, both in creation order.
type AgentID uint64

// Kind distinguishes the two agent kinds.
type Kind uint8

const (
	KindMember   Kind = iota // Already part of the community
	KindProspect             // Candidate for conversion
)

// String returns the agent-kind label used in reports.
func (k Kind) String() string {
	if k == KindMember {
		return "Community Member"
	}
	return "Prospective Member"
}

// Agent is the behaviour both kinds share. It exists for the passes that
// iterate over every agent regardless of kind, such as movement.
type Agent interface {
	AgentID() AgentID
	Kind() Kind
	Pos() world.Coord
	SetPos(world.Coord)
}

// Status is a prospect's membership state. It only ever moves forward.
type Status uint8

const (
	StatusNotJoined Status = iota
	StatusNewMember
)

// String returns the status label.
func (s Status) String() string {
	if s == StatusNewMember {
		return "New Member"
	}
	return "Not Joined"
}

// TraitParams is the normal distribution a single latent trait is drawn from.
type TraitParams struct {
	Mean float64 `json:"mean" yaml:"mean"`
	Std  float64 `json:"std" yaml:"std"`
}

// TraitConfig holds the four trait distributions members are drawn from.
type TraitConfig struct {
	EnvironmentalConcern TraitParams `json:"environmental_concern" yaml:"environmental_concern"`
	EnergyIndependence   TraitParams `json:"energy_independence" yaml:"energy_independence"`
	CommunitySensitivity TraitParams `json:"community_sensitivity" yaml:"community_sensitivity"`
	FinancialConcern     TraitParams `json:"financial_concern" yaml:"financial_concern"`
}
