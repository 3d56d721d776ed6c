package agents

import (
	"github.com/talgya/community-sim/internal/scenario"
	"github.com/talgya/community-sim/internal/world"
)

// Prospect is an agent that has not joined yet.
//
// Construction happens in two phases. The spawner fills identity, position
// and the scenario draws; classification later sets AdopterGroup and
// Receptivity. Until then Receptivity is nil and outreach skips the
// prospect.
type Prospect struct {
	ID       AgentID     `json:"id"`
	Position world.Coord `json:"position"`
	Status   Status      `json:"status"`

	Vision          int `json:"vision"`
	NumberOfFriends int `json:"number_of_friends"`

	AdopterGroup scenario.AdopterGroup `json:"adopter_group"`
	Receptivity  *float64              `json:"receptivity,omitempty"`

	// Friends is fixed once the peer network is built. Links are one-way.
	Friends []*Prospect `json:"-"`

	// AttemptsToBeConvinced is carried for report compatibility; no
	// conversion path increments it.
	AttemptsToBeConvinced int `json:"attempts_to_be_convinced"`
}

func (p *Prospect) AgentID() AgentID     { return p.ID }
func (p *Prospect) Kind() Kind           { return KindProspect }
func (p *Prospect) Pos() world.Coord     { return p.Position }
func (p *Prospect) SetPos(c world.Coord) { p.Position = c }

// Joined reports whether the prospect has become a new member.
func (p *Prospect) Joined() bool {
	return p.Status == StatusNewMember
}

// Join marks the prospect as a new member. It returns true only on the
// transition; joining twice is a no-op.
func (p *Prospect) Join() bool {
	if p.Status == StatusNewMember {
		return false
	}
	p.Status = StatusNewMember
	return true
}

// Classified reports whether the prospect has a group and receptivity.
func (p *Prospect) Classified() bool {
	return p.Receptivity != nil && p.AdopterGroup != scenario.GroupUnset
}

// JoinedFriends counts friends that are already new members.
func (p *Prospect) JoinedFriends() int {
	n := 0
	for _, f := range p.Friends {
		if f.Joined() {
			n++
		}
	}
	return n
}
