package agents

// Population owns both agent collections of one model. Slices keep
// creation (ascending id) order.
type Population struct {
	Members   []*Member
	Prospects []*Prospect

	index map[AgentID]Agent
}

// NewPopulation creates an empty population.
func NewPopulation() *Population {
	return &Population{index: make(map[AgentID]Agent)}
}

// AddMember appends a member.
func (p *Population) AddMember(m *Member) {
	p.Members = append(p.Members, m)
	p.index[m.ID] = m
}

// AddProspect appends a prospect.
func (p *Population) AddProspect(pr *Prospect) {
	p.Prospects = append(p.Prospects, pr)
	p.index[pr.ID] = pr
}

// Get returns the agent with the given id.
func (p *Population) Get(id AgentID) (Agent, bool) {
	a, ok := p.index[id]
	return a, ok
}

// Prospect returns the prospect with the given id, or nil.
func (p *Population) Prospect(id AgentID) *Prospect {
	if pr, ok := p.index[id].(*Prospect); ok {
		return pr
	}
	return nil
}

// ByKind returns every agent of one kind in creation order.
func (p *Population) ByKind(k Kind) []Agent {
	var out []Agent
	switch k {
	case KindMember:
		out = make([]Agent, len(p.Members))
		for i, m := range p.Members {
			out[i] = m
		}
	case KindProspect:
		out = make([]Agent, len(p.Prospects))
		for i, pr := range p.Prospects {
			out[i] = pr
		}
	}
	return out
}

// JoinedCount rescans all prospects and counts new members.
func (p *Population) JoinedCount() int {
	n := 0
	for _, pr := range p.Prospects {
		if pr.Joined() {
			n++
		}
	}
	return n
}

// TypologyRow is one line of the member typology table.
type TypologyRow struct {
	ID       AgentID `json:"id" db:"member_id"`
	Typology string  `json:"typology" db:"typology"`
}

// TypologyTable lists every member's typology in id order.
func (p *Population) TypologyTable() []TypologyRow {
	rows := make([]TypologyRow, len(p.Members))
	for i, m := range p.Members {
		rows[i] = TypologyRow{ID: m.ID, Typology: m.Typology}
	}
	return rows
}

// TypologyCounts returns how many members carry each typology.
func (p *Population) TypologyCounts() map[string]int {
	counts := make(map[string]int)
	for _, m := range p.Members {
		counts[m.Typology]++
	}
	return counts
}
