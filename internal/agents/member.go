package agents

import (
	"sort"

	"github.com/talgya/community-sim/internal/world"
)

// Trait is one latent member trait: the raw normal draw and its absolute
// deviation from the distribution mean. Only the deviation feeds typology
// and prowess.
type Trait struct {
	Raw       float64 `json:"raw"`
	Deviation float64 `json:"deviation"`
}

func newTrait(raw float64, p TraitParams) Trait {
	d := raw - p.Mean
	if d < 0 {
		d = -d
	}
	return Trait{Raw: raw, Deviation: d}
}

// Member is an agent that has already joined the community.
type Member struct {
	ID       AgentID     `json:"id"`
	Position world.Coord `json:"position"`

	EnvironmentalConcern Trait `json:"environmental_concern"`
	FinancialConcern     Trait `json:"financial_concern"`
	SenseOfCommunity     Trait `json:"sense_of_community"`
	EnergyIndependence   Trait `json:"energy_independence"`

	Typology          string  `json:"typology"`           // e.g. "Type ES"
	Reach             int     `json:"reach"`              // Outreach radius
	ConvincingProwess float64 `json:"convincing_prowess"` // ≤ 1, may be negative
}

func (m *Member) AgentID() AgentID     { return m.ID }
func (m *Member) Kind() Kind           { return KindMember }
func (m *Member) Pos() world.Coord     { return m.Position }
func (m *Member) SetPos(c world.Coord) { m.Position = c }

// ConvincingProwess derives persuasive strength from trait deviations:
// (env − fin + community + energy) / 4, capped at 1. There is no lower cap.
func ConvincingProwess(env, fin, community, energy float64) float64 {
	p := (env - fin + community + energy) / 4
	if p > 1 {
		p = 1
	}
	return p
}

// mirrored maps letter orders that collapse onto their reverse, so a
// typology and its mirror are never both reported.
var mirrored = map[string]string{
	"SE": "ES",
	"IF": "FI",
	"IS": "SI",
	"SF": "FS",
	"IE": "EI",
	"FE": "EF", // sixth entry on purpose: EF and FE are the same typology
}

// Typologies lists every canonical typology.
var Typologies = []string{"Type EF", "Type EI", "Type ES", "Type FI", "Type FS", "Type SI"}

// Typology returns the persona code from the two largest trait deviations.
// Ties keep the E, F, S, I order.
func Typology(env, fin, community, energy float64) string {
	params := []struct {
		letter byte
		value  float64
	}{
		{'E', env},
		{'F', fin},
		{'S', community},
		{'I', energy},
	}
	sort.SliceStable(params, func(i, j int) bool {
		return params[i].value > params[j].value
	})

	code := string([]byte{params[0].letter, params[1].letter})
	if canon, ok := mirrored[code]; ok {
		code = canon
	}
	return "Type " + code
}
