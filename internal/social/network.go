// Peer network. Each prospect picks a fixed set of other prospects whose
// decisions it watches. Links are one-way: A watching B says nothing about
// B watching A.
package social

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/graph/simple"

	"github.com/talgya/community-sim/internal/agents"
	"github.com/talgya/community-sim/internal/scenario"
)

// PeerNetwork is the directed friendship graph of one model. The ordered
// friend lists live on the prospects; the graph answers structural
// questions about the whole network.
type PeerNetwork struct {
	Graph *simple.DirectedGraph
	links int
}

// BuildPeerNetwork samples, for every prospect in order, NumberOfFriends
// distinct other prospects without replacement and stores them as the
// prospect's friends. A prospect can never pick itself. Asking for more
// friends than there are other prospects is a configuration error.
func BuildPeerNetwork(prospects []*agents.Prospect, rng *rand.Rand) (*PeerNetwork, error) {
	g := simple.NewDirectedGraph()
	for _, p := range prospects {
		g.AddNode(simple.Node(int64(p.ID)))
	}

	others := len(prospects) - 1
	for _, p := range prospects {
		if p.NumberOfFriends < 0 || p.NumberOfFriends > others {
			return nil, fmt.Errorf("prospect %d wants %d friends but only %d other prospects exist: %w",
				p.ID, p.NumberOfFriends, others, scenario.ErrInvalidConfiguration)
		}
	}

	net := &PeerNetwork{Graph: g}
	pool := make([]*agents.Prospect, 0, others)
	for i, p := range prospects {
		pool = pool[:0]
		pool = append(pool, prospects[:i]...)
		pool = append(pool, prospects[i+1:]...)

		// Partial Fisher–Yates: the first n entries become the sample.
		n := p.NumberOfFriends
		for j := 0; j < n; j++ {
			k := j + rng.Intn(len(pool)-j)
			pool[j], pool[k] = pool[k], pool[j]
		}

		p.Friends = make([]*agents.Prospect, n)
		copy(p.Friends, pool[:n])
		for _, f := range p.Friends {
			g.SetEdge(g.NewEdge(simple.Node(int64(p.ID)), simple.Node(int64(f.ID))))
			net.links++
		}
	}
	return net, nil
}

// Links returns the number of directed friendship links.
func (n *PeerNetwork) Links() int {
	return n.links
}

// Watches reports whether from lists to as a friend.
func (n *PeerNetwork) Watches(from, to agents.AgentID) bool {
	return n.Graph.HasEdgeFromTo(int64(from), int64(to))
}

// Followers returns how many prospects list id as a friend.
func (n *PeerNetwork) Followers(id agents.AgentID) int {
	return n.Graph.To(int64(id)).Len()
}

// Reciprocity returns the share of links whose reverse link also exists.
// Zero when there are no links.
func (n *PeerNetwork) Reciprocity() float64 {
	if n.links == 0 {
		return 0
	}
	mutual := 0
	edges := n.Graph.Edges()
	for edges.Next() {
		e := edges.Edge()
		if n.Graph.HasEdgeFromTo(e.To().ID(), e.From().ID()) {
			mutual++
		}
	}
	return float64(mutual) / float64(n.links)
}
