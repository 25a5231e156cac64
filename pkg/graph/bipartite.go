package graph

import (
	"errors"
	"fmt"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
)

// ErrNotBipartite is returned when a graph admits no 2-coloring
var ErrNotBipartite = errors.New("graph is not bipartite")

// Bipartite is a graph together with a verified 2-coloring of its nodes.
// Types[v] == false marks a type-0 node, true a type-1 node.
type Bipartite struct {
	*Graph
	Types []bool `json:"types"`
}

// NewBipartite finds a 2-coloring of g by breadth-first search. Components
// are visited in node order and each component root is assigned type 0.
func NewBipartite(g *Graph) (*Bipartite, error) {
	if g == nil {
		return nil, fmt.Errorf("nil graph")
	}
	if g.SelfLoops > 0 {
		return nil, fmt.Errorf("%w: %d self-loop(s)", ErrNotBipartite, g.SelfLoops)
	}

	ug := ToGonum(g)
	colored := make([]bool, g.NumNodes)
	types := make([]bool, g.NumNodes)
	conflict := false

	bf := traverse.BreadthFirst{
		Traverse: func(e gonum.Edge) bool {
			u, v := e.From().ID(), e.To().ID()
			switch {
			case colored[u] && colored[v]:
				if types[u] == types[v] {
					conflict = true
				}
			case colored[u]:
				types[v] = !types[u]
				colored[v] = true
			case colored[v]:
				types[u] = !types[v]
				colored[u] = true
			}
			return !conflict
		},
	}

	for root := 0; root < g.NumNodes; root++ {
		if colored[root] {
			continue
		}
		colored[root] = true
		types[root] = false
		bf.Walk(ug, simple.Node(root), func(gonum.Node, int) bool { return conflict })
		if conflict {
			return nil, ErrNotBipartite
		}
	}

	return &Bipartite{Graph: g, Types: types}, nil
}

// NewBipartiteWithTypes checks that the supplied labels are a 2-coloring of g
func NewBipartiteWithTypes(g *Graph, types []bool) (*Bipartite, error) {
	if g == nil {
		return nil, fmt.Errorf("nil graph")
	}
	if len(types) != g.NumNodes {
		return nil, fmt.Errorf("type labels cover %d nodes, graph has %d", len(types), g.NumNodes)
	}
	for u := 0; u < g.NumNodes; u++ {
		for _, v := range g.Adjacency[u] {
			if types[u] == types[v] {
				return nil, fmt.Errorf("%w: edge %d-%d joins two nodes of the same type", ErrNotBipartite, u, v)
			}
		}
	}

	labels := make([]bool, len(types))
	copy(labels, types)
	return &Bipartite{Graph: g, Types: labels}, nil
}

// NumNodes returns the number of nodes. It shadows the embedded field so a
// Bipartite satisfies read-only graph interfaces.
func (b *Bipartite) NumNodes() int {
	return b.Graph.NumNodes
}

// Type returns the type label of a node
func (b *Bipartite) Type(node int) bool {
	return b.Types[node]
}

// CountTypes returns the number of type-0 and type-1 nodes
func (b *Bipartite) CountTypes() (zeros, ones int) {
	for _, t := range b.Types {
		if t {
			ones++
		} else {
			zeros++
		}
	}
	return zeros, ones
}

// ToGonum converts the graph to a gonum simple undirected graph with node IDs
// equal to node indices. Parallel edges collapse and self-loops are dropped.
func ToGonum(g *Graph) *simple.UndirectedGraph {
	ug := simple.NewUndirectedGraph()
	for i := 0; i < g.NumNodes; i++ {
		ug.AddNode(simple.Node(i))
	}
	for u := 0; u < g.NumNodes; u++ {
		for _, v := range g.Neighbors(u) {
			if u < v {
				ug.SetEdge(ug.NewEdge(simple.Node(u), simple.Node(v)))
			}
		}
	}
	return ug
}
