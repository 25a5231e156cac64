package graph

import (
	"fmt"
)

// Graph represents an unweighted undirected graph using simple arrays.
// Parallel edges are kept: they count towards degrees but connectivity
// queries only report whether at least one edge exists.
type Graph struct {
	NumNodes  int      `json:"num_nodes"`
	NumEdges  int      `json:"num_edges"`
	Adjacency [][]int  `json:"-"`                // adjacency[i] = neighbors of node i, one entry per edge
	Degrees   []int    `json:"degrees"`          // degrees[i] = number of edge endpoints at node i
	Labels    []string `json:"labels,omitempty"` // labels[i] = identifier of node i in the source file
	SelfLoops int      `json:"self_loops"`       // loops count twice in Degrees

	neighbors []map[int]struct{}
	distinct  [][]int
}

// NewGraph creates a new graph with n nodes and no edges
func NewGraph(numNodes int) *Graph {
	return &Graph{
		NumNodes:  numNodes,
		Adjacency: make([][]int, numNodes),
		Degrees:   make([]int, numNodes),
		neighbors: make([]map[int]struct{}, numNodes),
		distinct:  make([][]int, numNodes),
	}
}

// AddEdge adds an undirected edge between two nodes
func (g *Graph) AddEdge(u, v int) error {
	if u < 0 || u >= g.NumNodes || v < 0 || v >= g.NumNodes {
		return fmt.Errorf("node index out of range: u=%d, v=%d, numNodes=%d", u, v, g.NumNodes)
	}

	g.Adjacency[u] = append(g.Adjacency[u], v)
	g.Degrees[u]++
	if u != v {
		g.Adjacency[v] = append(g.Adjacency[v], u)
		g.Degrees[v]++
	} else {
		// Self-loop: counts twice towards the degree
		g.Degrees[u]++
		g.SelfLoops++
	}

	g.link(u, v)
	g.link(v, u)
	g.NumEdges++
	return nil
}

func (g *Graph) link(u, v int) {
	if g.neighbors[u] == nil {
		g.neighbors[u] = make(map[int]struct{})
	}
	if _, ok := g.neighbors[u][v]; ok {
		return
	}
	g.neighbors[u][v] = struct{}{}
	g.distinct[u] = append(g.distinct[u], v)
}

// SetLabel records the source identifier of a node
func (g *Graph) SetLabel(node int, label string) {
	if node < 0 || node >= g.NumNodes {
		return
	}
	if g.Labels == nil {
		g.Labels = make([]string, g.NumNodes)
	}
	g.Labels[node] = label
}

// Label returns the source identifier of a node, or its index when none was recorded
func (g *Graph) Label(node int) string {
	if node >= 0 && node < len(g.Labels) && g.Labels[node] != "" {
		return g.Labels[node]
	}
	return fmt.Sprintf("%d", node)
}

// Connected reports whether at least one edge joins u and v
func (g *Graph) Connected(u, v int) bool {
	if u < 0 || u >= g.NumNodes || v < 0 || v >= g.NumNodes {
		return false
	}
	_, ok := g.neighbors[u][v]
	return ok
}

// Degree returns the number of edge endpoints at a node
func (g *Graph) Degree(node int) int {
	if node < 0 || node >= g.NumNodes {
		return 0
	}
	return g.Degrees[node]
}

// Neighbors returns the distinct neighbors of a node in insertion order.
// The returned slice must not be modified.
func (g *Graph) Neighbors(node int) []int {
	if node < 0 || node >= g.NumNodes {
		return nil
	}
	return g.distinct[node]
}

// Validate checks graph consistency
func (g *Graph) Validate() error {
	if g.NumNodes < 0 {
		return fmt.Errorf("graph must have a non-negative number of nodes")
	}
	if len(g.Adjacency) != g.NumNodes || len(g.Degrees) != g.NumNodes {
		return fmt.Errorf("adjacency and degree arrays inconsistent with %d nodes", g.NumNodes)
	}

	for i := 0; i < g.NumNodes; i++ {
		for _, neighbor := range g.Adjacency[i] {
			if neighbor < 0 || neighbor >= g.NumNodes {
				return fmt.Errorf("invalid neighbor %d for node %d", neighbor, i)
			}
		}
		if g.Degrees[i] < len(g.Adjacency[i]) {
			return fmt.Errorf("degree %d of node %d is below its adjacency count %d", g.Degrees[i], i, len(g.Adjacency[i]))
		}
	}

	return nil
}
