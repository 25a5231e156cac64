package parser

import (
	"fmt"
	"io"
	"sort"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/multi"

	"github.com/gilchrisn/bisbm-service/pkg/graph"
)

// dotNode keeps the DOT identifier of a node so it can become the label
type dotNode struct {
	id    int64
	dotID string
}

func (n *dotNode) ID() int64 { return n.id }
func (n *dotNode) SetDOTID(id string) { n.dotID = id }
func (n *dotNode) DOTID() string { return n.dotID }

// dotGraph is a multigraph builder for the DOT decoder
type dotGraph struct {
	*multi.UndirectedGraph
}

func (g dotGraph) NewNode() gonum.Node {
	return &dotNode{id: g.UndirectedGraph.NewNode().ID()}
}

// ReadDOT decodes an undirected DOT graph. Parallel edges are preserved.
func ReadDOT(r io.Reader) (*graph.Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	dst := dotGraph{UndirectedGraph: multi.NewUndirectedGraph()}
	if err := dot.UnmarshalMulti(data, dst); err != nil {
		return nil, fmt.Errorf("dot: %w", err)
	}

	nodes := gonum.NodesOf(dst.Nodes())
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })

	index := newNodeIndex()
	byID := make(map[int64]int, len(nodes))
	labels := make(map[int]string)
	for _, n := range nodes {
		key := fmt.Sprintf("%d", n.ID())
		idx := index.intern(key)
		byID[n.ID()] = idx
		if dn, ok := n.(*dotNode); ok && dn.dotID != "" {
			labels[idx] = dn.dotID
		}
	}

	var edges [][2]int
	for _, n := range nodes {
		uid := n.ID()
		neighbors := gonum.NodesOf(dst.From(uid))
		sort.Slice(neighbors, func(i, j int) bool { return neighbors[i].ID() < neighbors[j].ID() })
		for _, m := range neighbors {
			vid := m.ID()
			if vid < uid {
				continue
			}
			lines := dst.LinesBetween(uid, vid)
			count := lines.Len()
			for i := 0; i < count; i++ {
				edges = append(edges, [2]int{byID[uid], byID[vid]})
			}
		}
	}

	return index.build(edges, labels)
}
