package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildGraph(t *testing.T, n int, edges [][2]int) *Graph {
	t.Helper()
	g := NewGraph(n)
	for _, e := range edges {
		require.NoError(t, g.AddEdge(e[0], e[1]))
	}
	return g
}

func TestAddEdgeDegreesAndConnectivity(t *testing.T) {
	g := buildGraph(t, 4, [][2]int{{0, 2}, {1, 3}, {0, 3}, {0, 2}})

	assert.Equal(t, 4, g.NumEdges)
	assert.Equal(t, []int{3, 1, 2, 2}, g.Degrees)
	assert.True(t, g.Connected(0, 2))
	assert.True(t, g.Connected(2, 0))
	assert.False(t, g.Connected(0, 1))
	assert.False(t, g.Connected(-1, 0))
	assert.Equal(t, []int{2, 3}, g.Neighbors(0), "parallel edges appear once")
	assert.Len(t, g.Adjacency[0], 3, "parallel edges stay in adjacency")
	require.NoError(t, g.Validate())
}

func TestAddEdgeOutOfRange(t *testing.T) {
	g := NewGraph(2)
	assert.Error(t, g.AddEdge(0, 2))
	assert.Error(t, g.AddEdge(-1, 1))
	assert.Equal(t, 0, g.NumEdges)
}

func TestSelfLoopCountsTwice(t *testing.T) {
	g := buildGraph(t, 2, [][2]int{{1, 1}})
	assert.Equal(t, 2, g.Degree(1))
	assert.Equal(t, 1, g.SelfLoops)
	require.NoError(t, g.Validate())
}

func TestLabels(t *testing.T) {
	g := NewGraph(3)
	g.SetLabel(1, "alice")
	assert.Equal(t, "0", g.Label(0))
	assert.Equal(t, "alice", g.Label(1))
	g.SetLabel(7, "ignored")
	assert.Len(t, g.Labels, 3)
}

func TestNewBipartite(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		edges     [][2]int
		wantTypes []bool
		wantErr   bool
	}{
		{
			name:      "two disjoint edges",
			n:         4,
			edges:     [][2]int{{0, 2}, {1, 3}},
			wantTypes: []bool{false, false, true, true},
		},
		{
			name:      "path",
			n:         4,
			edges:     [][2]int{{0, 1}, {1, 2}, {2, 3}},
			wantTypes: []bool{false, true, false, true},
		},
		{
			name:      "isolated nodes are type 0",
			n:         3,
			edges:     [][2]int{{1, 2}},
			wantTypes: []bool{false, false, true},
		},
		{
			name:      "even cycle",
			n:         4,
			edges:     [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}},
			wantTypes: []bool{false, true, false, true},
		},
		{
			name:    "triangle",
			n:       3,
			edges:   [][2]int{{0, 1}, {1, 2}, {2, 0}},
			wantErr: true,
		},
		{
			name:    "odd cycle in second component",
			n:       6,
			edges:   [][2]int{{0, 1}, {2, 3}, {3, 4}, {4, 5}, {5, 2}, {2, 4}},
			wantErr: true,
		},
		{
			name:    "self-loop",
			n:       2,
			edges:   [][2]int{{0, 1}, {1, 1}},
			wantErr: true,
		},
		{
			name:      "empty graph",
			n:         0,
			wantTypes: []bool{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := buildGraph(t, tt.n, tt.edges)
			bg, err := NewBipartite(g)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrNotBipartite))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTypes, bg.Types)
			for u := 0; u < g.NumNodes; u++ {
				for _, v := range g.Neighbors(u) {
					assert.NotEqual(t, bg.Type(u), bg.Type(v), "edge %d-%d", u, v)
				}
			}
		})
	}
}

func TestNewBipartiteWithTypes(t *testing.T) {
	g := buildGraph(t, 4, [][2]int{{0, 2}, {1, 3}})

	bg, err := NewBipartiteWithTypes(g, []bool{false, true, true, false})
	require.NoError(t, err)
	zeros, ones := bg.CountTypes()
	assert.Equal(t, 2, zeros)
	assert.Equal(t, 2, ones)

	_, err = NewBipartiteWithTypes(g, []bool{false, false, false, true})
	assert.ErrorIs(t, err, ErrNotBipartite)

	_, err = NewBipartiteWithTypes(g, []bool{false})
	assert.Error(t, err)
}

func TestToGonumCollapsesParallelEdges(t *testing.T) {
	g := buildGraph(t, 3, [][2]int{{0, 1}, {0, 1}, {1, 2}})
	ug := ToGonum(g)
	assert.Equal(t, 3, ug.Nodes().Len())
	assert.Equal(t, 2, ug.Edges().Len())
	assert.True(t, ug.HasEdgeBetween(0, 1))
	assert.False(t, ug.HasEdgeBetween(0, 2))
}
