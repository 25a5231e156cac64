package bisbm

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/bisbm-service/pkg/graph"
)

func TestScoreFourVertexScenario(t *testing.T) {
	g := newBipartite(t, 2, 2, [][2]int{{0, 2}, {1, 3}})
	p := Partition{0, 0, 1, 1}

	// m_rs = 2, k_r = 2, k_s = 2
	assert.InDelta(t, 2*math.Log(2.0/4.0), Score(p, g, 1, 1), 1e-12)
}

func TestScoreNegativeInfinity(t *testing.T) {
	g := newBipartite(t, 2, 2, [][2]int{{0, 2}, {1, 3}})

	tests := []struct {
		name string
		p    Partition
		a, b int
	}{
		{"empty type-0 group", Partition{0, 0, 2, 2}, 2, 1},
		{"empty type-1 group", Partition{0, 0, 1, 1}, 1, 2},
		{"edgeless block", Partition{0, 1, 2, 3}, 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, math.IsInf(Score(tt.p, g, tt.a, tt.b), -1))
		})
	}
}

func TestScoreIsolatedBlockDominates(t *testing.T) {
	// Block (0,3) has m=2 but block (1,2) has no edges
	g := newBipartite(t, 4, 4, [][2]int{{0, 4}, {0, 6}, {1, 5}, {2, 6}, {3, 7}, {1, 6}})
	p := Partition{0, 0, 1, 1, 2, 2, 3, 3}

	blocks := Blocks(p, g, 2, 2)
	finite := 0
	for _, blk := range blocks {
		if !math.IsInf(float64(blk.Term), -1) {
			finite++
		}
	}
	require.Greater(t, finite, 0)
	assert.True(t, math.IsInf(Score(p, g, 2, 2), -1))
}

func TestScoreNeverNaNOrPositiveInfinity(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 50; trial++ {
		n0, n1 := 1+rng.Intn(6), 1+rng.Intn(6)
		g := randomBipartite(t, rng, n0, n1, 0.5)
		a, b := 1+rng.Intn(3), 1+rng.Intn(3)
		p, err := NewRandomPartition(Types(g), a, b, rng)
		require.NoError(t, err)

		score := Score(p, g, a, b)
		assert.False(t, math.IsNaN(score))
		assert.False(t, math.IsInf(score, 1))
		assert.LessOrEqual(t, score, 0.0)
	}
}

func TestScoreInvariantUnderRelabeling(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	g := randomBipartite(t, rng, 5, 6, 0.6)
	a, b := 2, 2
	p, err := NewRandomPartition(Types(g), a, b, rng)
	require.NoError(t, err)

	n := g.NumNodes()
	perm := rng.Perm(n)
	permuted := graph.NewGraph(n)
	types := make([]bool, n)
	for u := 0; u < n; u++ {
		types[perm[u]] = g.Type(u)
		for _, v := range g.Adjacency[u] {
			if u < v {
				require.NoError(t, permuted.AddEdge(perm[u], perm[v]))
			}
		}
	}
	pg, err := graph.NewBipartiteWithTypes(permuted, types)
	require.NoError(t, err)

	pp := make(Partition, n)
	for u := range p {
		pp[perm[u]] = p[u]
	}

	assert.InDelta(t, Score(p, g, a, b), Score(pp, pg, a, b), 1e-9)
}

func TestEvaluateSwitchRejections(t *testing.T) {
	g := newBipartite(t, 2, 2, [][2]int{{0, 2}, {1, 3}, {0, 3}})
	p := Partition{0, 1, 2, 3}
	a, b := 2, 2

	tests := []struct {
		name  string
		v     int
		group int
	}{
		{"no-op type 0", 0, 0},
		{"no-op type 1", 2, 2},
		{"type 0 into type-1 group", 0, 2},
		{"type 0 into last group", 1, 3},
		{"type 1 into type-0 group", 3, 0},
		{"type 1 into group a-1", 2, 1},
		{"group out of range", 0, 4},
		{"negative group", 0, -1},
		{"node out of range", 9, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, math.IsInf(EvaluateSwitch(p, tt.v, a, b, tt.group, g), -1))
		})
	}
}

func TestEvaluateSwitchMatchesScoreAndLeavesPartition(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	g := randomBipartite(t, rng, 6, 5, 0.7)
	a, b := 3, 2
	p, err := NewRandomPartition(Types(g), a, b, rng)
	require.NoError(t, err)
	original := p.Clone()

	for v := range p {
		for group := 0; group < a+b; group++ {
			got := EvaluateSwitch(p, v, a, b, group, g)
			require.Equal(t, original, p, "partition modified by trial switch")

			if group == p[v] || !inRange(g.Type(v), group, a, b) {
				assert.True(t, math.IsInf(got, -1))
				continue
			}
			moved := p.Clone()
			moved[v] = group
			assert.Equal(t, Score(moved, g, a, b), got)
		}
	}
}

func TestBlockMatrixAgreesWithBlocks(t *testing.T) {
	g := plantedGraph(t)
	p := Partition{0, 0, 0, 1, 1, 1, 2, 2, 2, 3, 3, 3}

	m := BlockMatrix(p, g, 2, 2)
	rows, cols := m.Dims()
	require.Equal(t, 2, rows)
	require.Equal(t, 2, cols)
	assert.Equal(t, 9.0, m.At(0, 0))
	assert.Equal(t, 1.0, m.At(0, 1))
	assert.Equal(t, 0.0, m.At(1, 0))
	assert.Equal(t, 9.0, m.At(1, 1))

	for _, blk := range Blocks(p, g, 2, 2) {
		assert.Equal(t, float64(blk.Edges), m.At(blk.R, blk.S-2))
	}
}
