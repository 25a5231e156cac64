package bisbm

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/bisbm-service/pkg/graph"
)

// newBipartite builds a graph whose first n0 nodes are type 0 and the
// remaining n1 nodes are type 1
func newBipartite(t testing.TB, n0, n1 int, edges [][2]int) *graph.Bipartite {
	t.Helper()
	g := graph.NewGraph(n0 + n1)
	for _, e := range edges {
		require.NoError(t, g.AddEdge(e[0], e[1]))
	}
	types := make([]bool, n0+n1)
	for v := n0; v < n0+n1; v++ {
		types[v] = true
	}
	bg, err := graph.NewBipartiteWithTypes(g, types)
	require.NoError(t, err)
	return bg
}

// randomBipartite draws every type-0/type-1 pair independently with
// probability density; a second copy of some edges adds parallel edges
func randomBipartite(t testing.TB, rng *rand.Rand, n0, n1 int, density float64) *graph.Bipartite {
	t.Helper()
	var edges [][2]int
	for u := 0; u < n0; u++ {
		for v := n0; v < n0+n1; v++ {
			if rng.Float64() < density {
				edges = append(edges, [2]int{u, v})
				if rng.Float64() < 0.1 {
					edges = append(edges, [2]int{v, u})
				}
			}
		}
	}
	return newBipartite(t, n0, n1, edges)
}

// plantedGraph has two dense type-0/type-1 communities joined by one edge
func plantedGraph(t testing.TB) *graph.Bipartite {
	t.Helper()
	var edges [][2]int
	for u := 0; u < 3; u++ {
		for v := 6; v < 9; v++ {
			edges = append(edges, [2]int{u, v})
		}
	}
	for u := 3; u < 6; u++ {
		for v := 9; v < 12; v++ {
			edges = append(edges, [2]int{u, v})
		}
	}
	edges = append(edges, [2]int{2, 9})
	return newBipartite(t, 6, 6, edges)
}

func quietConfig() *Config {
	config := NewConfig()
	config.Set("logging.level", "disabled")
	config.Set("algorithm.random_seed", int64(42))
	return config
}
