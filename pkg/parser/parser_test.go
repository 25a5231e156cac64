package parser

import (
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/bisbm-service/pkg/graph"
)

var womenEvents = [][2]string{
	{"Evelyn", "E1"}, {"Evelyn", "E2"},
	{"Laura", "E1"}, {"Laura", "E3"},
	{"Theresa", "E2"}, {"Theresa", "E3"},
}

func labelIndex(g *graph.Graph) map[string]int {
	idx := make(map[string]int, g.NumNodes)
	for i := 0; i < g.NumNodes; i++ {
		idx[g.Label(i)] = i
	}
	return idx
}

func assertWomenEvents(t *testing.T, g *graph.Graph) {
	t.Helper()
	require.Equal(t, 6, g.NumNodes)
	assert.Equal(t, 6, g.NumEdges)

	idx := labelIndex(g)
	for _, e := range womenEvents {
		u, okU := idx[e[0]]
		v, okV := idx[e[1]]
		require.True(t, okU && okV, "labels %v", e)
		assert.True(t, g.Connected(u, v), "edge %s-%s", e[0], e[1])
	}
	for i := 0; i < g.NumNodes; i++ {
		assert.Equal(t, 2, g.Degree(i), "degree of %s", g.Label(i))
	}
}

func TestLoadFileFormats(t *testing.T) {
	tests := []struct {
		format string
		file   string
	}{
		{"gml", "southern_women_small.gml"},
		{"graphml", "southern_women_small.graphml"},
		{"dot", "southern_women_small.dot"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			g, err := LoadFile(tt.format, filepath.Join("testdata", tt.file))
			require.NoError(t, err)
			assertWomenEvents(t, g)

			bg, err := graph.NewBipartite(g)
			require.NoError(t, err)
			idx := labelIndex(g)
			assert.False(t, bg.Type(idx["Evelyn"]))
			assert.True(t, bg.Type(idx["E1"]))
		})
	}
}

func TestLoadFileEdgeList(t *testing.T) {
	g, err := LoadFile("edgelist", filepath.Join("testdata", "southern_women_small.edges"))
	require.NoError(t, err)
	require.Equal(t, 6, g.NumNodes)
	assert.Equal(t, []string{"0", "1", "2", "3", "4", "5"}, g.Labels)
	assert.True(t, g.Connected(0, 3))
	assert.True(t, g.Connected(2, 5))
	assert.False(t, g.Connected(0, 5))
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile("pajek", filepath.Join("testdata", "southern_women_small.gml"))
	assert.True(t, errors.Is(err, ErrUnknownFormat))

	_, err = LoadFile("gml", filepath.Join("testdata", "missing.gml"))
	assert.True(t, errors.Is(err, ErrBadFile))

	_, err = LoadFile("graphml", filepath.Join("testdata", "southern_women_small.gml"))
	assert.True(t, errors.Is(err, ErrReadFailed))
}

func TestReadGMLMalformed(t *testing.T) {
	tests := map[string]string{
		"no graph block": `creator "x"`,
		"unterminated":   `graph [ node [ id 1 ]`,
		"unknown node":   `graph [ node [ id 1 ] edge [ source 1 target 2 ] ]`,
		"duplicate node": `graph [ node [ id 1 ] node [ id 1 ] ]`,
		"non-integer id": `graph [ node [ id abc ] ]`,
		"stray bracket":  `graph [ ] ]`,
		"missing target": `graph [ node [ id 1 ] edge [ source 1 ] ]`,
		"open string":    `graph [ node [ id 1 label "x ] ]`,
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse("gml", strings.NewReader(input))
			assert.ErrorIs(t, err, ErrReadFailed)
		})
	}
}

func TestReadGMLParallelEdges(t *testing.T) {
	input := `graph [
  node [ id 0 ]
  node [ id 1 ]
  edge [ source 0 target 1 ]
  edge [ source 1 target 0 ]
]`
	g, err := Parse("GML", strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, g.Degree(0))
	assert.Equal(t, []int{1}, g.Neighbors(0))
}

func TestReadGraphMLUnknownNode(t *testing.T) {
	input := `<graphml><graph><node id="a"/><edge source="a" target="b"/></graph></graphml>`
	_, err := Parse("graphml", strings.NewReader(input))
	assert.ErrorIs(t, err, ErrReadFailed)
}

func TestReadDOTRejectsDirected(t *testing.T) {
	_, err := Parse("dot", strings.NewReader(`digraph { a -> b }`))
	assert.ErrorIs(t, err, ErrReadFailed)
}

func TestReadEdgeListLexicographic(t *testing.T) {
	g, err := Parse("edgelist", strings.NewReader("b x\na y 1.5\n\n# note\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "x", "y"}, g.Labels)
	assert.True(t, g.Connected(1, 2))
	assert.True(t, g.Connected(0, 3))

	_, err = Parse("edgelist", strings.NewReader("lonely\n"))
	assert.ErrorIs(t, err, ErrReadFailed)
}

func TestRegisterAndFormats(t *testing.T) {
	assert.Equal(t, []string{"dot", "edgelist", "gml", "graphml"}, Formats())

	Register("Empty", func(r io.Reader) (*graph.Graph, error) {
		return graph.NewGraph(0), nil
	})
	defer func() {
		mu.Lock()
		delete(readers, "empty")
		mu.Unlock()
	}()

	g, err := Parse("empty", strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, g.NumNodes)
}
