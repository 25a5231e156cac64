package parser

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/gilchrisn/bisbm-service/pkg/graph"
)

// ReadEdgeList decodes "from to" lines (extra columns are ignored, "#"
// starts a comment). Node identifiers are sorted numerically when all of
// them are integers, lexicographically otherwise, and then indexed densely.
func ReadEdgeList(r io.Reader) (*graph.Graph, error) {
	nodeSet := make(map[string]bool)
	var pairs [][2]string

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) < 2 {
			return nil, fmt.Errorf("edgelist: line %d: expected two node ids", lineNo)
		}

		nodeSet[parts[0]] = true
		nodeSet[parts[1]] = true
		pairs = append(pairs, [2]string{parts[0], parts[1]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("edgelist: %w", err)
	}

	index := newNodeIndex()
	for _, id := range sortedNodeIDs(nodeSet) {
		index.intern(id)
	}

	edges := make([][2]int, 0, len(pairs))
	for _, p := range pairs {
		edges = append(edges, [2]int{index.ids[p[0]], index.ids[p[1]]})
	}

	return index.build(edges, nil)
}

func sortedNodeIDs(nodeSet map[string]bool) []string {
	nodes := make([]string, 0, len(nodeSet))
	for node := range nodeSet {
		nodes = append(nodes, node)
	}

	allIntegers := true
	for _, node := range nodes {
		if _, err := strconv.Atoi(node); err != nil {
			allIntegers = false
			break
		}
	}

	if allIntegers {
		sort.Slice(nodes, func(i, j int) bool {
			a, _ := strconv.Atoi(nodes[i])
			b, _ := strconv.Atoi(nodes[j])
			return a < b
		})
	} else {
		sort.Strings(nodes)
	}
	return nodes
}
