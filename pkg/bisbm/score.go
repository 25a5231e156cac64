package bisbm

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// assignment is a read-only view of a partition with at most one node
// reassigned. Trial switches are scored through it so the underlying
// partition is never written to.
type assignment struct {
	p     Partition
	node  int // -1 when nothing is overridden
	group int
}

func (as assignment) groupOf(v int) int {
	if v == as.node {
		return as.group
	}
	return as.p[v]
}

// members lists the nodes of every group under the assignment
func (as assignment) members(a, b int) [][]int {
	groups := make([][]int, a+b)
	for v := range as.p {
		group := as.groupOf(v)
		if group >= 0 && group < a+b {
			groups[group] = append(groups[group], v)
		}
	}
	return groups
}

// Score computes the degree-corrected bipartite SBM log-likelihood of p.
// It is the sum over every type-0 group r and type-1 group s of
// m_rs * ln(m_rs / (k_r * k_s)); a block with no edges or no degree
// contributes negative infinity.
func Score(p Partition, g Graph, a, b int) float64 {
	return scoreAssignment(assignment{p: p, node: -1}, g, a, b)
}

// EvaluateSwitch scores p with node v moved to group. Moving a node to its
// current group, out of range, or across the type boundary is illegal and
// scores negative infinity. p is left untouched.
func EvaluateSwitch(p Partition, v, a, b, group int, g Graph) float64 {
	if v < 0 || v >= len(p) {
		return NegInf
	}
	if group == p[v] || !inRange(g.Type(v), group, a, b) {
		return NegInf
	}
	return scoreAssignment(assignment{p: p, node: v, group: group}, g, a, b)
}

func scoreAssignment(as assignment, g Graph, a, b int) float64 {
	groups := as.members(a, b)
	logLikelihood := 0.0
	for r := 0; r < a; r++ {
		for s := a; s < a+b; s++ {
			m, kr, ks := blockCounts(groups[r], groups[s], g)
			logLikelihood += blockTerm(m, kr, ks)
		}
	}
	return logLikelihood
}

// blockCounts checks every (r member, s member) pair for an edge and sums
// the member degrees on both sides
func blockCounts(rNodes, sNodes []int, g Graph) (m, kr, ks int) {
	for _, u := range rNodes {
		for _, v := range sNodes {
			if g.Connected(u, v) {
				m++
			}
		}
	}
	for _, u := range rNodes {
		kr += g.Degree(u)
	}
	for _, v := range sNodes {
		ks += g.Degree(v)
	}
	return m, kr, ks
}

// blockTerm is the contribution of one group pair to the log-likelihood
func blockTerm(m, kr, ks int) float64 {
	if kr == 0 || ks == 0 || m == 0 {
		return NegInf
	}
	return float64(m) * math.Log(float64(m)/(float64(kr)*float64(ks)))
}

// BlockMatrix returns the a x b matrix of edge counts between type-0 group r
// (row r) and type-1 group a+s (column s)
func BlockMatrix(p Partition, g Graph, a, b int) *mat.Dense {
	groups := assignment{p: p, node: -1}.members(a, b)
	m := mat.NewDense(a, b, nil)
	for r := 0; r < a; r++ {
		for s := 0; s < b; s++ {
			edges, _, _ := blockCounts(groups[r], groups[a+s], g)
			m.Set(r, s, float64(edges))
		}
	}
	return m
}

// Blocks returns the statistics and term of every group pair of p
func Blocks(p Partition, g Graph, a, b int) []Block {
	groups := assignment{p: p, node: -1}.members(a, b)
	blocks := make([]Block, 0, a*b)
	for r := 0; r < a; r++ {
		for s := a; s < a+b; s++ {
			m, kr, ks := blockCounts(groups[r], groups[s], g)
			blocks = append(blocks, Block{
				R:     r,
				S:     s,
				Edges: m,
				DegR:  kr,
				DegS:  ks,
				Term:  LogLikelihood(blockTerm(m, kr, ks)),
			})
		}
	}
	return blocks
}
