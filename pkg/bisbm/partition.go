package bisbm

import (
	"fmt"
	"math/rand"
)

// NewRandomPartition assigns every type-0 node a uniform group in [0, a)
// and every type-1 node a uniform group in [a, a+b).
func NewRandomPartition(types []bool, a, b int, rng *rand.Rand) (Partition, error) {
	if a <= 0 || b <= 0 {
		return nil, fmt.Errorf("%w: a=%d, b=%d", ErrInvalidGroupCount, a, b)
	}
	if rng == nil {
		return nil, ErrNilRandom
	}

	p := make(Partition, len(types))
	for v, t := range types {
		if !t {
			p[v] = rng.Intn(a)
		} else {
			p[v] = a + rng.Intn(b)
		}
	}
	return p, nil
}

// Types extracts the type labels of every node of g
func Types(g Graph) []bool {
	types := make([]bool, g.NumNodes())
	for v := range types {
		types[v] = g.Type(v)
	}
	return types
}

// Clone returns a copy of the partition
func (p Partition) Clone() Partition {
	if p == nil {
		return nil
	}
	c := make(Partition, len(p))
	copy(c, p)
	return c
}

// Validate checks that p covers g and keeps every node on its own side
func (p Partition) Validate(g Graph, a, b int) error {
	if a <= 0 || b <= 0 {
		return fmt.Errorf("%w: a=%d, b=%d", ErrInvalidGroupCount, a, b)
	}
	if len(p) != g.NumNodes() {
		return fmt.Errorf("%w: %d assignments for %d nodes", ErrPartitionMismatch, len(p), g.NumNodes())
	}
	for v, group := range p {
		if !inRange(g.Type(v), group, a, b) {
			return fmt.Errorf("%w: node %d of type %d assigned to group %d", ErrPartitionMismatch, v, typeIndex(g.Type(v)), group)
		}
	}
	return nil
}

// Groups returns the members of every group, indexed by group id
func (p Partition) Groups(a, b int) [][]int {
	groups := make([][]int, a+b)
	for v, group := range p {
		if group >= 0 && group < a+b {
			groups[group] = append(groups[group], v)
		}
	}
	return groups
}

// inRange reports whether group lies on the side of a node of type t
func inRange(t bool, group, a, b int) bool {
	if !t {
		return group >= 0 && group < a
	}
	return group >= a && group < a+b
}

func typeIndex(t bool) int {
	if t {
		return 1
	}
	return 0
}
