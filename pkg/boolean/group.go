// Package boolean partitions the boundary surfaces of sibling volumes into
// connected groups. Each group becomes one inner shell (cavity) of the
// enclosing volume.
package boolean

import (
	"fmt"

	"github.com/chazu/blockgeo/pkg/geom"
)

// Group partitions volumes, each given as the list of its boundary surface
// tags, into groups of volumes connected through a chain of shared surface
// tags. Every returned group is the de-duplicated union of its members'
// tags in first-seen order, and groups are ordered by their first member.
//
// With no sharing, the result has one group per input volume. The
// partition is checked for exactness: every distinct input tag must land in
// exactly one group, otherwise a *geom.TopologyError is returned.
func Group(volumes [][]geom.Tag) ([][]geom.Tag, error) {
	if len(volumes) == 0 {
		return nil, nil
	}

	uf := newUnionFind(len(volumes))
	owner := make(map[geom.Tag]int) // first volume seen carrying each tag
	for i, tags := range volumes {
		for _, t := range tags {
			if j, ok := owner[t]; ok {
				uf.union(i, j)
				continue
			}
			owner[t] = i
		}
	}

	// Assemble groups in order of their first member volume.
	index := make(map[int]int) // root -> group index
	var groups [][]geom.Tag
	seen := make(map[geom.Tag]struct{}, len(owner))
	for i, tags := range volumes {
		root := uf.find(i)
		g, ok := index[root]
		if !ok {
			g = len(groups)
			index[root] = g
			groups = append(groups, nil)
		}
		for _, t := range tags {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			groups[g] = append(groups[g], t)
		}
	}

	if err := checkExact(owner, groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// checkExact verifies that the groups hold every distinct input tag exactly
// once.
func checkExact(input map[geom.Tag]int, groups [][]geom.Tag) error {
	placed := make(map[geom.Tag]int, len(input))
	for g, tags := range groups {
		for _, t := range tags {
			if prev, ok := placed[t]; ok {
				return &geom.TopologyError{Message: fmt.Sprintf("surface %d appears in groups %d and %d", t, prev, g)}
			}
			placed[t] = g
		}
	}
	for t := range input {
		if _, ok := placed[t]; !ok {
			return &geom.TopologyError{Message: fmt.Sprintf("surface %d dropped from partition", t)}
		}
	}
	if len(placed) != len(input) {
		return &geom.TopologyError{Message: fmt.Sprintf("partition holds %d surfaces, input has %d", len(placed), len(input))}
	}
	return nil
}

// unionFind is a disjoint-set forest over volume indices.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(i int) int {
	for uf.parent[i] != i {
		uf.parent[i] = uf.parent[uf.parent[i]]
		i = uf.parent[i]
	}
	return i
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	switch {
	case uf.rank[ra] < uf.rank[rb]:
		uf.parent[ra] = rb
	case uf.rank[ra] > uf.rank[rb]:
		uf.parent[rb] = ra
	default:
		uf.parent[rb] = ra
		uf.rank[ra]++
	}
}
