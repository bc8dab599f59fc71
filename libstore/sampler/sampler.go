// Package sampler provides a reference neighborhood sampler behind the
// edgestore.Sampler boundary.  Production deployments are expected to swap
// in an external sampling routine; the store only hands either one a
// CSC-normalized plan and returns its output unchanged.
package sampler

import (
	"context"
	"math/rand"

	"github.com/fine-structures/edgestore-go/edgestore"
)

// Uniform samples up to NumNeighbors incoming neighbors per seed node.
//
// With Rand set, neighbors are drawn uniformly without replacement;
// otherwise the first NumNeighbors entries of each neighborhood are taken,
// which keeps output deterministic.  NumNeighbors <= 0 takes whole
// neighborhoods.
type Uniform struct {
	NumNeighbors int
	Rand         *rand.Rand
}

func (s *Uniform) SampleFrom(ctx context.Context, plan *edgestore.SamplePlan) (*edgestore.Sampled, error) {
	sampled := &edgestore.Sampled{
		Nodes: make(map[edgestore.EdgeType][]int64),
		Edges: make(map[edgestore.EdgeType]*edgestore.EdgeTensor),
	}

	for _, entry := range plan.Entries {
		nodes, edges, err := s.sampleEntry(ctx, entry)
		if err != nil {
			return nil, err
		}
		sampled.Nodes[entry.EdgeType] = nodes
		sampled.Edges[entry.EdgeType] = edges
	}
	return sampled, nil
}

// sampleEntry expands one edge type's seed set by one hop.  The node list
// holds seeds first, then newly touched neighbors, each in first-seen order.
func (s *Uniform) sampleEntry(ctx context.Context, entry edgestore.PlanEntry) ([]int64, *edgestore.EdgeTensor, error) {
	numCols := int64(len(entry.Colptr)) - 1

	var nodes []int64
	touched := make(map[int64]bool, len(entry.Seeds))
	touch := func(node int64) {
		if !touched[node] {
			touched[node] = true
			nodes = append(nodes, node)
		}
	}
	for _, seed := range entry.Seeds {
		touch(seed)
	}

	edges := &edgestore.EdgeTensor{
		Layout: edgestore.LayoutCOO,
	}

	for _, seed := range entry.Seeds {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		// Seeds past the index pointer have no stored in-edges.
		if seed < 0 || seed >= numCols {
			continue
		}
		hood := entry.RowIdx[entry.Colptr[seed]:entry.Colptr[seed+1]]

		for _, k := range s.pick(len(hood)) {
			src := hood[k]
			touch(src)
			edges.Rows = append(edges.Rows, src)
			edges.Cols = append(edges.Cols, seed)
		}
	}
	return nodes, edges, nil
}

// pick selects which of n neighborhood slots to keep.
func (s *Uniform) pick(n int) []int {
	keep := s.NumNeighbors
	if keep <= 0 || keep > n {
		keep = n
	}
	if s.Rand == nil || keep == n {
		idx := make([]int, keep)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	return s.Rand.Perm(n)[:keep]
}
