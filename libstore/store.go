// Package libstore implements the edgestore contract: a key-cast and
// layout-normalizing wrapper over any Backend, an in-memory backend, and
// a textual edge-list grammar.
package libstore

import (
	"context"
	"sort"

	"github.com/art-media-platform/amp.SDK/stdlib/symbol/memory_table"
	"github.com/fine-structures/edgestore-go/edgestore"
	"github.com/fine-structures/edgestore-go/libstore/sparse"
	"github.com/pkg/errors"
)

// getOrder is the layout preference when resolving a key with no layout set
// and when picking a source entry to normalize for sampling.
var getOrder = [...]edgestore.EdgeLayout{
	edgestore.LayoutCSC,
	edgestore.LayoutCOO,
	edgestore.LayoutCSR,
	edgestore.LayoutLIL,
}

type store struct {
	backend edgestore.Backend
	sampler edgestore.Sampler
}

// NewStore wraps the given backend as an edgestore.Store, delegating
// neighborhood sampling to the given sampler.
func NewStore(backend edgestore.Backend, sampler edgestore.Sampler) edgestore.Store {
	return &store{
		backend: backend,
		sampler: sampler,
	}
}

func (st *store) Put(tensor *edgestore.EdgeTensor, key edgestore.EdgeKey) error {
	if key.Layout == edgestore.LayoutNil {
		return edgestore.ErrMissingLayout
	}
	if tensor == nil {
		return edgestore.ErrNilTensor
	}
	if tensor.Layout == edgestore.LayoutNil {
		stamped := *tensor
		stamped.Layout = key.Layout
		tensor = &stamped
	} else if tensor.Layout != key.Layout {
		return errors.Wrap(edgestore.ErrBadTensor, "tensor layout does not match key layout")
	}
	if err := sparse.Validate(tensor); err != nil {
		return err
	}
	return st.backend.PutEdgeIndex(tensor, key)
}

func (st *store) Get(key edgestore.EdgeKey) (*edgestore.EdgeTensor, error) {
	tensor, found := st.resolve(key)
	if !found {
		return nil, nil
	}
	return sparse.ToCOO(tensor)
}

func (st *store) Contains(key edgestore.EdgeKey) bool {
	if key.Layout != edgestore.LayoutNil {
		return st.backend.HasEdgeIndex(key)
	}
	_, found := st.resolve(key)
	return found
}

func (st *store) Keys() []edgestore.EdgeKey {
	return st.backend.Keys()
}

func (st *store) Close() error {
	return st.backend.Close()
}

// resolve returns the stored tensor matching key.  A key with no layout
// matches the key's edge type under any layout, probed in getOrder.
func (st *store) resolve(key edgestore.EdgeKey) (*edgestore.EdgeTensor, bool) {
	if key.Layout != edgestore.LayoutNil {
		return st.backend.GetEdgeIndex(key)
	}
	for _, layout := range getOrder {
		probe := edgestore.FormEdgeKey(layout, key.EdgeType)
		if tensor, found := st.backend.GetEdgeIndex(probe); found {
			return tensor, true
		}
	}
	return nil, false
}

func (st *store) Sample(ctx context.Context, input edgestore.SampleInput) (*edgestore.Sampled, error) {
	if input.IsEmpty() {
		return &edgestore.Sampled{}, nil
	}

	plan, err := st.buildSamplePlan(input)
	if err != nil {
		return nil, err
	}

	// A plan with no entries means no stored neighborhoods to expand.
	if len(plan.Entries) == 0 {
		return &edgestore.Sampled{}, nil
	}

	sampled, err := st.sampler.SampleFrom(ctx, plan)
	if err != nil {
		return nil, &edgestore.SamplingError{Err: err}
	}
	return sampled, nil
}

// buildSamplePlan takes one consistent snapshot of the store and normalizes
// each edge index the sample will run over to CSC, since sampling iterates
// neighborhoods by target node.  All reads go through the snapshot, so a
// writer interleaving with plan building cannot mix store states across
// plan entries.
func (st *store) buildSamplePlan(input edgestore.SampleInput) (*edgestore.SamplePlan, error) {
	plan := &edgestore.SamplePlan{}
	snap := st.backend.Snapshot()

	edgeTypes, err := planEdgeTypes(input, snap)
	if err != nil {
		return nil, err
	}

	for _, edgeType := range edgeTypes {
		seeds := input.Seeds
		if input.SeedsByType != nil {
			seeds = input.SeedsByType[edgeType]
		}
		if len(seeds) == 0 {
			continue
		}

		tensor := snapshotResolve(snap, edgeType)
		if tensor == nil {
			return nil, errors.Wrapf(edgestore.ErrNoMatchingEdges, "edge type %q", edgeType)
		}
		csc, err := sparse.ToCSC(tensor)
		if err != nil {
			return nil, err
		}

		plan.Entries = append(plan.Entries, edgestore.PlanEntry{
			EdgeType: edgeType,
			Colptr:   csc.Indptr,
			RowIdx:   csc.Indices,
			Seeds:    seeds,
		})
	}
	return plan, nil
}

// snapshotResolve picks the snapshot entry to normalize for the given edge
// type, preferring stored layouts in getOrder.
func snapshotResolve(snap []edgestore.StoredEntry, edgeType edgestore.EdgeType) *edgestore.EdgeTensor {
	for _, layout := range getOrder {
		for _, entry := range snap {
			if entry.Key.Layout == layout && entry.Key.EdgeType == edgeType {
				return entry.Tensor
			}
		}
	}
	return nil
}

// planEdgeTypes returns the edge types a sample pass covers, in a
// deterministic order.  A flat seed sequence applies to every edge type in
// the snapshot; stored layouts of the same edge type are deduped by
// interning each type once in a scratch symbol table.
func planEdgeTypes(input edgestore.SampleInput, snap []edgestore.StoredEntry) ([]edgestore.EdgeType, error) {
	if input.SeedsByType != nil {
		edgeTypes := make([]edgestore.EdgeType, 0, len(input.SeedsByType))
		for edgeType := range input.SeedsByType {
			edgeTypes = append(edgeTypes, edgeType)
		}
		sort.Slice(edgeTypes, func(i, j int) bool {
			return edgeTypes[i] < edgeTypes[j]
		})
		return edgeTypes, nil
	}

	tableOpts := memory_table.DefaultOpts()
	seen, err := tableOpts.CreateTable()
	if err != nil {
		return nil, err
	}

	var edgeTypes []edgestore.EdgeType
	for _, entry := range snap {
		// Intern the key's string form so the default ("") edge type still
		// gets a non-empty symbol.
		sym := edgestore.FormEdgeKey(edgestore.LayoutNil, entry.Key.EdgeType).String()
		if _, newlyIssued := seen.GetSymbolID([]byte(sym), true); !newlyIssued {
			continue
		}
		edgeTypes = append(edgeTypes, entry.Key.EdgeType)
	}
	return edgeTypes, nil
}
