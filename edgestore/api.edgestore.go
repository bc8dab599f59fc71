package edgestore

import (
	"context"
)

// EdgeLayout identifies the physical arrangement of a stored edge index.
type EdgeLayout byte

const (
	// LayoutNil denotes an unspecified layout.
	LayoutNil EdgeLayout = iota

	// LayoutCOO is a coordinate list: parallel (row, col) index arrays.
	LayoutCOO

	// LayoutCSC is compressed sparse column: a column index pointer plus row indices.
	LayoutCSC

	// LayoutCSR is compressed sparse row: a row index pointer plus column indices.
	LayoutCSR

	// LayoutLIL is a list of lists: one adjacency list per row.
	LayoutLIL
)

func (layout EdgeLayout) String() string {
	switch layout {
	case LayoutCOO:
		return "COO"
	case LayoutCSC:
		return "CSC"
	case LayoutCSR:
		return "CSR"
	case LayoutLIL:
		return "LIL"
	}
	return "nil"
}

// LayoutFromString returns the EdgeLayout named by s, or LayoutNil if unrecognized.
func LayoutFromString(s string) EdgeLayout {
	switch s {
	case "COO":
		return LayoutCOO
	case "CSC":
		return LayoutCSC
	case "CSR":
		return LayoutCSR
	case "LIL":
		return LayoutLIL
	}
	return LayoutNil
}

// EdgeType identifies a relation within a heterogeneous graph.
// The empty string denotes the default (unset) edge type.
type EdgeType string

// EdgeKey addresses one edge index within a Store.
//
// Both fields may be left unset for partial matching on lookup,
// but Layout is mandatory when storing an edge index.
type EdgeKey struct {
	Layout   EdgeLayout
	EdgeType EdgeType
}

// FormEdgeKey forms a fully specified EdgeKey from the given fields,
// leaving unspecified fields at their unset values.
//
// This is the only sanctioned way to construct an EdgeKey, replacing
// looser attribute-bundle casting.  It is pure and never fails.
func FormEdgeKey(layout EdgeLayout, edgeType EdgeType) EdgeKey {
	return EdgeKey{
		Layout:   layout,
		EdgeType: edgeType,
	}
}

// String returns the canonical human-readable form of this key, e.g. "<default>.COO"
func (key EdgeKey) String() string {
	edgeType := string(key.EdgeType)
	if edgeType == "" {
		edgeType = "<default>"
	}
	return edgeType + "." + key.Layout.String()
}

// EdgeTensor is a variant over edge index representations, tagged by Layout:
//
//	LayoutCOO: Rows and Cols are parallel arrays of edge endpoints.
//	LayoutCSC: Indptr offsets Indices by column; Indices holds row ids.
//	LayoutCSR: Indptr offsets Indices by row; Indices holds column ids.
//	LayoutLIL: Lists[r] holds the column ids adjacent to row r.
//
// A Store preserves whichever form was inserted.
type EdgeTensor struct {
	Layout  EdgeLayout
	Rows    []int64
	Cols    []int64
	Indptr  []int64
	Indices []int64
	Lists   [][]int64
}

// EdgeCount returns the number of edges this tensor describes.
func (tensor *EdgeTensor) EdgeCount() int {
	switch tensor.Layout {
	case LayoutCOO:
		return len(tensor.Rows)
	case LayoutCSC, LayoutCSR:
		return len(tensor.Indices)
	case LayoutLIL:
		n := 0
		for _, row := range tensor.Lists {
			n += len(row)
		}
		return n
	}
	return 0
}

// StoredEntry pairs a stored key with its tensor, as returned by Backend.Snapshot.
type StoredEntry struct {
	Key    EdgeKey
	Tensor *EdgeTensor
}

// Backend is the capability contract a concrete edge index store must fulfill.
//
// Implementations store tensors verbatim under fully specified keys and
// are not responsible for layout normalization or key casting -- see Store.
type Backend interface {

	// PutEdgeIndex stores the given tensor under the given (fully specified) key,
	// replacing any prior value stored under the same key.
	PutEdgeIndex(tensor *EdgeTensor, key EdgeKey) error

	// GetEdgeIndex returns the tensor stored under the given key in its stored
	// layout, or (nil, false) if no such entry exists.
	GetEdgeIndex(key EdgeKey) (*EdgeTensor, bool)

	// HasEdgeIndex returns whether an entry exists under the given key.
	HasEdgeIndex(key EdgeKey) bool

	// Keys returns the key of every stored entry in a deterministic order.
	Keys() []EdgeKey

	// Snapshot returns every stored entry under a single consistent read,
	// in the same order as Keys.  Callers treat the returned tensors as
	// immutable.
	Snapshot() []StoredEntry

	// Close releases the backend's resources.
	Close() error
}

// Store wraps a Backend with key validation and layout normalization.
//
// Deletion, iteration, and size queries are intentionally absent:
// only the operations below are part of the contract.
type Store interface {

	// Put stores the given edge index under the given key.
	// The key's Layout must be set; otherwise ErrMissingLayout is returned.
	Put(tensor *EdgeTensor, key EdgeKey) error

	// Get returns the edge index stored under the given key, normalized to COO.
	// A lookup miss returns (nil, nil).  If the key's Layout is unset, the first
	// entry matching the key's EdgeType is returned.
	Get(key EdgeKey) (*EdgeTensor, error)

	// Contains returns whether an entry matching the given key exists.
	Contains(key EdgeKey) bool

	// Keys returns the key of every stored entry in a deterministic order.
	Keys() []EdgeKey

	// Sample normalizes the edge indices selected by the given input into a
	// CSC sample plan and delegates to the store's Sampler, returning its
	// output unchanged.  An empty input returns an empty result without
	// invoking the sampler.
	Sample(ctx context.Context, input SampleInput) (*Sampled, error)

	// Close releases the underlying backend.
	Close() error
}

// SampleInput selects the seed nodes of a sampling pass: either a flat
// ordered sequence of node ids, or a mapping from edge type to node ids
// for heterogeneous graphs.  At most one of the two fields is set.
type SampleInput struct {
	Seeds       []int64
	SeedsByType map[EdgeType][]int64
}

// IsEmpty returns whether this input selects no seed nodes at all.
func (in SampleInput) IsEmpty() bool {
	if len(in.Seeds) > 0 {
		return false
	}
	for _, seeds := range in.SeedsByType {
		if len(seeds) > 0 {
			return false
		}
	}
	return true
}

// PlanEntry is one edge type's slice of a SamplePlan: its edge index in
// CSC form plus the seed nodes to expand.
type PlanEntry struct {
	EdgeType EdgeType
	Colptr   []int64
	RowIdx   []int64
	Seeds    []int64
}

// SamplePlan is the normalized input handed to a Sampler: every edge index
// to sample over, converted to CSC so neighborhoods can be iterated by
// target node.
type SamplePlan struct {
	Entries []PlanEntry
}

// Sampled is a sampled subgraph as produced by a Sampler.  The store
// returns it to the caller without reinterpretation.
type Sampled struct {
	Nodes map[EdgeType][]int64
	Edges map[EdgeType]*EdgeTensor
}

// Sampler is the external neighborhood sampling routine boundary.
type Sampler interface {

	// SampleFrom samples a subgraph from the given normalized plan.
	SampleFrom(ctx context.Context, plan *SamplePlan) (*Sampled, error)
}

// StoreOpts specifies params for opening a persistent edge store.
type StoreOpts struct {
	DbPathName string
	ReadOnly   bool
}
