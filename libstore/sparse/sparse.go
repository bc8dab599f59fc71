// Package sparse converts edge index tensors between the COO, CSC, CSR,
// and LIL layouts and provides their binary LSM encoding.
//
// Conversions pivot through COO and use stable bucket ordering (by row for
// CSR and LIL, by column for CSC), so every conversion is deterministic and
// multi-edges are preserved.
package sparse

import (
	"github.com/fine-structures/edgestore-go/edgestore"
)

// MaxIndexSpan caps the node id range the compressed (CSC/CSR) and LIL
// layouts may span: their index pointer / list allocation is proportional
// to the max bucketed node id, not the edge count, so an otherwise valid
// edge with a huge id would attempt an enormous allocation.
const MaxIndexSpan = 1 << 28

// Validate checks tensor for internal consistency in its tagged layout.
//
// Time Complexity: O(E)
func Validate(tensor *edgestore.EdgeTensor) error {
	if tensor == nil {
		return edgestore.ErrNilTensor
	}
	switch tensor.Layout {
	case edgestore.LayoutCOO:
		if len(tensor.Rows) != len(tensor.Cols) {
			return edgestore.ErrBadTensor
		}
		if minOf(tensor.Rows) < 0 || minOf(tensor.Cols) < 0 {
			return edgestore.ErrBadTensor
		}
	case edgestore.LayoutCSC, edgestore.LayoutCSR:
		ptr := tensor.Indptr
		if len(ptr) < 1 || ptr[0] != 0 || ptr[len(ptr)-1] != int64(len(tensor.Indices)) {
			return edgestore.ErrBadTensor
		}
		for i := 1; i < len(ptr); i++ {
			if ptr[i] < ptr[i-1] {
				return edgestore.ErrBadTensor
			}
		}
		if minOf(tensor.Indices) < 0 {
			return edgestore.ErrBadTensor
		}
	case edgestore.LayoutLIL:
		for _, row := range tensor.Lists {
			if minOf(row) < 0 {
				return edgestore.ErrBadTensor
			}
		}
	default:
		return edgestore.ErrBadLayout
	}
	return nil
}

// Convert returns tensor re-expressed in the given layout.
// A tensor already in the requested layout is returned as-is.
func Convert(tensor *edgestore.EdgeTensor, layout edgestore.EdgeLayout) (*edgestore.EdgeTensor, error) {
	if tensor == nil {
		return nil, edgestore.ErrNilTensor
	}
	if tensor.Layout == layout {
		return tensor, nil
	}
	switch layout {
	case edgestore.LayoutCOO:
		return ToCOO(tensor)
	case edgestore.LayoutCSC:
		return ToCSC(tensor)
	case edgestore.LayoutCSR:
		return ToCSR(tensor)
	case edgestore.LayoutLIL:
		return ToLIL(tensor)
	}
	return nil, edgestore.ErrBadLayout
}

// ToCOO returns tensor in COO form.
//
// CSR and LIL expand row-major, CSC column-major, matching the bucket
// ordering their inverse conversions apply, so a round trip through any
// layout reproduces a canonically ordered COO edge list exactly.
func ToCOO(tensor *edgestore.EdgeTensor) (*edgestore.EdgeTensor, error) {
	if err := Validate(tensor); err != nil {
		return nil, err
	}

	coo := &edgestore.EdgeTensor{
		Layout: edgestore.LayoutCOO,
	}

	switch tensor.Layout {
	case edgestore.LayoutCOO:
		coo.Rows = append([]int64(nil), tensor.Rows...)
		coo.Cols = append([]int64(nil), tensor.Cols...)
	case edgestore.LayoutCSR:
		coo.Rows, coo.Cols = expandIndptr(tensor.Indptr, tensor.Indices)
	case edgestore.LayoutCSC:
		coo.Cols, coo.Rows = expandIndptr(tensor.Indptr, tensor.Indices)
	case edgestore.LayoutLIL:
		for r, row := range tensor.Lists {
			for _, c := range row {
				coo.Rows = append(coo.Rows, int64(r))
				coo.Cols = append(coo.Cols, c)
			}
		}
	}
	return coo, nil
}

// ToCSR returns tensor in CSR form: edges bucketed by row (stable within
// each row) under an index pointer spanning [0, maxRow].
func ToCSR(tensor *edgestore.EdgeTensor) (*edgestore.EdgeTensor, error) {
	coo, err := ToCOO(tensor)
	if err != nil {
		return nil, err
	}
	if err := checkIndexSpan(coo.Rows); err != nil {
		return nil, err
	}
	indptr, indices := compressIndptr(coo.Rows, coo.Cols)
	return &edgestore.EdgeTensor{
		Layout:  edgestore.LayoutCSR,
		Indptr:  indptr,
		Indices: indices,
	}, nil
}

// ToCSC returns tensor in CSC form: edges bucketed by column (stable within
// each column) under an index pointer spanning [0, maxCol].
func ToCSC(tensor *edgestore.EdgeTensor) (*edgestore.EdgeTensor, error) {
	coo, err := ToCOO(tensor)
	if err != nil {
		return nil, err
	}
	if err := checkIndexSpan(coo.Cols); err != nil {
		return nil, err
	}
	indptr, indices := compressIndptr(coo.Cols, coo.Rows)
	return &edgestore.EdgeTensor{
		Layout:  edgestore.LayoutCSC,
		Indptr:  indptr,
		Indices: indices,
	}, nil
}

// ToLIL returns tensor in LIL form: one adjacency list per row.
func ToLIL(tensor *edgestore.EdgeTensor) (*edgestore.EdgeTensor, error) {
	coo, err := ToCOO(tensor)
	if err != nil {
		return nil, err
	}
	if err := checkIndexSpan(coo.Rows); err != nil {
		return nil, err
	}
	numRows := maxOf(coo.Rows) + 1
	lists := make([][]int64, numRows)
	for i, r := range coo.Rows {
		lists[r] = append(lists[r], coo.Cols[i])
	}
	return &edgestore.EdgeTensor{
		Layout: edgestore.LayoutLIL,
		Lists:  lists,
	}, nil
}

// expandIndptr expands a compressed (indptr, indices) pair back into
// parallel (major, minor) coordinate arrays.
func expandIndptr(indptr, indices []int64) (major, minor []int64) {
	numEdges := len(indices)
	major = make([]int64, 0, numEdges)
	minor = make([]int64, 0, numEdges)
	for i := 0; i+1 < len(indptr); i++ {
		for k := indptr[i]; k < indptr[i+1]; k++ {
			major = append(major, int64(i))
			minor = append(minor, indices[k])
		}
	}
	return
}

// compressIndptr buckets edges by their major coordinate with a stable
// counting sort, returning the index pointer and minor indices.
//
// Time Complexity: O(V + E)
func compressIndptr(major, minor []int64) (indptr, indices []int64) {
	numMajor := maxOf(major) + 1
	indptr = make([]int64, numMajor+1)
	for _, m := range major {
		indptr[m+1]++
	}
	for i := 1; i < len(indptr); i++ {
		indptr[i] += indptr[i-1]
	}

	indices = make([]int64, len(minor))
	next := append([]int64(nil), indptr[:numMajor]...)
	for i, m := range major {
		indices[next[m]] = minor[i]
		next[m]++
	}
	return
}

func checkIndexSpan(major []int64) error {
	if maxOf(major)+1 > MaxIndexSpan {
		return edgestore.ErrBadTensor
	}
	return nil
}

func maxOf(vals []int64) int64 {
	max := int64(-1)
	for _, v := range vals {
		if v > max {
			max = v
		}
	}
	return max
}

func minOf(vals []int64) int64 {
	min := int64(0)
	for _, v := range vals {
		if v < min {
			min = v
		}
	}
	return min
}
