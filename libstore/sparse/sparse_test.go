package sparse_test

import (
	"testing"

	"github.com/fine-structures/edgestore-go/edgestore"
	"github.com/fine-structures/edgestore-go/libstore/sparse"
)

var allLayouts = []edgestore.EdgeLayout{
	edgestore.LayoutCOO,
	edgestore.LayoutCSC,
	edgestore.LayoutCSR,
	edgestore.LayoutLIL,
}

func coo(rows, cols []int64) *edgestore.EdgeTensor {
	return &edgestore.EdgeTensor{
		Layout: edgestore.LayoutCOO,
		Rows:   rows,
		Cols:   cols,
	}
}

func expectCOO(t *testing.T, tensor *edgestore.EdgeTensor, rows, cols []int64) {
	t.Helper()
	if tensor == nil || tensor.Layout != edgestore.LayoutCOO {
		t.Fatal("expected a COO tensor")
	}
	if len(tensor.Rows) != len(rows) || len(tensor.Cols) != len(cols) {
		t.Fatalf("edge count mismatch: got %d, want %d", len(tensor.Rows), len(rows))
	}
	for i := range rows {
		if tensor.Rows[i] != rows[i] || tensor.Cols[i] != cols[i] {
			t.Fatalf("edge %d: got %d-%d, want %d-%d", i, tensor.Rows[i], tensor.Cols[i], rows[i], cols[i])
		}
	}
}

func TestRoundTripAllLayouts(t *testing.T) {
	rows := []int64{0, 1}
	cols := []int64{1, 2}

	for _, layout := range allLayouts {
		converted, err := sparse.Convert(coo(rows, cols), layout)
		if err != nil {
			t.Fatal(err)
		}
		if converted.Layout != layout {
			t.Fatalf("expected layout %v, got %v", layout, converted.Layout)
		}

		back, err := sparse.ToCOO(converted)
		if err != nil {
			t.Fatal(err)
		}
		expectCOO(t, back, rows, cols)
	}
}

func TestRoundTripPreservesMultiEdges(t *testing.T) {
	rows := []int64{0, 0, 1}
	cols := []int64{1, 1, 2}

	for _, layout := range allLayouts {
		converted, err := sparse.Convert(coo(rows, cols), layout)
		if err != nil {
			t.Fatal(err)
		}
		back, err := sparse.ToCOO(converted)
		if err != nil {
			t.Fatal(err)
		}
		expectCOO(t, back, rows, cols)
	}
}

func TestRoundTripEmpty(t *testing.T) {
	for _, layout := range allLayouts {
		converted, err := sparse.Convert(coo(nil, nil), layout)
		if err != nil {
			t.Fatal(err)
		}
		back, err := sparse.ToCOO(converted)
		if err != nil {
			t.Fatal(err)
		}
		if back.EdgeCount() != 0 {
			t.Fatal("expected no edges")
		}
	}
}

func TestCSCFormsColumnPointer(t *testing.T) {
	// 0->1, 2->1, 0->2
	csc, err := sparse.ToCSC(coo([]int64{0, 2, 0}, []int64{1, 1, 2}))
	if err != nil {
		t.Fatal(err)
	}

	wantPtr := []int64{0, 0, 2, 3}
	wantIdx := []int64{0, 2, 0}
	if len(csc.Indptr) != len(wantPtr) || len(csc.Indices) != len(wantIdx) {
		t.Fatalf("unexpected shape: %v / %v", csc.Indptr, csc.Indices)
	}
	for i := range wantPtr {
		if csc.Indptr[i] != wantPtr[i] {
			t.Fatalf("indptr: got %v, want %v", csc.Indptr, wantPtr)
		}
	}
	for i := range wantIdx {
		if csc.Indices[i] != wantIdx[i] {
			t.Fatalf("indices: got %v, want %v", csc.Indices, wantIdx)
		}
	}
}

func TestValidateRejectsBadTensors(t *testing.T) {
	bad := []*edgestore.EdgeTensor{
		{Layout: edgestore.LayoutCOO, Rows: []int64{0}, Cols: []int64{1, 2}},
		{Layout: edgestore.LayoutCOO, Rows: []int64{-1}, Cols: []int64{0}},
		{Layout: edgestore.LayoutCSR, Indptr: []int64{0, 2}, Indices: []int64{1}},
		{Layout: edgestore.LayoutCSR, Indptr: []int64{0, 2, 1}, Indices: []int64{1, 0}},
		{Layout: edgestore.LayoutNil},
	}
	for i, tensor := range bad {
		if err := sparse.Validate(tensor); err == nil {
			t.Fatalf("case %d: expected a validation error", i)
		}
	}
	if err := sparse.Validate(nil); err != edgestore.ErrNilTensor {
		t.Fatal("expected ErrNilTensor")
	}
}

func TestCompressedLayoutsRejectHugeIds(t *testing.T) {
	// A single edge with a huge bucketed id would make the indptr/list
	// allocation proportional to the id, not the edge count.
	hugeRow := coo([]int64{1 << 40}, []int64{0})
	if _, err := sparse.ToCSR(hugeRow); err == nil {
		t.Fatal("expected CSR to reject a row id past MaxIndexSpan")
	}
	if _, err := sparse.ToLIL(hugeRow); err == nil {
		t.Fatal("expected LIL to reject a row id past MaxIndexSpan")
	}

	hugeCol := coo([]int64{0}, []int64{1 << 40})
	if _, err := sparse.ToCSC(hugeCol); err == nil {
		t.Fatal("expected CSC to reject a column id past MaxIndexSpan")
	}

	// COO and the non-bucketed side stay unaffected.
	if _, err := sparse.ToCOO(hugeRow); err != nil {
		t.Fatal(err)
	}
	if _, err := sparse.ToCSC(hugeRow); err != nil {
		t.Fatal(err)
	}
}

func TestTensorLSMCodec(t *testing.T) {
	src := coo([]int64{0, 1, 3}, []int64{1, 2, 0})

	for _, layout := range allLayouts {
		converted, err := sparse.Convert(src, layout)
		if err != nil {
			t.Fatal(err)
		}

		lsm, err := sparse.AppendTensorLSM(nil, converted)
		if err != nil {
			t.Fatal(err)
		}
		decoded, err := sparse.TensorFromLSM(lsm)
		if err != nil {
			t.Fatal(err)
		}
		if decoded.Layout != layout {
			t.Fatalf("expected layout %v, got %v", layout, decoded.Layout)
		}

		back, err := sparse.ToCOO(decoded)
		if err != nil {
			t.Fatal(err)
		}
		want, err := sparse.ToCOO(converted)
		if err != nil {
			t.Fatal(err)
		}
		expectCOO(t, back, want.Rows, want.Cols)
	}
}

func TestTensorLSMRejectsGarbage(t *testing.T) {
	for _, lsm := range [][]byte{nil, {0xFF}, {byte(edgestore.LayoutCOO), 0x81}} {
		if _, err := sparse.TensorFromLSM(lsm); err == nil {
			t.Fatal("expected a decode error")
		}
	}
}
