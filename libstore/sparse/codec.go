package sparse

import (
	"bytes"
	"encoding/binary"

	"github.com/fine-structures/edgestore-go/edgestore"
)

// AppendTensorLSM appends a canonical binary encoding of tensor to out.
//
// The encoding is a layout byte followed by varint-encoded sections:
//
//	COO:     edgeCount, rows..., cols...
//	CSC/CSR: len(indptr), indptr..., len(indices), indices...
//	LIL:     rowCount, then per row: len, entries...
func AppendTensorLSM(out []byte, tensor *edgestore.EdgeTensor) ([]byte, error) {
	if err := Validate(tensor); err != nil {
		return nil, err
	}

	out = append(out, byte(tensor.Layout))

	switch tensor.Layout {
	case edgestore.LayoutCOO:
		out = appendVarint(out, int64(len(tensor.Rows)))
		out = appendVarints(out, tensor.Rows)
		out = appendVarints(out, tensor.Cols)
	case edgestore.LayoutCSC, edgestore.LayoutCSR:
		out = appendVarint(out, int64(len(tensor.Indptr)))
		out = appendVarints(out, tensor.Indptr)
		out = appendVarint(out, int64(len(tensor.Indices)))
		out = appendVarints(out, tensor.Indices)
	case edgestore.LayoutLIL:
		out = appendVarint(out, int64(len(tensor.Lists)))
		for _, row := range tensor.Lists {
			out = appendVarint(out, int64(len(row)))
			out = appendVarints(out, row)
		}
	}
	return out, nil
}

// TensorFromLSM decodes an encoding made by AppendTensorLSM.
func TensorFromLSM(data []byte) (*edgestore.EdgeTensor, error) {
	if len(data) == 0 {
		return nil, edgestore.ErrBadTensor
	}

	tensor := &edgestore.EdgeTensor{
		Layout: edgestore.EdgeLayout(data[0]),
	}
	rdr := bytes.NewReader(data[1:])

	var err error
	switch tensor.Layout {
	case edgestore.LayoutCOO:
		var n int64
		if n, err = binary.ReadVarint(rdr); err != nil {
			return nil, edgestore.ErrBadTensor
		}
		if tensor.Rows, err = readVarints(rdr, n); err != nil {
			return nil, err
		}
		if tensor.Cols, err = readVarints(rdr, n); err != nil {
			return nil, err
		}
	case edgestore.LayoutCSC, edgestore.LayoutCSR:
		var n int64
		if n, err = binary.ReadVarint(rdr); err != nil {
			return nil, edgestore.ErrBadTensor
		}
		if tensor.Indptr, err = readVarints(rdr, n); err != nil {
			return nil, err
		}
		if n, err = binary.ReadVarint(rdr); err != nil {
			return nil, edgestore.ErrBadTensor
		}
		if tensor.Indices, err = readVarints(rdr, n); err != nil {
			return nil, err
		}
	case edgestore.LayoutLIL:
		numRows, err := binary.ReadVarint(rdr)
		if err != nil || numRows < 0 {
			return nil, edgestore.ErrBadTensor
		}
		tensor.Lists = make([][]int64, numRows)
		for r := int64(0); r < numRows; r++ {
			n, err := binary.ReadVarint(rdr)
			if err != nil {
				return nil, edgestore.ErrBadTensor
			}
			if tensor.Lists[r], err = readVarints(rdr, n); err != nil {
				return nil, err
			}
		}
	default:
		return nil, edgestore.ErrBadLayout
	}

	if err := Validate(tensor); err != nil {
		return nil, err
	}
	return tensor, nil
}

func appendVarint(out []byte, v int64) []byte {
	var scrap [12]byte
	n := binary.PutVarint(scrap[:], v)
	return append(out, scrap[:n]...)
}

func appendVarints(out []byte, vals []int64) []byte {
	var scrap [12]byte
	for _, v := range vals {
		n := binary.PutVarint(scrap[:], v)
		out = append(out, scrap[:n]...)
	}
	return out
}

func readVarints(rdr *bytes.Reader, count int64) ([]int64, error) {
	if count < 0 {
		return nil, edgestore.ErrBadTensor
	}
	out := make([]int64, 0, count)
	for i := int64(0); i < count; i++ {
		v, err := binary.ReadVarint(rdr)
		if err != nil {
			return nil, edgestore.ErrBadTensor
		}
		out = append(out, v)
	}
	return out, nil
}
