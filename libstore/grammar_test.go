package libstore_test

import (
	"testing"

	"github.com/fine-structures/edgestore-go/libstore"
)

func TestEdgeListParsing(t *testing.T) {
	cases := []struct {
		expr string
		rows []int64
		cols []int64
	}{
		{"0-1", []int64{0}, []int64{1}},
		{"0-1-2", []int64{0, 1}, []int64{1, 2}},
		{"0-1-2, 3-1", []int64{0, 1, 3}, []int64{1, 2, 1}},
		{"7", nil, nil},
		{"", nil, nil},
	}

	for _, tc := range cases {
		tensor, err := libstore.ParseEdgeList(tc.expr)
		if err != nil {
			t.Fatalf("%q: %v", tc.expr, err)
		}
		expectEdges(t, tensor, tc.rows, tc.cols)
	}
}

func TestEdgeListParseErrors(t *testing.T) {
	for _, expr := range []string{"0-", "-1", "a-b", "0--1"} {
		if _, err := libstore.ParseEdgeList(expr); err == nil {
			t.Fatalf("%q: expected a parse error", expr)
		}
	}
}
