package libstore

import (
	"github.com/alecthomas/participle/v2"
	"github.com/fine-structures/edgestore-go/edgestore"
)

// EdgeListExpr is a textual edge list: comma-separated runs of node ids
// chained by "-", e.g. "0-1-2, 3-1".  Each "-" contributes one directed
// edge from the node on its left to the node on its right.
type EdgeListExpr struct {
	Runs []*EdgeRun `(@@ ("," @@)*)?`
}

type EdgeRun struct {
	StartNode int64  `@Int`
	Hops      []*Hop `@@*`
}

type Hop struct {
	DstNode int64 `"-" @Int`
}

var parseEdgeList = participle.MustBuild[EdgeListExpr]()

// ParseEdgeList parses a textual edge list into a COO edge tensor.
func ParseEdgeList(expr string) (*edgestore.EdgeTensor, error) {
	ast, err := parseEdgeList.ParseString("", expr)
	if err != nil {
		return nil, err
	}

	tensor := &edgestore.EdgeTensor{
		Layout: edgestore.LayoutCOO,
	}
	for _, run := range ast.Runs {
		onNode := run.StartNode
		if onNode < 0 {
			return nil, edgestore.ErrBadTensor
		}
		for _, hop := range run.Hops {
			if hop.DstNode < 0 {
				return nil, edgestore.ErrBadTensor
			}
			tensor.Rows = append(tensor.Rows, onNode)
			tensor.Cols = append(tensor.Cols, hop.DstNode)
			onNode = hop.DstNode
		}
	}
	return tensor, nil
}
