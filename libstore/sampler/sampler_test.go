package sampler_test

import (
	"context"
	"testing"

	"github.com/fine-structures/edgestore-go/edgestore"
	"github.com/fine-structures/edgestore-go/libstore/sampler"
)

// 0->1, 2->1, 0->2 in CSC form.
var testPlan = edgestore.SamplePlan{
	Entries: []edgestore.PlanEntry{{
		EdgeType: "f",
		Colptr:   []int64{0, 0, 2, 3},
		RowIdx:   []int64{0, 2, 0},
		Seeds:    []int64{1},
	}},
}

func TestUniformTakesWholeNeighborhood(t *testing.T) {
	s := &sampler.Uniform{}
	sampled, err := s.SampleFrom(context.Background(), &testPlan)
	if err != nil {
		t.Fatal(err)
	}

	edges := sampled.Edges["f"]
	if len(edges.Rows) != 2 || edges.Rows[0] != 0 || edges.Rows[1] != 2 {
		t.Fatalf("unexpected edges %v-%v", edges.Rows, edges.Cols)
	}
	for _, col := range edges.Cols {
		if col != 1 {
			t.Fatal("all sampled edges must target the seed")
		}
	}

	nodes := sampled.Nodes["f"]
	if len(nodes) != 3 || nodes[0] != 1 || nodes[1] != 0 || nodes[2] != 2 {
		t.Fatalf("unexpected node order %v", nodes)
	}
}

func TestUniformCapsNeighbors(t *testing.T) {
	s := &sampler.Uniform{NumNeighbors: 1}
	sampled, err := s.SampleFrom(context.Background(), &testPlan)
	if err != nil {
		t.Fatal(err)
	}

	edges := sampled.Edges["f"]
	if len(edges.Rows) != 1 || edges.Rows[0] != 0 {
		t.Fatalf("unexpected edges %v-%v", edges.Rows, edges.Cols)
	}
}

func TestUniformSkipsSeedsWithoutInEdges(t *testing.T) {
	plan := edgestore.SamplePlan{
		Entries: []edgestore.PlanEntry{{
			EdgeType: "f",
			Colptr:   []int64{0, 1},
			RowIdx:   []int64{0},
			Seeds:    []int64{0, 99},
		}},
	}

	s := &sampler.Uniform{}
	sampled, err := s.SampleFrom(context.Background(), &plan)
	if err != nil {
		t.Fatal(err)
	}
	if len(sampled.Edges["f"].Rows) != 1 {
		t.Fatal("expected only the in-range seed to produce edges")
	}
}

func TestUniformHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &sampler.Uniform{}
	if _, err := s.SampleFrom(ctx, &testPlan); err == nil {
		t.Fatal("expected a cancellation error")
	}
}
