package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/alecthomas/kong"
	"github.com/plan-systems/klog"

	"github.com/fine-structures/edgestore-go/edgestore"
	"github.com/fine-structures/edgestore-go/libstore"
	"github.com/fine-structures/edgestore-go/libstore/badgerstore"
	"github.com/fine-structures/edgestore-go/libstore/sampler"
	"github.com/fine-structures/edgestore-go/libstore/sparse"
)

var cli struct {
	Db       string `help:"Store db pathname (empty for in-memory)." default:"edgestore.db"`
	ReadOnly bool   `help:"Open the store read-only."`

	Put struct {
		Type   string `help:"Edge type to store under."`
		Layout string `help:"Storage layout." default:"COO" enum:"COO,CSC,CSR,LIL"`
		Edges  string `arg:"" help:"Edge list expression, e.g. \"0-1-2, 3-1\"."`
	} `cmd:"" help:"Parse an edge list expression and store it."`

	Get struct {
		Type   string `help:"Edge type to fetch."`
		Layout string `help:"Stored layout to fetch (any if omitted)." enum:"COO,CSC,CSR,LIL," default:""`
	} `cmd:"" help:"Fetch an edge index, normalized to COO."`

	Keys struct {
	} `cmd:"" help:"List the keys of every stored edge index."`

	Sample struct {
		Type  string  `help:"Edge type to sample over (all if omitted)."`
		K     int     `help:"Neighbors to keep per seed." default:"2"`
		Seeds []int64 `arg:"" help:"Seed node ids."`
	} `cmd:"" help:"Sample a one-hop subgraph around the given seeds."`
}

func main() {
	fset := flag.NewFlagSet("", flag.ContinueOnError)
	klog.InitFlags(fset)
	fset.Set("logtostderr", "true")
	fset.Set("v", "2")
	klog.SetFormatter(&klog.FmtConstWidth{
		FileNameCharWidth: 16,
		UseColor:          true,
	})

	ctx := kong.Parse(&cli)

	backend, err := badgerstore.OpenStore(edgestore.StoreOpts{
		DbPathName: cli.Db,
		ReadOnly:   cli.ReadOnly,
	})
	ctx.FatalIfErrorf(err)

	store := libstore.NewStore(backend, &sampler.Uniform{
		NumNeighbors: cli.Sample.K,
	})
	defer store.Close()

	switch ctx.Command() {

	case "put <edges>":
		tensor, err := libstore.ParseEdgeList(cli.Put.Edges)
		ctx.FatalIfErrorf(err)

		layout := edgestore.LayoutFromString(cli.Put.Layout)
		tensor, err = sparse.Convert(tensor, layout)
		ctx.FatalIfErrorf(err)

		key := edgestore.FormEdgeKey(layout, edgestore.EdgeType(cli.Put.Type))
		err = store.Put(tensor, key)
		ctx.FatalIfErrorf(err)
		klog.Infof("stored %d edges under %v", tensor.EdgeCount(), key)

	case "get":
		key := edgestore.FormEdgeKey(
			edgestore.LayoutFromString(cli.Get.Layout),
			edgestore.EdgeType(cli.Get.Type))
		tensor, err := store.Get(key)
		ctx.FatalIfErrorf(err)
		if tensor == nil {
			klog.Warningf("no edge index for %v", key)
			break
		}
		printCOO(tensor)

	case "keys":
		for _, key := range store.Keys() {
			fmt.Println(key)
		}

	case "sample <seeds>":
		input := edgestore.SampleInput{}
		if cli.Sample.Type != "" {
			input.SeedsByType = map[edgestore.EdgeType][]int64{
				edgestore.EdgeType(cli.Sample.Type): cli.Sample.Seeds,
			}
		} else {
			input.Seeds = cli.Sample.Seeds
		}

		sampled, err := store.Sample(context.Background(), input)
		ctx.FatalIfErrorf(err)
		for edgeType, edges := range sampled.Edges {
			fmt.Printf("%s: nodes=%v\n", edgestore.FormEdgeKey(edgestore.LayoutNil, edgeType), sampled.Nodes[edgeType])
			printCOO(edges)
		}
	}

	klog.Flush()
}

func printCOO(tensor *edgestore.EdgeTensor) {
	for i := range tensor.Rows {
		fmt.Printf("%d-%d\n", tensor.Rows[i], tensor.Cols[i])
	}
}
