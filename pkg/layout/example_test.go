package layout_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/nodeformat/pkg/config"
	"github.com/matzehuels/nodeformat/pkg/geom"
	"github.com/matzehuels/nodeformat/pkg/graph"
	"github.com/matzehuels/nodeformat/pkg/layout"
	"github.com/matzehuels/nodeformat/pkg/measure"
)

func ExampleEngine_Format() {
	g := graph.New("blueprint")
	sizes := measure.NewCache()
	for i, id := range []graph.NodeID{"begin", "print", "delay"} {
		kind := graph.KindRegular
		if i == 0 {
			kind = graph.KindEvent
		}
		_ = g.AddNode(&graph.Node{ID: id, Kind: kind, Pos: geom.V(0, float64(i)*150)})
		_, _ = g.AddPin(id, graph.Pin{ID: graph.PinID(id + ".in"), Dir: graph.Input, Exec: true})
		_, _ = g.AddPin(id, graph.Pin{ID: graph.PinID(id + ".out"), Dir: graph.Output, Exec: true})
		sizes.SetSize(id, geom.V(196, 96))
	}
	_ = g.Link("begin.out", "print.in")
	_ = g.Link("print.out", "delay.in")

	e, err := layout.NewEngine(config.Default(), sizes)
	if err != nil {
		panic(err)
	}
	res, err := e.Format(context.Background(), g, "begin")
	if err != nil {
		panic(err)
	}
	fmt.Println(res.Root, res.Status)
	for _, n := range g.Nodes() {
		fmt.Println(n.ID, n.Pos.X, n.Pos.Y)
	}
	// Output:
	// begin formatted
	// begin 0 0
	// print 296 0
	// delay 592 0
}
