package layout

import (
	"context"
	"testing"

	"github.com/matzehuels/nodeformat/pkg/config"
	"github.com/matzehuels/nodeformat/pkg/geom"
	"github.com/matzehuels/nodeformat/pkg/graph"
	"github.com/matzehuels/nodeformat/pkg/measure"
)

// Node sizes chosen so that width plus padding lands on the 8 unit grid.
var (
	execSize = geom.V(196, 96)
	dataSize = geom.V(96, 48)
)

type fixture struct {
	t     *testing.T
	g     *graph.Graph
	sizes *measure.Cache
}

func newFixture(t *testing.T, graphType string) *fixture {
	t.Helper()
	return &fixture{t: t, g: graph.New(graphType), sizes: measure.NewCache()}
}

// node adds a node at (x, y) with a measured size.
func (f *fixture) node(id graph.NodeID, kind graph.NodeKind, x, y float64, size geom.Vec) *graph.Node {
	f.t.Helper()
	n := &graph.Node{ID: id, Kind: kind, Pos: geom.V(x, y)}
	if err := f.g.AddNode(n); err != nil {
		f.t.Fatalf("AddNode(%s): %v", id, err)
	}
	f.sizes.SetSize(id, size)
	return n
}

// exec adds a node with one execution input "<id>.in" and one execution
// output "<id>.out".
func (f *fixture) exec(id graph.NodeID, x, y float64) *graph.Node {
	f.t.Helper()
	n := f.node(id, graph.KindRegular, x, y, execSize)
	f.pin(id, "in", graph.Input, true)
	f.pin(id, "out", graph.Output, true)
	return n
}

// pure adds a data node with a single output "<id>.out".
func (f *fixture) pure(id graph.NodeID, x, y float64) *graph.Node {
	f.t.Helper()
	n := f.node(id, graph.KindRegular, x, y, dataSize)
	f.pin(id, "out", graph.Output, false)
	return n
}

func (f *fixture) group(id graph.NodeID, members ...graph.NodeID) *graph.Node {
	f.t.Helper()
	n := &graph.Node{ID: id, Kind: graph.KindGroup, Contains: members}
	if err := f.g.AddNode(n); err != nil {
		f.t.Fatalf("AddNode(%s): %v", id, err)
	}
	return n
}

func (f *fixture) pin(node graph.NodeID, name string, dir graph.Direction, exec bool) *graph.Pin {
	f.t.Helper()
	p, err := f.g.AddPin(node, graph.Pin{ID: graph.PinID(string(node) + "." + name), Name: name, Dir: dir, Exec: exec})
	if err != nil {
		f.t.Fatalf("AddPin(%s.%s): %v", node, name, err)
	}
	return p
}

func (f *fixture) link(a, b graph.PinID) {
	f.t.Helper()
	if err := f.g.Link(a, b); err != nil {
		f.t.Fatalf("Link(%s, %s): %v", a, b, err)
	}
}

func (f *fixture) get(id graph.NodeID) *graph.Node {
	f.t.Helper()
	n, ok := f.g.Node(id)
	if !ok {
		f.t.Fatalf("node %s missing", id)
	}
	return n
}

// testConfig is the default configuration without wire routing.
func testConfig() config.Config {
	cfg := config.Default()
	cfg.CreateKnots = false
	return cfg
}

func (f *fixture) engine(cfg config.Config) *Engine {
	f.t.Helper()
	e, err := NewEngine(cfg, f.sizes)
	if err != nil {
		f.t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func (f *fixture) format(e *Engine, id graph.NodeID) *Result {
	f.t.Helper()
	res, err := e.Format(context.Background(), f.g, id)
	if err != nil {
		f.t.Fatalf("Format(%s) error = %v", id, err)
	}
	return res
}

func (f *fixture) rect(id graph.NodeID) geom.Rect {
	n := f.get(id)
	if n.IsGroup() {
		return geom.RectAt(n.Pos, n.Size)
	}
	s, _ := f.sizes.Size(n)
	return geom.RectAt(n.Pos, s)
}

// pinY returns the secondary coordinate of a pin under the default stacked
// pin layout.
func (f *fixture) pinY(id graph.PinID) float64 {
	f.t.Helper()
	p, ok := f.g.Pin(id)
	if !ok {
		f.t.Fatalf("pin %s missing", id)
	}
	n := p.Node()
	s, _ := f.sizes.Size(n)
	return n.Pos.Y + measure.DefaultStackedPins().PinOffset(p, s).Y
}

func assertNoOverlap(t *testing.T, f *fixture, ids []graph.NodeID) {
	t.Helper()
	for i, a := range ids {
		for _, b := range ids[i+1:] {
			if f.rect(a).Intersects(f.rect(b)) {
				t.Errorf("%s %v overlaps %s %v", a, f.rect(a), b, f.rect(b))
			}
		}
	}
}
