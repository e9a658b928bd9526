package render

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/nodeformat/pkg/errors"
	"github.com/matzehuels/nodeformat/pkg/geom"
	"github.com/matzehuels/nodeformat/pkg/graph"
	"github.com/matzehuels/nodeformat/pkg/measure"
)

// testGraph builds an event feeding a regular node, a pure node feeding the
// regular one, and a group around the first two. The pure node is never
// measured.
func testGraph(t *testing.T) (*graph.Graph, *measure.Cache) {
	t.Helper()
	g := graph.New("blueprint")
	sizes := measure.NewCache()
	add := func(id graph.NodeID, kind graph.NodeKind, x, y float64) {
		if err := g.AddNode(&graph.Node{ID: id, Kind: kind, Pos: geom.V(x, y)}); err != nil {
			t.Fatal(err)
		}
	}
	pin := func(node graph.NodeID, name string, dir graph.Direction, exec bool) {
		if _, err := g.AddPin(node, graph.Pin{ID: graph.PinID(string(node) + "." + name), Name: name, Dir: dir, Exec: exec}); err != nil {
			t.Fatal(err)
		}
	}
	add("begin", graph.KindEvent, 0, 0)
	add("print", graph.KindRegular, 300, 0)
	add("value", graph.KindRegular, 0, 200)
	pin("begin", "then", graph.Output, true)
	pin("print", "exec", graph.Input, true)
	pin("print", "text", graph.Input, false)
	pin("value", "out", graph.Output, false)
	if err := g.Link("begin.then", "print.exec"); err != nil {
		t.Fatal(err)
	}
	if err := g.Link("value.out", "print.text"); err != nil {
		t.Fatal(err)
	}
	if err := g.AddNode(&graph.Node{
		ID: "frame", Kind: graph.KindGroup, Title: "Setup",
		Pos: geom.V(-30, -66), Size: geom.V(556, 192),
		Contains: []graph.NodeID{"begin", "print"},
	}); err != nil {
		t.Fatal(err)
	}
	sizes.SetSize("begin", geom.V(196, 96))
	sizes.SetSize("print", geom.V(196, 96))
	return g, sizes
}

func TestRecorder(t *testing.T) {
	var rec Recorder
	var d Drawer = &rec
	d.Line(geom.V(0, 0), geom.V(10, 0), ColorTrack)
	d.Box(geom.Rect{Right: 5, Bottom: 5}, ColorCollision)
	d.Point(geom.V(1, 2), ColorBounds)

	shapes := rec.Shapes()
	if len(shapes) != 3 {
		t.Fatalf("Shapes() = %d, want 3", len(shapes))
	}
	want := []ShapeKind{ShapeLine, ShapeBox, ShapePoint}
	for i, s := range shapes {
		if s.Kind != want[i] {
			t.Errorf("Shapes()[%d].Kind = %v, want %v", i, s.Kind, want[i])
		}
	}
	rec.Reset()
	if got := len(rec.Shapes()); got != 0 {
		t.Errorf("Shapes() after Reset = %d, want 0", got)
	}
}

func TestRenderSVG(t *testing.T) {
	g, sizes := testGraph(t)
	var rec Recorder
	rec.Line(geom.V(0, 500), geom.V(400, 500), ColorTrack)

	svg := string(RenderSVG(g, sizes, WithOverlay(rec.Shapes())))

	tests := []struct {
		name string
		want string
	}{
		{"svg root", `<svg xmlns="http://www.w3.org/2000/svg"`},
		{"event node", `id="node-begin" class="node event"`},
		{"regular node", `id="node-print" class="node"`},
		{"group frame", `id="group-frame" class="group"`},
		{"group label", `>Setup</text>`},
		{"exec wire", `class="wire exec"`},
		{"overlay line", `<line class="overlay" stroke="blue" x1="0.0" y1="500.0" x2="400.0" y2="500.0"/>`},
		// Frame spans the group and the overlay plus the margin.
		{"view box", `viewBox="-50.0 -86.0 596.0 606.0"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(svg, tt.want) {
				t.Errorf("RenderSVG() missing %s", tt.want)
			}
		})
	}
	if strings.Contains(svg, "node-value") || strings.Contains(svg, "wire data") {
		t.Error("RenderSVG() drew the unmeasured node")
	}
}

func TestRenderSVGEscapesLabels(t *testing.T) {
	g := graph.New("")
	sizes := measure.NewCache()
	_ = g.AddNode(&graph.Node{ID: "n", Title: "a < b & c"})
	sizes.SetSize("n", geom.V(100, 50))
	svg := string(RenderSVG(g, sizes, WithMargin(0)))
	if !strings.Contains(svg, "a &lt; b &amp; c") {
		t.Errorf("label not escaped in %s", svg)
	}
	if strings.Contains(string(RenderSVG(g, sizes, WithoutLabels())), "<text") {
		t.Error("WithoutLabels() still drew text")
	}
}

func TestToDOT(t *testing.T) {
	g, sizes := testGraph(t)

	t.Run("clusters", func(t *testing.T) {
		dot := ToDOT(g, sizes, DOTOptions{})
		for _, want := range []string{
			`subgraph "cluster_frame"`,
			`label="Setup";`,
			`"begin" -> "print" [penwidth=2];`,
			`"value" -> "print" [style=dashed, color=steelblue];`,
		} {
			if !strings.Contains(dot, want) {
				t.Errorf("ToDOT() missing %s", want)
			}
		}
		if strings.Contains(dot, "pos=") {
			t.Error("unpinned ToDOT() has positions")
		}
	})

	t.Run("pinned", func(t *testing.T) {
		dot := ToDOT(g, sizes, DOTOptions{Pinned: true, Detailed: true})
		for _, want := range []string{
			"inputscale=72;",
			`pos="398.0,-48.0!"`,
			`taillabel="then"`,
			`"frame" [label="Setup\nkind: group"`,
		} {
			if !strings.Contains(dot, want) {
				t.Errorf("ToDOT(pinned) missing %s", want)
			}
		}
		if strings.Contains(dot, `"value"`) {
			t.Error("pinned ToDOT() kept the unmeasured node")
		}
	})
}

func TestRenderGraphviz(t *testing.T) {
	g, sizes := testGraph(t)
	ctx := context.Background()

	svg, err := RenderGraphviz(ctx, ToDOT(g, sizes, DOTOptions{}), FormatSVG, false)
	if err != nil {
		t.Fatalf("RenderGraphviz() error = %v", err)
	}
	if !strings.Contains(string(svg), `viewBox="0 0 `) {
		t.Errorf("RenderGraphviz() did not normalize the view box")
	}

	if _, err := RenderGraphviz(ctx, "digraph G {}", Format("gif"), false); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("RenderGraphviz(gif) error = %v, want %s", err, errors.ErrCodeUnsupported)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 10.00 20.00"><g/></svg>`)
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10.00 20.00" width="10" height="20"><g/></svg>`
	if got := string(normalizeViewBox(in)); got != want {
		t.Errorf("normalizeViewBox() = %s, want %s", got, want)
	}
}
