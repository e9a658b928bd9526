package measure

import (
	"sync"
	"testing"

	"github.com/matzehuels/nodeformat/pkg/geom"
	"github.com/matzehuels/nodeformat/pkg/graph"
)

func TestStackedPins(t *testing.T) {
	g := graph.New("")
	g.AddNode(&graph.Node{ID: "n"})
	data, _ := g.AddPin("n", graph.Pin{ID: "n.val", Dir: graph.Input})
	exec, _ := g.AddPin("n", graph.Pin{ID: "n.exec", Dir: graph.Input, Exec: true})
	out, _ := g.AddPin("n", graph.Pin{ID: "n.then", Dir: graph.Output, Exec: true})

	s := StackedPins{Header: 30, Spacing: 20}
	size := geom.V(200, 100)

	tests := []struct {
		name string
		pin  *graph.Pin
		want geom.Vec
	}{
		{"exec input first", exec, geom.V(0, 40)},
		{"data input below exec", data, geom.V(0, 60)},
		{"output on trailing edge", out, geom.V(200, 40)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.PinOffset(tt.pin, size); got != tt.want {
				t.Errorf("PinOffset() = %v, want %v", got, tt.want)
			}
		})
	}

	v := StackedPins{Orient: geom.Vertical, Header: 30, Spacing: 20}
	if got := v.PinOffset(out, size); got != geom.V(40, 100) {
		t.Errorf("vertical output PinOffset() = %v, want (40,100)", got)
	}
}

func TestCacheMissing(t *testing.T) {
	g := graph.New("")
	a := &graph.Node{ID: "a"}
	b := &graph.Node{ID: "b"}
	k := &graph.Node{ID: "k", Kind: graph.KindKnot}
	for _, n := range []*graph.Node{a, b, k} {
		g.AddNode(n)
	}
	c := NewCache()
	c.SetSize("a", geom.V(10, 10))

	missing := Missing(c, g.Nodes())
	if len(missing) != 1 || missing[0].ID != "b" {
		t.Errorf("Missing() = %v, want [b]", missing)
	}

	c.Delete(a)
	if _, ok := c.Size(a); ok {
		t.Error("Delete() should forget a")
	}
}

func TestCachePinOverride(t *testing.T) {
	g := graph.New("")
	g.AddNode(&graph.Node{ID: "n"})
	p, _ := g.AddPin("n", graph.Pin{ID: "n.in", Dir: graph.Input})
	c := NewCache()
	c.SetPinOffset("n.in", geom.V(0, 7))
	if got := c.PinOffset(p, geom.V(50, 50)); got != geom.V(0, 7) {
		t.Errorf("PinOffset() = %v, want (0,7)", got)
	}
}

func TestOverlay(t *testing.T) {
	g := graph.New("")
	g.AddNode(&graph.Node{ID: "n"})
	measured, _ := g.AddPin("n", graph.Pin{ID: "n.a", Dir: graph.Input})
	stacked, _ := g.AddPin("n", graph.Pin{ID: "n.b", Dir: graph.Input})

	c := NewCache()
	c.SetPinOffset("n.a", geom.V(0, 70))
	fallback := StackedPins{Orient: geom.Vertical, Header: 30, Spacing: 20}
	pins := Overlay(c, fallback)
	size := geom.V(200, 100)

	if got, want := pins.PinOffset(measured, size), geom.V(0, 70); got != want {
		t.Errorf("PinOffset(measured) = %v, want %v", got, want)
	}
	if got, want := pins.PinOffset(stacked, size), fallback.PinOffset(stacked, size); got != want {
		t.Errorf("PinOffset(unmeasured) = %v, want %v", got, want)
	}
}

func TestCacheConcurrent(t *testing.T) {
	c := NewCache()
	n := &graph.Node{ID: "n"}
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.SetSize(n.ID, geom.V(float64(i), 1))
			c.Size(n)
		}()
	}
	wg.Wait()
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}
