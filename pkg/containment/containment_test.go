package containment

import (
	"testing"

	"github.com/matzehuels/nodeformat/pkg/graph"
)

// nested builds outer{inner{a}, b} plus a loose node c.
func nested(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New("blueprint")
	for _, n := range []*graph.Node{
		{ID: "a"}, {ID: "b"}, {ID: "c"},
		{ID: "inner", Kind: graph.KindGroup, Contains: []graph.NodeID{"a"}},
		{ID: "outer", Kind: graph.KindGroup, Contains: []graph.NodeID{"inner", "a", "b"}},
	} {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func TestBuildNesting(t *testing.T) {
	cg := Build(nested(t))

	inner, ok := cg.Container("inner")
	if !ok {
		t.Fatal("inner container missing")
	}
	outer, _ := cg.Container("outer")

	if inner.Height() != 0 || outer.Height() != 1 {
		t.Errorf("heights = %d, %d, want 0, 1", inner.Height(), outer.Height())
	}
	if inner.Parent() != outer {
		t.Error("inner.Parent() should be outer")
	}
	if roots := cg.Roots(); len(roots) != 1 || roots[0] != outer {
		t.Errorf("Roots() = %v, want [outer]", roots)
	}
	if !outer.Contains("a") || !outer.Contains("inner") {
		t.Error("outer should transitively contain a and inner")
	}
	if outer.Contains("c") {
		t.Error("outer should not contain c")
	}
}

func TestBuildOwnership(t *testing.T) {
	cg := Build(nested(t))

	tests := []struct {
		node graph.NodeID
		want graph.NodeID
	}{
		{"a", "inner"},
		{"b", "outer"},
	}
	for _, tt := range tests {
		c := cg.Owner(tt.node)
		if c == nil || c.ID() != tt.want {
			t.Errorf("Owner(%s) = %v, want %s", tt.node, c, tt.want)
		}
	}
	if cg.Owner("c") != nil {
		t.Error("c should have no owner")
	}
	got := cg.Containing("a")
	if len(got) != 2 || got[0].ID() != "inner" || got[1].ID() != "outer" {
		t.Errorf("Containing(a) wrong order: %v", got)
	}
}

func TestBuildCycle(t *testing.T) {
	g := graph.New("")
	g.AddNode(&graph.Node{ID: "x"})
	g.AddNode(&graph.Node{ID: "g1", Kind: graph.KindGroup, Contains: []graph.NodeID{"g2", "x"}})
	g.AddNode(&graph.Node{ID: "g2", Kind: graph.KindGroup, Contains: []graph.NodeID{"g1"}})

	cg := Build(g)
	g1, _ := cg.Container("g1")
	g2, _ := cg.Container("g2")
	if g1.Parent() == g2 && g2.Parent() == g1 {
		t.Fatal("parent chain must not be cyclic")
	}
	if cg.Owner("x") == nil {
		t.Error("x should still be owned")
	}
}

func TestSubsetDropsEmptyAndReowns(t *testing.T) {
	g := nested(t)
	g.AddNode(&graph.Node{ID: "empty", Kind: graph.KindGroup})
	cg := Build(g)

	sub := cg.Subset(func(c *Container) bool { return c.ID() != "inner" })
	if _, ok := sub.Container("empty"); ok {
		t.Error("empty group should be excluded")
	}
	if _, ok := sub.Container("inner"); ok {
		t.Error("inner should be excluded")
	}
	if c := sub.Owner("a"); c == nil || c.ID() != "outer" {
		t.Errorf("Owner(a) = %v, want outer", c)
	}
	outer, _ := sub.Container("outer")
	if outer.Height() != 0 {
		t.Errorf("outer height in subset = %d, want 0", outer.Height())
	}
	if outer.Contains("inner") {
		t.Error("dropped group should not be listed as contained")
	}
}

func TestAddNode(t *testing.T) {
	g := nested(t)
	cg := Build(g)
	k := &graph.Node{ID: "k", Kind: graph.KindKnot}
	g.AddNode(k)

	if !cg.AddNode("inner", k) {
		t.Fatal("AddNode returned false")
	}
	if c := cg.Owner("k"); c == nil || c.ID() != "inner" {
		t.Errorf("Owner(k) = %v, want inner", c)
	}
	outer, _ := cg.Container("outer")
	if !outer.Contains("k") {
		t.Error("outer should enclose k through inner")
	}
	inner, _ := g.Node("inner")
	if inner.Contains[len(inner.Contains)-1] != "k" {
		t.Error("group Contains list not updated")
	}
}

func TestAddGroup(t *testing.T) {
	tests := []struct {
		name  string
		known bool
	}{
		{"group already in the forest", true},
		{"group added to the graph later", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := nested(t)
			late := &graph.Node{ID: "late", Kind: graph.KindGroup, Contains: []graph.NodeID{"c"}}
			if tt.known {
				g.AddNode(late)
			}
			cg := Build(g)
			if !tt.known {
				g.AddNode(late)
			}

			if !cg.AddNode("inner", late) {
				t.Fatal("AddNode returned false")
			}
			c, ok := cg.Container("late")
			if !ok {
				t.Fatal("late container missing")
			}
			if p := c.Parent(); p == nil || p.ID() != "inner" {
				t.Errorf("late.Parent() = %v, want inner", p)
			}
			inner, _ := cg.Container("inner")
			outer, _ := cg.Container("outer")
			if inner.Height() != 1 || outer.Height() != 2 {
				t.Errorf("heights = %d, %d, want 1, 2", inner.Height(), outer.Height())
			}
			if !outer.Contains("c") || !inner.Contains("late") {
				t.Error("inner and outer should enclose late and its member c")
			}
			if o := cg.Owner("c"); o == nil || o.ID() != "late" {
				t.Errorf("Owner(c) = %v, want late", o)
			}
			if o := cg.Owner("a"); o == nil || o.ID() != "inner" {
				t.Errorf("Owner(a) = %v, want inner", o)
			}
		})
	}
}

func TestDeleteGroup(t *testing.T) {
	g := nested(t)
	g.AddNode(&graph.Node{ID: "deep", Kind: graph.KindGroup})
	inner, _ := g.Node("inner")
	inner.Contains = append(inner.Contains, "deep")
	g.AddNode(&graph.Node{ID: "d"})
	deepNode, _ := g.Node("deep")
	deepNode.Contains = []graph.NodeID{"d"}

	cg := Build(g)
	cg.DeleteNode("inner")

	if _, ok := cg.Container("inner"); ok {
		t.Fatal("inner should be gone")
	}
	deep, _ := cg.Container("deep")
	outer, _ := cg.Container("outer")
	if deep.Parent() != outer {
		t.Errorf("deep.Parent() = %v, want outer", deep.Parent())
	}
	if c := cg.Owner("a"); c == nil || c.ID() != "outer" {
		t.Errorf("Owner(a) = %v, want outer", c)
	}
	if outer.Contains("inner") {
		t.Error("outer still lists deleted group")
	}
}

func TestDeleteMember(t *testing.T) {
	cg := Build(nested(t))
	cg.DeleteNode("a")
	inner, _ := cg.Container("inner")
	if inner.Contains("a") || len(inner.Owned()) != 0 {
		t.Error("a should be removed from inner")
	}
	if !inner.IsEmpty() {
		t.Error("inner should now be empty")
	}
}
