package layout

import (
	"context"
	"testing"

	"github.com/matzehuels/nodeformat/pkg/config"
	"github.com/matzehuels/nodeformat/pkg/containment"
	"github.com/matzehuels/nodeformat/pkg/errors"
	"github.com/matzehuels/nodeformat/pkg/geom"
	"github.com/matzehuels/nodeformat/pkg/graph"
)

func chainFixture(t *testing.T) *fixture {
	f := newFixture(t, "blueprint")
	f.node("a", graph.KindEvent, 0, 0, execSize)
	f.pin("a", "out", graph.Output, true)
	f.exec("b", 50, 300)
	f.exec("c", -100, 700)
	f.link("a.out", "b.in")
	f.link("b.out", "c.in")
	return f
}

func TestFormatChain(t *testing.T) {
	f := chainFixture(t)
	cfg := testConfig()
	res := f.format(f.engine(cfg), "a")

	if res.Status != StatusFormatted {
		t.Fatalf("Status = %v, want %v", res.Status, StatusFormatted)
	}
	a, b, c := f.get("a"), f.get("b"), f.get("c")
	step := cfg.Padding.X + execSize.X
	tests := []struct {
		name string
		got  geom.Vec
		want geom.Vec
	}{
		{"a", a.Pos, geom.V(0, 0)},
		{"b", b.Pos, geom.V(a.Pos.X+step, 0)},
		{"c", c.Pos, geom.V(a.Pos.X+2*step, 0)},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s.Pos = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestFormatCentersBranches(t *testing.T) {
	f := newFixture(t, "blueprint")
	f.node("a", graph.KindEvent, 0, 0, execSize)
	f.pin("a", "out", graph.Output, true)
	f.exec("b", 500, 500)
	f.exec("c", 500, 900)
	f.link("a.out", "b.in")
	f.link("a.out", "c.in")

	cfg := testConfig()
	cfg.CenterBranches = true
	cfg.NumRequiredBranches = 2
	f.format(f.engine(cfg), "a")

	mean := (f.pinY("b.in") + f.pinY("c.in")) / 2
	if want := f.pinY("a.out"); mean != want {
		t.Errorf("mean branch pin y = %v, want %v", mean, want)
	}
	assertNoOverlap(t, f, []graph.NodeID{"a", "b", "c"})
}

func TestFormatGroupBounds(t *testing.T) {
	f := newFixture(t, "blueprint")
	f.node("x", graph.KindEvent, 0, 0, execSize)
	f.pin("x", "out", graph.Output, true)
	f.exec("y", 20, 40)
	f.link("x.out", "y.in")
	f.group("g", "x", "y")

	cfg := testConfig()
	res := f.format(f.engine(cfg), "x")
	if len(res.IgnoredGroups) != 0 {
		t.Fatalf("IgnoredGroups = %v, want none", res.IgnoredGroups)
	}

	union := f.rect("x").Union(f.rect("y"))
	got := f.rect("g")
	pad := cfg.GroupPadding
	want := geom.Rect{
		Left:   union.Left - pad.X,
		Top:    union.Top - pad.Y - cfg.GroupTitleHeight,
		Right:  union.Right + pad.X,
		Bottom: union.Bottom + pad.Y,
	}
	if got != want {
		t.Errorf("group rect = %v, want %v", got, want)
	}
	for _, id := range []graph.NodeID{"x", "y"} {
		if !got.Contains(f.rect(id)) {
			t.Errorf("group does not contain %s", id)
		}
	}
}

// routingFixture builds a -> b -> c -> d -> z on one row with a second wire
// from a straight to z, crossing b, c and d.
func routingFixture(t *testing.T) *fixture {
	f := newFixture(t, "blueprint")
	f.node("a", graph.KindEvent, 0, 0, execSize)
	f.pin("a", "then", graph.Output, true)
	f.pin("a", "also", graph.Output, true)
	for _, id := range []graph.NodeID{"b", "c", "d", "z"} {
		f.exec(id, 0, 200)
	}
	f.link("a.then", "b.in")
	f.link("b.out", "c.in")
	f.link("c.out", "d.in")
	f.link("d.out", "z.in")
	f.link("a.also", "z.in")
	return f
}

func TestFormatRoutesBlockedWire(t *testing.T) {
	f := routingFixture(t)
	cfg := config.Default()
	e := f.engine(cfg)
	res := f.format(e, "a")

	if len(res.Knots) == 0 {
		t.Fatal("Knots = none, want a track around the chain")
	}
	also, _ := f.g.Pin("a.also")
	z, _ := f.g.Pin("z.in")
	if also.IsLinkedTo(z) {
		t.Error("a.also still wired directly to z.in")
	}
	if got := graph.ResolvePin(also); len(got) != 1 || got[0] != z {
		t.Errorf("ResolvePin(a.also) = %v, want [z.in]", got)
	}

	// Without the chain in between, z moves next to a and the wire no longer
	// needs rerouting.
	for _, id := range []graph.NodeID{"b", "c", "d"} {
		f.g.RemoveNode(id)
	}
	res = f.format(e, "a")
	if len(res.Knots) != 0 {
		t.Errorf("Knots = %v, want none", res.Knots)
	}
	if !also.IsLinkedTo(z) {
		t.Error("a.also not wired directly to z.in after re-layout")
	}
	for _, n := range f.g.Nodes() {
		if n.IsKnot() {
			t.Errorf("stale knot %s", n.ID)
		}
	}
}

func TestFormatDataCluster(t *testing.T) {
	f := chainFixture(t)
	f.get("b").Pos = geom.V(400, 300)
	f.pin("b", "val", graph.Input, false)
	f.pure("p", 0, 0)
	f.link("p.out", "b.val")

	cfg := testConfig()
	f.format(f.engine(cfg), "a")

	b, p := f.rect("b"), f.rect("p")
	if want := b.Left - cfg.ParameterPadding.X; p.Right != want {
		t.Errorf("p.Right = %v, want %v", p.Right, want)
	}
	if want := f.rect("a").Right + cfg.Padding.X; p.Left != want {
		t.Errorf("p.Left = %v, want %v", p.Left, want)
	}
	if got, want := f.pinY("p.out"), f.pinY("b.val"); got != want {
		t.Errorf("p.out y = %v, want b.val y %v", got, want)
	}
	assertNoOverlap(t, f, []graph.NodeID{"a", "b", "c", "p"})
}

func TestFormatIdempotent(t *testing.T) {
	f := chainFixture(t)
	f.pin("b", "val", graph.Input, false)
	f.pure("p", 0, 0)
	f.link("p.out", "b.val")

	e := f.engine(testConfig())
	f.format(e, "a")
	first := positions(f.g)

	res := f.format(e, "a")
	if res.Status != StatusSkipped {
		t.Errorf("second Status = %v, want %v", res.Status, StatusSkipped)
	}
	e.Invalidate("a")
	res = f.format(e, "a")
	if res.Status != StatusFormatted {
		t.Errorf("third Status = %v, want %v", res.Status, StatusFormatted)
	}
	for id, want := range first {
		if got := f.get(id).Pos; got != want {
			t.Errorf("%s.Pos = %v after re-layout, want %v", id, got, want)
		}
	}
}

func positions(g *graph.Graph) map[graph.NodeID]geom.Vec {
	out := make(map[graph.NodeID]geom.Vec)
	for _, n := range g.Nodes() {
		out[n.ID] = n.Pos
	}
	return out
}

func TestFormatKeepsRequestedNodeStill(t *testing.T) {
	f := chainFixture(t)
	before := f.get("b").Pos
	f.format(f.engine(testConfig()), "b")

	if got := f.get("b").Pos; got != before {
		t.Errorf("b.Pos = %v, want %v", got, before)
	}
	a, b := f.get("a"), f.get("b")
	if got, want := b.Pos.X-a.Pos.X, 296.0; got != want {
		t.Errorf("b.X - a.X = %v, want %v", got, want)
	}
}

func TestFormatSkipsAfterKeepStillMoves(t *testing.T) {
	f := chainFixture(t)
	e := f.engine(testConfig())
	f.format(e, "a")
	rel := f.get("c").Pos.X - f.get("a").Pos.X

	f.get("a").Pos = geom.V(1000, 1000)
	res := f.format(e, "a")
	if res.Status != StatusSkipped {
		t.Fatalf("Status = %v, want %v", res.Status, StatusSkipped)
	}
	if got := f.get("c").Pos.X - f.get("a").Pos.X; got != rel {
		t.Errorf("c offset = %v, want %v", got, rel)
	}
	if got := f.get("a").Pos; got != geom.V(1000, 1000) {
		t.Errorf("a.Pos = %v, want (1000, 1000)", got)
	}
}

func TestFormatCycleTerminates(t *testing.T) {
	f := newFixture(t, "blueprint")
	for _, id := range []graph.NodeID{"a", "b", "c"} {
		f.exec(id, 0, 0)
	}
	f.link("a.out", "b.in")
	f.link("b.out", "c.in")
	f.link("c.out", "a.in")

	res := f.format(f.engine(testConfig()), "a")
	if len(res.Nodes) != 3 {
		t.Errorf("Nodes = %v, want 3", res.Nodes)
	}
	if res.Incomplete {
		t.Error("Incomplete = true, want false")
	}
	assertNoOverlap(t, f, []graph.NodeID{"a", "b", "c"})
}

func TestFormatDeferred(t *testing.T) {
	f := chainFixture(t)
	f.sizes.Delete(f.get("c"))

	res := f.format(f.engine(testConfig()), "a")
	if res.Status != StatusDeferred {
		t.Fatalf("Status = %v, want %v", res.Status, StatusDeferred)
	}
	if len(res.Missing) != 1 || res.Missing[0] != "c" {
		t.Errorf("Missing = %v, want [c]", res.Missing)
	}
	if got := f.get("b").Pos; got != geom.V(50, 300) {
		t.Errorf("b moved to %v while deferred", got)
	}
}

func TestFormatErrors(t *testing.T) {
	f := chainFixture(t)
	_, err := f.engine(testConfig()).Format(context.Background(), f.g, "missing")
	if !errors.Is(err, errors.ErrCodeNodeNotFound) {
		t.Errorf("Format(missing) error = %v, want %s", err, errors.ErrCodeNodeNotFound)
	}

	cfg := testConfig()
	cfg.MaxFormatPasses = 0
	if _, err := NewEngine(cfg, f.sizes); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("NewEngine(bad config) error = %v, want %s", err, errors.ErrCodeInvalidConfig)
	}
}

func TestFormatGroupRequest(t *testing.T) {
	f := chainFixture(t)
	f.group("g", "b", "c")
	res := f.format(f.engine(testConfig()), "g")
	if res.Root != "a" || res.Status != StatusFormatted {
		t.Errorf("Format(g) = %s %s, want a formatted", res.Root, res.Status)
	}
}

func TestFormatIgnoredGroups(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(f *fixture)
		reason string
	}{
		{"empty", func(f *fixture) { f.group("g") }, ReasonEmpty},
		{"outside nodes", func(f *fixture) {
			f.exec("u", 2000, 2000)
			f.group("g", "a", "u")
		}, ReasonOutsideNodes},
		{"disconnected", func(f *fixture) { f.group("g", "a", "c") }, ReasonDisconnected},
		{"detached data", func(f *fixture) {
			f.pin("b", "val", graph.Input, false)
			f.pure("p", 0, 0)
			f.link("p.out", "b.val")
			f.group("g", "p")
		}, ReasonDetachedData},
		{"overlapping", func(f *fixture) {
			f.group("first", "a", "b")
			f.group("g", "b", "c")
		}, ReasonOverlapping},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := chainFixture(t)
			tt.setup(f)
			res := f.format(f.engine(testConfig()), "a")
			var got string
			for _, ig := range res.IgnoredGroups {
				if ig.ID == "g" {
					got = ig.Reason
				}
			}
			if got != tt.reason {
				t.Errorf("reason = %q, want %q (ignored %v)", got, tt.reason, res.IgnoredGroups)
			}
		})
	}
}

func TestFormatAll(t *testing.T) {
	tests := []struct {
		name    string
		style   config.FormatAllStyle
		columns int
	}{
		{"columns", config.Columns, 3},
		{"list", config.List, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := chainFixture(t)
			f.exec("x", 0, 0)
			f.exec("y", 0, 0)
			f.link("x.out", "y.in")
			f.pure("p", 0, 0)

			cfg := testConfig()
			cfg.FormatAllStyle = tt.style
			batch, err := f.engine(cfg).FormatAll(context.Background(), f.g)
			if err != nil {
				t.Fatalf("FormatAll() error = %v", err)
			}
			if len(batch.Results) != 3 {
				t.Fatalf("Results = %d, want 3", len(batch.Results))
			}
			if batch.Columns != tt.columns {
				t.Errorf("Columns = %d, want %d", batch.Columns, tt.columns)
			}
			for i, a := range batch.Results {
				for _, b := range batch.Results[i+1:] {
					if a.Bounds.Intersects(b.Bounds) {
						t.Errorf("%s %v overlaps %s %v", a.Root, a.Bounds, b.Root, b.Bounds)
					}
				}
			}
			assertNoOverlap(t, f, []graph.NodeID{"a", "b", "c", "x", "y", "p"})
		})
	}
}

func TestSameRowSymmetric(t *testing.T) {
	f := routingFixture(t)
	e := f.engine(testConfig())
	fm := e.NewFormatter(f.g, f.get("a"))
	fm.Format()

	sec := &secondarySolver{p: fm.p, t: fm.general.tree, bounds: fm.p.clusterRect, move: fm.p.moveCluster,
		padding: geom.V(100, 100), maxIter: 30}
	sec.solve()
	if len(sec.sameRow) == 0 {
		t.Fatal("no same-row links")
	}
	for l := range sec.sameRow {
		if !sec.sameRow[l.Opposite()] {
			t.Errorf("same-row %s -> %s has no opposite", l.From.ID, l.To.ID)
		}
	}
}

func TestFormatMeasuredPinOffsets(t *testing.T) {
	f := newFixture(t, "blueprint")
	f.node("a", graph.KindEvent, 0, 0, execSize)
	f.pin("a", "out", graph.Output, true)
	f.exec("b", 40, 300)
	f.link("a.out", "b.in")
	f.sizes.SetPinOffset("a.out", geom.V(execSize.X, 24))
	f.sizes.SetPinOffset("b.in", geom.V(0, 72))

	f.format(f.engine(testConfig()), "a")

	a, b := f.get("a"), f.get("b")
	if got, want := b.Pos.Y+72, a.Pos.Y+24; got != want {
		t.Errorf("b.in y = %v, want a.out y %v", got, want)
	}
}

var boxSize = geom.V(100, 100)

// box adds a 100x100 node; kind event gets only an output pin.
func (f *fixture) box(id graph.NodeID, kind graph.NodeKind, x, y float64, pins ...graph.Direction) {
	f.t.Helper()
	f.node(id, kind, x, y, boxSize)
	for _, d := range pins {
		name := "in"
		if d == graph.Output {
			name = "out"
		}
		f.pin(id, name, d, true)
	}
}

func TestFormatExpandInputClusters(t *testing.T) {
	tests := []struct {
		name      string
		direction config.Direction
		expand    bool
		// primary coordinates of a, b and c
		want [3]float64
	}{
		{"left to right", config.LeftToRight, true, [3]float64{0, 400, 200}},
		{"left to right without expand", config.LeftToRight, false, [3]float64{0, 200, 0}},
		{"top to bottom", config.TopToBottom, true, [3]float64{0, 400, 200}},
		{"top to bottom without expand", config.TopToBottom, false, [3]float64{0, 200, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "blueprint")
			f.box("a", graph.KindEvent, 0, 0, graph.Output)
			f.box("b", graph.KindRegular, 300, 300, graph.Input, graph.Output)
			f.box("c", graph.KindRegular, -500, 600, graph.Output)
			f.link("a.out", "b.in")
			f.link("c.out", "b.in")

			cfg := testConfig()
			cfg.Direction = tt.direction
			cfg.ExpandInputClusters = tt.expand
			f.format(f.engine(cfg), "a")

			o := cfg.Orient()
			for i, id := range []graph.NodeID{"a", "b", "c"} {
				if got := o.P(f.get(id).Pos); got != tt.want[i] {
					t.Errorf("%s primary = %v, want %v", id, got, tt.want[i])
				}
			}
			assertNoOverlap(t, f, []graph.NodeID{"a", "b", "c"})
		})
	}
}

func TestFormatTopToBottomNestedGroups(t *testing.T) {
	f := newFixture(t, "blueprint")
	f.box("a", graph.KindEvent, 0, 0, graph.Output)
	f.box("b", graph.KindRegular, 250, 40, graph.Input, graph.Output)
	f.box("c", graph.KindRegular, -90, 900, graph.Input)
	f.link("a.out", "b.in")
	f.link("b.out", "c.in")
	f.group("inner", "b", "c")
	f.group("outer", "a", "b", "c")

	cfg := testConfig()
	cfg.Direction = config.TopToBottom
	res := f.format(f.engine(cfg), "a")
	if len(res.IgnoredGroups) != 0 {
		t.Fatalf("IgnoredGroups = %v, want none", res.IgnoredGroups)
	}

	wantPos := map[graph.NodeID]geom.Vec{
		"a": geom.V(0, 0),
		"b": geom.V(0, 200),
		"c": geom.V(0, 400),
	}
	for id, want := range wantPos {
		if got := f.get(id).Pos; got != want {
			t.Errorf("%s.Pos = %v, want %v", id, got, want)
		}
	}

	inner, outer := f.rect("inner"), f.rect("outer")
	for _, id := range []graph.NodeID{"b", "c"} {
		if !inner.Contains(f.rect(id)) {
			t.Errorf("inner %v does not contain %s %v", inner, id, f.rect(id))
		}
	}
	if !outer.Contains(inner) {
		t.Errorf("outer %v does not contain inner %v", outer, inner)
	}
	if !outer.Contains(f.rect("a")) {
		t.Errorf("outer %v does not contain a", outer)
	}
	if inner.Intersects(f.rect("a")) {
		t.Errorf("inner %v overlaps a %v", inner, f.rect("a"))
	}
}

func TestSettleRoutesAroundPushedNodes(t *testing.T) {
	f := routingFixture(t)
	e := f.engine(config.Default())
	p := e.newPass(f.g)
	fm := newFormatter(config.General, p, f.get("a"), containment.Build(f.g))
	fm.Format()
	nodes := fm.FormattedNodes()

	// Leave d on top of c so verification has to push it.
	f.get("d").Pos = f.get("c").Pos

	knots, passes, overlaps, err := e.settle(p, nodes, true)
	if err != nil {
		t.Fatalf("settle() error = %v", err)
	}
	if passes == 0 || overlaps != 0 {
		t.Fatalf("settle() = %d passes, %d overlaps; want at least 1, 0", passes, overlaps)
	}
	if len(knots) == 0 {
		t.Fatal("settle() created no knots")
	}
	for _, k := range knots {
		from := p.rect(k).Center()
		for _, out := range k.PinsDir(graph.Output) {
			for _, next := range out.Linked() {
				if !next.Node().IsKnot() {
					continue
				}
				to := p.rect(next.Node()).Center()
				for _, n := range nodes {
					if geom.SegmentIntersectsRect(from, to, p.rect(n)) {
						t.Errorf("track %s -> %s crosses %s", k.ID, next.Node().ID, n.ID)
					}
				}
			}
		}
	}
}
