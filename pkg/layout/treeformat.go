package layout

import (
	"cmp"
	"math"
	"slices"

	"github.com/matzehuels/nodeformat/pkg/geom"
	"github.com/matzehuels/nodeformat/pkg/graph"
)

// treeFormatter places a tidy tree: every depth level forms one column along
// the primary axis and parents sit centered across their children.
type treeFormatter struct {
	p     *pass
	root  *graph.Node
	nodes []*graph.Node

	children map[*graph.Node][]*graph.Node
	levels   [][]*graph.Node
}

// collect walks output links breadth-first. A node reached twice keeps the
// first parent that found it.
func (f *treeFormatter) collect() {
	o := f.p.o
	f.children = make(map[*graph.Node][]*graph.Node)
	seen := map[*graph.Node]bool{f.root: true}
	level := []*graph.Node{f.root}
	for len(level) > 0 {
		f.levels = append(f.levels, level)
		f.nodes = append(f.nodes, level...)
		var next []*graph.Node
		for _, n := range level {
			var kids []*graph.Node
			for _, m := range graph.LinkedNodes(n, graph.Output, nil) {
				if seen[m] || m.IsGroup() || m.IsKnot() {
					continue
				}
				seen[m] = true
				kids = append(kids, m)
			}
			slices.SortStableFunc(kids, func(a, b *graph.Node) int {
				return cmp.Compare(o.S(a.Pos), o.S(b.Pos))
			})
			f.children[n] = kids
			next = append(next, kids...)
		}
		level = next
	}
}

func (f *treeFormatter) format() {
	p, o := f.p, f.p.o
	pad := geom.V(p.padP(p.cfg.Padding), p.padS(p.cfg.Padding))

	at := o.P(f.root.Pos)
	for _, level := range f.levels {
		extent := 0.0
		for _, n := range level {
			n.Pos = o.Vec(p.round(at), o.S(n.Pos))
			extent = math.Max(extent, o.PSize(p.rect(n)))
		}
		at += extent + pad.X
	}

	top := o.S(f.root.Pos)
	f.place(f.root, top, pad.Y)

	// Keep the root where it was along the secondary axis.
	if ds := top - o.S(f.root.Pos); math.Abs(ds) > eps {
		for _, n := range f.nodes {
			p.move(n, o.Vec(0, ds))
		}
	}
}

// place lays out n's subtree starting at secondary coordinate s and returns
// the coordinate just past it.
func (f *treeFormatter) place(n *graph.Node, s, pad float64) float64 {
	p, o := f.p, f.p.o
	size := o.SSize(p.rect(n))
	kids := f.children[n]
	if len(kids) == 0 {
		n.Pos = o.Vec(o.P(n.Pos), s)
		return s + size
	}

	cur := s
	for i, c := range kids {
		if i > 0 {
			cur += pad
		}
		cur = f.place(c, cur, pad)
	}
	first, last := p.rect(kids[0]), p.rect(kids[len(kids)-1])
	mid := (o.SMin(first) + o.SMax(last)) / 2
	start := mid - size/2
	if start < s {
		shift := s - start
		for _, c := range kids {
			f.shift(c, shift)
		}
		cur += shift
		start = s
	}
	n.Pos = o.Vec(o.P(n.Pos), start)
	return math.Max(cur, start+size)
}

func (f *treeFormatter) shift(n *graph.Node, ds float64) {
	f.p.move(n, f.p.o.Vec(0, ds))
	for _, c := range f.children[n] {
		f.shift(c, ds)
	}
}

// ===== Simple =====

// simpleFormatter only solves the primary axis over every link type and
// leaves secondary coordinates untouched.
type simpleFormatter struct {
	p     *pass
	root  *graph.Node
	nodes []*graph.Node
}

func (f *simpleFormatter) collect() {
	f.nodes = graph.NodeTree(f.root, graph.TraverseOptions{Filter: graph.AllLinks, SkipGroups: true})
	f.nodes = slices.DeleteFunc(f.nodes, func(n *graph.Node) bool { return n.IsKnot() })
}

func (f *simpleFormatter) format() {
	p := f.p
	in := make(map[*graph.Node]bool, len(f.nodes))
	for _, n := range f.nodes {
		in[n] = true
	}
	prim := &primarySolver{
		p:       p,
		follow:  func(l graph.PinLink) bool { return in[l.FromNode()] && in[l.ToNode()] },
		bounds:  p.rect,
		move:    p.move,
		padding: p.padP(p.cfg.Padding),
	}
	prim.solve(f.root)
}
