package layout

import (
	"cmp"
	"math"
	"slices"

	"github.com/matzehuels/nodeformat/pkg/geom"
	"github.com/matzehuels/nodeformat/pkg/graph"
	"github.com/matzehuels/nodeformat/pkg/render"
)

// secondarySolver assigns secondary coordinates by walking a spanning tree.
// Each node is aligned to the pin that reached it, stacked below the branches
// placed before it, and nudged away from anything it collides with.
type secondarySolver struct {
	p       *pass
	t       *spanTree
	bounds  func(*graph.Node) geom.Rect
	move    func(*graph.Node, geom.Vec)
	padding geom.Vec // primary, secondary
	// obstacles returns extra rectangles n must avoid, such as the boxes of
	// groups it does not belong to. It may be nil.
	obstacles func(n *graph.Node, placed func(*graph.Node) bool) []geom.Rect
	center    bool
	branches  int
	maxIter   int

	placed    []*graph.Node
	isPlaced  map[*graph.Node]bool
	visited   []bool
	rowMarked []bool
	sameRow   map[graph.PinLink]bool
}

func (s *secondarySolver) init() {
	n := len(s.t.recs)
	s.isPlaced = make(map[*graph.Node]bool, n)
	s.visited = make([]bool, n)
	s.rowMarked = make([]bool, n)
	s.sameRow = make(map[graph.PinLink]bool)
	if s.maxIter <= 0 {
		s.maxIter = 30
	}
}

func (s *secondarySolver) solve() {
	s.init()
	s.visited[0] = true
	s.visit(0, graph.Output)
}

func (s *secondarySolver) padVec() geom.Vec { return s.p.o.Vec(s.padding.X, s.padding.Y) }

func (s *secondarySolver) visit(i int, dir graph.Direction) {
	o := s.p.o
	n := s.t.recs[i].node
	s.resolveCollisions(n)
	s.placed = append(s.placed, n)
	s.isPlaced[n] = true

	for _, d := range []graph.Direction{dir, dir.Opposite()} {
		links := s.childLinks(i, d)
		if len(links) == 0 {
			continue
		}
		centering := s.center && d == graph.Output && len(links) >= s.branches
		var branches []int
		var prevEdge float64
		hasPrev := false

		for _, l := range links {
			ci := s.t.index[l.ToNode().ID]
			if s.visited[ci] {
				continue
			}
			child := l.ToNode()
			if !centering && d == dir && !s.rowMarked[i] {
				s.markSameRow(l)
				s.rowMarked[i] = true
			}

			delta := o.S(s.p.pinPos(l.From)) - o.S(s.p.pinPos(l.To))
			if hasPrev && !s.sameRow[l] {
				want := prevEdge + s.padding.Y
				if top := o.SMin(s.bounds(child)) + delta; top < want {
					delta += want - top
				}
			}
			s.move(child, o.Vec(0, delta))

			s.visited[ci] = true
			s.visit(ci, d)

			sub := s.t.subtreeBounds(ci, s.bounds)
			if hasPrev && !s.sameRow[l] {
				if over := prevEdge + s.padding.Y - o.SMin(sub); over > eps {
					s.shiftSubtree(ci, over)
					sub = sub.Translate(o.Vec(0, over))
				}
			}
			prevEdge = o.SMax(sub)
			hasPrev = true
			branches = append(branches, ci)
		}

		if centering && len(branches) > 0 {
			s.centerBranches(i, links, branches)
		}
	}
}

// childLinks returns the tree links leaving record i through pins facing d,
// ordered by the secondary coordinate of the parent pin.
func (s *secondarySolver) childLinks(i int, d graph.Direction) []graph.PinLink {
	var out []graph.PinLink
	for _, c := range s.t.recs[i].children {
		l := s.t.recs[c].link
		if l.Direction() == d {
			out = append(out, l)
		}
	}
	o := s.p.o
	slices.SortStableFunc(out, func(a, b graph.PinLink) int {
		return cmp.Compare(o.S(s.p.pinPos(a.From)), o.S(s.p.pinPos(b.From)))
	})
	return out
}

func (s *secondarySolver) markSameRow(l graph.PinLink) {
	s.sameRow[l] = true
	s.sameRow[l.Opposite()] = true
}

func (s *secondarySolver) shiftSubtree(i int, ds float64) {
	d := s.p.o.Vec(0, ds)
	for _, j := range s.t.subtree(i) {
		s.move(s.t.recs[j].node, d)
	}
}

// collider returns the first placed footprint or obstacle r collides with.
func (s *secondarySolver) collider(r geom.Rect, self *graph.Node, skip func(*graph.Node) bool) (geom.Rect, bool) {
	pad := s.padVec()
	for _, m := range s.placed {
		if m == self || (skip != nil && skip(m)) {
			continue
		}
		if b := s.bounds(m); collides(r, b, pad) {
			return b, true
		}
	}
	if s.obstacles != nil && self != nil {
		// Obstacle boxes already include their own padding.
		for _, b := range s.obstacles(self, func(n *graph.Node) bool { return s.isPlaced[n] }) {
			if r.Intersects(b) {
				return b, true
			}
		}
	}
	return geom.Rect{}, false
}

// resolveCollisions nudges n toward larger secondary coordinates until it is
// clear of every placed node, or the iteration limit is reached.
func (s *secondarySolver) resolveCollisions(n *graph.Node) {
	o := s.p.o
	for range s.maxIter {
		r := s.bounds(n)
		c, hit := s.collider(r, n, nil)
		if !hit {
			return
		}
		s.p.drawer.Box(c, render.ColorCollision)
		ds := o.SMax(c) + s.padding.Y - o.SMin(r)
		s.move(n, o.Vec(0, math.Max(ds, 1)))
	}
	s.p.logger.Debug("collision iterations exhausted", "node", n.ID)
}

// centerBranches aligns the mean of the branch pins with the mean of the
// parent pins, then shifts the whole set of branches clear of collisions.
func (s *secondarySolver) centerBranches(i int, links []graph.PinLink, branches []int) {
	o := s.p.o
	var parentSum, childSum float64
	seen := make(map[*graph.Pin]bool)
	for _, l := range links {
		if !seen[l.From] {
			seen[l.From] = true
			parentSum += o.S(s.p.pinPos(l.From))
		}
		childSum += o.S(s.p.pinPos(l.To))
	}
	delta := parentSum/float64(len(seen)) - childSum/float64(len(links))

	members := make(map[*graph.Node]bool)
	for _, b := range branches {
		for _, j := range s.t.subtree(b) {
			members[s.t.recs[j].node] = true
		}
	}
	shift := func(ds float64) {
		for _, b := range branches {
			s.shiftSubtree(b, ds)
		}
	}
	shift(delta)

	bounds := func() geom.Rect {
		var acc geom.Bounds
		for _, b := range branches {
			acc.Add(s.t.subtreeBounds(b, s.bounds))
		}
		r, _ := acc.Rect()
		return r
	}
	skip := func(n *graph.Node) bool { return members[n] || n == s.t.recs[i].node }
	for range s.maxIter {
		r := bounds()
		c, hit := s.collider(r, nil, skip)
		if !hit {
			return
		}
		shift(math.Max(o.SMax(c)+s.padding.Y-o.SMin(r), 1))
	}
}

// straighten moves each same-row child so its pin lines up with its
// parent's pin, unless doing so would cause a collision.
func (s *secondarySolver) straighten() {
	o := s.p.o
	for _, l := range s.t.path {
		if !s.sameRow[l] {
			continue
		}
		child := l.ToNode()
		ci, ok := s.t.index[child.ID]
		if !ok || s.t.recs[ci].link != l {
			continue
		}
		ds := o.S(s.p.pinPos(l.From)) - o.S(s.p.pinPos(l.To))
		if math.Abs(ds) < eps {
			continue
		}
		r := s.bounds(child).Translate(o.Vec(0, ds))
		if _, hit := s.collider(r, child, nil); hit {
			continue
		}
		s.move(child, o.Vec(0, ds))
	}
}
