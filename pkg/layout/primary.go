package layout

import (
	"github.com/matzehuels/nodeformat/pkg/geom"
	"github.com/matzehuels/nodeformat/pkg/graph"
)

// primarySolver assigns the primary coordinate of every node reachable from
// a root. It walks links depth-first, keeping one stack per direction so a run
// of forward links is finished before the walk turns backward.
type primarySolver struct {
	p *pass
	// follow reports whether a link may be traversed.
	follow func(graph.PinLink) bool
	// bounds is the footprint a node occupies, typically its cluster.
	bounds func(*graph.Node) geom.Rect
	// move translates a node together with anything attached to it.
	move    func(*graph.Node, geom.Vec)
	padding float64
}

func (s *primarySolver) solve(root *graph.Node) *spanTree {
	o := s.p.o
	t := newSpanTree(root)
	visited := make(map[graph.PinLink]bool)
	var stacks [2][]graph.PinLink

	push := func(n *graph.Node) {
		links := n.Links()
		for i := len(links) - 1; i >= 0; i-- {
			l := links[i]
			if visited[l] || !s.follow(l) {
				continue
			}
			visited[l] = true
			visited[l.Opposite()] = true
			d := l.Direction()
			stacks[d] = append(stacks[d], l)
		}
	}

	push(root)
	cur := graph.Output
	for len(stacks[graph.Input])+len(stacks[graph.Output]) > 0 {
		if len(stacks[cur]) == 0 {
			cur = cur.Opposite()
		}
		st := stacks[cur]
		l := st[len(st)-1]
		stacks[cur] = st[:len(st)-1]

		parent, ok := t.index[l.FromNode().ID]
		if !ok {
			continue
		}
		child := l.ToNode()
		want := s.candidate(l)
		have := o.P(child.Pos)

		ci, known := t.index[child.ID]
		if !known {
			s.move(child, o.Vec(want-have, 0))
			t.add(child, l, parent)
			push(child)
			continue
		}
		if ci == 0 || t.recs[ci].parent == parent || t.isAncestor(ci, parent) {
			continue
		}
		if !improves(l.Direction(), want, have) {
			continue
		}
		t.reparent(ci, parent, l)
		for _, j := range t.subtree(ci) {
			s.move(t.recs[j].node, o.Vec(want-have, 0))
		}
	}
	return t
}

// candidate is the primary coordinate of the link's target node that clears
// the source node's footprint plus padding.
func (s *primarySolver) candidate(l graph.PinLink) float64 {
	o := s.p.o
	from, to := l.FromNode(), l.ToNode()
	pr, cr := s.bounds(from), s.bounds(to)
	cp := o.P(to.Pos)
	if l.Direction() == graph.Output {
		lead := cp - o.PMin(cr)
		return s.p.round(o.PMax(pr) + s.padding + lead)
	}
	trail := o.PMax(cr) - cp
	return s.p.round(o.PMin(pr) - s.padding - trail)
}

// improves reports whether want lies strictly further along the direction
// of travel than have.
func improves(d graph.Direction, want, have float64) bool {
	if d == graph.Output {
		return want > have+eps
	}
	return want < have-eps
}

// expand pushes a forward child's subtree ahead when the nodes stacked on its
// input side reach back over its parent.
func (s *primarySolver) expand(t *spanTree) {
	o := s.p.o
	for _, i := range t.subtree(0) {
		rec := t.recs[i]
		if rec.parent < 0 || rec.link.Direction() != graph.Output {
			continue
		}
		var inputs geom.Bounds
		for _, c := range rec.children {
			if t.recs[c].link.Direction() != graph.Input {
				continue
			}
			inputs.Add(t.subtreeBounds(c, s.bounds))
		}
		r, ok := inputs.Rect()
		if !ok {
			continue
		}
		limit := o.PMax(s.bounds(t.recs[rec.parent].node)) + s.padding
		over := limit - o.PMin(r)
		if over <= eps {
			continue
		}
		shift := o.Vec(s.p.ceilGrid(over), 0)
		for _, j := range t.subtree(i) {
			s.move(t.recs[j].node, shift)
		}
	}
}
