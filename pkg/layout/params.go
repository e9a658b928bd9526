package layout

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/nodeformat/pkg/geom"
	"github.com/matzehuels/nodeformat/pkg/graph"
)

// paramFormatter lays out the pure nodes feeding one execution node. The
// result is kept as offsets relative to the anchor so the cluster can follow
// the anchor around without being laid out again.
type paramFormatter struct {
	anchor    *graph.Node
	members   []*graph.Node
	relative  map[graph.NodeID]geom.Vec
	signature string
	helixed   bool
}

// collectParams claims the pure nodes reachable from anchor through input
// data links. A pure node already claimed by another anchor is skipped, which
// also stops the walk through it.
func collectParams(anchor *graph.Node, claimed map[graph.NodeID]graph.NodeID, include func(*graph.Node) bool) *paramFormatter {
	pf := &paramFormatter{anchor: anchor, relative: make(map[graph.NodeID]geom.Vec)}
	queue := []*graph.Node{anchor}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, l := range graph.LinkedPins(n, graph.Input, graph.DataLinks) {
			m := l.ToNode()
			if m == anchor || !m.IsPure() {
				continue
			}
			if _, ok := claimed[m.ID]; ok {
				continue
			}
			if include != nil && !include(m) {
				continue
			}
			claimed[m.ID] = anchor.ID
			pf.members = append(pf.members, m)
			queue = append(queue, m)
		}
	}
	return pf
}

// shape summarizes membership, sizes and wiring. Two clusters with the same
// shape lay out identically relative to their anchor.
func (pf *paramFormatter) shape(p *pass) string {
	parts := []any{string(pf.anchor.ID), p.size(pf.anchor), graph.LinkSignature(pf.anchor), p.cfg.EnableHelixing}
	for _, m := range pf.members {
		parts = append(parts, string(m.ID), p.size(m), graph.LinkSignature(m))
	}
	return hashParts(parts...)
}

// format lays the cluster out around the anchor's current position.
func (pf *paramFormatter) format(p *pass) {
	if len(pf.members) == 0 {
		return
	}
	if p.cfg.EnableHelixing {
		if chain, ok := pf.helixChain(p); ok {
			pf.helix(p, chain)
			pf.helixed = true
			return
		}
	}
	pf.helixed = false
	pf.layoutTree(p)
}

func (pf *paramFormatter) layoutTree(p *pass) {
	in := make(map[*graph.Node]bool, len(pf.members)+1)
	in[pf.anchor] = true
	for _, m := range pf.members {
		in[m] = true
	}
	follow := func(l graph.PinLink) bool {
		return !l.IsExec() && in[l.FromNode()] && in[l.ToNode()] && l.ToNode() != pf.anchor
	}
	pad := geom.V(p.padP(p.cfg.ParameterPadding), p.padS(p.cfg.ParameterPadding))

	prim := &primarySolver{p: p, follow: follow, bounds: p.rect, move: p.move, padding: pad.X}
	t := prim.solve(pf.anchor)

	sec := &secondarySolver{
		p: p, t: t, bounds: p.rect, move: p.move,
		padding: pad, maxIter: p.cfg.MaxCollisionIterations,
	}
	sec.solve()
	sec.straighten()
}

// helixChain returns the members as a single chain ordered from the anchor
// outward, or false when the cluster branches or exceeds the height limits.
func (pf *paramFormatter) helixChain(p *pass) ([]*graph.Node, bool) {
	in := make(map[*graph.Node]bool, len(pf.members))
	for _, m := range pf.members {
		in[m] = true
	}
	var chain []*graph.Node
	total := 0.0
	cur := pf.anchor
	for {
		var ins []*graph.Node
		for _, m := range graph.LinkedNodes(cur, graph.Input, graph.DataLinks) {
			if in[m] {
				ins = append(ins, m)
			}
		}
		if len(ins) == 0 {
			break
		}
		if len(ins) > 1 {
			return nil, false
		}
		next := ins[0]
		outs := 0
		for _, m := range graph.LinkedNodes(next, graph.Output, nil) {
			if in[m] || m == pf.anchor {
				outs++
			}
		}
		if outs > 1 {
			return nil, false
		}
		h := p.o.SSize(p.rect(next))
		if h > p.cfg.SingleHelixingHeightMax {
			return nil, false
		}
		total += h
		if len(chain) > 0 {
			total += p.padS(p.cfg.ParameterPadding)
		}
		chain = append(chain, next)
		delete(in, next)
		cur = next
	}
	if len(chain) != len(pf.members) || total > p.cfg.HelixingHeightMax {
		return nil, false
	}
	return chain, true
}

// helix stacks a chain in one column directly behind the anchor, starting at
// the anchor's own secondary coordinate.
func (pf *paramFormatter) helix(p *pass, chain []*graph.Node) {
	o := p.o
	edge := o.PMin(p.rect(pf.anchor)) - p.padP(p.cfg.ParameterPadding)
	s := o.S(pf.anchor.Pos)
	for _, n := range chain {
		r := p.rect(n)
		lead := o.PMax(r) - o.P(n.Pos)
		n.Pos = o.Vec(p.round(edge-lead), s)
		s += o.SSize(r) + p.padS(p.cfg.ParameterPadding)
	}
}

// record stores member positions relative to the anchor.
func (pf *paramFormatter) record() {
	pf.relative = make(map[graph.NodeID]geom.Vec, len(pf.members))
	for _, m := range pf.members {
		pf.relative[m.ID] = r2.Sub(m.Pos, pf.anchor.Pos)
	}
}

// reapply moves every member back to its recorded offset from the anchor.
func (pf *paramFormatter) reapply() {
	for _, m := range pf.members {
		if off, ok := pf.relative[m.ID]; ok {
			m.Pos = r2.Add(pf.anchor.Pos, off)
		}
	}
}

// adopt takes over the recorded layout of a cached cluster with the same
// shape.
func (pf *paramFormatter) adopt(cached *paramFormatter) {
	pf.relative = cached.relative
	pf.helixed = cached.helixed
	pf.signature = cached.signature
}

func (pf *paramFormatter) bounds(p *pass) geom.Rect {
	r := p.rect(pf.anchor)
	for _, m := range pf.members {
		r = r.Union(p.rect(m))
	}
	return r
}

func (pf *paramFormatter) String() string {
	return fmt.Sprintf("params(%s, %d members)", pf.anchor.ID, len(pf.members))
}
