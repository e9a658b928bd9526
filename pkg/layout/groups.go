package layout

import (
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/matzehuels/nodeformat/pkg/containment"
	"github.com/matzehuels/nodeformat/pkg/geom"
	"github.com/matzehuels/nodeformat/pkg/graph"
	"github.com/matzehuels/nodeformat/pkg/render"
)

// Reasons a group is left out of a pass.
const (
	ReasonEmpty        = "empty"
	ReasonOutsideNodes = "contains nodes outside the formatted set"
	ReasonDetachedData = "contains a data node whose anchor is outside the group"
	ReasonDisconnected = "members are not connected"
	ReasonOverlapping  = "partially overlaps another group"

	// reasonUntouched marks groups unrelated to the pass. They are not
	// reported.
	reasonUntouched = "untouched"
)

// IgnoredGroup records a group the pass did not move as a unit.
type IgnoredGroup struct {
	ID     graph.NodeID
	Reason string
}

// groupHandler decides which groups take part in a pass, keeps them out of
// the way of nodes they do not contain and refits their boxes afterwards.
type groupHandler struct {
	p       *pass
	master  *containment.Graph
	sub     *containment.Graph
	set     mapset.Set[graph.NodeID]
	ignored []IgnoredGroup
}

// newGroupHandler builds the retained subset of master for a pass over
// nodes. Data cluster ownership is read from the pass.
func newGroupHandler(p *pass, master *containment.Graph, nodes []*graph.Node) *groupHandler {
	h := &groupHandler{p: p, master: master, set: mapset.NewThreadUnsafeSet[graph.NodeID]()}
	for _, n := range nodes {
		h.set.Add(n.ID)
	}

	reasons := make(map[graph.NodeID]string)
	for _, c := range master.Containers() {
		if r := h.exclusion(c); r != "" {
			reasons[c.ID()] = r
		}
	}

	// Of two partially overlapping groups only the first is kept.
	retained := slices.DeleteFunc(master.Containers(), func(c *containment.Container) bool {
		_, bad := reasons[c.ID()]
		return bad
	})
	for i, a := range retained {
		if _, bad := reasons[a.ID()]; bad {
			continue
		}
		for _, b := range retained[i+1:] {
			if _, bad := reasons[b.ID()]; bad {
				continue
			}
			if partialOverlap(a, b) {
				reasons[b.ID()] = ReasonOverlapping
			}
		}
	}

	for _, c := range master.Containers() {
		if r, ok := reasons[c.ID()]; ok && r != reasonUntouched {
			h.ignored = append(h.ignored, IgnoredGroup{ID: c.ID(), Reason: r})
		}
	}
	h.sub = master.Subset(func(c *containment.Container) bool {
		_, bad := reasons[c.ID()]
		return !bad
	})
	return h
}

// exclusion returns why c cannot take part in the pass, or "".
func (h *groupHandler) exclusion(c *containment.Container) string {
	members := c.Members()
	if len(members) == 0 {
		return ReasonEmpty
	}
	touches := false
	for _, n := range members {
		if h.set.Contains(n.ID) {
			touches = true
			break
		}
	}
	if !touches {
		return reasonUntouched
	}
	for _, n := range members {
		if !h.set.Contains(n.ID) {
			return ReasonOutsideNodes
		}
		if anchor, ok := h.p.owner[n.ID]; ok && !c.Contains(anchor) {
			return ReasonDetachedData
		}
	}
	if !connected(members) {
		return ReasonDisconnected
	}
	return ""
}

// connected reports whether the wires between members join them into one
// component.
func connected(members []*graph.Node) bool {
	if len(members) < 2 {
		return true
	}
	ids := make(map[*graph.Node]int64, len(members))
	ug := simple.NewUndirectedGraph()
	for i, n := range members {
		ids[n] = int64(i)
		ug.AddNode(simple.Node(i))
	}
	for _, n := range members {
		for _, l := range n.Links() {
			j, ok := ids[l.ToNode()]
			if !ok || j == ids[n] {
				continue
			}
			ug.SetEdge(simple.Edge{F: simple.Node(ids[n]), T: simple.Node(j)})
		}
	}
	return len(topo.ConnectedComponents(ug)) == 1
}

// partialOverlap reports whether a and b share nodes without one nesting
// inside the other.
func partialOverlap(a, b *containment.Container) bool {
	if a.Contains(b.ID()) || b.Contains(a.ID()) {
		return false
	}
	for _, n := range a.Members() {
		if b.Contains(n.ID) {
			return true
		}
	}
	return false
}

// Ignored returns the groups left out of the pass.
func (h *groupHandler) Ignored() []IgnoredGroup { return slices.Clone(h.ignored) }

// retained returns the group nodes taking part in the pass.
func (h *groupHandler) retained() []*graph.Node {
	var out []*graph.Node
	for _, c := range h.sub.Containers() {
		out = append(out, c.Node)
	}
	return out
}

// contains reports whether retained group g encloses n.
func (h *groupHandler) contains(g, n *graph.Node) bool {
	c, ok := h.sub.Container(g.ID)
	return ok && c.Contains(n.ID)
}

// members returns the non-group nodes enclosed by retained group g.
func (h *groupHandler) members(g *graph.Node) []*graph.Node {
	c, ok := h.sub.Container(g.ID)
	if !ok {
		return nil
	}
	return slices.DeleteFunc(c.All(), (*graph.Node).IsGroup)
}

// bounds computes the box of retained group g from the nodes it encloses.
// Child groups enclosing asking are skipped, so a node is never pushed out
// of its own group. include limits which nodes count; nil counts all.
func (h *groupHandler) bounds(g *graph.Node, asking *graph.Node, include func(*graph.Node) bool) (geom.Rect, bool) {
	c, ok := h.sub.Container(g.ID)
	if !ok {
		return geom.Rect{}, false
	}
	return h.containerBounds(h.sub, c, asking, include, map[*containment.Container]bool{})
}

func (h *groupHandler) containerBounds(cg *containment.Graph, c *containment.Container, asking *graph.Node,
	include func(*graph.Node) bool, seen map[*containment.Container]bool) (geom.Rect, bool) {
	if seen[c] {
		return geom.Rect{}, false
	}
	seen[c] = true

	var acc geom.Bounds
	var skipped []*containment.Container
	for _, child := range c.Children() {
		if asking != nil && child.Contains(asking.ID) {
			skipped = append(skipped, child)
			continue
		}
		if r, ok := h.containerBounds(cg, child, asking, include, seen); ok {
			acc.Add(r)
		}
	}
	for _, n := range c.Members() {
		if n == asking || (include != nil && !include(n)) {
			continue
		}
		if slices.ContainsFunc(skipped, func(s *containment.Container) bool { return s.Contains(n.ID) }) {
			continue
		}
		acc.Add(h.p.rect(n))
	}
	r, ok := acc.Rect()
	if !ok {
		return geom.Rect{}, false
	}
	pad := h.p.cfg.GroupPadding.Vec()
	r = r.Expand(pad)
	r.Top -= h.p.cfg.GroupTitleHeight
	return r, true
}

// obstacles returns the boxes of retained groups that do not enclose n,
// measured over already placed members only.
func (h *groupHandler) obstacles(n *graph.Node, placed func(*graph.Node) bool) []geom.Rect {
	var out []geom.Rect
	for _, c := range h.sub.Containers() {
		if c.Contains(n.ID) {
			continue
		}
		if r, ok := h.bounds(c.Node, nil, placed); ok {
			out = append(out, r)
		}
	}
	return out
}

// updateBounds refits every group, retained or not, that encloses one of
// nodes, and returns the groups it changed.
func (h *groupHandler) updateBounds(nodes []*graph.Node) []*graph.Node {
	touched := mapset.NewThreadUnsafeSet[graph.NodeID]()
	for _, n := range nodes {
		touched.Add(n.ID)
	}
	var changed []*graph.Node
	for _, c := range h.master.Containers() {
		hit := false
		for _, n := range c.All() {
			if touched.Contains(n.ID) {
				hit = true
				break
			}
		}
		if !hit {
			continue
		}
		r, ok := h.containerBounds(h.master, c, nil, nil, map[*containment.Container]bool{})
		if !ok {
			continue
		}
		c.Node.Pos = r.Min()
		c.Node.Size = r.Size()
		h.p.drawer.Box(r, render.ColorBounds)
		changed = append(changed, c.Node)
	}
	return changed
}

// enclosing returns the innermost group of master that encloses every node,
// or nil.
func (h *groupHandler) enclosing(nodes []*graph.Node) *graph.Node {
	if len(nodes) == 0 {
		return nil
	}
	for _, c := range h.master.Containing(nodes[0].ID) {
		all := true
		for _, n := range nodes[1:] {
			if !c.Contains(n.ID) {
				all = false
				break
			}
		}
		if all {
			return c.Node
		}
	}
	return nil
}

// addKnot records a new knot as a member of group g.
func (h *groupHandler) addKnot(knot, g *graph.Node) {
	h.master.AddNode(g.ID, knot)
	if _, ok := h.sub.Container(g.ID); ok {
		h.sub.AddNode(g.ID, knot)
	}
	h.set.Add(knot.ID)
}
