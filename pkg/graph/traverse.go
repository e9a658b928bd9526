package graph

import (
	"slices"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// LinkFilter reports whether a traversal may follow a link.
type LinkFilter func(PinLink) bool

// ExecLinks follows only execution wires.
func ExecLinks(l PinLink) bool { return l.IsExec() }

// DataLinks follows only data wires.
func DataLinks(l PinLink) bool { return !l.IsExec() }

// AllLinks follows every wire.
func AllLinks(PinLink) bool { return true }

// TraverseOptions controls [NodeTree].
type TraverseOptions struct {
	// Filter limits the links followed. Nil follows every link.
	Filter LinkFilter
	// Dir, when Restrict is set, limits traversal to links leaving a pin
	// facing that direction.
	Dir      Direction
	Restrict bool
	// InitialOnly applies the direction restriction to the start node's links
	// only; later hops may go either way.
	InitialOnly bool
	// SkipGroups excludes group nodes from the result. Groups have no pins,
	// so this only matters for callers that seed the walk with a group.
	SkipGroups bool
}

// NodeTree returns every node reachable from start, start first, in
// breadth-first discovery order.
func NodeTree(start *Node, opts TraverseOptions) []*Node {
	filter := opts.Filter
	if filter == nil {
		filter = AllLinks
	}
	seen := mapset.NewThreadUnsafeSet[*Node](start)
	out := []*Node{start}
	queue := []*Node{start}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		restrict := opts.Restrict && (!opts.InitialOnly || n == start)
		for _, l := range n.Links() {
			if restrict && l.From.Dir != opts.Dir {
				continue
			}
			if !filter(l) {
				continue
			}
			next := l.ToNode()
			if seen.Contains(next) {
				continue
			}
			seen.Add(next)
			out = append(out, next)
			queue = append(queue, next)
		}
	}
	if opts.SkipGroups {
		out = slices.DeleteFunc(out, (*Node).IsGroup)
	}
	return out
}

// ExecTree returns the nodes connected to start through execution wires in
// either direction. Knots on execution wires are traversed.
func ExecTree(start *Node) []*Node {
	return NodeTree(start, TraverseOptions{Filter: ExecLinks})
}

// LinkedPins returns the links leaving n through pins facing dir that pass
// filter. A nil filter accepts every link.
func LinkedPins(n *Node, dir Direction, filter LinkFilter) []PinLink {
	var out []PinLink
	for _, p := range n.pins {
		if p.Dir != dir {
			continue
		}
		for _, l := range p.Links() {
			if filter == nil || filter(l) {
				out = append(out, l)
			}
		}
	}
	return out
}

// LinkedNodes returns the distinct nodes linked to n through pins facing dir,
// in pin order.
func LinkedNodes(n *Node, dir Direction, filter LinkFilter) []*Node {
	seen := mapset.NewThreadUnsafeSet[*Node]()
	var out []*Node
	for _, l := range LinkedPins(n, dir, filter) {
		o := l.ToNode()
		if seen.Contains(o) {
			continue
		}
		seen.Add(o)
		out = append(out, o)
	}
	return out
}

// ResolvePin returns the non-knot pins reachable from p, following wires
// through any chain of knots. The result is in link order.
func ResolvePin(p *Pin) []*Pin {
	var out []*Pin
	seen := mapset.NewThreadUnsafeSet[*Pin]()
	var walk func(p *Pin)
	walk = func(p *Pin) {
		for _, o := range p.links {
			if seen.Contains(o) {
				continue
			}
			seen.Add(o)
			if o.node.Kind != KindKnot {
				out = append(out, o)
				continue
			}
			for _, kp := range o.node.pins {
				if kp.Dir != o.Dir {
					walk(kp)
				}
			}
		}
	}
	walk(p)
	return out
}

// LinkSignature summarizes a node's wiring as a stable string. Links are
// resolved through knots, so rerouting a wire does not change the signature.
func LinkSignature(n *Node) string {
	var parts []string
	for _, p := range n.pins {
		for _, o := range ResolvePin(p) {
			parts = append(parts, string(p.ID)+">"+string(o.ID))
		}
	}
	slices.Sort(parts)
	return strings.Join(parts, ",")
}

// DissolveKnot removes a knot node and wires each pin feeding it directly to
// each pin it fed. Group membership of the knot is dropped with it.
func (g *Graph) DissolveKnot(id NodeID) error {
	k, ok := g.byID[id]
	if !ok {
		return ErrUnknownNode
	}
	if k.Kind != KindKnot {
		return nil
	}
	var sources, targets []*Pin
	for _, p := range k.pins {
		if p.Dir == Input {
			sources = append(sources, p.links...)
		} else {
			targets = append(targets, p.links...)
		}
	}
	g.RemoveNode(id)
	for _, s := range sources {
		for _, t := range targets {
			if s.node == t.node {
				continue
			}
			if err := LinkPins(s, t); err != nil {
				return err
			}
		}
	}
	return nil
}
