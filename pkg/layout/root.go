package layout

import (
	"github.com/matzehuels/nodeformat/pkg/graph"
)

// FindRoot returns the node a format request for n starts from.
//
// For an execution node the candidates are, in order: a node of the execution
// tree marked ExtraRoot, the nearest upstream event node, and the nearest
// upstream node with no incoming execution wire. A pure node walks its data
// outputs downstream; the first execution node reached is resolved as above,
// otherwise the deepest pure sink is the root.
func FindRoot(n *graph.Node) *graph.Node {
	if n == nil {
		return nil
	}
	if n.IsKnot() {
		if next := throughKnot(n); next != nil {
			n = next
		}
	}
	if !n.HasExec() {
		return pureRoot(n)
	}
	return execRoot(n)
}

func execRoot(n *graph.Node) *graph.Node {
	for _, m := range graph.ExecTree(n) {
		if m.ExtraRoot && !m.IsKnot() {
			return m
		}
	}

	upstream := graph.NodeTree(n, graph.TraverseOptions{
		Filter:   graph.ExecLinks,
		Dir:      graph.Input,
		Restrict: true,
	})
	for _, m := range upstream {
		if m.Kind == graph.KindEvent {
			return m
		}
	}
	for _, m := range upstream {
		if m.IsKnot() {
			continue
		}
		if len(graph.LinkedPins(m, graph.Input, graph.ExecLinks)) == 0 {
			return m
		}
	}
	// The upstream walk is a cycle with no entry point.
	return n
}

func pureRoot(n *graph.Node) *graph.Node {
	seen := map[*graph.Node]bool{n: true}
	deepest := n
	level := []*graph.Node{n}
	for len(level) > 0 {
		var next []*graph.Node
		for _, m := range level {
			for _, o := range graph.LinkedNodes(m, graph.Output, graph.DataLinks) {
				if seen[o] {
					continue
				}
				seen[o] = true
				if o.HasExec() {
					return execRoot(o)
				}
				if !o.IsKnot() {
					deepest = o
				}
				next = append(next, o)
			}
		}
		level = next
	}
	return deepest
}

// throughKnot returns the first non-knot node downstream of a knot, or the
// first upstream one if the knot feeds nothing.
func throughKnot(k *graph.Node) *graph.Node {
	for _, d := range []graph.Direction{graph.Output, graph.Input} {
		for _, p := range k.PinsDir(d) {
			if pins := graph.ResolvePin(p); len(pins) > 0 {
				return pins[0].Node()
			}
		}
	}
	return nil
}
