package layout

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/nodeformat/pkg/config"
	"github.com/matzehuels/nodeformat/pkg/geom"
	"github.com/matzehuels/nodeformat/pkg/graph"
)

// snapshot remembers the outcome of a format request so an identical request
// can be answered without running the passes again.
type snapshot struct {
	keepStill graph.NodeID
	digest    string
	// relative holds positions measured from the keep-still node.
	relative map[graph.NodeID]geom.Vec
	absolute map[graph.NodeID]geom.Vec
}

// shapeDigest summarizes everything a format pass over root depends on
// except positions: membership, sizes, wiring and configuration.
func shapeDigest(root *graph.Node, cfg config.Config, size func(*graph.Node) geom.Vec) string {
	parts := []any{cfg}
	for _, n := range graph.NodeTree(root, graph.TraverseOptions{}) {
		if n.IsKnot() {
			continue
		}
		parts = append(parts, string(n.ID), size(n), graph.LinkSignature(n))
	}
	return hashParts(parts...)
}

func takeSnapshot(keep *graph.Node, digest string, nodes []*graph.Node) *snapshot {
	s := &snapshot{
		keepStill: keep.ID,
		digest:    digest,
		relative:  make(map[graph.NodeID]geom.Vec, len(nodes)),
		absolute:  make(map[graph.NodeID]geom.Vec, len(nodes)),
	}
	for _, n := range nodes {
		s.absolute[n.ID] = n.Pos
		s.relative[n.ID] = r2.Sub(n.Pos, keep.Pos)
	}
	return s
}

// unchanged reports whether g still matches the snapshot: the digest is the
// same and every recorded node sits either where the pass left it or at its
// recorded offset from the keep-still node.
func (s *snapshot) unchanged(g *graph.Graph, digest string) bool {
	if s == nil || s.digest != digest {
		return false
	}
	keep, ok := g.Node(s.keepStill)
	if !ok {
		return false
	}
	atAbs, atRel := true, true
	for id, abs := range s.absolute {
		n, ok := g.Node(id)
		if !ok {
			return false
		}
		if id == s.keepStill {
			continue
		}
		if !near(n.Pos, abs) {
			atAbs = false
		}
		if !near(n.Pos, r2.Add(keep.Pos, s.relative[id])) {
			atRel = false
		}
		if !atAbs && !atRel {
			return false
		}
	}
	return true
}

// restore puts every recorded node at its offset from the keep-still node.
func (s *snapshot) restore(g *graph.Graph) {
	keep, ok := g.Node(s.keepStill)
	if !ok {
		return
	}
	for id, off := range s.relative {
		if n, ok := g.Node(id); ok && id != s.keepStill {
			n.Pos = r2.Add(keep.Pos, off)
		}
	}
}

func near(a, b geom.Vec) bool {
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Y-b.Y) < eps
}
