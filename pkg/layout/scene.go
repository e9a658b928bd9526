package layout

import (
	"github.com/matzehuels/nodeformat/pkg/geom"
	"github.com/matzehuels/nodeformat/pkg/graph"
	"github.com/matzehuels/nodeformat/pkg/layout/route"
)

// scene exposes a finished pass to the router.
type scene struct {
	p     *pass
	nodes []*graph.Node
}

var _ route.Scene = (*scene)(nil)

func (s *scene) Nodes() []*graph.Node                { return s.nodes }
func (s *scene) Rect(n *graph.Node) geom.Rect        { return s.p.rect(n) }
func (s *scene) PinPos(p *graph.Pin) geom.Vec        { return s.p.pinPos(p) }
func (s *scene) Footprint(n *graph.Node) geom.Rect   { return s.p.clusterRect(n) }
func (s *scene) Move(n *graph.Node, d geom.Vec)      { s.p.moveCluster(n, d) }
func (s *scene) Groups() []*graph.Node               { return s.p.groups.retained() }
func (s *scene) GroupContains(g, n *graph.Node) bool { return s.p.groups.contains(g, n) }

func (s *scene) Anchor(n *graph.Node) *graph.Node {
	if id, ok := s.p.owner[n.ID]; ok {
		if a, ok := s.p.g.Node(id); ok {
			return a
		}
	}
	return n
}

func (s *scene) GroupRect(g *graph.Node) (geom.Rect, bool) {
	return s.p.groups.bounds(g, nil, nil)
}

func (s *scene) MoveGroup(g *graph.Node, d geom.Vec) {
	for _, n := range s.p.groups.members(g) {
		s.p.move(n, d)
	}
}

func (s *scene) EnclosingGroup(nodes []*graph.Node) *graph.Node {
	return s.p.groups.enclosing(nodes)
}
