package layout

import (
	"math"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/nodeformat/pkg/config"
	"github.com/matzehuels/nodeformat/pkg/geom"
	"github.com/matzehuels/nodeformat/pkg/graph"
	"github.com/matzehuels/nodeformat/pkg/measure"
	"github.com/matzehuels/nodeformat/pkg/render"
)

// eps is the tolerance below which two coordinates are treated as equal.
const eps = 0.5

// pass is the state shared by every solver during one format request.
type pass struct {
	cfg    config.Config
	o      geom.Orient
	g      *graph.Graph
	sizes  measure.SizeProvider
	pins   measure.PinProvider
	drawer render.Drawer
	logger *log.Logger

	// params maps an execution node to the data cluster laid out beside it.
	params map[graph.NodeID]*paramFormatter
	// owner maps a pure node to the execution node whose cluster claimed it.
	owner map[graph.NodeID]graph.NodeID
	// cache holds data clusters from earlier passes, keyed by anchor.
	cache map[graph.NodeID]*paramFormatter

	groups *groupHandler
}

func (p *pass) size(n *graph.Node) geom.Vec {
	switch {
	case n.IsGroup():
		return n.Size
	case n.IsKnot():
		return p.cfg.KnotSize.Vec()
	}
	if s, ok := p.sizes.Size(n); ok {
		return s
	}
	return geom.Vec{}
}

func (p *pass) rect(n *graph.Node) geom.Rect { return geom.RectAt(n.Pos, p.size(n)) }

func (p *pass) pinPos(pin *graph.Pin) geom.Vec {
	n := pin.Node()
	return r2.Add(n.Pos, p.pins.PinOffset(pin, p.size(n)))
}

func (p *pass) move(n *graph.Node, d geom.Vec) { n.Pos = r2.Add(n.Pos, d) }

// clusterRect is the node's rectangle united with its data cluster.
func (p *pass) clusterRect(n *graph.Node) geom.Rect {
	r := p.rect(n)
	if pf := p.params[n.ID]; pf != nil {
		r = r.Union(pf.bounds(p))
	}
	return r
}

// moveCluster moves a node together with its data cluster.
func (p *pass) moveCluster(n *graph.Node, d geom.Vec) {
	p.move(n, d)
	if pf := p.params[n.ID]; pf != nil {
		for _, m := range pf.members {
			p.move(m, d)
		}
	}
}

// padP returns the primary component of a padding vector.
func (p *pass) padP(v config.Vec2) float64 { return p.o.P(v.Vec()) }

// padS returns the secondary component of a padding vector.
func (p *pass) padS(v config.Vec2) float64 { return p.o.S(v.Vec()) }

// collides reports whether a and b are closer than pad on both axes.
// Rectangles exactly pad apart do not collide.
func collides(a, b geom.Rect, pad geom.Vec) bool {
	half := r2.Scale(0.5, pad)
	return a.Expand(half).Intersects(b.Expand(half))
}

func (p *pass) round(v float64) float64 { return geom.RoundTo(v, p.cfg.GridSize) }

// ceilGrid rounds v up to the next multiple of the grid size.
func (p *pass) ceilGrid(v float64) float64 {
	if p.cfg.GridSize <= 0 {
		return v
	}
	return math.Ceil(v/p.cfg.GridSize) * p.cfg.GridSize
}
