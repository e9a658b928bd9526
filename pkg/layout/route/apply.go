package route

import (
	"fmt"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/nodeformat/pkg/geom"
	"github.com/matzehuels/nodeformat/pkg/graph"
)

// KnotTitle is the title given to created waypoint nodes.
const KnotTitle = "Reroute"

// Apply turns the waypoints of tracks into knot nodes of g and rewires the
// source pins through them. knotSize is the footprint of one knot; knots are
// centered on their waypoint. onKnot, if not nil, is called for each created
// knot together with the group it belongs to, which may be nil.
func Apply(g *graph.Graph, tracks []*Track, knotSize geom.Vec, onKnot func(knot, group *graph.Node)) ([]*graph.Node, error) {
	var created []*graph.Node
	for _, t := range tracks {
		prev := t.Source
		for _, w := range t.Waypoints {
			k, in, out, err := addKnot(g, w, knotSize, t.Source.Exec)
			if err != nil {
				return created, err
			}
			created = append(created, k)
			w.Knot = k
			if onKnot != nil {
				onKnot(k, w.Group)
			}
			if err := graph.LinkPins(prev, in); err != nil {
				return created, fmt.Errorf("link %s to knot %s: %w", prev.ID, k.ID, err)
			}
			for _, d := range w.Pins {
				graph.UnlinkPins(t.Source, d)
				if err := graph.LinkPins(out, d); err != nil {
					return created, fmt.Errorf("link knot %s to %s: %w", k.ID, d.ID, err)
				}
			}
			prev = out
		}
	}
	return created, nil
}

func addKnot(g *graph.Graph, w *Waypoint, size geom.Vec, exec bool) (*graph.Node, *graph.Pin, *graph.Pin, error) {
	id := graph.NodeID("knot-" + uuid.NewString())
	k := &graph.Node{
		ID:    id,
		Title: KnotTitle,
		Kind:  graph.KindKnot,
		Pos:   r2.Sub(w.Pos, r2.Scale(0.5, size)),
		Size:  size,
	}
	if err := g.AddNode(k); err != nil {
		return nil, nil, nil, err
	}
	in, err := g.AddPin(id, graph.Pin{ID: graph.PinID(string(id) + ".in"), Dir: graph.Input, Exec: exec})
	if err != nil {
		return nil, nil, nil, err
	}
	out, err := g.AddPin(id, graph.Pin{ID: graph.PinID(string(id) + ".out"), Dir: graph.Output, Exec: exec})
	if err != nil {
		return nil, nil, nil, err
	}
	return k, in, out, nil
}
