package route

import (
	"cmp"
	"math"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodeformat/pkg/config"
	"github.com/matzehuels/nodeformat/pkg/geom"
	"github.com/matzehuels/nodeformat/pkg/graph"
	"github.com/matzehuels/nodeformat/pkg/render"
)

// Scene is the positioned part of a graph the router works on.
type Scene interface {
	// Nodes returns the laid out nodes, groups excluded.
	Nodes() []*graph.Node
	Rect(n *graph.Node) geom.Rect
	PinPos(p *graph.Pin) geom.Vec
	// Anchor returns the node n moves with, n itself when it moves alone.
	Anchor(n *graph.Node) *graph.Node
	// Footprint is the extent of an anchor and every node moving with it.
	Footprint(anchor *graph.Node) geom.Rect
	// Move shifts an anchor together with the nodes moving with it.
	Move(anchor *graph.Node, d geom.Vec)

	// Groups returns the groups that move as a unit.
	Groups() []*graph.Node
	GroupRect(g *graph.Node) (geom.Rect, bool)
	GroupContains(g, n *graph.Node) bool
	MoveGroup(g *graph.Node, d geom.Vec)
	// EnclosingGroup returns the innermost group containing every node, or nil.
	EnclosingGroup(nodes []*graph.Node) *graph.Node
}

// Router plans wire tracks for a scene.
type Router struct {
	cfg    config.Config
	o      geom.Orient
	scene  Scene
	drawer render.Drawer
	logger *log.Logger

	inScene map[*graph.Node]bool
}

// Option configures a [Router].
type Option func(*Router)

// WithDrawer sends track lines to d.
func WithDrawer(d render.Drawer) Option {
	return func(r *Router) { r.drawer = d }
}

// WithLogger sets the router's logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// NewRouter returns a router for scene using cfg.
func NewRouter(cfg config.Config, scene Scene, opts ...Option) *Router {
	r := &Router{
		cfg:    cfg,
		o:      cfg.Orient(),
		scene:  scene,
		drawer: render.NopDrawer{},
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Plan decides which wires need tracks and where their waypoints go.
// Execution wires are planned before data wires. The scene may be modified:
// nodes and groups in the way of stacked tracks are pushed aside.
func (r *Router) Plan() []*Track {
	r.inScene = make(map[*graph.Node]bool)
	for _, n := range r.scene.Nodes() {
		r.inScene[n] = true
	}

	var tracks []*Track
	for _, exec := range []bool{true, false} {
		for _, n := range r.scene.Nodes() {
			if n.IsKnot() {
				continue
			}
			for _, p := range n.PinsDir(graph.Output) {
				if p.Exec != exec || !p.HasLinks() {
					continue
				}
				tracks = append(tracks, r.pinTracks(p)...)
			}
		}
	}

	tracks = mergeTracks(tracks)
	r.stack(tracks)
	for _, t := range tracks {
		r.waypoints(t)
		r.fold(t)
	}
	r.logger.Debug("planned tracks", "tracks", len(tracks))
	return tracks
}

func (r *Router) style(p *graph.Pin) config.WiringStyle {
	if p.Exec {
		return r.cfg.ExecWiring
	}
	return r.cfg.ParameterWiring
}

// pinTracks plans the tracks leaving one output pin.
func (r *Router) pinTracks(src *graph.Pin) []*Track {
	o := r.o
	sp := r.scene.PinPos(src)

	var forward, looping []*graph.Pin
	for _, d := range src.Linked() {
		dn := d.Node()
		if !r.inScene[dn] || dn.IsKnot() {
			continue
		}
		if o.P(r.scene.PinPos(d)) < o.P(sp) {
			looping = append(looping, d)
		} else {
			forward = append(forward, d)
		}
	}

	var out []*Track
	for _, group := range r.split(src, forward) {
		if len(group) == 1 && !r.needsTrack(src, group[0]) {
			continue
		}
		sortByP(group, r.scene.PinPos, o)
		last := r.scene.PinPos(group[len(group)-1])
		t := &Track{
			Source: src,
			Dests:  group,
			PMin:   o.P(sp),
			PMax:   o.P(last),
		}
		t.S = r.chooseHeight(t)
		out = append(out, t)
	}
	for _, d := range looping {
		out = append(out, r.loop(src, d))
	}
	return out
}

// split groups forward destinations according to the wiring style.
func (r *Router) split(src *graph.Pin, dests []*graph.Pin) [][]*graph.Pin {
	if len(dests) == 0 {
		return nil
	}
	switch r.style(src) {
	case config.SingleWire:
		out := make([][]*graph.Pin, len(dests))
		for i, d := range dests {
			out[i] = []*graph.Pin{d}
		}
		return out
	case config.MergeWhenNear:
		o := r.o
		sorted := slices.Clone(dests)
		slices.SortStableFunc(sorted, func(a, b *graph.Pin) int {
			return cmp.Compare(o.S(r.scene.PinPos(a)), o.S(r.scene.PinPos(b)))
		})
		var out [][]*graph.Pin
		cur := []*graph.Pin{sorted[0]}
		for _, d := range sorted[1:] {
			prev := cur[len(cur)-1]
			if geom.Distance(r.scene.PinPos(prev), r.scene.PinPos(d)) > r.cfg.KnotNearDistance {
				out = append(out, cur)
				cur = nil
			}
			cur = append(cur, d)
		}
		return append(out, cur)
	default:
		return [][]*graph.Pin{slices.Clone(dests)}
	}
}

// needsTrack reports whether a lone wire must be rerouted: it is longer than
// the knot distance threshold and its straight line crosses another node.
func (r *Router) needsTrack(src, dst *graph.Pin) bool {
	a, b := r.scene.PinPos(src), r.scene.PinPos(dst)
	if math.Abs(r.o.P(b)-r.o.P(a)) <= r.cfg.KnotDistanceThreshold {
		return false
	}
	_, hit := r.obstacle(a, b, src.Node(), dst.Node())
	return hit
}

// obstacle returns the first scene node the segment crosses, skipping the
// given nodes.
func (r *Router) obstacle(a, b geom.Vec, skip ...*graph.Node) (geom.Rect, bool) {
	for _, n := range r.scene.Nodes() {
		if slices.Contains(skip, n) {
			continue
		}
		rect := r.scene.Rect(n)
		if geom.SegmentIntersectsRect(a, b, rect) {
			return rect, true
		}
	}
	return geom.Rect{}, false
}

func (r *Router) trackLine(t *Track, s float64) (geom.Vec, geom.Vec) {
	return r.o.Vec(t.PMin, s), r.o.Vec(t.PMax-r.cfg.KnotOffset, s)
}

// chooseHeight tries the source height, then each destination height, and
// sweeps away from the first obstacle when none of them is clear.
func (r *Router) chooseHeight(t *Track) float64 {
	o := r.o
	src := t.Source.Node()
	clear := func(s float64) (geom.Rect, bool) {
		a, b := r.trackLine(t, s)
		c, hit := r.obstacle(a, b, src)
		return c, !hit
	}

	candidates := []float64{o.S(r.scene.PinPos(t.Source))}
	for _, d := range t.Dests {
		candidates = append(candidates, o.S(r.scene.PinPos(d)))
	}
	for _, s := range candidates {
		if _, ok := clear(s); ok {
			return s
		}
	}

	s := candidates[0]
	c, _ := clear(s)
	up := o.SMin(c) - r.cfg.TrackSpacing
	down := o.SMax(c) + r.cfg.TrackSpacing
	dir := 1.0
	if math.Abs(up-s) < math.Abs(down-s) {
		dir = -1
		s = up
	} else {
		s = down
	}
	for range r.cfg.MaxCollisionIterations {
		c, ok := clear(s)
		if ok {
			return s
		}
		if dir < 0 {
			s = o.SMin(c) - r.cfg.TrackSpacing
		} else {
			s = o.SMax(c) + r.cfg.TrackSpacing
		}
	}
	r.logger.Debug("track height sweep exhausted", "pin", t.Source.ID)
	return s
}

// loop plans a two-waypoint track that leaves src forward, runs above both
// nodes and drops into dst from behind.
func (r *Router) loop(src, dst *graph.Pin) *Track {
	o := r.o
	sp, dp := r.scene.PinPos(src), r.scene.PinPos(dst)
	top := math.Min(o.SMin(r.scene.Rect(src.Node())), o.SMin(r.scene.Rect(dst.Node())))
	return &Track{
		Source:  src,
		Dests:   []*graph.Pin{dst},
		S:       top - r.cfg.TrackSpacing,
		PMin:    math.Min(o.P(sp), o.P(dp)) - r.cfg.KnotOffset,
		PMax:    math.Max(o.P(sp), o.P(dp)) + r.cfg.KnotOffset,
		Looping: true,
	}
}

// stack spreads forward tracks that would run on top of each other, then
// pushes foreign nodes and groups out of the way of any track it moved.
func (r *Router) stack(tracks []*Track) {
	spacing := r.cfg.TrackSpacing
	var placed []*Track
	for _, t := range tracks {
		if t.Looping {
			continue
		}
		base := t.S
		for range r.cfg.MaxCollisionIterations {
			i := slices.IndexFunc(placed, func(u *Track) bool {
				return !u.Looping && math.Abs(u.S-t.S) < spacing && t.spans(u)
			})
			if i < 0 {
				break
			}
			t.S = placed[i].S + spacing
		}
		placed = append(placed, t)
		if math.Abs(t.S-base) > 0.5 {
			r.pushClear(t)
		}
	}
}

// pushClear moves nodes and groups that do not belong to t off its line. A
// node in a data cluster takes its whole cluster along.
func (r *Router) pushClear(t *Track) {
	o := r.o
	half := r.cfg.TrackSpacing / 2
	band := o.Rect(t.PMin, t.PMax, t.S-half, t.S+half)
	ends := t.endpoints()

	for _, g := range r.scene.Groups() {
		if slices.ContainsFunc(ends, func(n *graph.Node) bool { return r.scene.GroupContains(g, n) }) {
			continue
		}
		gr, ok := r.scene.GroupRect(g)
		if !ok || !gr.Intersects(band) {
			continue
		}
		r.scene.MoveGroup(g, o.Vec(0, o.SMax(band)-o.SMin(gr)))
	}
	moved := make(map[*graph.Node]bool)
	for _, n := range r.scene.Nodes() {
		a := r.scene.Anchor(n)
		if moved[a] || slices.Contains(ends, n) || slices.Contains(ends, a) {
			continue
		}
		if !r.scene.Rect(n).Intersects(band) {
			continue
		}
		moved[a] = true
		r.scene.Move(a, o.Vec(0, o.SMax(band)-o.SMin(r.scene.Footprint(a))))
	}
}

// waypoints lays out the bend points of t at its final height.
func (r *Router) waypoints(t *Track) {
	o := r.o
	off := r.cfg.KnotOffset
	sp := r.scene.PinPos(t.Source)

	if t.Looping {
		dp := r.scene.PinPos(t.Dests[0])
		t.Waypoints = []*Waypoint{
			{Pos: o.Vec(o.P(sp)+off, t.S)},
			{Pos: o.Vec(o.P(dp)-off, t.S), Pins: slices.Clone(t.Dests)},
		}
		r.drawer.Line(t.Waypoints[0].Pos, t.Waypoints[1].Pos, render.ColorTrack)
		return
	}

	var wps []*Waypoint
	if math.Abs(o.S(sp)-t.S) > 0.5 {
		wps = append(wps, &Waypoint{Pos: o.Vec(o.P(sp)+off, t.S)})
	}
	dests := slices.Clone(t.Dests)
	sortByP(dests, r.scene.PinPos, o)
	for _, d := range dests {
		dp := r.scene.PinPos(d)
		wps = append(wps, &Waypoint{Pos: o.Vec(o.P(dp)-off, t.S), Pins: []*graph.Pin{d}})
	}
	t.Waypoints = mergeWaypoints(wps, r.cfg.KnotMergeDistance)
	for i := 1; i < len(t.Waypoints); i++ {
		r.drawer.Line(t.Waypoints[i-1].Pos, t.Waypoints[i].Pos, render.ColorTrack)
	}
}

// fold assigns each waypoint to the innermost group enclosing the nodes it
// joins.
func (r *Router) fold(t *Track) {
	for _, w := range t.Waypoints {
		nodes := []*graph.Node{t.Source.Node()}
		pins := w.Pins
		if len(pins) == 0 {
			pins = t.Dests
		}
		for _, p := range pins {
			nodes = append(nodes, p.Node())
		}
		w.Group = r.scene.EnclosingGroup(nodes)
	}
}
