package layout

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/nodeformat/pkg/config"
	"github.com/matzehuels/nodeformat/pkg/containment"
	"github.com/matzehuels/nodeformat/pkg/errors"
	"github.com/matzehuels/nodeformat/pkg/geom"
	"github.com/matzehuels/nodeformat/pkg/graph"
	"github.com/matzehuels/nodeformat/pkg/layout/route"
	"github.com/matzehuels/nodeformat/pkg/measure"
	"github.com/matzehuels/nodeformat/pkg/observability"
	"github.com/matzehuels/nodeformat/pkg/render"
)

// Status describes what a format request did.
type Status string

const (
	// StatusFormatted means the passes ran and nodes were moved.
	StatusFormatted Status = "formatted"
	// StatusSkipped means nothing changed since the previous pass.
	StatusSkipped Status = "skipped"
	// StatusDeferred means some node sizes are still unknown.
	StatusDeferred Status = "deferred"
)

// Result reports the outcome of formatting one root.
type Result struct {
	Root      graph.NodeID         `json:"root"`
	Status    Status               `json:"status"`
	Formatter config.FormatterKind `json:"formatter,omitempty"`
	Nodes     []graph.NodeID       `json:"nodes,omitempty"`
	Knots     []graph.NodeID       `json:"knots,omitempty"`
	Bounds    geom.Rect            `json:"bounds"`
	// Passes is the number of overlap verification rounds that ran.
	Passes int `json:"passes"`
	// Incomplete is set when overlaps remained after every round.
	Incomplete    bool           `json:"incomplete,omitempty"`
	Missing       []graph.NodeID `json:"missing,omitempty"`
	IgnoredGroups []IgnoredGroup `json:"ignored_groups,omitempty"`
	Duration      time.Duration  `json:"duration"`
}

// Engine formats graphs. It keeps the snapshots and data cluster layouts of
// earlier requests so unchanged subgraphs are not laid out twice.
//
// An Engine may be shared between goroutines; requests are serialized.
type Engine struct {
	Config config.Config
	Sizes  measure.SizeProvider
	// Pins places pins on their nodes. Nil uses the size provider's measured
	// offsets where it has them and [measure.StackedPins] otherwise.
	Pins measure.PinProvider
	// Drawer receives the debug overlay when Config.Debug is set.
	Drawer render.Drawer
	Logger *log.Logger

	mu        sync.Mutex
	snapshots map[graph.NodeID]*snapshot
	params    map[graph.NodeID]*paramFormatter
}

// EngineOption configures an [Engine].
type EngineOption func(*Engine)

// WithPins sets the pin position provider.
func WithPins(p measure.PinProvider) EngineOption {
	return func(e *Engine) { e.Pins = p }
}

// WithDrawer sets the debug overlay sink.
func WithDrawer(d render.Drawer) EngineOption {
	return func(e *Engine) { e.Drawer = d }
}

// WithLogger sets the engine's logger.
func WithLogger(l *log.Logger) EngineOption {
	return func(e *Engine) { e.Logger = l }
}

// NewEngine validates cfg and returns an engine reading node sizes from sizes.
func NewEngine(cfg config.Config, sizes measure.SizeProvider, opts ...EngineOption) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "layout config")
	}
	if sizes == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "size provider is required")
	}
	e := &Engine{
		Config:    cfg,
		Sizes:     sizes,
		snapshots: make(map[graph.NodeID]*snapshot),
		params:    make(map[graph.NodeID]*paramFormatter),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.Logger == nil {
		e.Logger = log.Default()
	}
	if e.Pins == nil {
		e.Pins = defaultPins(cfg, sizes)
	}
	return e, nil
}

// defaultPins stacks pins along the configured direction, preferring any
// offsets the size provider has measured.
func defaultPins(cfg config.Config, sizes measure.SizeProvider) measure.PinProvider {
	sp := measure.DefaultStackedPins()
	sp.Orient = cfg.Orient()
	switch v := sizes.(type) {
	case measure.MeasuredPins:
		return measure.Overlay(v, sp)
	case measure.PinProvider:
		return v
	}
	return sp
}

func (e *Engine) newPass(g *graph.Graph) *pass {
	var d render.Drawer = render.NopDrawer{}
	if e.Config.Debug && e.Drawer != nil {
		d = e.Drawer
	}
	return &pass{
		cfg:    e.Config,
		o:      e.Config.Orient(),
		g:      g,
		sizes:  e.Sizes,
		pins:   e.Pins,
		drawer: d,
		logger: e.Logger,
		params: make(map[graph.NodeID]*paramFormatter),
		owner:  make(map[graph.NodeID]graph.NodeID),
		cache:  e.params,
	}
}

// NewFormatter returns the formatter configured for g's type, rooted at root.
// Calling Format on it moves nodes without routing, verification or
// snapshots; most callers want [Engine.Format].
func (e *Engine) NewFormatter(g *graph.Graph, root *graph.Node) *Formatter {
	return newFormatter(e.Config.FormatterFor(g.Type), e.newPass(g), root, containment.Build(g))
}

// Invalidate forgets the snapshot of root so the next request for it runs
// the full passes.
func (e *Engine) Invalidate(root graph.NodeID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.snapshots, root)
}

// Reset forgets every snapshot and cached data cluster.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.snapshots = make(map[graph.NodeID]*snapshot)
	e.params = make(map[graph.NodeID]*paramFormatter)
}

// Format lays out the subgraph around the node with the given ID. The node
// itself keeps its position; everything else moves around it. Requesting a
// group formats the subgraph of its first member.
func (e *Engine) Format(ctx context.Context, g *graph.Graph, id graph.NodeID) (*Result, error) {
	n, ok := g.Node(id)
	if !ok {
		return nil, errors.New(errors.ErrCodeNodeNotFound, "node %q not found", id)
	}
	if n.IsGroup() {
		m := firstMember(g, n)
		if m == nil {
			e.Logger.Debug("group has no members", "group", n.ID)
			return &Result{Root: n.ID, Status: StatusSkipped}, nil
		}
		n = m
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.format(ctx, g, n)
}

func firstMember(g *graph.Graph, grp *graph.Node) *graph.Node {
	for _, id := range grp.Contains {
		if m, ok := g.Node(id); ok && !m.IsGroup() && !m.IsKnot() {
			return m
		}
	}
	return nil
}

func (e *Engine) format(ctx context.Context, g *graph.Graph, keep *graph.Node) (*Result, error) {
	start := time.Now()
	hooks := observability.Format()
	cfg := e.Config
	root := FindRoot(keep)
	res := &Result{Root: root.ID}

	tree := graph.NodeTree(root, graph.TraverseOptions{})
	if missing := measure.Missing(e.Sizes, tree); len(missing) > 0 {
		for _, m := range missing {
			res.Missing = append(res.Missing, m.ID)
		}
		res.Status = StatusDeferred
		e.Logger.Debug("format deferred", "root", root.ID, "missing", len(missing))
		hooks.OnFormatDeferred(ctx, string(root.ID), len(missing))
		return res, nil
	}

	p := e.newPass(g)
	digest := shapeDigest(root, cfg, p.size)
	if snap := e.snapshots[root.ID]; snap != nil && snap.keepStill == keep.ID && snap.unchanged(g, digest) {
		snap.restore(g)
		res.Status = StatusSkipped
		res.Duration = time.Since(start)
		e.Logger.Debug("format skipped", "root", root.ID)
		hooks.OnFormatSkipped(ctx, string(root.ID))
		return res, nil
	}

	kind := cfg.FormatterFor(g.Type)
	routing := kind == config.General && cfg.CreateKnots
	if keep.IsKnot() {
		keep = root
	}
	keepPos := keep.Pos
	if routing {
		for _, k := range tree {
			if k.IsKnot() {
				if err := g.DissolveKnot(k.ID); err != nil {
					return nil, errors.Wrap(errors.ErrCodeInternal, err, "dissolve knot %s", k.ID)
				}
			}
		}
	}

	hooks.OnFormatStart(ctx, string(root.ID), len(tree))
	f := newFormatter(kind, p, root, containment.Build(g))
	f.Format()
	res.Formatter = f.Kind
	formatted := f.FormattedNodes()

	for _, ig := range p.groups.Ignored() {
		e.Logger.Debug("group ignored", "group", ig.ID, "reason", ig.Reason)
		hooks.OnGroupIgnored(ctx, string(ig.ID), ig.Reason)
	}
	res.IgnoredGroups = p.groups.Ignored()

	knots, passes, overlaps, err := e.settle(p, formatted, routing)
	if err != nil {
		err = errors.Wrap(errors.ErrCodeInternal, err, "route wires")
		hooks.OnFormatComplete(ctx, string(root.ID), observability.FormatStats{Formatter: string(kind)}, err)
		return nil, err
	}
	res.Passes = passes
	if overlaps > 0 {
		res.Incomplete = true
		e.Logger.Warn("could not fully auto-format", "root", root.ID, "overlaps", overlaps)
		hooks.OnIncomplete(ctx, string(root.ID), overlaps)
	}
	for _, k := range knots {
		res.Knots = append(res.Knots, k.ID)
	}
	moved := append(formatted[:len(formatted):len(formatted)], knots...)

	if d := r2.Sub(keepPos, keep.Pos); d != (geom.Vec{}) {
		for _, m := range moved {
			p.move(m, d)
		}
	}
	if cfg.SnapToGrid {
		for _, m := range moved {
			m.Pos = geom.SnapVec(m.Pos, cfg.GridSize)
		}
	}
	groups := p.groups.updateBounds(moved)

	for _, m := range formatted {
		res.Nodes = append(res.Nodes, m.ID)
	}
	res.Bounds = f.Bounds()
	res.Status = StatusFormatted
	res.Duration = time.Since(start)

	recorded := append(moved[:len(moved):len(moved)], groups...)
	e.snapshots[root.ID] = takeSnapshot(keep, shapeDigest(root, cfg, p.size), recorded)

	hooks.OnFormatComplete(ctx, string(root.ID), observability.FormatStats{
		Formatter:   string(res.Formatter),
		Nodes:       len(formatted),
		KnotsAdded:  len(res.Knots),
		Passes:      passes,
		Incomplete:  res.Incomplete,
		Duration:    res.Duration,
		GroupsMoved: len(groups),
	}, nil)
	return res, nil
}

// settle pushes apart nodes that still overlap, then plans and creates wire
// tracks around the settled positions when routing is set. It returns the
// knots created, the verification rounds run and the overlaps left.
func (e *Engine) settle(p *pass, nodes []*graph.Node, routing bool) ([]*graph.Node, int, int, error) {
	passes, overlaps := e.verify(p, nodes)
	if !routing {
		return nil, passes, overlaps, nil
	}
	sc := &scene{p: p, nodes: nodes}
	router := route.NewRouter(e.Config, sc, route.WithDrawer(p.drawer), route.WithLogger(e.Logger))
	knots, err := route.Apply(p.g, router.Plan(), e.Config.KnotSize.Vec(), func(k, grp *graph.Node) {
		if grp != nil {
			p.groups.addKnot(k, grp)
		}
	})
	if err != nil {
		return nil, passes, overlaps, err
	}
	return knots, passes, overlaps, nil
}

// verify looks for rectangles that still overlap and pushes the later node of
// each pair clear, up to MaxFormatPasses rounds. It returns the rounds run
// and the number of overlapping pairs left.
func (e *Engine) verify(p *pass, nodes []*graph.Node) (int, int) {
	o := p.o
	gap := p.padS(p.cfg.ParameterPadding)
	passes := 0
	for passes < p.cfg.MaxFormatPasses {
		pairs := overlapping(p, nodes)
		if len(pairs) == 0 {
			return passes, 0
		}
		passes++
		for _, pr := range pairs {
			a, b := p.rect(pr[0]), p.rect(pr[1])
			if !a.Intersects(b) {
				continue
			}
			p.drawer.Box(b, render.ColorCollision)
			p.move(pr[1], o.Vec(0, o.SMax(a)+gap-o.SMin(b)))
		}
	}
	return passes, len(overlapping(p, nodes))
}

// overlapping returns the pairs of nodes whose rectangles intersect.
func overlapping(p *pass, nodes []*graph.Node) [][2]*graph.Node {
	var out [][2]*graph.Node
	for i, a := range nodes {
		ra := p.rect(a)
		for _, b := range nodes[i+1:] {
			if ra.Intersects(p.rect(b)) {
				out = append(out, [2]*graph.Node{a, b})
			}
		}
	}
	return out
}
