package layout

import (
	"github.com/matzehuels/nodeformat/pkg/config"
	"github.com/matzehuels/nodeformat/pkg/containment"
	"github.com/matzehuels/nodeformat/pkg/geom"
	"github.com/matzehuels/nodeformat/pkg/graph"
)

// Formatter lays out the subgraph under one root. The concrete algorithm is
// chosen by Kind; every method switches on it.
type Formatter struct {
	Kind config.FormatterKind

	p       *pass
	root    *graph.Node
	master  *containment.Graph
	general *generalFormatter
	tree    *treeFormatter
	simple  *simpleFormatter
}

// newFormatter creates the formatter for kind. Unknown kinds fall back to
// [config.General].
func newFormatter(kind config.FormatterKind, p *pass, root *graph.Node, master *containment.Graph) *Formatter {
	f := &Formatter{Kind: kind, p: p, root: root, master: master}
	switch kind {
	case config.Tree:
		f.tree = &treeFormatter{p: p, root: root}
	case config.Simple:
		f.simple = &simpleFormatter{p: p, root: root}
	default:
		f.Kind = config.General
		f.general = &generalFormatter{p: p, root: root}
	}
	return f
}

// Format runs the algorithm, moving nodes in place.
func (f *Formatter) Format() {
	switch f.Kind {
	case config.Tree:
		f.tree.collect()
		f.p.groups = newGroupHandler(f.p, f.master, f.tree.nodes)
		f.tree.format()
	case config.Simple:
		f.simple.collect()
		f.p.groups = newGroupHandler(f.p, f.master, f.simple.nodes)
		f.simple.format()
	default:
		f.general.collect()
		f.p.groups = newGroupHandler(f.p, f.master, f.general.nodes)
		f.general.format()
	}
}

// FormattedNodes returns the nodes the formatter positioned.
func (f *Formatter) FormattedNodes() []*graph.Node {
	switch f.Kind {
	case config.Tree:
		return f.tree.nodes
	case config.Simple:
		return f.simple.nodes
	default:
		return f.general.nodes
	}
}

// Bounds returns the union of the formatted nodes' rectangles.
func (f *Formatter) Bounds() geom.Rect {
	var b geom.Bounds
	for _, n := range f.FormattedNodes() {
		b.Add(f.p.rect(n))
	}
	r, _ := b.Rect()
	return r
}

// RootNode returns the node the formatter started from.
func (f *Formatter) RootNode() *graph.Node { return f.root }

// ===== General =====

// generalFormatter is the two-axis solver for execution flow with data
// clusters beside each execution node.
type generalFormatter struct {
	p    *pass
	root *graph.Node
	// exec holds the execution nodes, root first; empty for data-only roots.
	exec  []*graph.Node
	nodes []*graph.Node
	tree  *spanTree
}

func (f *generalFormatter) collect() {
	p := f.p
	claimed := p.owner
	var anchors []*graph.Node
	if f.root.HasExec() {
		for _, n := range graph.ExecTree(f.root) {
			if n.IsKnot() || n.IsGroup() {
				continue
			}
			f.exec = append(f.exec, n)
		}
		anchors = f.exec
	} else {
		anchors = []*graph.Node{f.root}
	}

	f.nodes = append(f.nodes, anchors...)
	for _, a := range anchors {
		pf := collectParams(a, claimed, func(n *graph.Node) bool { return !n.IsKnot() })
		p.params[a.ID] = pf
		f.nodes = append(f.nodes, pf.members...)
	}
}

func (f *generalFormatter) format() {
	p := f.p
	for _, n := range f.nodesWithParams() {
		pf := p.params[n.ID]
		sig := pf.shape(p)
		if cached := p.cache[n.ID]; cached != nil && cached.signature == sig && len(cached.relative) == len(pf.members) {
			pf.adopt(cached)
			pf.reapply()
			p.logger.Debug("reused data cluster", "anchor", n.ID, "members", len(pf.members))
		} else {
			pf.format(p)
			pf.signature = sig
			pf.record()
		}
		p.cache[n.ID] = pf
	}

	if len(f.exec) == 0 {
		return
	}

	inTree := make(map[*graph.Node]bool, len(f.exec))
	for _, n := range f.exec {
		inTree[n] = true
	}
	follow := func(l graph.PinLink) bool {
		return l.IsExec() && inTree[l.FromNode()] && inTree[l.ToNode()]
	}
	pad := geom.V(p.padP(p.cfg.Padding), p.padS(p.cfg.Padding))

	prim := &primarySolver{p: p, follow: follow, bounds: p.clusterRect, move: p.moveCluster, padding: pad.X}
	f.tree = prim.solve(f.root)
	if p.cfg.ExpandInputClusters {
		prim.expand(f.tree)
	}

	sec := &secondarySolver{
		p: p, t: f.tree, bounds: p.clusterRect, move: p.moveCluster,
		padding:   pad,
		obstacles: p.groups.obstacles,
		center:    p.cfg.CenterBranches,
		branches:  p.cfg.NumRequiredBranches,
		maxIter:   p.cfg.MaxCollisionIterations,
	}
	sec.solve()
	sec.straighten()

	// Execution nodes outside the spanning tree, if any, keep their place.
	p.logger.Debug("general layout", "root", f.root.ID, "exec", len(f.exec), "tree", len(f.tree.recs))
}

func (f *generalFormatter) nodesWithParams() []*graph.Node {
	var out []*graph.Node
	for _, n := range f.nodes {
		if pf := f.p.params[n.ID]; pf != nil && len(pf.members) > 0 {
			out = append(out, n)
		}
	}
	return out
}
