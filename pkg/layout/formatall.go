package layout

import (
	"context"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/nodeformat/pkg/config"
	"github.com/matzehuels/nodeformat/pkg/containment"
	"github.com/matzehuels/nodeformat/pkg/geom"
	"github.com/matzehuels/nodeformat/pkg/graph"
)

// BatchResult reports the outcome of [Engine.FormatAll].
type BatchResult struct {
	Results  []*Result     `json:"results"`
	Columns  int           `json:"columns"`
	Bounds   geom.Rect     `json:"bounds"`
	Duration time.Duration `json:"duration"`
}

// Deferred returns the results that are waiting for node sizes.
func (b *BatchResult) Deferred() []*Result {
	var out []*Result
	for _, r := range b.Results {
		if r.Status == StatusDeferred {
			out = append(out, r)
		}
	}
	return out
}

// component is one independently formatted subgraph.
type component struct {
	root   *graph.Node
	nodes  []*graph.Node
	result *Result
}

// FormatAll formats every disconnected subgraph of g and arranges the results
// so they do not overlap. With the columns style, event graphs, other
// execution graphs and pure data graphs each get their own column; the list
// style stacks everything in one column.
func (e *Engine) FormatAll(ctx context.Context, g *graph.Graph) (*BatchResult, error) {
	start := time.Now()
	buckets := e.components(g)

	e.mu.Lock()
	defer e.mu.Unlock()

	batch := &BatchResult{}
	var columns [][]*component
	for _, bucket := range buckets {
		var col []*component
		for _, c := range bucket {
			res, err := e.format(ctx, g, c.root)
			if err != nil {
				return nil, err
			}
			batch.Results = append(batch.Results, res)
			if res.Status == StatusDeferred {
				continue
			}
			c.result = res
			c.nodes = componentNodes(c.root)
			col = append(col, c)
		}
		if len(col) == 0 {
			continue
		}
		if e.Config.FormatAllStyle == config.List && len(columns) > 0 {
			columns[0] = append(columns[0], col...)
			continue
		}
		columns = append(columns, col)
	}

	batch.Bounds = e.arrange(g, columns)
	batch.Columns = len(columns)
	batch.Duration = time.Since(start)
	e.Logger.Debug("formatted all", "roots", len(batch.Results), "columns", batch.Columns, "duration", batch.Duration)
	return batch, nil
}

// components groups the roots of g's disconnected subgraphs into event,
// execution and pure buckets, in node order.
func (e *Engine) components(g *graph.Graph) [3][]*component {
	var buckets [3][]*component
	covered := mapset.NewThreadUnsafeSet[*graph.Node]()
	for _, n := range g.Nodes() {
		if n.IsGroup() || n.IsKnot() || covered.Contains(n) {
			continue
		}
		root := FindRoot(n)
		for _, m := range graph.NodeTree(root, graph.TraverseOptions{}) {
			covered.Add(m)
		}
		covered.Add(n)
		c := &component{root: root}
		switch {
		case root.Kind == graph.KindEvent:
			buckets[0] = append(buckets[0], c)
		case root.HasExec():
			buckets[1] = append(buckets[1], c)
		default:
			buckets[2] = append(buckets[2], c)
		}
	}
	return buckets
}

func componentNodes(root *graph.Node) []*graph.Node {
	return graph.NodeTree(root, graph.TraverseOptions{SkipGroups: true})
}

// arrange moves each column of components into place, starting at the top
// left corner of everything formatted, and refits the groups around them.
func (e *Engine) arrange(g *graph.Graph, columns [][]*component) geom.Rect {
	p := e.newPass(g)
	o := p.o
	pad := e.Config.FormatAllPadding.Vec()
	padP, padS := o.P(pad), o.S(pad)

	bounds := func(c *component) geom.Rect {
		var b geom.Bounds
		for _, n := range c.nodes {
			b.Add(p.rect(n))
		}
		r, _ := b.Rect()
		return r
	}

	var origin geom.Bounds
	for _, col := range columns {
		for _, c := range col {
			origin.Add(bounds(c))
		}
	}
	start, ok := origin.Rect()
	if !ok {
		return geom.Rect{}
	}

	var placed []geom.Rect
	var moved []*graph.Node
	var all geom.Bounds
	colP := o.PMin(start)
	for _, col := range columns {
		cursor := o.SMin(start)
		colMax := colP
		for _, c := range col {
			r := bounds(c)
			d := o.Vec(colP-o.PMin(r), cursor-o.SMin(r))
			r = r.Translate(d)
			for range e.Config.MaxCollisionIterations {
				hit := false
				for _, q := range placed {
					if r.Intersects(q) {
						hit = true
						break
					}
				}
				if !hit {
					break
				}
				shift := o.Vec(0, padS)
				d = r2.Add(d, shift)
				r = r.Translate(shift)
			}
			for _, n := range c.nodes {
				p.move(n, d)
			}
			moved = append(moved, c.nodes...)
			placed = append(placed, r)
			all.Add(r)
			c.result.Bounds = r
			cursor = o.SMax(r) + padS
			if o.PMax(r) > colMax {
				colMax = o.PMax(r)
			}
		}
		colP = colMax + padP
	}

	p.groups = newGroupHandler(p, containment.Build(g), moved)
	p.groups.updateBounds(moved)
	r, _ := all.Rect()
	return r
}
