package render

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/matzehuels/nodeformat/pkg/geom"
	"github.com/matzehuels/nodeformat/pkg/graph"
	"github.com/matzehuels/nodeformat/pkg/measure"
)

const svgCSS = `
    .group { fill: #f4f4f8; stroke: #9090a0; stroke-dasharray: 6 4; }
    .node { fill: #ffffff; stroke: #303040; stroke-width: 1.5; }
    .node.event { fill: #fbe9e7; }
    .knot { fill: #303040; }
    .wire { fill: none; stroke-width: 1.5; }
    .wire.exec { stroke: #303040; stroke-width: 2.5; }
    .wire.data { stroke: #5c8cc8; }
    .label { font-family: sans-serif; font-size: 14px; fill: #202030; }
    .overlay { fill: none; stroke-width: 1; }`

// SVGOption configures [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	pins    measure.PinProvider
	overlay []Shape
	margin  float64
	labels  bool
}

// WithPins sets where wires attach. By default the size provider is used
// when it also implements [measure.PinProvider], otherwise stacked pins.
func WithPins(p measure.PinProvider) SVGOption { return func(r *svgRenderer) { r.pins = p } }

// WithOverlay draws recorded debug shapes on top of the graph.
func WithOverlay(shapes []Shape) SVGOption { return func(r *svgRenderer) { r.overlay = shapes } }

// WithMargin sets the blank border around the drawing.
func WithMargin(m float64) SVGOption { return func(r *svgRenderer) { r.margin = m } }

// WithoutLabels omits node titles.
func WithoutLabels() SVGOption { return func(r *svgRenderer) { r.labels = false } }

// RenderSVG draws g at its current positions. Nodes without a known size are
// left out along with their wires.
func RenderSVG(g *graph.Graph, sizes measure.SizeProvider, opts ...SVGOption) []byte {
	r := svgRenderer{margin: 20, labels: true}
	if pp, ok := sizes.(measure.PinProvider); ok {
		r.pins = pp
	} else {
		r.pins = measure.DefaultStackedPins()
	}
	for _, opt := range opts {
		opt(&r)
	}

	rects := make(map[*graph.Node]geom.Rect, g.NodeCount())
	var bounds geom.Bounds
	for _, n := range g.Nodes() {
		rect, ok := nodeRect(n, sizes)
		if !ok {
			continue
		}
		rects[n] = rect
		bounds.Add(rect)
	}
	for _, s := range r.overlay {
		bounds.Add(s.bounds())
	}
	frame, ok := bounds.Rect()
	if !ok {
		frame = geom.Rect{}
	}
	frame = frame.Expand(geom.V(r.margin, r.margin))

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.1f %.1f %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		frame.Left, frame.Top, frame.Width(), frame.Height(), frame.Width(), frame.Height())
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", svgCSS)

	for _, grp := range g.Groups() {
		if rect, ok := rects[grp]; ok {
			writeRect(&buf, "group-"+string(grp.ID), "group", rect, 4)
		}
	}
	r.renderWires(&buf, g, rects)
	for _, n := range g.Nodes() {
		rect, ok := rects[n]
		if !ok || n.IsGroup() {
			continue
		}
		if n.IsKnot() {
			c := rect.Center()
			fmt.Fprintf(&buf, `  <circle id="knot-%s" class="knot" cx="%.1f" cy="%.1f" r="%.1f"/>`+"\n",
				escape(string(n.ID)), c.X, c.Y, min(rect.Width(), rect.Height())/2)
			continue
		}
		class := "node"
		if n.Kind == graph.KindEvent {
			class += " event"
		}
		writeRect(&buf, "node-"+string(n.ID), class, rect, 6)
	}
	if r.labels {
		for _, n := range g.Nodes() {
			rect, ok := rects[n]
			if !ok || n.IsKnot() {
				continue
			}
			fmt.Fprintf(&buf, `  <text class="label" x="%.1f" y="%.1f">%s</text>`+"\n",
				rect.Left+8, rect.Top+20, escape(label(n)))
		}
	}
	renderOverlay(&buf, r.overlay)

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r *svgRenderer) renderWires(buf *bytes.Buffer, g *graph.Graph, rects map[*graph.Node]geom.Rect) {
	for _, n := range g.Nodes() {
		for _, p := range n.PinsDir(graph.Output) {
			for _, l := range p.Links() {
				from, okF := rects[l.FromNode()]
				to, okT := rects[l.ToNode()]
				if !okF || !okT {
					continue
				}
				a := r.pinPos(l.From, from)
				b := r.pinPos(l.To, to)
				class := "wire data"
				if l.IsExec() {
					class = "wire exec"
				}
				mid := (a.X + b.X) / 2
				fmt.Fprintf(buf, `  <path class="%s" d="M %.1f %.1f C %.1f %.1f, %.1f %.1f, %.1f %.1f"/>`+"\n",
					class, a.X, a.Y, mid, a.Y, mid, b.Y, b.X, b.Y)
			}
		}
	}
}

func (r *svgRenderer) pinPos(p *graph.Pin, rect geom.Rect) geom.Vec {
	if p.Node().IsKnot() {
		return rect.Center()
	}
	off := r.pins.PinOffset(p, rect.Size())
	return geom.V(rect.Left+off.X, rect.Top+off.Y)
}

func renderOverlay(buf *bytes.Buffer, shapes []Shape) {
	for _, s := range shapes {
		switch s.Kind {
		case ShapeLine:
			fmt.Fprintf(buf, `  <line class="overlay" stroke="%s" x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>`+"\n",
				s.Color, s.A.X, s.A.Y, s.B.X, s.B.Y)
		case ShapeBox:
			fmt.Fprintf(buf, `  <rect class="overlay" stroke="%s" x="%.1f" y="%.1f" width="%.1f" height="%.1f"/>`+"\n",
				s.Color, s.Rect.Left, s.Rect.Top, s.Rect.Width(), s.Rect.Height())
		case ShapePoint:
			fmt.Fprintf(buf, `  <circle class="overlay" stroke="%s" cx="%.1f" cy="%.1f" r="3"/>`+"\n",
				s.Color, s.A.X, s.A.Y)
		}
	}
}

func writeRect(buf *bytes.Buffer, id, class string, r geom.Rect, radius float64) {
	fmt.Fprintf(buf, `  <rect id="%s" class="%s" x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="%.0f"/>`+"\n",
		escape(id), class, r.Left, r.Top, r.Width(), r.Height(), radius)
}

// nodeRect returns the drawn extent of n. Groups and knots carry their own
// size.
func nodeRect(n *graph.Node, sizes measure.SizeProvider) (geom.Rect, bool) {
	if n.IsGroup() || n.IsKnot() {
		if n.Size == (geom.Vec{}) {
			return geom.Rect{}, false
		}
		return geom.RectAt(n.Pos, n.Size), true
	}
	s, ok := sizes.Size(n)
	if !ok {
		return geom.Rect{}, false
	}
	return geom.RectAt(n.Pos, s), true
}

func (s Shape) bounds() geom.Rect {
	switch s.Kind {
	case ShapeBox:
		return s.Rect
	case ShapeLine:
		return geom.Rect{
			Left: min(s.A.X, s.B.X), Top: min(s.A.Y, s.B.Y),
			Right: max(s.A.X, s.B.X), Bottom: max(s.A.Y, s.B.Y),
		}
	default:
		return geom.Rect{Left: s.A.X, Top: s.A.Y, Right: s.A.X, Bottom: s.A.Y}
	}
}

func label(n *graph.Node) string {
	if n.Title != "" {
		return n.Title
	}
	return string(n.ID)
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
