package render

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/nodeformat/pkg/errors"
	"github.com/matzehuels/nodeformat/pkg/graph"
	"github.com/matzehuels/nodeformat/pkg/measure"
	"github.com/matzehuels/nodeformat/pkg/observability"
)

// pointsPerInch converts graph units to Graphviz inches.
const pointsPerInch = 72.0

// Format is a Graphviz output format.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// DOTOptions configures [ToDOT].
type DOTOptions struct {
	// Pinned fixes every node at its current position so Graphviz only
	// routes the edges. Render pinned graphs with [RenderGraphviz] and
	// pinned set.
	Pinned bool
	// Detailed adds the node kind, type and metadata to labels and pin
	// names to edges.
	Detailed bool
}

// ToDOT converts g to Graphviz DOT source. Nodes without a known size are
// drawn at Graphviz's default size; with Pinned they are left out.
//
// Unpinned graphs draw groups as clusters. A node listed by several groups
// appears in the first one only.
func ToDOT(g *graph.Graph, sizes measure.SizeProvider, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	if opts.Pinned {
		buf.WriteString("  inputscale=72;\n")
		buf.WriteString("  splines=true;\n")
	} else {
		buf.WriteString("  ranksep=0.5;\n")
		buf.WriteString("  nodesep=0.3;\n")
	}
	buf.WriteString("\n")

	drawn := make(map[*graph.Node]bool)
	clustered := make(map[graph.NodeID]bool)
	if !opts.Pinned {
		for _, grp := range g.Groups() {
			fmt.Fprintf(&buf, "  subgraph %q {\n", "cluster_"+string(grp.ID))
			fmt.Fprintf(&buf, "    label=%q;\n    style=dashed;\n", label(grp))
			for _, id := range grp.Contains {
				n, ok := g.Node(id)
				if !ok || n.IsGroup() || clustered[id] {
					continue
				}
				clustered[id] = true
				writeDOTNode(&buf, "    ", n, sizes, opts)
				drawn[n] = true
			}
			buf.WriteString("  }\n")
		}
	}

	for _, n := range g.Nodes() {
		if drawn[n] {
			continue
		}
		if n.IsGroup() && !opts.Pinned {
			continue
		}
		if opts.Pinned {
			if _, ok := nodeRect(n, sizes); !ok {
				continue
			}
		}
		writeDOTNode(&buf, "  ", n, sizes, opts)
		drawn[n] = true
	}

	buf.WriteString("\n")
	for _, n := range g.Nodes() {
		for _, p := range n.PinsDir(graph.Output) {
			for _, l := range p.Links() {
				if !drawn[l.FromNode()] || !drawn[l.ToNode()] {
					continue
				}
				fmt.Fprintf(&buf, "  %q -> %q [%s];\n", l.FromNode().ID, l.ToNode().ID, strings.Join(edgeAttrs(l, opts.Detailed), ", "))
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeDOTNode(buf *bytes.Buffer, indent string, n *graph.Node, sizes measure.SizeProvider, opts DOTOptions) {
	attrs := []string{fmt.Sprintf("label=%q", dotLabel(n, opts.Detailed))}
	switch {
	case n.IsGroup():
		attrs = append(attrs, `style="dashed"`, "labelloc=t")
	case n.IsKnot():
		attrs = append(attrs, "shape=point")
	case n.Kind == graph.KindEvent:
		attrs = append(attrs, "fillcolor=mistyrose")
	}
	if rect, ok := nodeRect(n, sizes); ok {
		attrs = append(attrs, fmt.Sprintf("width=%.2f, height=%.2f", rect.Width()/pointsPerInch, rect.Height()/pointsPerInch))
		if opts.Pinned {
			c := rect.Center()
			// Graphviz y grows upwards.
			attrs = append(attrs, "fixedsize=true", fmt.Sprintf(`pos="%.1f,%.1f!"`, c.X, -c.Y))
		}
	}
	fmt.Fprintf(buf, "%s%q [%s];\n", indent, n.ID, strings.Join(attrs, ", "))
}

func dotLabel(n *graph.Node, detailed bool) string {
	if n.IsKnot() {
		return ""
	}
	if !detailed {
		return label(n)
	}
	parts := []string{"kind: " + n.Kind.String()}
	if n.Type != "" {
		parts = append(parts, "type: "+n.Type)
	}
	for _, k := range slices.Sorted(maps.Keys(n.Meta)) {
		parts = append(parts, fmt.Sprintf("%s: %v", k, n.Meta[k]))
	}
	return label(n) + "\n" + strings.Join(parts, "\n")
}

func edgeAttrs(l graph.PinLink, detailed bool) []string {
	attrs := []string{"penwidth=2"}
	if !l.IsExec() {
		attrs = []string{"style=dashed", "color=steelblue"}
	}
	if detailed {
		attrs = append(attrs, fmt.Sprintf("taillabel=%q", l.From.Name), fmt.Sprintf("headlabel=%q", l.To.Name))
	}
	return attrs
}

// RenderGraphviz renders DOT source with Graphviz. Pinned sources from
// [ToDOT] need pinned set so neato keeps the node positions; others are
// laid out by dot.
func RenderGraphviz(ctx context.Context, dot string, format Format, pinned bool) (out []byte, err error) {
	hooks := observability.Render()
	start := time.Now()
	hooks.OnRenderStart(ctx, string(format))
	defer func() { hooks.OnRenderComplete(ctx, string(format), len(out), time.Since(start), err) }()

	var gvFormat graphviz.Format
	switch format {
	case FormatSVG:
		gvFormat = graphviz.SVG
	case FormatPNG:
		gvFormat = graphviz.PNG
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format %q", format)
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	if pinned {
		gv.SetLayout(graphviz.NEATO)
	}

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, gvFormat, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	if format == FormatSVG {
		return normalizeViewBox(buf.Bytes()), nil
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's svg element with one whose viewBox
// starts at the origin.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
