// Package render turns positioned graphs and layout debug output into
// pictures.
//
// # Debug Drawing
//
// Layout passes report what they are doing through a [Drawer]: collision
// rectangles, routing tracks, group boxes. [NopDrawer] discards the requests
// and is what the engine uses unless debugging is enabled. [Recorder] keeps
// them so they can be replayed as an overlay:
//
//	rec := &render.Recorder{}
//	engine, _ := layout.NewEngine(cfg, sizes, layout.WithDrawer(rec))
//	// ... format ...
//	svg := render.RenderSVG(g, sizes, render.WithOverlay(rec.Shapes()))
//
// # SVG
//
// [RenderSVG] draws node boxes, group frames, knots and wires at the positions
// the engine assigned. It needs no external tools.
//
// # Graphviz
//
// [ToDOT] exports a graph as DOT source. With [DOTOptions.Pinned] every node
// keeps its layout position and [RenderGraphviz] uses neato to draw only the
// edges; otherwise Graphviz's dot lays the graph out itself, which is handy
// for comparing against the engine's output.
//
//	dot := render.ToDOT(g, sizes, render.DOTOptions{Pinned: true})
//	png, err := render.RenderGraphviz(ctx, dot, render.FormatPNG, true)
//
// Rendering uses [github.com/goccy/go-graphviz], which runs Graphviz
// in-process.
package render
