// Package pkg provides the libraries behind nodeformat, an automatic layout
// engine for visual node graphs.
//
// # Overview
//
// Node editors (blueprints, material and shader graphs, dataflow tools) let
// users wire nodes freely until the canvas becomes unreadable. nodeformat
// rearranges a subgraph so execution flows in one direction, parameter nodes
// sit next to the pins they feed, long wires run through knots and groups
// stay wrapped around their members. The pkg directory is organized into
// four areas:
//
//  1. Model: [graph], [geom], [measure], [containment]
//  2. Engine: [layout], [layout/route], [config]
//  3. Output: [render], [graphio], [cache]
//  4. Shared: [errors], [observability], [buildinfo]
//
// # Architecture
//
// The typical data flow through nodeformat:
//
//	Editor graph document (JSON)
//	         ↓
//	    [graphio] package (graph + measured sizes)
//	         ↓
//	    [layout] package (root, formatter, knots, overlap checks)
//	         ↓
//	    [render] package (SVG, DOT, Graphviz)
//	         ↓
//	    Positioned graph document, SVG/PNG/DOT output
//
// # Quick Start
//
// Format the subgraph around a node and draw it:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/nodeformat/pkg/config"
//	    "github.com/matzehuels/nodeformat/pkg/graphio"
//	    "github.com/matzehuels/nodeformat/pkg/layout"
//	    "github.com/matzehuels/nodeformat/pkg/render"
//	)
//
//	// 1. Load the graph and the sizes the editor measured
//	g, sizes, _ := graphio.ReadFile("graph.json")
//
//	// 2. Create an engine
//	engine, _ := layout.NewEngine(config.Default(), sizes)
//
//	// 3. Format around a node; it keeps its position
//	res, _ := engine.Format(context.Background(), g, "begin")
//
//	// 4. Draw the result
//	svg := render.RenderSVG(g, sizes)
//
// # Main Packages
//
// ## Model
//
// [graph] - Nodes with input and output pins, links between pins, groups and
// knots. Traversal helpers walk a node's connected subgraph.
//
// [geom] - Vectors and axis-aligned rectangles on gonum's r2, plus the
// orientation helpers that let the engine lay out left-to-right or
// top-to-bottom with the same code.
//
// [measure] - Node sizes and pin offsets. Formatting is deferred until every
// node in a subgraph has a size.
//
// [containment] - The forest of nested groups and the nodes each one owns.
//
// ## Engine
//
// [layout] - The [layout.Engine]: finds the root of a subgraph, runs the
// configured formatter, dissolves and recreates knots, checks for overlaps and
// keeps the requested node still. [layout.Scheduler] queues requests until
// sizes arrive.
//
// [layout/route] - Decides which wires get tracks and places knots along them.
//
// [config] - Spacing, wiring styles, helixing and iteration limits, loaded
// from TOML or YAML with environment overrides.
//
// ## Output
//
// [render] - Native SVG, Graphviz DOT and Graphviz rendering, and the debug
// [render.Recorder].
//
// [graphio] - The JSON graph document read and written by the CLI and API.
//
// [cache] - Memory and file caches for rendered output.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...            # All tests
//	go test ./pkg/layout/...     # Specific package
//	go test -run Example ./...   # Examples only
//
// [graph]: https://pkg.go.dev/github.com/matzehuels/nodeformat/pkg/graph
// [geom]: https://pkg.go.dev/github.com/matzehuels/nodeformat/pkg/geom
// [measure]: https://pkg.go.dev/github.com/matzehuels/nodeformat/pkg/measure
// [containment]: https://pkg.go.dev/github.com/matzehuels/nodeformat/pkg/containment
// [layout]: https://pkg.go.dev/github.com/matzehuels/nodeformat/pkg/layout
// [layout/route]: https://pkg.go.dev/github.com/matzehuels/nodeformat/pkg/layout/route
// [config]: https://pkg.go.dev/github.com/matzehuels/nodeformat/pkg/config
// [render]: https://pkg.go.dev/github.com/matzehuels/nodeformat/pkg/render
// [graphio]: https://pkg.go.dev/github.com/matzehuels/nodeformat/pkg/graphio
// [cache]: https://pkg.go.dev/github.com/matzehuels/nodeformat/pkg/cache
// [errors]: https://pkg.go.dev/github.com/matzehuels/nodeformat/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/nodeformat/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/nodeformat/pkg/buildinfo
package pkg
