// Package layout positions the nodes of a node-and-wire graph.
//
// # Overview
//
// A format request names one node. [FindRoot] walks from it to the node the
// layout starts from, and the [Engine] runs the formatter configured for the
// graph type over everything reachable from that root:
//
//   - general: execution nodes are placed by a primary-axis solver that builds
//     a spanning tree, then a secondary-axis solver walks that tree to align
//     rows, stack branches and resolve collisions. The pure data nodes feeding
//     each execution node form a cluster laid out by the same two solvers and
//     moved together with its anchor.
//   - tree: a layered tidy tree, one column per depth.
//   - simple: primary axis only.
//
// Groups whose members are all part of the pass move as rigid boxes; groups
// that cannot are ignored and reported. After layout the [route] package
// reroutes long wires through knot nodes, overlaps are verified, and the
// requested node is moved back to where it was so the layout grows around
// it.
//
// # Incremental layout
//
// The engine snapshots every pass. A request whose subgraph has the same
// nodes, sizes, wiring and configuration, and whose nodes have not moved
// relative to each other, is answered from the snapshot. Data clusters are
// cached by shape and reapplied by offset when only their anchor moved.
//
// Nodes without a known size defer the whole request; a [Scheduler] keeps
// deferred requests queued until the sizes arrive.
//
// [route]: github.com/matzehuels/nodeformat/pkg/layout/route
package layout
