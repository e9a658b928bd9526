// Package graphio reads and writes graph documents as JSON.
//
// # Format
//
// A document carries the graph type, its nodes with their pins, and the
// wires between pins:
//
//	{
//	  "type": "blueprint",
//	  "nodes": [
//	    {"id": "begin", "kind": "event", "x": 0, "y": 0, "width": 196, "height": 96,
//	     "pins": [{"id": "begin.then", "dir": "out", "exec": true}]},
//	    {"id": "print", "x": 300, "y": 40, "width": 196, "height": 96,
//	     "pins": [{"id": "print.exec", "dir": "in", "exec": true}]},
//	    {"id": "frame", "kind": "group", "x": -30, "y": -66, "width": 556, "height": 192,
//	     "contains": ["begin", "print"]}
//	  ],
//	  "links": [{"from": "begin.then", "to": "print.exec"}]
//	}
//
// # Node Fields
//
// Required:
//   - id: unique identifier
//
// Optional:
//   - kind: "regular" (default), "event", "group" or "knot"
//   - title, type: display title and node class
//   - x, y: top-left corner
//   - width, height: measured size; nodes without one are reported as
//     unmeasured and defer formatting. For groups this is the box itself.
//   - extra_root: prefer the node as a formatting root
//   - pins: connection points in declaration order, each with an id, a
//     "dir" of "in" or "out", an exec flag and an optional measured offset
//   - contains: IDs of the nodes a group encloses
//   - meta: freeform object
//
// # Reading and Writing
//
// [Read] and [ReadFile] decode a document and build the graph and a size
// cache from it; [Write] and [WriteFile] do the reverse. [ToGraph] and
// [FromGraph] convert between an already decoded [Document] and a graph, which
// is what the HTTP API uses.
//
// Identifiers are validated with [errors.ValidateNodeID] and the graph type
// with [errors.ValidateGraphType]. Structural problems (duplicate IDs, wires
// between two inputs, unknown pins) are reported as INVALID_GRAPH errors that
// name the offending node or link.
//
// [errors.ValidateNodeID]: github.com/matzehuels/nodeformat/pkg/errors.ValidateNodeID
// [errors.ValidateGraphType]: github.com/matzehuels/nodeformat/pkg/errors.ValidateGraphType
package graphio
