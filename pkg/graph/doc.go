// Package graph provides the node-and-wire graph the layout engine formats.
//
// # Model
//
// A [Graph] holds [Node] values. Nodes carry typed [Pin] values; a pin is an
// input or an output and is either an execution pin (control flow) or a data
// pin (values). Wires connect an output pin to an input pin on another node
// and are stored on both pins in link order, so every traversal is
// deterministic.
//
// Three node kinds get special treatment:
//
//   - [KindEvent]: entry points; preferred roots when formatting
//   - [KindGroup]: group boxes that enclose the nodes in [Node.Contains]
//   - [KindKnot]: reroute waypoints inserted by the router
//
// A node with pins but no execution pin is "pure" ([Node.IsPure]). Pure
// nodes compute values for the execution node they feed.
//
// # Links
//
// [PinLink] is a directed view of a wire, From the pin being left To the pin
// being reached. Solvers build spanning trees over PinLinks and use them as
// map keys.
//
// # Traversal
//
// [NodeTree] walks links breadth-first with an optional filter and direction
// restriction. [ExecTree] is the common case of following control flow.
// [ResolvePin] and [LinkSignature] look through knots, so a rerouted wire
// compares equal to the direct one.
//
// # Example
//
//	g := graph.New("blueprint")
//	g.AddNode(&graph.Node{ID: "begin", Kind: graph.KindEvent})
//	g.AddNode(&graph.Node{ID: "print"})
//	out, _ := g.AddPin("begin", graph.Pin{ID: "begin.then", Dir: graph.Output, Exec: true})
//	in, _ := g.AddPin("print", graph.Pin{ID: "print.exec", Dir: graph.Input, Exec: true})
//	g.Link(out.ID, in.ID)
//
// Graph is not safe for concurrent use.
package graph
