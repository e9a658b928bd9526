package graph

import (
	"errors"
	"slices"

	"github.com/matzehuels/nodeformat/pkg/geom"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists, or by [Graph.AddPin] for a duplicate pin ID.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownNode is returned when an operation references a node that
	// is not part of the graph.
	ErrUnknownNode = errors.New("unknown node")

	// ErrUnknownPin is returned by [Graph.Link] when a pin ID is not part of
	// the graph.
	ErrUnknownPin = errors.New("unknown pin")

	// ErrSameNodeLink is returned by [Graph.Link] when both pins belong to the
	// same node. Wires always connect two distinct nodes.
	ErrSameNodeLink = errors.New("link endpoints on the same node")

	// ErrDirectionMismatch is returned by [Graph.Link] when the pins do not
	// form an output/input pair.
	ErrDirectionMismatch = errors.New("link must connect an output to an input")
)

// NodeID identifies a node. IDs are unique within a [Graph].
type NodeID string

// PinID identifies a pin. IDs are unique within a [Graph].
type PinID string

// Metadata stores arbitrary key-value pairs attached to nodes or the graph.
type Metadata map[string]any

// NodeKind distinguishes ordinary nodes from the structural kinds the layout
// engine treats specially.
type NodeKind int

const (
	// KindRegular is an ordinary node.
	KindRegular NodeKind = iota
	// KindEvent is an entry point of execution. Events are preferred roots.
	KindEvent
	// KindGroup is a comment or group box. Groups have no pins; they
	// enclose the nodes listed in [Node.Contains].
	KindGroup
	// KindKnot is a reroute waypoint with one input and one output pin.
	KindKnot
)

func (k NodeKind) String() string {
	switch k {
	case KindEvent:
		return "event"
	case KindGroup:
		return "group"
	case KindKnot:
		return "knot"
	default:
		return "regular"
	}
}

// ParseNodeKind is the inverse of [NodeKind.String]. Unknown names map to
// [KindRegular].
func ParseNodeKind(s string) NodeKind {
	switch s {
	case "event":
		return KindEvent
	case "group":
		return KindGroup
	case "knot":
		return KindKnot
	default:
		return KindRegular
	}
}

// Direction is the side of a node a pin sits on.
type Direction int

const (
	// Input pins receive wires and sit on the leading edge of a node.
	Input Direction = iota
	// Output pins send wires and sit on the trailing edge of a node.
	Output
)

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == Input {
		return Output
	}
	return Input
}

func (d Direction) String() string {
	if d == Output {
		return "out"
	}
	return "in"
}

// Pin is a typed connection point on a node. A pin is either an execution pin,
// carrying control flow, or a data pin, carrying values.
type Pin struct {
	ID   PinID
	Name string
	Dir  Direction
	Exec bool

	node  *Node
	links []*Pin
}

// Node returns the node that owns the pin.
func (p *Pin) Node() *Node { return p.node }

// Links returns the pins this pin is wired to, in the order they were linked.
func (p *Pin) Links() []PinLink {
	out := make([]PinLink, len(p.links))
	for i, o := range p.links {
		out[i] = PinLink{From: p, To: o}
	}
	return out
}

// Linked returns the pins this pin is wired to.
func (p *Pin) Linked() []*Pin { return slices.Clone(p.links) }

// HasLinks reports whether any wire is attached to the pin.
func (p *Pin) HasLinks() bool { return len(p.links) > 0 }

// IsLinkedTo reports whether p and o are directly wired.
func (p *Pin) IsLinkedTo(o *Pin) bool { return slices.Contains(p.links, o) }

// PinLink is a directed view of a wire: From is the pin on the node the
// traversal is leaving, To is the pin on the node it reaches. The same wire
// has two PinLinks, one per direction; [PinLink.Opposite] converts between them.
//
// PinLink is comparable and can be used as a map key.
type PinLink struct {
	From *Pin
	To   *Pin
}

// Opposite returns the same wire traversed the other way.
func (l PinLink) Opposite() PinLink { return PinLink{From: l.To, To: l.From} }

// Direction is the direction of the From pin. A link whose From pin is an
// output travels forward along the primary axis.
func (l PinLink) Direction() Direction { return l.From.Dir }

// FromNode returns the node the link leaves.
func (l PinLink) FromNode() *Node { return l.From.node }

// ToNode returns the node the link reaches.
func (l PinLink) ToNode() *Node { return l.To.node }

// IsExec reports whether the wire carries control flow.
func (l PinLink) IsExec() bool { return l.From.Exec }

// IsZero reports whether l is the zero link.
func (l PinLink) IsZero() bool { return l.From == nil && l.To == nil }

// Node is a vertex of the graph. Nodes other than groups carry pins; groups
// carry the list of nodes they enclose.
//
// The zero value is not usable on its own; add nodes with [Graph.AddNode].
type Node struct {
	ID    NodeID
	Title string
	Kind  NodeKind
	// Type names the node class, used to pick a formatter or sort columns.
	Type string
	// Pos is the top-left corner of the node in graph space.
	Pos geom.Vec
	// Size is the node extent. It is authoritative for groups only; other
	// nodes are measured through a size provider.
	Size geom.Vec
	// ExtraRoot marks the node as a preferred formatting root.
	ExtraRoot bool
	// Contains lists the nodes enclosed by a group, in insertion order.
	Contains []NodeID
	Meta     Metadata

	pins []*Pin
}

// Pins returns the node's pins in declaration order.
func (n *Node) Pins() []*Pin { return slices.Clone(n.pins) }

// PinsDir returns the node's pins facing d, in declaration order.
func (n *Node) PinsDir(d Direction) []*Pin {
	var out []*Pin
	for _, p := range n.pins {
		if p.Dir == d {
			out = append(out, p)
		}
	}
	return out
}

// HasExec reports whether the node has at least one execution pin.
func (n *Node) HasExec() bool {
	for _, p := range n.pins {
		if p.Exec {
			return true
		}
	}
	return false
}

// IsPure reports whether the node only carries data. Pure nodes are laid out
// next to the execution node they feed rather than on the main flow.
func (n *Node) IsPure() bool {
	return n.Kind != KindGroup && n.Kind != KindKnot && len(n.pins) > 0 && !n.HasExec()
}

// IsGroup reports whether the node is a group box.
func (n *Node) IsGroup() bool { return n.Kind == KindGroup }

// IsKnot reports whether the node is a reroute waypoint.
func (n *Node) IsKnot() bool { return n.Kind == KindKnot }

// Links returns every directed link leaving the node, in pin then link order.
func (n *Node) Links() []PinLink {
	var out []PinLink
	for _, p := range n.pins {
		out = append(out, p.Links()...)
	}
	return out
}

// Graph is a node-and-wire graph with group boxes.
//
// Node and pin iteration order is insertion order, which keeps layouts
// deterministic. Graph is not safe for concurrent use.
type Graph struct {
	// Type names the kind of graph (for example "blueprint" or
	// "behavior_tree") and selects the formatter.
	Type string
	Meta Metadata

	nodes []*Node
	byID  map[NodeID]*Node
	pins  map[PinID]*Pin
}

// New creates an empty graph of the given type.
func New(graphType string) *Graph {
	return &Graph{
		Type: graphType,
		Meta: Metadata{},
		byID: make(map[NodeID]*Node),
		pins: make(map[PinID]*Pin),
	}
}

// AddNode inserts n into the graph. The node's pins, if any were attached
// before insertion, are discarded; use [Graph.AddPin].
func (g *Graph) AddNode(n *Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, ok := g.byID[n.ID]; ok {
		return ErrDuplicateNodeID
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	n.pins = nil
	g.nodes = append(g.nodes, n)
	g.byID[n.ID] = n
	return nil
}

// AddPin attaches a new pin to the node with the given ID.
func (g *Graph) AddPin(id NodeID, p Pin) (*Pin, error) {
	n, ok := g.byID[id]
	if !ok {
		return nil, ErrUnknownNode
	}
	if p.ID == "" {
		return nil, ErrInvalidNodeID
	}
	if _, ok := g.pins[p.ID]; ok {
		return nil, ErrDuplicateNodeID
	}
	pin := &Pin{ID: p.ID, Name: p.Name, Dir: p.Dir, Exec: p.Exec, node: n}
	n.pins = append(n.pins, pin)
	g.pins[pin.ID] = pin
	return pin, nil
}

// RemoveNode deletes the node, detaches its wires and drops it from every
// group's contains list. Removing an unknown node is a no-op.
func (g *Graph) RemoveNode(id NodeID) {
	n, ok := g.byID[id]
	if !ok {
		return
	}
	for _, p := range n.pins {
		for _, o := range slices.Clone(p.links) {
			unlinkPins(p, o)
		}
		delete(g.pins, p.ID)
	}
	delete(g.byID, id)
	g.nodes = slices.DeleteFunc(g.nodes, func(x *Node) bool { return x == n })
	for _, grp := range g.nodes {
		if grp.Kind == KindGroup {
			grp.Contains = slices.DeleteFunc(grp.Contains, func(c NodeID) bool { return c == id })
		}
	}
}

// Link wires two pins. The order of the arguments does not matter, but one
// must be an output and the other an input on a different node. Linking two
// pins that are already wired is a no-op.
func (g *Graph) Link(a, b PinID) error {
	pa, ok := g.pins[a]
	if !ok {
		return ErrUnknownPin
	}
	pb, ok := g.pins[b]
	if !ok {
		return ErrUnknownPin
	}
	return LinkPins(pa, pb)
}

// LinkPins wires two pins that already belong to a graph.
func LinkPins(a, b *Pin) error {
	if a.node == b.node {
		return ErrSameNodeLink
	}
	if a.Dir == b.Dir {
		return ErrDirectionMismatch
	}
	if a.IsLinkedTo(b) {
		return nil
	}
	a.links = append(a.links, b)
	b.links = append(b.links, a)
	return nil
}

// Unlink removes the wire between two pins if present.
func (g *Graph) Unlink(a, b PinID) {
	pa, pb := g.pins[a], g.pins[b]
	if pa == nil || pb == nil {
		return
	}
	unlinkPins(pa, pb)
}

// UnlinkPins removes the wire between a and b if present.
func UnlinkPins(a, b *Pin) { unlinkPins(a, b) }

func unlinkPins(a, b *Pin) {
	a.links = slices.DeleteFunc(a.links, func(p *Pin) bool { return p == b })
	b.links = slices.DeleteFunc(b.links, func(p *Pin) bool { return p == a })
}

// Node returns the node with the given ID.
func (g *Graph) Node(id NodeID) (*Node, bool) {
	n, ok := g.byID[id]
	return n, ok
}

// Pin returns the pin with the given ID.
func (g *Graph) Pin(id PinID) (*Pin, bool) {
	p, ok := g.pins[id]
	return p, ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node { return slices.Clone(g.nodes) }

// Groups returns all group nodes in insertion order.
func (g *Graph) Groups() []*Node {
	var out []*Node
	for _, n := range g.nodes {
		if n.Kind == KindGroup {
			out = append(out, n)
		}
	}
	return out
}

// NodeCount returns the number of nodes, groups and knots included.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// LinkCount returns the number of wires.
func (g *Graph) LinkCount() int {
	total := 0
	for _, n := range g.nodes {
		for _, p := range n.pins {
			if p.Dir == Output {
				total += len(p.links)
			}
		}
	}
	return total
}
