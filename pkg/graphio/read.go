package graphio

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"io/fs"
	"os"

	"github.com/matzehuels/nodeformat/pkg/errors"
	"github.com/matzehuels/nodeformat/pkg/geom"
	"github.com/matzehuels/nodeformat/pkg/graph"
	"github.com/matzehuels/nodeformat/pkg/measure"
)

var kindFromString = map[string]graph.NodeKind{
	"":        graph.KindRegular,
	"regular": graph.KindRegular,
	"event":   graph.KindEvent,
	"group":   graph.KindGroup,
	"knot":    graph.KindKnot,
}

var dirFromString = map[string]graph.Direction{
	"in":  graph.Input,
	"out": graph.Output,
}

// Read decodes a JSON document from r and builds the graph it describes,
// along with a size cache holding every measured node size and pin offset.
func Read(r io.Reader) (*graph.Graph, *measure.Cache, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode graph document")
	}
	return ToGraph(&doc)
}

// ReadFile reads a JSON document from the file at path.
// This is a convenience wrapper around [Read].
func ReadFile(path string) (*graph.Graph, *measure.Cache, error) {
	f, err := os.Open(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer f.Close()
	return Read(f)
}

// ToGraph builds a graph and size cache from a decoded document.
//
// Nodes are added in document order, so the graph iterates them the same way.
// A node gets a measured size only when both width and height are positive;
// for groups and knots the size is stored on the node itself.
func ToGraph(doc *Document) (*graph.Graph, *measure.Cache, error) {
	if err := errors.ValidateGraphType(doc.Type); err != nil {
		return nil, nil, err
	}
	g := graph.New(doc.Type)
	if doc.Meta != nil {
		g.Meta = doc.Meta
	}
	sizes := measure.NewCache()

	for i, nd := range doc.Nodes {
		if err := addNode(g, sizes, nd); err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "node %d (%q)", i, nd.ID)
		}
	}
	for _, grp := range g.Groups() {
		for _, id := range grp.Contains {
			if _, ok := g.Node(id); !ok {
				return nil, nil, errors.New(errors.ErrCodeInvalidGraph, "group %q contains unknown node %q", grp.ID, id)
			}
		}
	}
	for i, l := range doc.Links {
		if err := g.Link(graph.PinID(l.From), graph.PinID(l.To)); err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "link %d (%s -> %s)", i, l.From, l.To)
		}
	}
	return g, sizes, nil
}

func addNode(g *graph.Graph, sizes *measure.Cache, nd Node) error {
	if err := errors.ValidateNodeID(nd.ID); err != nil {
		return err
	}
	kind, ok := kindFromString[nd.Kind]
	if !ok {
		return errors.New(errors.ErrCodeInvalidGraph, "unknown kind %q", nd.Kind)
	}
	n := &graph.Node{
		ID:        graph.NodeID(nd.ID),
		Title:     nd.Title,
		Kind:      kind,
		Type:      nd.Type,
		Pos:       geom.V(nd.X, nd.Y),
		ExtraRoot: nd.ExtraRoot,
		Meta:      nd.Meta,
	}
	size := geom.V(nd.Width, nd.Height)
	measured := nd.Width > 0 && nd.Height > 0
	switch kind {
	case graph.KindGroup:
		if len(nd.Pins) > 0 {
			return errors.New(errors.ErrCodeInvalidGraph, "group has pins")
		}
		n.Size = size
		for _, id := range nd.Contains {
			n.Contains = append(n.Contains, graph.NodeID(id))
		}
	case graph.KindKnot:
		n.Size = size
	}
	if err := g.AddNode(n); err != nil {
		return err
	}
	if measured && kind != graph.KindGroup && kind != graph.KindKnot {
		sizes.SetSize(n.ID, size)
	}

	for _, pd := range nd.Pins {
		if err := errors.ValidateNodeID(pd.ID); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidGraph, err, "pin %q", pd.ID)
		}
		dir, ok := dirFromString[pd.Dir]
		if !ok {
			return errors.New(errors.ErrCodeInvalidGraph, "pin %q: unknown direction %q", pd.ID, pd.Dir)
		}
		p, err := g.AddPin(n.ID, graph.Pin{ID: graph.PinID(pd.ID), Name: pd.Name, Dir: dir, Exec: pd.Exec})
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidGraph, err, "pin %q", pd.ID)
		}
		if pd.Offset != nil {
			sizes.SetPinOffset(p.ID, geom.V(pd.Offset.X, pd.Offset.Y))
		}
	}
	return nil
}
