package graphio

import (
	"encoding/json"
	"io"
	"os"

	"github.com/matzehuels/nodeformat/pkg/errors"
	"github.com/matzehuels/nodeformat/pkg/geom"
	"github.com/matzehuels/nodeformat/pkg/graph"
	"github.com/matzehuels/nodeformat/pkg/measure"
)

// measuredPins is implemented by size sources that also record pin offsets,
// such as [measure.Cache].
type measuredPins interface {
	MeasuredPinOffset(id graph.PinID) (geom.Vec, bool)
}

// Write encodes g as an indented JSON document and writes it to w. Sizes and
// pin offsets come from sizes, which may be nil.
// The output can be read back with [Read].
func Write(w io.Writer, g *graph.Graph, sizes measure.SizeProvider) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromGraph(g, sizes)); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode graph document")
	}
	return nil
}

// WriteFile writes g to a JSON file at path.
// This is a convenience wrapper around [Write].
func WriteFile(path string, g *graph.Graph, sizes measure.SizeProvider) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "create %s", path)
	}
	if err := Write(f, g, sizes); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// FromGraph converts g into a document. Links are listed from their output
// side, in node then pin order.
func FromGraph(g *graph.Graph, sizes measure.SizeProvider) *Document {
	pins, _ := sizes.(measuredPins)
	doc := &Document{
		Type:  g.Type,
		Nodes: make([]Node, 0, g.NodeCount()),
		Links: make([]Link, 0, g.LinkCount()),
	}
	if len(g.Meta) > 0 {
		doc.Meta = g.Meta
	}

	for _, n := range g.Nodes() {
		nd := Node{
			ID:        string(n.ID),
			Title:     n.Title,
			Type:      n.Type,
			X:         n.Pos.X,
			Y:         n.Pos.Y,
			ExtraRoot: n.ExtraRoot,
		}
		if n.Kind != graph.KindRegular {
			nd.Kind = n.Kind.String()
		}
		if len(n.Meta) > 0 {
			nd.Meta = n.Meta
		}
		size := n.Size
		if !n.IsGroup() && !n.IsKnot() && sizes != nil {
			size, _ = sizes.Size(n)
		}
		nd.Width, nd.Height = size.X, size.Y
		for _, id := range n.Contains {
			nd.Contains = append(nd.Contains, string(id))
		}
		for _, p := range n.Pins() {
			pd := Pin{ID: string(p.ID), Name: p.Name, Dir: p.Dir.String(), Exec: p.Exec}
			if pins != nil {
				if off, ok := pins.MeasuredPinOffset(p.ID); ok {
					pd.Offset = &Offset{X: off.X, Y: off.Y}
				}
			}
			nd.Pins = append(nd.Pins, pd)
			if p.Dir != graph.Output {
				continue
			}
			for _, o := range p.Linked() {
				doc.Links = append(doc.Links, Link{From: string(p.ID), To: string(o.ID)})
			}
		}
		doc.Nodes = append(doc.Nodes, nd)
	}
	return doc
}
