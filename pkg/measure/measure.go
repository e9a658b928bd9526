// Package measure supplies node sizes and pin positions to the layout engine.
//
// Node extents are only known once an editor has drawn a node. The engine
// asks a [SizeProvider] for each node and defers formatting while any size is
// missing. Pin connection points come from a [PinProvider]; [StackedPins]
// computes them from a fixed header height and row spacing when no measured
// offset is available.
package measure

import (
	"sync"

	"github.com/matzehuels/nodeformat/pkg/geom"
	"github.com/matzehuels/nodeformat/pkg/graph"
)

// SizeProvider reports the measured size of a node. The boolean is false when
// the node has not been measured yet.
type SizeProvider interface {
	Size(n *graph.Node) (geom.Vec, bool)
}

// PinProvider reports where a pin's wire attaches, relative to its node's
// top-left corner.
type PinProvider interface {
	PinOffset(p *graph.Pin, nodeSize geom.Vec) geom.Vec
}

// Cache is a concurrency-safe store of measured node sizes and pin offsets.
// It implements both [SizeProvider] and [PinProvider]; pins without a stored
// offset fall back to Fallback.
type Cache struct {
	// Fallback computes offsets for pins that were never measured.
	Fallback PinProvider

	mu    sync.RWMutex
	sizes map[graph.NodeID]geom.Vec
	pins  map[graph.PinID]geom.Vec
}

// NewCache creates an empty cache that stacks unmeasured pins with the
// default header and spacing.
func NewCache() *Cache {
	return &Cache{
		Fallback: DefaultStackedPins(),
		sizes:    make(map[graph.NodeID]geom.Vec),
		pins:     make(map[graph.PinID]geom.Vec),
	}
}

// SetSize records the measured size of a node.
func (c *Cache) SetSize(id graph.NodeID, size geom.Vec) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sizes[id] = size
}

// SetPinOffset records the measured attachment point of a pin.
func (c *Cache) SetPinOffset(id graph.PinID, off geom.Vec) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pins[id] = off
}

// Delete forgets everything measured for a node and its pins.
func (c *Cache) Delete(n *graph.Node) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sizes, n.ID)
	for _, p := range n.Pins() {
		delete(c.pins, p.ID)
	}
}

// Size implements [SizeProvider].
func (c *Cache) Size(n *graph.Node) (geom.Vec, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sizes[n.ID]
	return s, ok
}

// PinOffset implements [PinProvider].
func (c *Cache) PinOffset(p *graph.Pin, nodeSize geom.Vec) geom.Vec {
	c.mu.RLock()
	off, ok := c.pins[p.ID]
	c.mu.RUnlock()
	if ok {
		return off
	}
	fb := c.Fallback
	if fb == nil {
		fb = DefaultStackedPins()
	}
	return fb.PinOffset(p, nodeSize)
}

// MeasuredPinOffset returns the recorded offset of a pin, without falling
// back.
func (c *Cache) MeasuredPinOffset(id graph.PinID) (geom.Vec, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	off, ok := c.pins[id]
	return off, ok
}

// MeasuredPins is implemented by providers that know which pins were
// actually measured.
type MeasuredPins interface {
	MeasuredPinOffset(id graph.PinID) (geom.Vec, bool)
}

// Overlay returns a [PinProvider] that prefers the offsets recorded in m and
// asks fallback for every other pin.
func Overlay(m MeasuredPins, fallback PinProvider) PinProvider {
	return overlay{m: m, fallback: fallback}
}

type overlay struct {
	m        MeasuredPins
	fallback PinProvider
}

func (o overlay) PinOffset(p *graph.Pin, nodeSize geom.Vec) geom.Vec {
	if off, ok := o.m.MeasuredPinOffset(p.ID); ok {
		return off
	}
	return o.fallback.PinOffset(p, nodeSize)
}

// Len returns the number of measured nodes.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sizes)
}

// Missing returns the nodes among ns that have no measured size. Groups and
// knots are never reported; their size does not come from measurement.
func Missing(p SizeProvider, ns []*graph.Node) []*graph.Node {
	var out []*graph.Node
	for _, n := range ns {
		if n.IsGroup() || n.IsKnot() {
			continue
		}
		if _, ok := p.Size(n); !ok {
			out = append(out, n)
		}
	}
	return out
}

// StackedPins places pins in rows below a header: inputs on the leading edge
// and outputs on the trailing edge. Execution pins come before data pins.
type StackedPins struct {
	Orient  geom.Orient
	Header  float64
	Spacing float64
}

// DefaultStackedPins returns left-to-right stacking with a 32 unit header and
// 24 unit rows.
func DefaultStackedPins() StackedPins {
	return StackedPins{Header: 32, Spacing: 24}
}

// PinOffset implements [PinProvider].
func (s StackedPins) PinOffset(p *graph.Pin, nodeSize geom.Vec) geom.Vec {
	n := p.Node()
	if n.IsKnot() {
		return geom.V(nodeSize.X/2, nodeSize.Y/2)
	}
	index := 0
	for _, exec := range []bool{true, false} {
		for _, o := range n.PinsDir(p.Dir) {
			if o.Exec != exec {
				continue
			}
			if o == p {
				return s.offset(p.Dir, index, nodeSize)
			}
			index++
		}
	}
	return s.offset(p.Dir, index, nodeSize)
}

func (s StackedPins) offset(d graph.Direction, index int, size geom.Vec) geom.Vec {
	along := s.Header + float64(index)*s.Spacing + s.Spacing/2
	across := 0.0
	if d == graph.Output {
		across = s.Orient.P(size)
	}
	return s.Orient.Vec(across, along)
}
