package render

import (
	"sync"

	"github.com/matzehuels/nodeformat/pkg/geom"
)

// Color names a debug overlay color. Renderers map it to a concrete value.
type Color string

// Overlay colors used by the layout passes.
const (
	ColorCollision Color = "red"
	ColorTrack     Color = "blue"
	ColorBounds    Color = "green"
	ColorCluster   Color = "orange"
)

// Drawer receives debug geometry from layout passes. Implementations must be
// cheap when nothing consumes the output.
type Drawer interface {
	Line(a, b geom.Vec, c Color)
	Box(r geom.Rect, c Color)
	Point(p geom.Vec, c Color)
}

// NopDrawer discards everything.
type NopDrawer struct{}

func (NopDrawer) Line(geom.Vec, geom.Vec, Color) {}
func (NopDrawer) Box(geom.Rect, Color)           {}
func (NopDrawer) Point(geom.Vec, Color)          {}

// ShapeKind identifies a recorded overlay shape.
type ShapeKind int

const (
	ShapeLine ShapeKind = iota
	ShapeBox
	ShapePoint
)

// Shape is one recorded overlay request.
type Shape struct {
	Kind  ShapeKind
	A, B  geom.Vec
	Rect  geom.Rect
	Color Color
}

// Recorder is a [Drawer] that keeps every request so a renderer can replay
// them as an overlay. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	shapes []Shape
}

func (r *Recorder) add(s Shape) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shapes = append(r.shapes, s)
}

// Line implements [Drawer].
func (r *Recorder) Line(a, b geom.Vec, c Color) { r.add(Shape{Kind: ShapeLine, A: a, B: b, Color: c}) }

// Box implements [Drawer].
func (r *Recorder) Box(rect geom.Rect, c Color) { r.add(Shape{Kind: ShapeBox, Rect: rect, Color: c}) }

// Point implements [Drawer].
func (r *Recorder) Point(p geom.Vec, c Color) { r.add(Shape{Kind: ShapePoint, A: p, Color: c}) }

// Shapes returns a copy of the recorded requests in order.
func (r *Recorder) Shapes() []Shape {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Shape, len(r.shapes))
	copy(out, r.shapes)
	return out
}

// Reset drops every recorded request.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shapes = nil
}
