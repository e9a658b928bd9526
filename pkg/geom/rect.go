package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Vec is a point or extent in graph space. The X axis grows to the right and
// the Y axis grows downward, matching editor canvas coordinates.
type Vec = r2.Vec

// V is shorthand for constructing a [Vec].
func V(x, y float64) Vec { return Vec{X: x, Y: y} }

// Rect is an axis-aligned rectangle in graph space. Top is the smaller Y value.
// The zero value is an empty rectangle at the origin.
type Rect struct {
	Left, Top     float64
	Right, Bottom float64
}

// RectAt returns the rectangle with top-left corner pos and the given size.
func RectAt(pos, size Vec) Rect {
	return Rect{Left: pos.X, Top: pos.Y, Right: pos.X + size.X, Bottom: pos.Y + size.Y}
}

// Width returns the horizontal span of the rectangle.
func (r Rect) Width() float64 { return r.Right - r.Left }

// Height returns the vertical span of the rectangle.
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// Size returns the width and height as a vector.
func (r Rect) Size() Vec { return Vec{X: r.Width(), Y: r.Height()} }

// Min returns the top-left corner.
func (r Rect) Min() Vec { return Vec{X: r.Left, Y: r.Top} }

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Vec {
	return Vec{X: (r.Left + r.Right) / 2, Y: (r.Top + r.Bottom) / 2}
}

// IsEmpty reports whether the rectangle has no area.
func (r Rect) IsEmpty() bool { return r.Right <= r.Left || r.Bottom <= r.Top }

// Translate returns the rectangle moved by d.
func (r Rect) Translate(d Vec) Rect {
	return Rect{Left: r.Left + d.X, Top: r.Top + d.Y, Right: r.Right + d.X, Bottom: r.Bottom + d.Y}
}

// Expand grows the rectangle by pad on every side. Negative components shrink it.
func (r Rect) Expand(pad Vec) Rect {
	return Rect{Left: r.Left - pad.X, Top: r.Top - pad.Y, Right: r.Right + pad.X, Bottom: r.Bottom + pad.Y}
}

// Union returns the smallest rectangle covering both r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		Left:   math.Min(r.Left, o.Left),
		Top:    math.Min(r.Top, o.Top),
		Right:  math.Max(r.Right, o.Right),
		Bottom: math.Max(r.Bottom, o.Bottom),
	}
}

// Intersects reports whether the interiors of r and o overlap.
// Rectangles that only share an edge do not intersect.
func (r Rect) Intersects(o Rect) bool {
	return r.Left < o.Right && o.Left < r.Right && r.Top < o.Bottom && o.Top < r.Bottom
}

// Contains reports whether o lies entirely inside r, edges included.
func (r Rect) Contains(o Rect) bool {
	return o.Left >= r.Left && o.Right <= r.Right && o.Top >= r.Top && o.Bottom <= r.Bottom
}

// ContainsPoint reports whether p lies inside r, edges included.
func (r Rect) ContainsPoint(p Vec) bool {
	return p.X >= r.Left && p.X <= r.Right && p.Y >= r.Top && p.Y <= r.Bottom
}

// Bounds is an accumulator for the union of several rectangles.
// The zero value holds nothing.
type Bounds struct {
	rect Rect
	ok   bool
}

// Add extends the accumulated bounds by r.
func (b *Bounds) Add(r Rect) {
	if !b.ok {
		b.rect, b.ok = r, true
		return
	}
	b.rect = b.rect.Union(r)
}

// Rect returns the accumulated rectangle and whether anything was added.
func (b Bounds) Rect() (Rect, bool) { return b.rect, b.ok }

// SegmentIntersectsRect reports whether the segment from a to b passes through
// the interior of r. It uses Liang-Barsky clipping.
func SegmentIntersectsRect(a, b Vec, r Rect) bool {
	d := r2.Sub(b, a)
	t0, t1 := 0.0, 1.0
	clip := func(p, q float64) bool {
		if p == 0 {
			return q > 0
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return false
			}
			if t > t0 {
				t0 = t
			}
		} else {
			if t < t0 {
				return false
			}
			if t < t1 {
				t1 = t
			}
		}
		return true
	}
	if !clip(-d.X, a.X-r.Left) || !clip(d.X, r.Right-a.X) ||
		!clip(-d.Y, a.Y-r.Top) || !clip(d.Y, r.Bottom-a.Y) {
		return false
	}
	if t1 <= t0 {
		return false
	}
	mid := r2.Add(a, r2.Scale((t0+t1)/2, d))
	return mid.X > r.Left && mid.X < r.Right && mid.Y > r.Top && mid.Y < r.Bottom
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Vec) float64 { return r2.Norm(r2.Sub(b, a)) }

// RoundTo rounds v to the nearest multiple of step. A non-positive step
// returns v unchanged.
func RoundTo(v, step float64) float64 {
	if step <= 0 {
		return v
	}
	return math.Round(v/step) * step
}

// SnapVec rounds both components of v to the nearest multiple of step.
func SnapVec(v Vec, step float64) Vec {
	return Vec{X: RoundTo(v.X, step), Y: RoundTo(v.Y, step)}
}
