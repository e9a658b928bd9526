// Package geom provides the planar primitives used by the layout engine.
//
// Positions and sizes are [Vec] values backed by gonum's r2 package.
// Rectangles are axis-aligned and stored as edges rather than origin plus size,
// which keeps collision and union checks free of repeated additions.
//
// # Orientation
//
// Layout algorithms are written against an abstract primary axis (the way
// wires flow) and a secondary axis (the way siblings stack). [Orient] maps
// those onto screen X and Y so the same solver serves left-to-right and
// top-to-bottom graphs:
//
//	o := geom.Horizontal
//	right := o.PMax(rect) // rect.Right
//	below := o.SMax(rect) // rect.Bottom
package geom
