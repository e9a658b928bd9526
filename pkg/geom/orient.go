package geom

// Orient maps the layout's abstract primary and secondary axes onto screen
// axes. The primary axis is the direction wires travel from outputs to inputs;
// the secondary axis is perpendicular to it.
//
// The zero value is the horizontal orientation: primary is X, secondary is Y.
type Orient struct {
	// Vertical makes Y the primary axis and X the secondary axis.
	Vertical bool
}

// Horizontal is the left-to-right orientation.
var Horizontal = Orient{}

// Vertical is the top-to-bottom orientation.
var Vertical = Orient{Vertical: true}

// P returns the primary component of v.
func (o Orient) P(v Vec) float64 {
	if o.Vertical {
		return v.Y
	}
	return v.X
}

// S returns the secondary component of v.
func (o Orient) S(v Vec) float64 {
	if o.Vertical {
		return v.X
	}
	return v.Y
}

// Vec builds a vector from primary and secondary components.
func (o Orient) Vec(p, s float64) Vec {
	if o.Vertical {
		return Vec{X: s, Y: p}
	}
	return Vec{X: p, Y: s}
}

// PMin returns the edge of r with the smallest primary coordinate.
func (o Orient) PMin(r Rect) float64 {
	if o.Vertical {
		return r.Top
	}
	return r.Left
}

// PMax returns the edge of r with the largest primary coordinate.
func (o Orient) PMax(r Rect) float64 {
	if o.Vertical {
		return r.Bottom
	}
	return r.Right
}

// SMin returns the edge of r with the smallest secondary coordinate.
func (o Orient) SMin(r Rect) float64 {
	if o.Vertical {
		return r.Left
	}
	return r.Top
}

// SMax returns the edge of r with the largest secondary coordinate.
func (o Orient) SMax(r Rect) float64 {
	if o.Vertical {
		return r.Right
	}
	return r.Bottom
}

// PSize returns the extent of r along the primary axis.
func (o Orient) PSize(r Rect) float64 { return o.PMax(r) - o.PMin(r) }

// SSize returns the extent of r along the secondary axis.
func (o Orient) SSize(r Rect) float64 { return o.SMax(r) - o.SMin(r) }

// Translate returns r moved by dp along the primary axis and ds along the
// secondary axis.
func (o Orient) Translate(r Rect, dp, ds float64) Rect {
	return r.Translate(o.Vec(dp, ds))
}

// Rect builds a rectangle from primary and secondary ranges.
func (o Orient) Rect(pmin, pmax, smin, smax float64) Rect {
	lo, hi := o.Vec(pmin, smin), o.Vec(pmax, smax)
	return Rect{Left: lo.X, Top: lo.Y, Right: hi.X, Bottom: hi.Y}
}
