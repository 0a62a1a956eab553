// Package geom holds the small amount of planar geometry shared by the
// graph store, the layout engine, wire curves and the interaction layer.
//
// Points and vectors are gonum [r2.Vec] values so arithmetic goes through
// r2.Add, r2.Sub, r2.Scale and r2.Norm.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Vec is a 2D point or displacement in scene coordinates.
type Vec = r2.Vec

// V is shorthand for constructing a Vec.
func V(x, y float64) Vec { return Vec{X: x, Y: y} }

// Dist returns the euclidean distance between a and b.
func Dist(a, b Vec) float64 { return r2.Norm(r2.Sub(a, b)) }

// Rect is an axis-aligned rectangle. Min is the top-left corner.
type Rect struct {
	Min, Max Vec
}

// RectFromPoints returns the canonical rectangle spanned by two corners
// given in any order.
func RectFromPoints(a, b Vec) Rect {
	return Rect{
		Min: V(math.Min(a.X, b.X), math.Min(a.Y, b.Y)),
		Max: V(math.Max(a.X, b.X), math.Max(a.Y, b.Y)),
	}
}

// RectFromMinSize builds a rectangle from its top-left corner and size.
func RectFromMinSize(origin, size Vec) Rect {
	return Rect{Min: origin, Max: r2.Add(origin, size)}
}

// Width returns the horizontal span.
func (r Rect) Width() float64 { return r.Max.X - r.Min.X }

// Height returns the vertical span.
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// Size returns (Width, Height).
func (r Rect) Size() Vec { return r2.Sub(r.Max, r.Min) }

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Vec { return r2.Scale(0.5, r2.Add(r.Min, r.Max)) }

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Vec) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// ContainsRect reports whether o lies fully inside r.
func (r Rect) ContainsRect(o Rect) bool {
	return r.Contains(o.Min) && r.Contains(o.Max)
}

// Intersects reports whether r and o overlap. Touching edges count.
func (r Rect) Intersects(o Rect) bool {
	return r.Min.X <= o.Max.X && o.Min.X <= r.Max.X &&
		r.Min.Y <= o.Max.Y && o.Min.Y <= r.Max.Y
}

// Translate returns r moved by d.
func (r Rect) Translate(d Vec) Rect {
	return Rect{Min: r2.Add(r.Min, d), Max: r2.Add(r.Max, d)}
}

// Union returns the smallest rectangle containing r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		Min: V(math.Min(r.Min.X, o.Min.X), math.Min(r.Min.Y, o.Min.Y)),
		Max: V(math.Max(r.Max.X, o.Max.X), math.Max(r.Max.Y, o.Max.Y)),
	}
}
