// Package wire defines the curve drawn between an output pin and an input
// pin, and answers whether a pointer is close enough to that curve to hover
// or select it.
//
// A wire is a cubic Bézier. Its inner control points sit [Style.FrameSize]
// away from the endpoints along the layout axis, leaving the output pin in
// the direction children are laid out and entering the input pin from the
// opposite side. Hit tests flatten the curve into a polyline whose
// deviation from the true curve is bounded by [Style.Smoothness].
package wire

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/treeize/pkg/geom"
)

// Axis is the direction wires leave output pins.
type Axis int

const (
	// Vertical wires leave outputs downwards, matching top-down layouts.
	Vertical Axis = iota
	// Horizontal wires leave outputs to the right.
	Horizontal
)

func (a Axis) String() string {
	if a == Horizontal {
		return "horizontal"
	}
	return "vertical"
}

func (a Axis) unit() geom.Vec {
	if a == Horizontal {
		return geom.V(1, 0)
	}
	return geom.V(0, 1)
}

// ParseAxis accepts "vertical" or "horizontal".
func ParseAxis(s string) (Axis, bool) {
	switch s {
	case "vertical", "":
		return Vertical, true
	case "horizontal":
		return Horizontal, true
	}
	return Vertical, false
}

// Kind selects the wire shape.
type Kind int

const (
	Bezier Kind = iota
	Line
)

func (k Kind) String() string {
	if k == Line {
		return "line"
	}
	return "bezier"
}

// ParseKind accepts "bezier" or "line".
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "bezier", "":
		return Bezier, true
	case "line":
		return Line, true
	}
	return Bezier, false
}

// Stock style values.
const (
	DefaultFrameSize   = 30
	DefaultSmoothness  = 1.0
	DefaultWidth       = 1.0
	DefaultMinHitWidth = 2.0

	// MinSmoothness is the finest flattening tolerance honored.
	MinSmoothness = 0.05
	// MaxSmoothness is the coarsest tolerance accepted by configuration.
	MaxSmoothness = 10

	maxSegments = 256
)

// Style holds the parameters shared by curve construction and hit tests.
type Style struct {
	// FrameSize is the distance of the control points from the endpoints.
	FrameSize float64
	// Downscale shrinks the frame when the endpoints are close together.
	Downscale bool
	// Upscale grows the frame when the endpoints are far apart.
	Upscale bool
	// Smoothness is the flattening tolerance in scene units. Lower is
	// smoother; values below MinSmoothness are clamped.
	Smoothness float64
	// Width is the stroke width.
	Width float64
	// MinHitWidth is the smallest hit distance in screen units, so thin
	// wires stay clickable when zoomed out.
	MinHitWidth float64
	Axis        Axis
	Kind        Kind
}

// DefaultStyle returns a vertical Bézier style with downscaling enabled.
func DefaultStyle() Style {
	return Style{
		FrameSize:   DefaultFrameSize,
		Downscale:   true,
		Smoothness:  DefaultSmoothness,
		Width:       DefaultWidth,
		MinHitWidth: DefaultMinHitWidth,
		Axis:        Vertical,
		Kind:        Bezier,
	}
}

// AdjustFrameSize returns the frame size to use between from and to. With
// Downscale the frame never exceeds a sixth of the span; with Upscale it is
// at least a sixth of it.
func (s Style) AdjustFrameSize(from, to geom.Vec) float64 {
	frame := s.FrameSize
	span := geom.Dist(from, to) / 6
	if s.Upscale {
		frame = max(frame, span)
	}
	if s.Downscale {
		frame = min(frame, span)
	}
	return frame
}

// Curve returns the control points of the wire from an output pin at from
// to an input pin at to.
func (s Style) Curve(from, to geom.Vec) Curve {
	if s.Kind == Line {
		third := r2.Scale(1.0/3, r2.Sub(to, from))
		return Curve{from, r2.Add(from, third), r2.Sub(to, third), to}
	}
	offset := r2.Scale(s.AdjustFrameSize(from, to), s.Axis.unit())
	return Curve{from, r2.Add(from, offset), r2.Sub(to, offset), to}
}

// Threshold returns the hit distance in scene units at the given zoom
// scale: the stroke width, but never less than MinHitWidth screen units.
func (s Style) Threshold(scale float64) float64 {
	if scale <= 0 {
		scale = 1
	}
	return max(s.Width, s.MinHitWidth/scale)
}

func (s Style) tolerance() float64 {
	return max(s.Smoothness, MinSmoothness)
}

// Distance returns the distance from p to the flattened wire.
func (s Style) Distance(from, to, p geom.Vec) float64 {
	return s.Curve(from, to).Distance(p, s.tolerance())
}

// Hit reports whether p lies within the unscaled threshold of the wire.
func (s Style) Hit(from, to, p geom.Vec) bool {
	return s.HitScaled(from, to, p, 1)
}

// HitScaled reports whether p lies within Threshold(scale) of the wire.
func (s Style) HitScaled(from, to, p geom.Vec, scale float64) bool {
	return s.Curve(from, to).Within(p, s.Threshold(scale), s.tolerance())
}

// Curve is a cubic Bézier given by its four control points.
type Curve [4]geom.Vec

// At evaluates the curve at t in [0, 1].
func (c Curve) At(t float64) geom.Vec {
	u := 1 - t
	p := r2.Scale(u*u*u, c[0])
	p = r2.Add(p, r2.Scale(3*u*u*t, c[1]))
	p = r2.Add(p, r2.Scale(3*u*t*t, c[2]))
	return r2.Add(p, r2.Scale(t*t*t, c[3]))
}

// Reverse returns the same curve traversed from the other end.
func (c Curve) Reverse() Curve { return Curve{c[3], c[2], c[1], c[0]} }

// Bounds returns the rectangle spanned by the control points, which
// contains the whole curve.
func (c Curve) Bounds() geom.Rect {
	r := geom.RectFromPoints(c[0], c[1])
	return r.Union(geom.RectFromPoints(c[2], c[3]))
}

// Segments returns how many line segments keep the flattened curve within
// tolerance of the true curve.
func (c Curve) Segments(tolerance float64) int {
	tolerance = max(tolerance, MinSmoothness)
	d1 := r2.Norm(r2.Add(r2.Sub(c[0], r2.Scale(2, c[1])), c[2]))
	d2 := r2.Norm(r2.Add(r2.Sub(c[1], r2.Scale(2, c[2])), c[3]))
	n := math.Ceil(math.Sqrt(0.75 * max(d1, d2) / tolerance))
	return int(min(max(n, 1), maxSegments))
}

// Flatten samples the curve at uniform parameter steps. The result starts
// at c[0] and ends at c[3].
func (c Curve) Flatten(tolerance float64) []geom.Vec {
	n := c.Segments(tolerance)
	pts := make([]geom.Vec, n+1)
	for i := range pts {
		pts[i] = c.At(float64(i) / float64(n))
	}
	pts[0], pts[n] = c[0], c[3]
	return pts
}

// Distance returns the distance from p to the flattened curve.
func (c Curve) Distance(p geom.Vec, tolerance float64) float64 {
	pts := c.Flatten(tolerance)
	best := math.Inf(1)
	for i := 1; i < len(pts); i++ {
		best = min(best, segmentDistance(p, pts[i-1], pts[i]))
	}
	return best
}

// Within reports whether p is at most threshold away from the curve.
func (c Curve) Within(p geom.Vec, threshold, tolerance float64) bool {
	box := c.Bounds()
	pad := geom.V(threshold, threshold)
	box = geom.Rect{Min: r2.Sub(box.Min, pad), Max: r2.Add(box.Max, pad)}
	if !box.Contains(p) {
		return false
	}
	return c.Distance(p, tolerance) <= threshold
}

func segmentDistance(p, a, b geom.Vec) float64 {
	ab := r2.Sub(b, a)
	l2 := r2.Dot(ab, ab)
	if l2 == 0 {
		return geom.Dist(p, a)
	}
	t := r2.Dot(r2.Sub(p, a), ab) / l2
	t = min(max(t, 0), 1)
	return geom.Dist(p, r2.Add(a, r2.Scale(t, ab)))
}
