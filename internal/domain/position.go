package domain

import "math"

// Point is a coordinate in graph space
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// NewPoint returns a pointer to a new point, handy for optional positions
func NewPoint(x, y float64) *Point {
	return &Point{X: x, Y: y}
}

// Add returns p translated by q
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns the vector from q to p
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Finite reports whether both coordinates are usable numbers
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// Transform is a pan/zoom transform: screen = graph*K + (X, Y)
type Transform struct {
	K float64 `json:"k"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Identity is the transform with no pan and no zoom
var Identity = Transform{K: 1}

// Apply maps a graph-space point to screen space
func (t Transform) Apply(p Point) Point {
	return Point{X: p.X*t.K + t.X, Y: p.Y*t.K + t.Y}
}

// Invert maps a screen-space point back to graph space.
// A zero scale is treated as identity scale.
func (t Transform) Invert(p Point) Point {
	k := t.K
	if k == 0 {
		k = 1
	}
	return Point{X: (p.X - t.X) / k, Y: (p.Y - t.Y) / k}
}

// Lerp interpolates between two transforms, f in [0,1]
func (t Transform) Lerp(to Transform, f float64) Transform {
	return Transform{
		K: t.K + (to.K-t.K)*f,
		X: t.X + (to.X-t.X)*f,
		Y: t.Y + (to.Y-t.Y)*f,
	}
}
