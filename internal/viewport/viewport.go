// Package viewport tracks the pan/zoom transform between graph space and
// the screen, including the animated reset back to identity.
package viewport

import (
	"sync"
	"time"

	"mindmap/internal/domain"
)

// MaxFitScale is the largest zoom Fit will choose
const MaxFitScale = 4.0

// Size is the drawing surface in screen pixels
type Size struct {
	Width  float64 `json:"width" validate:"gt=0"`
	Height float64 `json:"height" validate:"gt=0"`
}

// Center returns the middle of the surface
func (s Size) Center() domain.Point {
	return domain.Point{X: s.Width / 2, Y: s.Height / 2}
}

// Viewport holds the current transform. It is safe for concurrent use.
type Viewport struct {
	mu   sync.RWMutex
	size Size
	cur  domain.Transform
	anim *animation
}

type animation struct {
	from, to domain.Transform
	start    time.Time
	duration time.Duration
}

// New creates a viewport with the identity transform
func New(size Size) *Viewport {
	return &Viewport{size: size, cur: domain.Identity}
}

// Size returns the surface size
func (v *Viewport) Size() Size {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.size
}

// Resize updates the surface size and returns the new center
func (v *Viewport) Resize(size Size) domain.Point {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.size = size
	return size.Center()
}

// Set replaces the transform, cancelling any running animation. This is how
// the external pan/zoom recognizer reports its state.
func (v *Viewport) Set(t domain.Transform) {
	if t.K <= 0 {
		t.K = 1
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cur = t
	v.anim = nil
}

// Transform returns the transform at time now
func (v *Viewport) Transform(now time.Time) domain.Transform {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.advance(now)
}

// Animating reports whether a transition is still running at now
func (v *Viewport) Animating(now time.Time) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.advance(now)
	return v.anim != nil
}

// ScreenToGraph maps a screen point to graph space with the transform at now
func (v *Viewport) ScreenToGraph(now time.Time, p domain.Point) domain.Point {
	return v.Transform(now).Invert(p)
}

// AnimateTo starts a smooth transition from the current transform to t
func (v *Viewport) AnimateTo(now time.Time, t domain.Transform, d time.Duration) {
	v.mu.Lock()
	defer v.mu.Unlock()
	from := v.advance(now)
	if d <= 0 {
		v.cur = t
		v.anim = nil
		return
	}
	v.anim = &animation{from: from, to: t, start: now, duration: d}
}

// Reset animates back to the identity transform
func (v *Viewport) Reset(now time.Time, d time.Duration) {
	v.AnimateTo(now, domain.Identity, d)
}

// Fit returns the transform that frames every placed node with padding
// pixels of margin, zooming in no further than MaxFitScale. A lone point is
// centered at scale 1. ok is false when no node is placed.
func (v *Viewport) Fit(s domain.Snapshot, padding float64) (domain.Transform, bool) {
	size := v.Size()
	var minX, minY, maxX, maxY float64
	found := false
	for _, n := range s.Nodes {
		if n.Position == nil || !n.Position.Finite() {
			continue
		}
		p := *n.Position
		if !found {
			minX, minY, maxX, maxY = p.X, p.Y, p.X, p.Y
			found = true
			continue
		}
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	if !found {
		return domain.Identity, false
	}

	// axes without extent do not constrain the scale
	k := MaxFitScale
	if gw := maxX - minX; gw > 0 {
		k = min(k, (size.Width-2*padding)/gw)
	}
	if gh := maxY - minY; gh > 0 {
		k = min(k, (size.Height-2*padding)/gh)
	}
	if k <= 0 {
		k = 1
	}
	if maxX == minX && maxY == minY {
		k = 1
	}

	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	return domain.Transform{K: k, X: size.Width/2 - cx*k, Y: size.Height/2 - cy*k}, true
}

// advance settles a finished animation. Caller holds v.mu.
func (v *Viewport) advance(now time.Time) domain.Transform {
	a := v.anim
	if a == nil {
		return v.cur
	}
	f := float64(now.Sub(a.start)) / float64(a.duration)
	if f >= 1 {
		v.cur = a.to
		v.anim = nil
		return v.cur
	}
	if f < 0 {
		f = 0
	}
	v.cur = a.from.Lerp(a.to, easeCubicInOut(f))
	return v.cur
}

func easeCubicInOut(t float64) float64 {
	t *= 2
	if t <= 1 {
		return t * t * t / 2
	}
	t -= 2
	return (t*t*t + 2) / 2
}
