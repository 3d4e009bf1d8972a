package layout

import (
	"math"
	"time"

	"mindmap/internal/domain"
)

// Config tunes the force simulation. Zero fields take the defaults below.
type Config struct {
	// LinkDistance is the rest length of the link spring
	LinkDistance float64
	// LinkStrength overrides the degree based spring strength when > 0
	LinkStrength float64

	// ChargeStrength is the many-body strength, negative for repulsion
	ChargeStrength float64
	// ChargeDistanceMin floors pair distances to avoid blow-ups
	ChargeDistanceMin float64

	CollideRadius   float64
	CollideStrength float64

	CenterStrength float64
	Center         domain.Point

	VelocityDecay float64

	AlphaMin        float64
	AlphaDecay      float64
	ReheatAlpha     float64
	DragAlphaTarget float64

	// FrameInterval is how often the engine steps the simulation
	FrameInterval time.Duration
}

const (
	DefaultLinkDistance      = 100
	DefaultChargeStrength    = -300
	DefaultChargeDistanceMin = 1
	DefaultCollideRadius     = 24
	DefaultCollideStrength   = 0.7
	DefaultCenterStrength    = 1
	DefaultVelocityDecay     = 0.4
	DefaultAlphaMin          = 0.001
	DefaultReheatAlpha       = 0.3
	DefaultDragAlphaTarget   = 0.3
	DefaultFrameInterval     = 16 * time.Millisecond
)

// DefaultAlphaDecay cools alpha from 1 to AlphaMin in 300 steps
func DefaultAlphaDecay(alphaMin float64) float64 {
	return 1 - math.Pow(alphaMin, 1.0/300)
}

// DefaultConfig returns the default tuning centered on center
func DefaultConfig(center domain.Point) Config {
	return Config{Center: center}.WithDefaults()
}

// WithDefaults fills zero fields with default values
func (c Config) WithDefaults() Config {
	if c.LinkDistance <= 0 {
		c.LinkDistance = DefaultLinkDistance
	}
	if c.ChargeStrength == 0 {
		c.ChargeStrength = DefaultChargeStrength
	}
	if c.ChargeDistanceMin <= 0 {
		c.ChargeDistanceMin = DefaultChargeDistanceMin
	}
	if c.CollideRadius <= 0 {
		c.CollideRadius = DefaultCollideRadius
	}
	if c.CollideStrength <= 0 {
		c.CollideStrength = DefaultCollideStrength
	}
	if c.CenterStrength <= 0 {
		c.CenterStrength = DefaultCenterStrength
	}
	if c.VelocityDecay <= 0 || c.VelocityDecay >= 1 {
		c.VelocityDecay = DefaultVelocityDecay
	}
	if c.AlphaMin <= 0 {
		c.AlphaMin = DefaultAlphaMin
	}
	if c.AlphaDecay <= 0 || c.AlphaDecay >= 1 {
		c.AlphaDecay = DefaultAlphaDecay(c.AlphaMin)
	}
	if c.ReheatAlpha <= 0 {
		c.ReheatAlpha = DefaultReheatAlpha
	}
	if c.DragAlphaTarget <= 0 {
		c.DragAlphaTarget = DefaultDragAlphaTarget
	}
	if c.FrameInterval <= 0 {
		c.FrameInterval = DefaultFrameInterval
	}
	return c
}
