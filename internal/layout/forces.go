package layout

import (
	"math"

	"mindmap/internal/domain"
)

// phyllotaxis spacing used to seed unplaced nodes
var (
	seedRadius = 10.0
	seedAngle  = math.Pi * (3 - math.Sqrt(5))
)

type velocity struct {
	X, Y float64
}

// body is a node taking part in the current step
type body struct {
	node *domain.Node
	v    *velocity
}

func (b *body) pos() *domain.Point {
	return b.node.Position
}

// seed places nodes without a position. A node lands on a phyllotaxis ring
// around its first placed neighbour, or around the center when it has none.
// Pinned nodes start at their pin.
func seed(nodes []*domain.Node, links []domain.Link, center domain.Point) int {
	var index map[string]*domain.Node
	seeded := 0

	for _, n := range nodes {
		if n.Position != nil {
			continue
		}
		if n.Pin != nil {
			n.Position = &domain.Point{X: n.Pin.X, Y: n.Pin.Y}
			continue
		}
		if index == nil {
			index = make(map[string]*domain.Node, len(nodes))
			for _, m := range nodes {
				index[m.ID] = m
			}
		}

		origin := center
		if p := placedNeighbour(n.ID, links, index); p != nil {
			origin = *p
		}
		r := seedRadius * math.Sqrt(0.5+float64(seeded))
		a := float64(seeded+1) * seedAngle
		n.Position = &domain.Point{X: origin.X + r*math.Cos(a), Y: origin.Y + r*math.Sin(a)}
		seeded++
	}
	return seeded
}

func placedNeighbour(id string, links []domain.Link, index map[string]*domain.Node) *domain.Point {
	for _, l := range links {
		var other string
		switch id {
		case l.Source:
			other = l.Target
		case l.Target:
			other = l.Source
		default:
			continue
		}
		if n, ok := index[other]; ok && n.Position != nil && n.Position.Finite() {
			return n.Position
		}
	}
	return nil
}

// applyLinks pulls linked nodes toward LinkDistance. The spring is weaker on
// well connected nodes and the correction is split by relative degree.
// Self-links exert no force. Returns the number of links skipped because an
// endpoint is unusable.
func applyLinks(bodies map[string]*body, links []domain.Link, cfg Config, alpha float64, jiggle func() float64) int {
	skipped := 0
	count := make(map[string]int, len(bodies))
	valid := make([]domain.Link, 0, len(links))
	for _, l := range links {
		_, okS := bodies[l.Source]
		_, okT := bodies[l.Target]
		if !okS || !okT {
			skipped++
			continue
		}
		if l.Source == l.Target {
			continue
		}
		count[l.Source]++
		count[l.Target]++
		valid = append(valid, l)
	}

	for _, l := range valid {
		s, t := bodies[l.Source], bodies[l.Target]
		cs, ct := float64(count[l.Source]), float64(count[l.Target])

		strength := cfg.LinkStrength
		if strength <= 0 {
			strength = 1 / math.Min(cs, ct)
		}
		bias := cs / (cs + ct)

		x := t.pos().X + t.v.X - s.pos().X - s.v.X
		y := t.pos().Y + t.v.Y - s.pos().Y - s.v.Y
		if x == 0 {
			x = jiggle()
		}
		if y == 0 {
			y = jiggle()
		}
		d := math.Sqrt(x*x + y*y)
		d = (d - cfg.LinkDistance) / d * alpha * strength
		x *= d
		y *= d

		t.v.X -= x * bias
		t.v.Y -= y * bias
		s.v.X += x * (1 - bias)
		s.v.Y += y * (1 - bias)
	}
	return skipped
}

// applyCharge applies pairwise many-body force. Distances below
// ChargeDistanceMin are softened.
func applyCharge(bodies []*body, cfg Config, alpha float64, jiggle func() float64) {
	min2 := cfg.ChargeDistanceMin * cfg.ChargeDistanceMin
	for i := 0; i < len(bodies); i++ {
		a := bodies[i]
		for j := i + 1; j < len(bodies); j++ {
			b := bodies[j]
			x := b.pos().X - a.pos().X
			y := b.pos().Y - a.pos().Y
			if x == 0 {
				x = jiggle()
			}
			if y == 0 {
				y = jiggle()
			}
			l := x*x + y*y
			if l < min2 {
				l = math.Sqrt(min2 * l)
			}
			w := cfg.ChargeStrength * alpha / l
			a.v.X += x * w
			a.v.Y += y * w
			b.v.X -= x * w
			b.v.Y -= y * w
		}
	}
}

// applyCollide separates node circles that would overlap after this step
func applyCollide(bodies []*body, cfg Config, jiggle func() float64) {
	r := cfg.CollideRadius * 2
	r2 := r * r
	for i := 0; i < len(bodies); i++ {
		a := bodies[i]
		for j := i + 1; j < len(bodies); j++ {
			b := bodies[j]
			x := a.pos().X + a.v.X - b.pos().X - b.v.X
			y := a.pos().Y + a.v.Y - b.pos().Y - b.v.Y
			l := x*x + y*y
			if l >= r2 {
				continue
			}
			if x == 0 {
				x = jiggle()
				l += x * x
			}
			if y == 0 {
				y = jiggle()
				l += y * y
			}
			l = math.Sqrt(l)
			l = (r - l) / l * cfg.CollideStrength
			x *= l
			y *= l
			// equal radii share the correction evenly
			a.v.X += x * 0.5
			a.v.Y += y * 0.5
			b.v.X -= x * 0.5
			b.v.Y -= y * 0.5
		}
	}
}

// applyCenter translates all bodies so their centroid moves toward Center
func applyCenter(bodies []*body, cfg Config) {
	if len(bodies) == 0 {
		return
	}
	var sx, sy float64
	for _, b := range bodies {
		sx += b.pos().X
		sy += b.pos().Y
	}
	n := float64(len(bodies))
	dx := (sx/n - cfg.Center.X) * cfg.CenterStrength
	dy := (sy/n - cfg.Center.Y) * cfg.CenterStrength
	for _, b := range bodies {
		b.pos().X -= dx
		b.pos().Y -= dy
	}
}

// integrate moves free bodies by their decayed velocity and holds pinned
// bodies at their pin
func integrate(bodies []*body, cfg Config) {
	keep := 1 - cfg.VelocityDecay
	for _, b := range bodies {
		if pin := b.node.Pin; pin != nil {
			b.pos().X, b.pos().Y = pin.X, pin.Y
			b.v.X, b.v.Y = 0, 0
			continue
		}
		b.v.X *= keep
		b.v.Y *= keep
		b.pos().X += b.v.X
		b.pos().Y += b.v.Y
	}
}
