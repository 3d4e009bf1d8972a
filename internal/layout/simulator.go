package layout

import (
	"math/rand"
	"sync"

	"go.uber.org/zap"

	"mindmap/internal/domain"
	"mindmap/internal/graph"
)

// State is the simulator lifecycle state
type State int

const (
	// Idle means the layout has settled and Step does nothing
	Idle State = iota
	// Running means alpha is cooling toward zero
	Running
	// Reheating means alpha was raised or is held up by a target
	Reheating
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Reheating:
		return "reheating"
	default:
		return "unknown"
	}
}

// Source hands the simulator the live node records. graph.Store
// implements it.
type Source interface {
	Layout(fn func(nodes []*domain.Node, links []domain.Link))
}

// TickFunc receives a detached copy of the graph after each step
type TickFunc func(domain.Snapshot)

// Simulator runs the force layout over a Source
type Simulator struct {
	mu          sync.Mutex
	src         Source
	cfg         Config
	alpha       float64
	alphaTarget float64
	state       State
	velocities  map[string]*velocity
	rng         *rand.Rand

	lmu    sync.RWMutex
	onTick []TickFunc
	onEnd  []func()

	logger *zap.Logger
}

// NewSimulator creates an idle simulator. Call Restart to start it.
func NewSimulator(src Source, cfg Config, logger *zap.Logger) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulator{
		src:        src,
		cfg:        cfg.WithDefaults(),
		velocities: make(map[string]*velocity),
		rng:        rand.New(rand.NewSource(1)),
		logger:     logger,
	}
}

// OnTick registers a listener called after every step
func (s *Simulator) OnTick(fn TickFunc) {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	s.onTick = append(s.onTick, fn)
}

// OnEnd registers a listener called when the layout settles
func (s *Simulator) OnEnd(fn func()) {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	s.onEnd = append(s.onEnd, fn)
}

// Config returns the active configuration
func (s *Simulator) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Configure replaces the tuning. The center is kept when cfg has none.
func (s *Simulator) Configure(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg.Center == (domain.Point{}) {
		cfg.Center = s.cfg.Center
	}
	s.cfg = cfg.WithDefaults()
	s.logger.Info("simulation reconfigured",
		zap.Float64("link_distance", s.cfg.LinkDistance),
		zap.Float64("charge_strength", s.cfg.ChargeStrength),
	)
}

// SetCenter moves the centering target
func (s *Simulator) SetCenter(p domain.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Center = p
}

// State returns the lifecycle state
func (s *Simulator) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Alpha returns the current temperature
func (s *Simulator) Alpha() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alpha
}

// Restart raises alpha to at least alpha and resumes stepping
func (s *Simulator) Restart(alpha float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if alpha > s.alpha {
		s.alpha = alpha
	}
	s.state = Reheating
}

// SetAlphaTarget sets the temperature alpha converges to. A positive target
// keeps the simulation hot until it is set back to zero.
func (s *Simulator) SetAlphaTarget(target float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if target < 0 {
		target = 0
	}
	s.alphaTarget = target
	if target > 0 && s.state == Running {
		s.state = Reheating
	}
}

// Stop halts the simulation without emitting an end event
func (s *Simulator) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Idle
	s.alpha = 0
	s.alphaTarget = 0
}

// Observe reacts to store changes: a clear stops the simulation, other
// structural changes reheat it. Clear and restore also discard velocities.
func (s *Simulator) Observe(c graph.Change) {
	switch c.Kind {
	case graph.Cleared:
		s.Stop()
		s.resetVelocities()
	case graph.Restored:
		s.resetVelocities()
		s.Restart(1)
	default:
		s.Restart(s.Config().ReheatAlpha)
	}
}

func (s *Simulator) resetVelocities() {
	s.mu.Lock()
	s.velocities = make(map[string]*velocity)
	s.mu.Unlock()
}

// Step advances the simulation by one tick. It reports whether a tick was
// computed.
func (s *Simulator) Step() bool {
	s.mu.Lock()
	if s.state == Idle {
		s.mu.Unlock()
		return false
	}

	cfg := s.cfg
	s.alpha += (s.alphaTarget - s.alpha) * cfg.AlphaDecay
	alpha := s.alpha

	s.lmu.RLock()
	wantSnapshot := len(s.onTick) > 0
	s.lmu.RUnlock()

	var (
		snap    domain.Snapshot
		empty   bool
		skipped int
	)
	s.src.Layout(func(nodes []*domain.Node, links []domain.Link) {
		if len(nodes) == 0 {
			empty = true
			return
		}
		skipped = s.tick(nodes, links, cfg, alpha)
		if wantSnapshot {
			snap = snapshotOf(nodes, links)
		}
	})

	if empty {
		s.state = Idle
		s.velocities = make(map[string]*velocity)
		s.mu.Unlock()
		return false
	}

	if s.state == Reheating && s.alphaTarget == 0 {
		s.state = Running
	}
	settled := alpha < cfg.AlphaMin && s.alphaTarget < cfg.AlphaMin
	if settled {
		s.state = Idle
	}
	s.mu.Unlock()

	if skipped > 0 {
		s.logger.Debug("degenerate simulation input skipped",
			zap.Error(domain.Errorf(domain.ErrSimulationDegenerate, "%d records skipped", skipped).WithOp("step")),
		)
	}

	s.lmu.RLock()
	onTick := append([]TickFunc(nil), s.onTick...)
	onEnd := append([]func(){}, s.onEnd...)
	s.lmu.RUnlock()

	for _, fn := range onTick {
		fn(snap)
	}
	if settled {
		s.logger.Debug("layout settled")
		for _, fn := range onEnd {
			fn()
		}
	}
	return true
}

// tick runs the forces on the live records. Caller holds s.mu and the
// source lock.
func (s *Simulator) tick(nodes []*domain.Node, links []domain.Link, cfg Config, alpha float64) int {
	seed(nodes, links, cfg.Center)

	skipped := 0
	bodies := make([]*body, 0, len(nodes))
	byID := make(map[string]*body, len(nodes))
	for _, n := range nodes {
		if !n.Position.Finite() {
			skipped++
			continue
		}
		v, ok := s.velocities[n.ID]
		if !ok {
			v = &velocity{}
			s.velocities[n.ID] = v
		}
		b := &body{node: n, v: v}
		bodies = append(bodies, b)
		byID[n.ID] = b
	}

	// velocities of removed nodes are dropped
	if len(s.velocities) > len(byID) {
		for id := range s.velocities {
			if _, ok := byID[id]; !ok {
				delete(s.velocities, id)
			}
		}
	}

	skipped += applyLinks(byID, links, cfg, alpha, s.jiggle)
	applyCharge(bodies, cfg, alpha, s.jiggle)
	applyCollide(bodies, cfg, s.jiggle)
	applyCenter(bodies, cfg)
	integrate(bodies, cfg)
	return skipped
}

func (s *Simulator) jiggle() float64 {
	return (s.rng.Float64() - 0.5) * 1e-6
}

func snapshotOf(nodes []*domain.Node, links []domain.Link) domain.Snapshot {
	out := domain.Snapshot{
		Nodes: make([]domain.Node, len(nodes)),
		Links: make([]domain.Link, len(links)),
	}
	for i, n := range nodes {
		out.Nodes[i] = n.Clone()
	}
	copy(out.Links, links)
	return out
}
