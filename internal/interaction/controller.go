// Package interaction turns pointer gestures into graph mutations and
// simulation perturbations.
package interaction

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"mindmap/internal/domain"
	"mindmap/internal/viewport"
)

// Button identifies the pointer button of a gesture
type Button string

const (
	Primary   Button = "primary"
	Secondary Button = "secondary"
)

// Pointer is one pointer event. Target is the node under the pointer, or
// empty for the canvas.
type Pointer struct {
	Button Button       `json:"button" validate:"omitempty,oneof=primary secondary"`
	Target string       `json:"target,omitempty"`
	Screen domain.Point `json:"screen"`
	At     time.Time    `json:"-"`
}

// Config holds gesture timing and policy
type Config struct {
	DoubleActivateWindow time.Duration
	ConfirmDegree        int
	ReleaseDelay         time.Duration
	ResetDuration        time.Duration
	DefaultLabel         string
	DragAlphaTarget      float64
	ReheatAlpha          float64
}

// DefaultConfig returns the default gesture policy
func DefaultConfig() Config {
	return Config{
		DoubleActivateWindow: 400 * time.Millisecond,
		ConfirmDegree:        3,
		ReleaseDelay:         time.Second,
		ResetDuration:        750 * time.Millisecond,
		DefaultLabel:         "New idea",
		DragAlphaTarget:      0.3,
		ReheatAlpha:          0.3,
	}
}

// Option configures a Controller
type Option func(*Controller)

// WithScheduler replaces the timer source
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) { c.sched = s }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithRunner sets how prompt flows are run. The default starts a goroutine.
func WithRunner(run func(func())) Option {
	return func(c *Controller) { c.run = run }
}

// WithLogger sets the controller logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// Controller is the gesture state machine
type Controller struct {
	cfg       Config
	graph     Graph
	sim       Simulation
	view      *viewport.Viewport
	reporter  Reporter
	editor    Editor
	confirmer Confirmer

	sched  Scheduler
	now    func() time.Time
	run    func(func())
	logger *zap.Logger

	mu       sync.Mutex
	last     *activation
	dragging string
	releases map[string]Timer
}

// activation is a first activation waiting for a possible second one
type activation struct {
	button Button
	target string
	at     time.Time
	timer  Timer

	cancelled bool
}

// cancel drops the deferred single action. Caller holds c.mu.
func (a *activation) cancel() {
	a.cancelled = true
	if a.timer != nil {
		a.timer.Stop()
	}
}

// New creates a controller
func New(cfg Config, g Graph, sim Simulation, view *viewport.Viewport, reporter Reporter, editor Editor, confirmer Confirmer, opts ...Option) *Controller {
	c := &Controller{
		cfg:       cfg,
		graph:     g,
		sim:       sim,
		view:      view,
		reporter:  reporter,
		editor:    editor,
		confirmer: confirmer,
		sched:     realScheduler{},
		now:       time.Now,
		run:       func(f func()) { go f() },
		logger:    zap.NewNop(),
		releases:  make(map[string]Timer),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Activate handles a click-like activation. A second activation with the
// same button on the same target within the window is a double activation.
func (c *Controller) Activate(ctx context.Context, p Pointer) {
	ctx = context.WithoutCancel(ctx)
	p = c.stamp(p)
	hasSingle, hasDouble := c.bindings(p)

	if !hasDouble {
		if hasSingle {
			c.single(p)
		}
		return
	}

	c.mu.Lock()
	if last := c.last; last != nil && last.button == p.Button && last.target == p.Target &&
		p.At.Sub(last.at) <= c.cfg.DoubleActivateWindow {
		last.cancel()
		c.last = nil
		c.mu.Unlock()
		c.double(ctx, p)
		return
	}

	act := &activation{button: p.Button, target: p.Target, at: p.At}
	c.last = act
	if hasSingle {
		// hold the single action until the window passes
		act.timer = c.sched.AfterFunc(c.cfg.DoubleActivateWindow, func() {
			c.mu.Lock()
			if act.cancelled {
				c.mu.Unlock()
				return
			}
			if c.last == act {
				c.last = nil
			}
			c.mu.Unlock()
			c.single(p)
		})
	}
	c.mu.Unlock()
}

// bindings reports which actions exist for the button and target
func (c *Controller) bindings(p Pointer) (single, double bool) {
	onNode := p.Target != ""
	switch p.Button {
	case Primary:
		return false, true
	case Secondary:
		return true, onNode
	}
	return false, false
}

func (c *Controller) single(p Pointer) {
	if p.Button != Secondary {
		return
	}
	if p.Target == "" {
		at := c.view.ScreenToGraph(p.At, p.Screen)
		n, err := c.graph.AddNode(c.cfg.DefaultLabel, &at)
		if err != nil {
			c.report("add node", err)
			return
		}
		c.logger.Debug("node added", zap.String("node_id", n.ID))
		return
	}
	n, _, err := c.graph.AddLinkedNode(p.Target, c.cfg.DefaultLabel)
	if err != nil {
		c.report("add child", err)
		return
	}
	c.logger.Debug("child added", zap.String("parent_id", p.Target), zap.String("node_id", n.ID))
}

func (c *Controller) double(ctx context.Context, p Pointer) {
	switch {
	case p.Target == "" && p.Button == Primary:
		c.view.Reset(p.At, c.cfg.ResetDuration)
	case p.Button == Primary:
		c.run(func() { c.rename(ctx, p.Target) })
	case p.Button == Secondary:
		c.run(func() { c.remove(ctx, p.Target) })
	}
}

func (c *Controller) rename(ctx context.Context, id string) {
	node, ok := c.graph.Node(id)
	if !ok {
		c.report("rename", domain.Errorf(domain.ErrInvalidReference, "node %q not found", id))
		return
	}
	name, ok, err := c.editor.EditName(ctx, node)
	if err != nil {
		c.report("rename", err)
		return
	}
	if !ok {
		return
	}
	if err := c.graph.RenameNode(id, name); err != nil {
		c.report("rename", err)
	}
}

func (c *Controller) remove(ctx context.Context, id string) {
	node, ok := c.graph.Node(id)
	if !ok {
		return
	}
	if degree := c.graph.Degree(id); degree >= c.cfg.ConfirmDegree {
		confirmed, err := c.confirmer.Confirm(ctx, node, degree)
		if err != nil {
			c.report("remove", err)
			return
		}
		if !confirmed {
			return
		}
	}
	c.graph.RemoveNode(id)
}

// DragStart pins the node at its current position and keeps the
// simulation hot while the drag lasts
func (c *Controller) DragStart(_ context.Context, p Pointer) {
	if p.Target == "" {
		return
	}
	p = c.stamp(p)
	node, ok := c.graph.Node(p.Target)
	if !ok {
		c.report("drag", domain.Errorf(domain.ErrInvalidReference, "node %q not found", p.Target))
		return
	}

	c.mu.Lock()
	c.dragging = p.Target
	if t, ok := c.releases[p.Target]; ok {
		t.Stop()
		delete(c.releases, p.Target)
	}
	c.mu.Unlock()

	at := c.view.ScreenToGraph(p.At, p.Screen)
	if node.Position != nil {
		at = *node.Position
	}
	if err := c.graph.Pin(p.Target, at); err != nil {
		c.report("drag", err)
		return
	}
	c.sim.SetAlphaTarget(c.cfg.DragAlphaTarget)
	c.sim.Restart(c.cfg.ReheatAlpha)
}

// DragMove moves the pin to the pointer in graph space
func (c *Controller) DragMove(_ context.Context, p Pointer) {
	p = c.stamp(p)
	id := c.dragTarget(p)
	if id == "" {
		return
	}
	if err := c.graph.Pin(id, c.view.ScreenToGraph(p.At, p.Screen)); err != nil {
		c.report("drag", err)
	}
}

// DragEnd lets the simulation cool and releases the pin after ReleaseDelay
func (c *Controller) DragEnd(_ context.Context, p Pointer) {
	id := c.dragTarget(p)
	if id == "" {
		return
	}
	c.sim.SetAlphaTarget(0)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dragging == id {
		c.dragging = ""
	}
	var t Timer
	t = c.sched.AfterFunc(c.cfg.ReleaseDelay, func() {
		c.mu.Lock()
		if c.releases[id] != t {
			c.mu.Unlock()
			return
		}
		delete(c.releases, id)
		c.mu.Unlock()
		c.graph.Unpin(id)
	})
	c.releases[id] = t
}

// Dragging returns the id of the node being dragged
func (c *Controller) Dragging() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dragging
}

// Close cancels pending deferred actions and releases
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last != nil {
		c.last.cancel()
	}
	c.last = nil
	for id, t := range c.releases {
		t.Stop()
		delete(c.releases, id)
	}
}

func (c *Controller) dragTarget(p Pointer) string {
	if p.Target != "" {
		return p.Target
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dragging
}

func (c *Controller) stamp(p Pointer) Pointer {
	if p.At.IsZero() {
		p.At = c.now()
	}
	if p.Button == "" {
		p.Button = Primary
	}
	return p
}

func (c *Controller) report(op string, err error) {
	c.logger.Warn("gesture failed", zap.String("op", op), zap.Error(err))
	if c.reporter != nil {
		c.reporter.Report(err)
	}
}
