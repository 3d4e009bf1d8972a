// Package engine wires the graph store, the force simulation, the gesture
// controller and autosave into one running mind map, and streams its state
// to connected renderers.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"mindmap/internal/autosave"
	"mindmap/internal/domain"
	"mindmap/internal/graph"
	"mindmap/internal/hub"
	"mindmap/internal/interaction"
	"mindmap/internal/layout"
	"mindmap/internal/metrics"
	"mindmap/internal/prompt"
	"mindmap/internal/repository"
	"mindmap/internal/viewport"
)

// Config collects the tuning of every component
type Config struct {
	RootName      string
	Size          viewport.Size
	Layout        layout.Config
	Interaction   interaction.Config
	Autosave      autosave.Config
	PromptTimeout time.Duration
	// LoadTimeout bounds the initial load in Open
	LoadTimeout time.Duration
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the engine logger
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics records engine activity on c
func WithMetrics(c *metrics.Collector) Option {
	return func(e *Engine) { e.metrics = c }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine is a running mind map
type Engine struct {
	cfg Config
	gw  repository.Gateway

	store   *graph.Store
	sim     *layout.Simulator
	view    *viewport.Viewport
	saver   *autosave.Saver
	ctrl    *interaction.Controller
	prompts *prompt.Broker
	hub     *hub.Hub
	metrics *metrics.Collector

	logger *zap.Logger
	now    func() time.Time

	openOnce sync.Once
}

// New creates an engine backed by gw. Call Open before serving.
func New(gw repository.Gateway, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:    cfg,
		gw:     gw,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = metrics.NewCollector("mindmap")
	}
	if e.cfg.LoadTimeout <= 0 {
		e.cfg.LoadTimeout = 10 * time.Second
	}

	e.view = viewport.New(cfg.Size)
	center := cfg.Size.Center()

	e.store = graph.New(center,
		graph.WithRootName(cfg.RootName),
		graph.WithLogger(e.logger.Named("graph")),
	)

	simCfg := cfg.Layout
	simCfg.Center = center
	e.sim = layout.NewSimulator(e.store, simCfg.WithDefaults(), e.logger.Named("layout"))
	e.sim.OnTick(e.onTick)
	e.sim.OnEnd(e.onSettled)

	e.saver = autosave.New(gw, e.store, cfg.Autosave,
		autosave.WithLogger(e.logger.Named("autosave")),
		autosave.WithReporter(e),
		autosave.WithResultFunc(e.metrics.StorageResult),
	)
	e.store.SetPersister(e.saver)

	e.hub = hub.New(e.logger.Named("hub"))
	e.prompts = prompt.New(prompt.PublisherFunc(func(r prompt.Request) {
		e.hub.Broadcast(hub.Event{Type: hub.EventPrompt, Payload: r})
	}), cfg.PromptTimeout, e.logger.Named("prompt"))

	e.ctrl = interaction.New(cfg.Interaction, e.store, e.sim, e.view, e, e.prompts, e.prompts,
		interaction.WithLogger(e.logger.Named("interaction")),
		interaction.WithClock(func() time.Time { return e.now() }),
	)
	return e
}

// Open loads the stored map and starts observing changes. A failed load
// is reported and leaves the default root in place; nothing is written
// back until the user changes the map.
func (e *Engine) Open(ctx context.Context) error {
	var err error
	e.openOnce.Do(func() {
		loadCtx, cancel := context.WithTimeout(ctx, e.cfg.LoadTimeout)
		defer cancel()

		start := e.now()
		snap, loadErr := e.gw.Load(loadCtx)
		e.metrics.StorageResult("load", loadErr, e.now().Sub(start))
		if loadErr != nil {
			err = loadErr
			e.logger.Warn("failed to load mind map, starting from an empty map", zap.Error(loadErr))
		} else {
			e.store.Restore(snap, e.view.Size().Center())
			nodes, links := e.store.Len()
			e.logger.Info("mind map loaded", zap.Int("nodes", nodes), zap.Int("links", links))
		}

		e.store.Subscribe(e.onChange)
		e.sim.Restart(1)
	})
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	return nil
}

// Run steps the simulation and streams frames until ctx is done
func (e *Engine) Run(ctx context.Context) {
	go e.hub.Run(ctx)

	ticker := time.NewTicker(e.sim.Config().FrameInterval)
	defer ticker.Stop()

	animating := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if e.sim.Step() {
				continue
			}
			// the viewport may animate while the layout rests
			now := e.now()
			wasAnimating := animating
			animating = e.view.Animating(now)
			if animating || wasAnimating {
				e.broadcastFrame(e.store.Snapshot())
			}
		}
	}
}

// Shutdown stops pending gestures, flushes the map and closes storage
func (e *Engine) Shutdown(ctx context.Context) error {
	e.ctrl.Close()
	err := e.saver.Close(ctx)
	if cerr := e.gw.Close(); cerr != nil {
		err = errors.Join(err, domain.PersistenceError("close", cerr))
	}
	return err
}

// Report surfaces a failure to the user
func (e *Engine) Report(err error) {
	e.logger.Warn("operation failed", zap.Error(err))
	e.hub.Broadcast(hub.NewErrorEvent(err))
}

// Store returns the graph store
func (e *Engine) Store() *graph.Store { return e.store }

// Simulator returns the force simulation
func (e *Engine) Simulator() *layout.Simulator { return e.sim }

// Controller returns the gesture controller
func (e *Engine) Controller() *interaction.Controller { return e.ctrl }

// Prompts returns the open question broker
func (e *Engine) Prompts() *prompt.Broker { return e.prompts }

// Hub returns the event stream
func (e *Engine) Hub() *hub.Hub { return e.hub }

// Metrics returns the metrics collector
func (e *Engine) Metrics() *metrics.Collector { return e.metrics }

// Frame returns the current render state
func (e *Engine) Frame() hub.Frame {
	snap := e.store.Snapshot()
	return hub.Frame{Nodes: snap.Nodes, Links: snap.Links, Transform: e.view.Transform(e.now())}
}

// Clear resets the map to a lone root and wipes storage
func (e *Engine) Clear(ctx context.Context) error {
	return e.store.Clear(ctx, e.view.Size().Center())
}

// Import replaces the map with snapshot and saves it immediately
func (e *Engine) Import(ctx context.Context, snapshot domain.Snapshot) error {
	e.store.Restore(snapshot, e.view.Size().Center())
	return e.saver.Flush(ctx)
}

// Resize moves the centering target to the middle of the new surface
func (e *Engine) Resize(size viewport.Size) {
	center := e.view.Resize(size)
	e.sim.SetCenter(center)
	e.sim.Restart(e.sim.Config().ReheatAlpha)
	e.logger.Debug("viewport resized", zap.Float64("width", size.Width), zap.Float64("height", size.Height))
}

// SetTransform records the pan/zoom reported by the renderer
func (e *Engine) SetTransform(t domain.Transform) {
	e.view.Set(t)
	e.broadcastFrame(e.store.Snapshot())
}

// Fit animates the viewport so every placed node is visible
func (e *Engine) Fit(padding float64) bool {
	t, ok := e.view.Fit(e.store.Snapshot(), padding)
	if !ok {
		return false
	}
	e.view.AnimateTo(e.now(), t, e.cfg.Interaction.ResetDuration)
	return true
}

// Reconfigure applies new simulation tuning and reheats the layout
func (e *Engine) Reconfigure(cfg layout.Config) {
	cfg.Center = e.view.Size().Center()
	e.sim.Configure(cfg)
	e.sim.Restart(e.sim.Config().ReheatAlpha)
}

func (e *Engine) onChange(c graph.Change) {
	e.metrics.Mutation(string(c.Kind))
	e.sim.Observe(c)
	// a clear has already written the fresh root
	if c.Kind != graph.Cleared {
		e.saver.Schedule()
	}
	e.hub.Broadcast(hub.Event{Type: hub.EventChange, Payload: c})
	if c.Kind == graph.Cleared {
		e.broadcastFrame(e.store.Snapshot())
	}
}

func (e *Engine) onTick(snap domain.Snapshot) {
	e.metrics.Tick(e.sim.Alpha(), len(snap.Nodes), len(snap.Links))
	e.broadcastFrame(snap)
}

func (e *Engine) onSettled() {
	e.saver.Schedule()
	e.hub.Broadcast(hub.Event{Type: hub.EventSettled})
}

func (e *Engine) broadcastFrame(snap domain.Snapshot) {
	e.hub.Broadcast(hub.Event{
		Type: hub.EventFrame,
		Payload: hub.Frame{
			Nodes:     snap.Nodes,
			Links:     snap.Links,
			Transform: e.view.Transform(e.now()),
		},
	})
}
