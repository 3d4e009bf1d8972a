package interaction

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindmap/internal/domain"
	"mindmap/internal/graph"
	"mindmap/internal/viewport"
)

var (
	t0     = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	center = domain.Point{X: 400, Y: 300}
)

// fakeScheduler fires timers when the test advances its clock
type fakeScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{at: s.now + d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	var due []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired && t.at <= s.now {
			t.fired = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()
	sort.Slice(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, t := range due {
		t.f()
	}
}

type fakeSim struct {
	restarts []float64
	targets  []float64
}

func (s *fakeSim) Restart(alpha float64)         { s.restarts = append(s.restarts, alpha) }
func (s *fakeSim) SetAlphaTarget(target float64) { s.targets = append(s.targets, target) }

type fakeEditor struct {
	name   string
	ok     bool
	err    error
	seeded string
	calls  int
}

func (e *fakeEditor) EditName(_ context.Context, n domain.Node) (string, bool, error) {
	e.calls++
	e.seeded = n.Name
	return e.name, e.ok, e.err
}

type fakeConfirmer struct {
	answer bool
	calls  int
	degree int
}

func (c *fakeConfirmer) Confirm(_ context.Context, _ domain.Node, degree int) (bool, error) {
	c.calls++
	c.degree = degree
	return c.answer, nil
}

type harness struct {
	ctrl      *Controller
	store     *graph.Store
	sim       *fakeSim
	view      *viewport.Viewport
	sched     *fakeScheduler
	editor    *fakeEditor
	confirmer *fakeConfirmer
	errs      []error
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:     graph.New(center),
		sim:       &fakeSim{},
		view:      viewport.New(viewport.Size{Width: 800, Height: 600}),
		sched:     &fakeScheduler{},
		editor:    &fakeEditor{},
		confirmer: &fakeConfirmer{},
	}
	h.ctrl = New(DefaultConfig(), h.store, h.sim, h.view,
		ReporterFunc(func(err error) { h.errs = append(h.errs, err) }),
		h.editor, h.confirmer,
		WithScheduler(h.sched),
		WithRunner(func(f func()) { f() }),
		WithClock(func() time.Time { return t0.Add(h.sched.now) }),
	)
	return h
}

func (h *harness) click(button Button, target string, after time.Duration) {
	h.sched.Advance(after)
	h.ctrl.Activate(context.Background(), Pointer{Button: button, Target: target, Screen: domain.Point{X: 100, Y: 100}})
}

func TestSecondaryActivateOnNodeAddsChildAfterWindow(t *testing.T) {
	h := newHarness(t)

	h.click(Secondary, domain.RootID, 0)
	nodes, _ := h.store.Len()
	assert.Equal(t, 1, nodes, "single action must wait for the window")

	h.sched.Advance(400 * time.Millisecond)
	nodes, links := h.store.Len()
	assert.Equal(t, 2, nodes)
	assert.Equal(t, 1, links)

	snap := h.store.Snapshot()
	assert.Equal(t, "New idea", snap.Nodes[1].Name)
	assert.Empty(t, h.errs)
}

func TestSecondaryDoubleActivateRemovesNode(t *testing.T) {
	h := newHarness(t)
	child, _, err := h.store.AddLinkedNode(domain.RootID, "child")
	require.NoError(t, err)

	h.click(Secondary, child.ID, 0)
	h.click(Secondary, child.ID, 200*time.Millisecond)
	h.sched.Advance(time.Second)

	nodes, links := h.store.Len()
	assert.Equal(t, 1, nodes)
	assert.Equal(t, 0, links)
	assert.Zero(t, h.confirmer.calls)
}

func TestSlowSecondClickIsTwoSingles(t *testing.T) {
	h := newHarness(t)

	h.click(Secondary, domain.RootID, 0)
	h.click(Secondary, domain.RootID, 500*time.Millisecond)
	h.sched.Advance(500 * time.Millisecond)

	nodes, _ := h.store.Len()
	assert.Equal(t, 3, nodes)
}

func TestRemoveHubRequiresConfirmation(t *testing.T) {
	tests := []struct {
		name      string
		answer    bool
		wantNodes int
	}{
		{name: "declined", answer: false, wantNodes: 4},
		{name: "confirmed", answer: true, wantNodes: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.confirmer.answer = tt.answer
			for i := 0; i < 3; i++ {
				_, _, err := h.store.AddLinkedNode(domain.RootID, "c")
				require.NoError(t, err)
			}

			h.click(Secondary, domain.RootID, 0)
			h.click(Secondary, domain.RootID, 100*time.Millisecond)

			assert.Equal(t, 1, h.confirmer.calls)
			assert.Equal(t, 3, h.confirmer.degree)
			nodes, _ := h.store.Len()
			assert.Equal(t, tt.wantNodes, nodes)
		})
	}
}

func TestSecondaryActivateOnCanvasAddsNodeAtGraphPoint(t *testing.T) {
	h := newHarness(t)
	h.view.Set(domain.Transform{K: 2, X: 100, Y: 0})

	h.ctrl.Activate(context.Background(), Pointer{Button: Secondary, Screen: domain.Point{X: 300, Y: 200}})

	snap := h.store.Snapshot()
	require.Len(t, snap.Nodes, 2)
	assert.Equal(t, domain.Point{X: 100, Y: 100}, *snap.Nodes[1].Position)
	assert.Empty(t, snap.Links)
}

func TestPrimaryDoubleActivateRenames(t *testing.T) {
	tests := []struct {
		name     string
		edit     fakeEditor
		wantName string
		wantErr  error
	}{
		{name: "commit", edit: fakeEditor{name: "Topic", ok: true}, wantName: "Topic"},
		{name: "cancel", edit: fakeEditor{name: "Topic", ok: false}, wantName: graph.DefaultRootName},
		{name: "identical", edit: fakeEditor{name: graph.DefaultRootName, ok: true}, wantName: graph.DefaultRootName},
		{name: "empty", edit: fakeEditor{name: "  ", ok: true}, wantName: graph.DefaultRootName, wantErr: domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			*h.editor = tt.edit

			h.click(Primary, domain.RootID, 0)
			assert.Zero(t, h.editor.calls)
			h.click(Primary, domain.RootID, 300*time.Millisecond)

			assert.Equal(t, 1, h.editor.calls)
			assert.Equal(t, graph.DefaultRootName, h.editor.seeded)
			n, _ := h.store.Node(domain.RootID)
			assert.Equal(t, tt.wantName, n.Name)
			if tt.wantErr != nil {
				require.Len(t, h.errs, 1)
				assert.ErrorIs(t, h.errs[0], tt.wantErr)
			} else {
				assert.Empty(t, h.errs)
			}
		})
	}
}

func TestDifferentTargetsDoNotDouble(t *testing.T) {
	h := newHarness(t)
	a, _, _ := h.store.AddLinkedNode(domain.RootID, "a")

	h.click(Secondary, domain.RootID, 0)
	h.click(Secondary, a.ID, 100*time.Millisecond)
	h.sched.Advance(time.Second)

	// both pending singles fire
	nodes, _ := h.store.Len()
	assert.Equal(t, 4, nodes)
}

func TestPrimaryDoubleActivateOnCanvasResetsViewport(t *testing.T) {
	h := newHarness(t)
	h.view.Set(domain.Transform{K: 3, X: 50, Y: 50})

	h.click(Primary, "", 0)
	h.click(Primary, "", 100*time.Millisecond)

	now := t0.Add(h.sched.now)
	assert.True(t, h.view.Animating(now))
	assert.Equal(t, domain.Identity, h.view.Transform(now.Add(750*time.Millisecond)))
}

func TestStoreFailuresAreReported(t *testing.T) {
	h := newHarness(t)

	h.click(Secondary, "ghost", 0)
	h.sched.Advance(time.Second)

	require.Len(t, h.errs, 1)
	assert.ErrorIs(t, h.errs[0], domain.ErrInvalidReference)
	nodes, links := h.store.Len()
	assert.Equal(t, 1, nodes)
	assert.Equal(t, 0, links)
}

func TestDragLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.view.Set(domain.Transform{K: 2})

	h.ctrl.DragStart(ctx, Pointer{Target: domain.RootID, Screen: domain.Point{X: 800, Y: 600}})
	n, _ := h.store.Node(domain.RootID)
	require.NotNil(t, n.Pin)
	assert.Equal(t, center, *n.Pin, "pinned at its current position")
	assert.Equal(t, []float64{0.3}, h.sim.targets)
	assert.Equal(t, []float64{0.3}, h.sim.restarts)
	assert.Equal(t, domain.RootID, h.ctrl.Dragging())

	h.ctrl.DragMove(ctx, Pointer{Screen: domain.Point{X: 100, Y: 40}})
	n, _ = h.store.Node(domain.RootID)
	assert.Equal(t, domain.Point{X: 50, Y: 20}, *n.Pin)

	h.ctrl.DragEnd(ctx, Pointer{})
	assert.Equal(t, []float64{0.3, 0}, h.sim.targets)
	assert.Empty(t, h.ctrl.Dragging())

	h.sched.Advance(500 * time.Millisecond)
	n, _ = h.store.Node(domain.RootID)
	assert.NotNil(t, n.Pin, "released too early")

	h.sched.Advance(500 * time.Millisecond)
	n, _ = h.store.Node(domain.RootID)
	assert.Nil(t, n.Pin)
}

func TestNewDragKeepsPin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.ctrl.DragStart(ctx, Pointer{Target: domain.RootID})
	h.ctrl.DragEnd(ctx, Pointer{Target: domain.RootID})
	h.sched.Advance(500 * time.Millisecond)
	h.ctrl.DragStart(ctx, Pointer{Target: domain.RootID})
	h.sched.Advance(time.Second)

	n, _ := h.store.Node(domain.RootID)
	assert.NotNil(t, n.Pin)
}

func TestDragOnDeletedNodeReports(t *testing.T) {
	h := newHarness(t)

	h.ctrl.DragStart(context.Background(), Pointer{Target: "ghost"})

	require.Len(t, h.errs, 1)
	assert.True(t, errors.Is(h.errs[0], domain.ErrInvalidReference))
	assert.Empty(t, h.sim.restarts)
}

func TestCloseCancelsPending(t *testing.T) {
	h := newHarness(t)

	h.click(Secondary, domain.RootID, 0)
	h.ctrl.DragStart(context.Background(), Pointer{Target: domain.RootID})
	h.ctrl.DragEnd(context.Background(), Pointer{})
	h.ctrl.Close()
	h.sched.Advance(2 * time.Second)

	nodes, _ := h.store.Len()
	assert.Equal(t, 1, nodes)
	n, _ := h.store.Node(domain.RootID)
	assert.NotNil(t, n.Pin)
}
