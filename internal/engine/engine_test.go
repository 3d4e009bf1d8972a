package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindmap/internal/autosave"
	"mindmap/internal/domain"
	"mindmap/internal/interaction"
	"mindmap/internal/layout"
	"mindmap/internal/repository/memory"
	"mindmap/internal/viewport"
)

func testConfig() Config {
	saver := autosave.DefaultConfig()
	saver.Debounce = 10 * time.Millisecond
	saver.SaveTimeout = time.Second

	return Config{
		RootName:      "Central idea",
		Size:          viewport.Size{Width: 800, Height: 600},
		Layout:        layout.Config{FrameInterval: time.Millisecond},
		Interaction:   interaction.DefaultConfig(),
		Autosave:      saver,
		PromptTimeout: time.Second,
	}
}

func newEngine(t *testing.T, repo *memory.Repository) *Engine {
	t.Helper()
	e := New(repo, testConfig())
	t.Cleanup(func() { e.Controller().Close() })
	return e
}

func stored() domain.Snapshot {
	return domain.Snapshot{
		Nodes: []domain.Node{
			{ID: "root", Name: "Languages", Position: domain.NewPoint(400, 300)},
			{ID: "go", Name: "Go", Position: domain.NewPoint(500, 300)},
		},
		Links: []domain.Link{domain.NewLink("root", "go")},
	}
}

func TestOpenRestoresStoredMap(t *testing.T) {
	repo := memory.New()
	require.NoError(t, repo.Save(context.Background(), stored()))
	e := newEngine(t, repo)

	require.NoError(t, e.Open(context.Background()))

	snap := e.Store().Snapshot()
	require.Len(t, snap.Nodes, 2)
	assert.Equal(t, "Languages", snap.Nodes[0].Name)
	assert.Len(t, snap.Links, 1)
	assert.Equal(t, layout.Reheating, e.Simulator().State())
	assert.Equal(t, 1.0, e.Simulator().Alpha())
}

func TestOpenEmptyStoreYieldsRoot(t *testing.T) {
	e := newEngine(t, memory.New())
	require.NoError(t, e.Open(context.Background()))

	snap := e.Store().Snapshot()
	require.Len(t, snap.Nodes, 1)
	assert.Equal(t, domain.RootID, snap.Nodes[0].ID)
	assert.Equal(t, domain.Point{X: 400, Y: 300}, *snap.Nodes[0].Position)
}

func TestOpenLoadFailureKeepsRootWithoutSaving(t *testing.T) {
	repo := memory.New()
	repo.FailLoad(errors.New("corrupt"))
	e := newEngine(t, repo)

	err := e.Open(context.Background())
	assert.ErrorIs(t, err, domain.ErrPersistence)

	snap := e.Store().Snapshot()
	require.Len(t, snap.Nodes, 1)
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, repo.Saves(), "the unreadable store must not be overwritten")
	assert.Equal(t, 1.0, testutil.ToFloat64(e.Metrics().StorageOperations.WithLabelValues("load", "error")))
}

func TestMutationSchedulesSave(t *testing.T) {
	repo := memory.New()
	e := newEngine(t, repo)
	require.NoError(t, e.Open(context.Background()))

	_, _, err := e.Store().AddLinkedNode(domain.RootID, "Idea")
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return len(repo.Stored().Nodes) == 2 }, time.Second, 5*time.Millisecond)
	assert.Len(t, repo.Stored().Links, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(e.Metrics().Mutations.WithLabelValues("node_added")))
}

func TestGestureAddsNodeOnCanvas(t *testing.T) {
	repo := memory.New()
	e := newEngine(t, repo)
	require.NoError(t, e.Open(context.Background()))

	e.Controller().Activate(context.Background(), interaction.Pointer{Button: interaction.Secondary})

	assert.Eventually(t, func() bool {
		n, _ := e.Store().Len()
		return n == 2
	}, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return len(repo.Stored().Nodes) == 2 }, time.Second, 5*time.Millisecond)
}

func TestClearWritesLoneRoot(t *testing.T) {
	repo := memory.New()
	require.NoError(t, repo.Save(context.Background(), stored()))
	e := newEngine(t, repo)
	require.NoError(t, e.Open(context.Background()))

	require.NoError(t, e.Clear(context.Background()))

	snap := repo.Stored()
	require.Len(t, snap.Nodes, 1)
	assert.Equal(t, "Central idea", snap.Nodes[0].Name)
	assert.Empty(t, snap.Links)
	assert.Equal(t, layout.Idle, e.Simulator().State())
}

func TestImportSavesImmediately(t *testing.T) {
	repo := memory.New()
	e := newEngine(t, repo)
	require.NoError(t, e.Open(context.Background()))

	require.NoError(t, e.Import(context.Background(), stored()))

	assert.Len(t, repo.Stored().Nodes, 2)
	assert.Len(t, e.Store().Snapshot().Nodes, 2)
}

func TestRunSettlesAndSaves(t *testing.T) {
	repo := memory.New()
	require.NoError(t, repo.Save(context.Background(), stored()))
	saves := repo.Saves()
	e := newEngine(t, repo)
	require.NoError(t, e.Open(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)

	assert.Eventually(t, func() bool { return e.Simulator().State() == layout.Idle }, 10*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return repo.Saves() > saves }, time.Second, 5*time.Millisecond)
	assert.Greater(t, testutil.ToFloat64(e.Metrics().Ticks), 0.0)
}

func TestResizeMovesCenter(t *testing.T) {
	e := newEngine(t, memory.New())
	e.Resize(viewport.Size{Width: 1000, Height: 1000})

	assert.Equal(t, domain.Point{X: 500, Y: 500}, e.Simulator().Config().Center)
	assert.NotEqual(t, layout.Idle, e.Simulator().State())
}

func TestReconfigureKeepsCenter(t *testing.T) {
	e := newEngine(t, memory.New())
	e.Reconfigure(layout.Config{LinkDistance: 42})

	cfg := e.Simulator().Config()
	assert.Equal(t, 42.0, cfg.LinkDistance)
	assert.Equal(t, domain.Point{X: 400, Y: 300}, cfg.Center)
}

func TestSetTransform(t *testing.T) {
	e := newEngine(t, memory.New())
	want := domain.Transform{K: 2, X: 10, Y: 20}
	e.SetTransform(want)
	assert.Equal(t, want, e.Frame().Transform)
}

func TestShutdownFlushesAndCloses(t *testing.T) {
	repo := memory.New()
	e := newEngine(t, repo)
	require.NoError(t, e.Open(context.Background()))
	_, err := e.Store().AddNode("Loose", nil)
	require.NoError(t, err)

	require.NoError(t, e.Shutdown(context.Background()))

	assert.Len(t, repo.Stored().Nodes, 2)
	_, err = repo.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrPersistence)
}
