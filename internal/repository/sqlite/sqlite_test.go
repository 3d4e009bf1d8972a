package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"mindmap/internal/domain"
)

// ============================================================================
// Test Helpers
// ============================================================================

// newTestRepo creates an in-memory SQLite repository for testing
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}
	t.Cleanup(func() {
		repo.Close()
	})
	return repo
}

// assertNoError fails the test if err is not nil
func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// assertEqual fails the test if expected != actual
func assertEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()
	if !reflect.DeepEqual(expected, actual) {
		t.Fatalf("expected %v, got %v", expected, actual)
	}
}

func sampleSnapshot() domain.Snapshot {
	return domain.Snapshot{
		Nodes: []domain.Node{
			{ID: "root", Name: "Central idea", Position: domain.NewPoint(400, 300)},
			{ID: "b", Name: "Second", Position: domain.NewPoint(-12.5, 80)},
			{ID: "a", Name: "Unplaced"},
		},
		Links: []domain.Link{
			domain.NewLink("root", "b"),
			domain.NewLink("root", "a"),
			domain.NewLink("b", "a"),
		},
	}
}

func linkKeys(links []domain.Link) []string {
	keys := make([]string, len(links))
	for i, l := range links {
		keys[i] = l.Key()
	}
	sort.Strings(keys)
	return keys
}

// ============================================================================
// Helper Function Tests
// ============================================================================

func TestNullToPoint(t *testing.T) {
	tests := []struct {
		name     string
		x, y     sql.NullFloat64
		expected *domain.Point
	}{
		{"both set", sql.NullFloat64{Float64: 1, Valid: true}, sql.NullFloat64{Float64: 2, Valid: true}, domain.NewPoint(1, 2)},
		{"x missing", sql.NullFloat64{}, sql.NullFloat64{Float64: 2, Valid: true}, nil},
		{"none", sql.NullFloat64{}, sql.NullFloat64{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertEqual(t, tt.expected, nullToPoint(tt.x, tt.y))
		})
	}
}

func TestPointToNull(t *testing.T) {
	x, y := pointToNull(nil)
	assertEqual(t, false, x.Valid || y.Valid)

	x, y = pointToNull(domain.NewPoint(3, 4))
	assertEqual(t, sql.NullFloat64{Float64: 3, Valid: true}, x)
	assertEqual(t, sql.NullFloat64{Float64: 4, Valid: true}, y)
}

func TestNodeRowToDomain(t *testing.T) {
	row := nodeRow{ID: "n", Name: "Label", X: sql.NullFloat64{Float64: 5, Valid: true}, Y: sql.NullFloat64{Float64: 6, Valid: true}}
	node := row.toDomain()
	assertEqual(t, "n", node.ID)
	assertEqual(t, "Label", node.Name)
	assertEqual(t, domain.NewPoint(5, 6), node.Position)
	if node.Pin != nil {
		t.Fatal("pins are not stored")
	}
}

func TestNodeInsertArgs(t *testing.T) {
	node := domain.Node{ID: "n", Name: "Label", Position: domain.NewPoint(1, 2), Pin: domain.NewPoint(9, 9)}
	args := nodeInsertArgs(&node, 7)

	// id, ord, name, x, y
	assertEqual(t, 5, len(args))
	assertEqual(t, "n", args[0])
	assertEqual(t, 7, args[1])
	assertEqual(t, "Label", args[2])
	assertEqual(t, sql.NullFloat64{Float64: 1, Valid: true}, args[3])
}

func TestDSN(t *testing.T) {
	assertEqual(t, ":memory:?_pragma=busy_timeout(5000)", dsn(":memory:"))
	assertEqual(t, "file:/tmp/m.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dsn("/tmp/m.db"))
	assertEqual(t, "file:m.db?cache=shared&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dsn("m.db?cache=shared"))
}

// ============================================================================
// Gateway Tests
// ============================================================================

func TestLoadEmpty(t *testing.T) {
	repo := newTestRepo(t)

	snap, err := repo.Load(context.Background())
	assertNoError(t, err)
	assertEqual(t, 0, len(snap.Nodes))
	assertEqual(t, 0, len(snap.Links))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	want := sampleSnapshot()

	assertNoError(t, repo.Save(ctx, want))

	got, err := repo.Load(ctx)
	assertNoError(t, err)

	// node order is preserved
	assertEqual(t, want.Nodes, got.Nodes)
	// links are set-equal
	assertEqual(t, linkKeys(want.Links), linkKeys(got.Links))
}

func TestSaveReplacesPreviousState(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	assertNoError(t, repo.Save(ctx, sampleSnapshot()))
	next := domain.DefaultSnapshot("Fresh", domain.Point{X: 1, Y: 1})
	assertNoError(t, repo.Save(ctx, next))

	got, err := repo.Load(ctx)
	assertNoError(t, err)
	assertEqual(t, 1, len(got.Nodes))
	assertEqual(t, "Fresh", got.Nodes[0].Name)
	assertEqual(t, 0, len(got.Links))
}

func TestSaveDropsPins(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	snap := sampleSnapshot()
	snap.Nodes[0].Pin = domain.NewPoint(1, 1)

	assertNoError(t, repo.Save(ctx, snap))

	got, err := repo.Load(ctx)
	assertNoError(t, err)
	if got.Nodes[0].Pin != nil {
		t.Fatal("expected pin to be transient")
	}
}

func TestLoadDropsDanglingLinks(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	assertNoError(t, repo.Save(ctx, sampleSnapshot()))

	// simulate a partially written store
	_, err := repo.db.Exec(`INSERT INTO links (source_id, target_id) VALUES ('root', 'ghost')`)
	assertNoError(t, err)
	_, err = repo.db.Exec(`DELETE FROM nodes WHERE id = 'a'`)
	assertNoError(t, err)

	got, err := repo.Load(ctx)
	assertNoError(t, err)
	assertEqual(t, 2, len(got.Nodes))
	assertEqual(t, []string{"root->b"}, linkKeys(got.Links))
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	assertNoError(t, repo.Save(ctx, sampleSnapshot()))

	assertNoError(t, repo.Clear(ctx))

	got, err := repo.Load(ctx)
	assertNoError(t, err)
	assertEqual(t, 0, len(got.Nodes))
	assertEqual(t, 0, len(got.Links))
}

func TestClearThenSaveRoot(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	assertNoError(t, repo.Save(ctx, sampleSnapshot()))

	assertNoError(t, repo.Clear(ctx))
	assertNoError(t, repo.Save(ctx, domain.DefaultSnapshot("Central idea", domain.Point{X: 400, Y: 300})))

	got, err := repo.Load(ctx)
	assertNoError(t, err)
	assertEqual(t, 1, len(got.Nodes))
	assertEqual(t, domain.RootID, got.Nodes[0].ID)
	assertEqual(t, 0, len(got.Links))
}

func TestSaveIsAtomic(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	assertNoError(t, repo.Save(ctx, sampleSnapshot()))

	// duplicate ids violate the primary key half way through the insert
	bad := domain.Snapshot{Nodes: []domain.Node{{ID: "x", Name: "X"}, {ID: "x", Name: "X again"}}}
	err := repo.Save(ctx, bad)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}

	got, err := repo.Load(ctx)
	assertNoError(t, err)
	assertEqual(t, sampleSnapshot().Nodes, got.Nodes)
}

func TestClosedDatabaseFails(t *testing.T) {
	repo, err := New(":memory:")
	assertNoError(t, err)
	assertNoError(t, repo.Close())

	_, err = repo.Load(context.Background())
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if !errors.Is(repo.Clear(context.Background()), domain.ErrPersistence) {
		t.Fatal("expected persistence error from clear")
	}
}

func TestFileDatabasePersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "mindmap.db")

	repo, err := New(path)
	assertNoError(t, err)
	assertNoError(t, repo.Save(ctx, sampleSnapshot()))
	assertNoError(t, repo.Close())

	reopened, err := New(path)
	assertNoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load(ctx)
	assertNoError(t, err)
	assertEqual(t, 3, len(got.Nodes))
	assertEqual(t, 3, len(got.Links))
}
