package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"mindmap/internal/domain"

	_ "modernc.org/sqlite"
)

// Repository implements repository.Gateway using SQLite
type Repository struct {
	db *sql.DB
}

// New opens (creating if needed) the database at dbPath. ":memory:" opens a
// private in-memory database.
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// one connection: writes are serialized and :memory: stays one database
	db.SetMaxOpenConns(1)

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func dsn(path string) string {
	if path == ":memory:" {
		return ":memory:?_pragma=busy_timeout(5000)"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return "file:" + path + sep + "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS nodes (
		id TEXT PRIMARY KEY,
		ord INTEGER NOT NULL,
		name TEXT NOT NULL,
		x REAL,
		y REAL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS links (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_id TEXT NOT NULL,
		target_id TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_nodes_ord ON nodes(ord);
	CREATE INDEX IF NOT EXISTS idx_links_source ON links(source_id);
	CREATE INDEX IF NOT EXISTS idx_links_target ON links(target_id);
	`

	_, err := r.db.Exec(schema)
	return err
}

// Load reads the stored graph in insertion order
func (r *Repository) Load(ctx context.Context) (domain.Snapshot, error) {
	snap := domain.NewSnapshot()

	rows, err := r.db.QueryContext(ctx, `SELECT `+nodeColumns+` FROM nodes ORDER BY ord`)
	if err != nil {
		return snap, fail("load", fmt.Errorf("failed to query nodes: %w", err))
	}
	defer rows.Close()

	for rows.Next() {
		var row nodeRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return snap, fail("load", fmt.Errorf("failed to scan node: %w", err))
		}
		snap.Nodes = append(snap.Nodes, row.toDomain())
	}
	if err := rows.Err(); err != nil {
		return snap, fail("load", fmt.Errorf("error iterating nodes: %w", err))
	}

	// the join drops links whose endpoint is gone
	linkRows, err := r.db.QueryContext(ctx, `
		SELECT l.source_id, l.target_id
		FROM links l
		JOIN nodes s ON s.id = l.source_id
		JOIN nodes t ON t.id = l.target_id
		ORDER BY l.id
	`)
	if err != nil {
		return snap, fail("load", fmt.Errorf("failed to query links: %w", err))
	}
	defer linkRows.Close()

	for linkRows.Next() {
		var row linkRow
		if err := linkRows.Scan(row.scanArgs()...); err != nil {
			return snap, fail("load", fmt.Errorf("failed to scan link: %w", err))
		}
		snap.Links = append(snap.Links, row.toDomain())
	}
	if err := linkRows.Err(); err != nil {
		return snap, fail("load", fmt.Errorf("error iterating links: %w", err))
	}

	return snap, nil
}

// Save replaces all stored data with snapshot
func (r *Repository) Save(ctx context.Context, snapshot domain.Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fail("save", fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	if err := clearTx(ctx, tx); err != nil {
		return fail("save", err)
	}

	nodeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO nodes (id, ord, name, x, y) VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fail("save", fmt.Errorf("failed to prepare node statement: %w", err))
	}
	defer nodeStmt.Close()

	for i := range snapshot.Nodes {
		n := &snapshot.Nodes[i]
		if _, err := nodeStmt.ExecContext(ctx, nodeInsertArgs(n, i)...); err != nil {
			return fail("save", fmt.Errorf("failed to insert node %s: %w", n.ID, err))
		}
	}

	linkStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO links (source_id, target_id) VALUES (?, ?)
	`)
	if err != nil {
		return fail("save", fmt.Errorf("failed to prepare link statement: %w", err))
	}
	defer linkStmt.Close()

	for _, l := range snapshot.Links {
		if _, err := linkStmt.ExecContext(ctx, l.Source, l.Target); err != nil {
			return fail("save", fmt.Errorf("failed to insert link %s: %w", l.Key(), err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fail("save", fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

// Clear removes all nodes and links
func (r *Repository) Clear(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fail("clear", fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	if err := clearTx(ctx, tx); err != nil {
		return fail("clear", err)
	}

	if err := tx.Commit(); err != nil {
		return fail("clear", fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

func clearTx(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM links`); err != nil {
		return fmt.Errorf("failed to clear links: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM nodes`); err != nil {
		return fmt.Errorf("failed to clear nodes: %w", err)
	}
	return nil
}

func fail(op string, err error) error {
	return domain.PersistenceError(op, err)
}
