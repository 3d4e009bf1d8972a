package sqlite

import (
	"database/sql"

	"mindmap/internal/domain"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToPoint converts a pair of nullable coordinates to a point. Both must
// be set.
func nullToPoint(x, y sql.NullFloat64) *domain.Point {
	if !x.Valid || !y.Valid {
		return nil
	}
	return &domain.Point{X: x.Float64, Y: y.Float64}
}

// pointToNull converts an optional point to nullable coordinates
func pointToNull(p *domain.Point) (sql.NullFloat64, sql.NullFloat64) {
	if p == nil || !p.Finite() {
		return sql.NullFloat64{}, sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: p.X, Valid: true}, sql.NullFloat64{Float64: p.Y, Valid: true}
}

// ============================================================================
// Schema Evolution Guide
// ============================================================================
//
// To add a new column to nodes table:
// 1. Add field to nodeRow struct (below)
// 2. Update scanArgs() - APPEND to end to match column order
// 3. Update nodeColumns constant - APPEND to end
// 4. Update toDomain() to map new field to domain.Node
// 5. Update nodeInsertArgs() and the INSERT in Save
// 6. Add the column to migrate() in sqlite.go
//
// CRITICAL: Column order must match between nodeColumns and scanArgs().

// ============================================================================
// Node Row Scanner
// ============================================================================

// nodeRow holds all columns from a node query for scanning
type nodeRow struct {
	ID   string
	Name string
	X    sql.NullFloat64
	Y    sql.NullFloat64
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match nodeColumns order exactly: id, name, x, y
func (r *nodeRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,   // 1
		&r.Name, // 2
		&r.X,    // 3
		&r.Y,    // 4
	}
}

// toDomain converts the scanned row to a domain.Node
func (r *nodeRow) toDomain() domain.Node {
	return domain.Node{
		ID:       r.ID,
		Name:     r.Name,
		Position: nullToPoint(r.X, r.Y),
	}
}

// nodeColumns returns the SELECT column list for node queries
const nodeColumns = `id, name, x, y`

// ============================================================================
// Link Row Scanner
// ============================================================================

// linkRow holds the columns of a link query
type linkRow struct {
	SourceID string
	TargetID string
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match the link SELECT order: source_id, target_id
func (r *linkRow) scanArgs() []interface{} {
	return []interface{}{
		&r.SourceID, // 1
		&r.TargetID, // 2
	}
}

// toDomain converts the scanned row to a domain.Link
func (r *linkRow) toDomain() domain.Link {
	return domain.NewLink(r.SourceID, r.TargetID)
}

// ============================================================================
// Node Write Helpers
// ============================================================================

// nodeInsertArgs prepares arguments for the node INSERT
// Returns: id, ord, name, x, y
func nodeInsertArgs(node *domain.Node, ord int) []interface{} {
	x, y := pointToNull(node.Position)
	return []interface{}{
		node.ID,
		ord,
		node.Name,
		x,
		y,
	}
}
