package repository

import (
	"context"

	"mindmap/internal/domain"
)

// Gateway persists the whole mind map as one node and link collection
type Gateway interface {
	// Load returns the stored graph. Links with a missing endpoint are
	// dropped. An empty store yields an empty snapshot.
	Load(ctx context.Context) (domain.Snapshot, error)

	// Save replaces the stored graph with snapshot in one transaction
	Save(ctx context.Context, snapshot domain.Snapshot) error

	// Clear removes every stored node and link
	Clear(ctx context.Context) error

	// Close releases resources
	Close() error
}
