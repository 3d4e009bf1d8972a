// Package memory is an in-process repository.Gateway
package memory

import (
	"context"
	"errors"
	"sync"

	"mindmap/internal/domain"
)

// ErrClosed is returned after Close
var ErrClosed = errors.New("repository closed")

// Repository keeps a detached snapshot in memory
type Repository struct {
	mu     sync.Mutex
	snap   domain.Snapshot
	closed bool

	loadErr  error
	saveErr  error
	clearErr error
	saveHook func(context.Context)

	saves  int
	clears int
}

// New creates an empty repository
func New() *Repository {
	return &Repository{snap: domain.NewSnapshot()}
}

// Load returns a copy of the stored snapshot without dangling links
func (r *Repository) Load(ctx context.Context) (domain.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(ctx, r.loadErr); err != nil {
		return domain.NewSnapshot(), domain.PersistenceError("load", err)
	}
	clean, _, _ := r.snap.Sanitize()
	return clean, nil
}

// Save replaces the stored snapshot. Pins are not stored.
func (r *Repository) Save(ctx context.Context, snapshot domain.Snapshot) error {
	r.mu.Lock()
	hook := r.saveHook
	r.mu.Unlock()
	if hook != nil {
		hook(ctx)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(ctx, r.saveErr); err != nil {
		return domain.PersistenceError("save", err)
	}
	r.snap = snapshot.Clone()
	for i := range r.snap.Nodes {
		r.snap.Nodes[i].Pin = nil
	}
	r.saves++
	return nil
}

// Clear drops the stored snapshot
func (r *Repository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(ctx, r.clearErr); err != nil {
		return domain.PersistenceError("clear", err)
	}
	r.snap = domain.NewSnapshot()
	r.clears++
	return nil
}

// Close marks the repository closed
func (r *Repository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Stored returns a copy of the stored snapshot as written
func (r *Repository) Stored() domain.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap.Clone()
}

// Saves counts successful saves
func (r *Repository) Saves() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

// Clears counts successful clears
func (r *Repository) Clears() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clears
}

// FailLoad makes Load return err until reset with nil
func (r *Repository) FailLoad(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadErr = err
}

// FailSave makes Save return err until reset with nil
func (r *Repository) FailSave(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveErr = err
}

// FailClear makes Clear return err until reset with nil
func (r *Repository) FailClear(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearErr = err
}

// OnSave installs a hook that runs at the start of every Save, before the
// snapshot is stored. Tests use it to hold a save in flight.
func (r *Repository) OnSave(hook func(context.Context)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveHook = hook
}

func (r *Repository) check(ctx context.Context, injected error) error {
	if r.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return injected
}
