package interaction

import (
	"context"
	"time"

	"mindmap/internal/domain"
)

// Graph is the subset of graph.Store the controller mutates
type Graph interface {
	Node(id string) (domain.Node, bool)
	Degree(id string) int
	AddNode(name string, at *domain.Point) (domain.Node, error)
	AddLinkedNode(parentID, name string) (domain.Node, domain.Link, error)
	RemoveNode(id string)
	RenameNode(id, name string) error
	Pin(id string, p domain.Point) error
	Unpin(id string)
}

// Simulation is the subset of layout.Simulator the controller perturbs
type Simulation interface {
	Restart(alpha float64)
	SetAlphaTarget(target float64)
}

// Reporter surfaces failures to the user
type Reporter interface {
	Report(err error)
}

// ReporterFunc adapts a function to Reporter
type ReporterFunc func(error)

// Report calls f(err)
func (f ReporterFunc) Report(err error) { f(err) }

// Editor asks the user for a new node label. ok is false when the user
// cancelled.
type Editor interface {
	EditName(ctx context.Context, node domain.Node) (name string, ok bool, err error)
}

// Confirmer asks the user to confirm deleting a well connected node
type Confirmer interface {
	Confirm(ctx context.Context, node domain.Node, degree int) (bool, error)
}

// Timer is a pending scheduled call
type Timer interface {
	Stop() bool
}

// Scheduler runs f after d
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
