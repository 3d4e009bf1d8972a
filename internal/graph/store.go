package graph

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mindmap/internal/domain"
)

// DefaultRootName is the label of the root node of a fresh map
const DefaultRootName = "Central idea"

// Persister wipes stored state and replaces it with a fresh snapshot
type Persister interface {
	Reset(ctx context.Context, snapshot domain.Snapshot) error
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the store logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithRootName sets the label used for the default root node
func WithRootName(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.rootName = name
		}
	}
}

// WithIDGenerator replaces the UUIDv7 id source
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		s.newID = fn
	}
}

// Store is the in-memory graph aggregate
type Store struct {
	mu    sync.RWMutex
	nodes []*domain.Node
	index map[string]*domain.Node
	links []domain.Link

	obsMu     sync.RWMutex
	observers []Observer
	persister Persister

	rootName string
	newID    func() string
	logger   *zap.Logger
}

// New creates a store holding the default root at center
func New(center domain.Point, opts ...Option) *Store {
	s := &Store{
		index:    make(map[string]*domain.Node),
		rootName: DefaultRootName,
		newID:    newNodeID,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.replace(domain.DefaultSnapshot(s.rootName, center))
	return s
}

// newNodeID returns a time-ordered UUIDv7, monotonic within the process
func newNodeID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// SetPersister attaches the gateway used by Clear
func (s *Store) SetPersister(p Persister) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.persister = p
}

// Subscribe registers an observer for applied changes
func (s *Store) Subscribe(o Observer) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.observers = append(s.observers, o)
}

// AddNode creates a node with a fresh id. A nil position leaves the node
// for the simulator to place.
func (s *Store) AddNode(name string, at *domain.Point) (domain.Node, error) {
	name, err := domain.NormalizeName(name)
	if err != nil {
		return domain.Node{}, fmt.Errorf("add node: %w", err)
	}

	s.mu.Lock()
	node := s.insertNode(name, at)
	out := node.Clone()
	s.mu.Unlock()

	s.notify(Change{Kind: NodeAdded, NodeID: out.ID})
	return out, nil
}

// AddLink links two existing nodes
func (s *Store) AddLink(sourceID, targetID string) (domain.Link, error) {
	s.mu.Lock()
	if err := s.requireNodes("add link", sourceID, targetID); err != nil {
		s.mu.Unlock()
		return domain.Link{}, err
	}
	link := domain.NewLink(sourceID, targetID)
	s.links = append(s.links, link)
	s.mu.Unlock()

	s.notify(Change{Kind: LinkAdded, Link: &link})
	return link, nil
}

// AddLinkedNode creates a child of parentID and the link to it as a single
// mutation
func (s *Store) AddLinkedNode(parentID, name string) (domain.Node, domain.Link, error) {
	name, err := domain.NormalizeName(name)
	if err != nil {
		return domain.Node{}, domain.Link{}, fmt.Errorf("add child: %w", err)
	}

	s.mu.Lock()
	if err := s.requireNodes("add child", parentID); err != nil {
		s.mu.Unlock()
		return domain.Node{}, domain.Link{}, err
	}
	node := s.insertNode(name, nil)
	link := domain.NewLink(parentID, node.ID)
	s.links = append(s.links, link)
	out := node.Clone()
	s.mu.Unlock()

	s.notify(Change{Kind: NodeAdded, NodeID: out.ID, Link: &link})
	return out, link, nil
}

// RemoveNode deletes a node and every link touching it. Removing an unknown
// id is a no-op.
func (s *Store) RemoveNode(id string) {
	s.mu.Lock()
	if _, ok := s.index[id]; !ok {
		s.mu.Unlock()
		return
	}

	kept := s.nodes[:0]
	for _, n := range s.nodes {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	s.nodes = kept
	delete(s.index, id)

	removed := 0
	links := s.links[:0]
	for _, l := range s.links {
		if l.Touches(id) {
			removed++
			continue
		}
		links = append(links, l)
	}
	s.links = links
	s.mu.Unlock()

	s.logger.Debug("node removed", zap.String("node_id", id), zap.Int("links_removed", removed))
	s.notify(Change{Kind: NodeRemoved, NodeID: id, Links: removed})
}

// RenameNode changes a node label. Renaming to the current label does
// nothing.
func (s *Store) RenameNode(id, name string) error {
	name, err := domain.NormalizeName(name)
	if err != nil {
		return fmt.Errorf("rename: %w", err)
	}

	s.mu.Lock()
	node, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return domain.Errorf(domain.ErrInvalidReference, "node %q not found", id).WithOp("rename")
	}
	if node.Name == name {
		s.mu.Unlock()
		return nil
	}
	node.Name = name
	s.mu.Unlock()

	s.notify(Change{Kind: NodeRenamed, NodeID: id})
	return nil
}

// Clear resets the map to the default root at center, then wipes stored
// state. The in-memory reset always happens; a storage failure is returned
// as a persistence error.
func (s *Store) Clear(ctx context.Context, center domain.Point) error {
	fresh := domain.DefaultSnapshot(s.rootName, center)

	s.mu.Lock()
	s.replace(fresh)
	s.mu.Unlock()

	s.notify(Change{Kind: Cleared, NodeID: domain.RootID})

	s.obsMu.RLock()
	p := s.persister
	s.obsMu.RUnlock()
	if p == nil {
		return nil
	}

	if err := p.Reset(ctx, fresh.Clone()); err != nil {
		s.logger.Warn("clear did not reach storage", zap.Error(err))
		if errors.Is(err, domain.ErrPersistence) {
			return err
		}
		return domain.PersistenceError("clear", err)
	}
	return nil
}

// Restore replaces the graph with a loaded snapshot. Dangling links and
// duplicate ids are dropped; an empty snapshot yields the default root.
func (s *Store) Restore(snapshot domain.Snapshot, center domain.Point) {
	clean, droppedNodes, droppedLinks := snapshot.Sanitize()
	if droppedNodes > 0 || droppedLinks > 0 {
		s.logger.Warn("dropped invalid records while restoring",
			zap.Int("nodes", droppedNodes),
			zap.Int("links", droppedLinks),
		)
	}
	if clean.Empty() {
		clean = domain.DefaultSnapshot(s.rootName, center)
	}

	s.mu.Lock()
	s.replace(clean)
	s.mu.Unlock()

	s.notify(Change{Kind: Restored})
}

// Snapshot returns a deep copy of the graph
func (s *Store) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Node returns a copy of the node with the given id
func (s *Store) Node(id string) (domain.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.index[id]
	if !ok {
		return domain.Node{}, false
	}
	return n.Clone(), true
}

// Degree counts the links touching a node
func (s *Store) Degree(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	degree := 0
	for _, l := range s.links {
		if l.Touches(id) {
			degree++
		}
	}
	return degree
}

// Len returns the node and link counts
func (s *Store) Len() (nodes, links int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes), len(s.links)
}

// Root returns the first node, the default focal point of the map
func (s *Store) Root() (domain.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.nodes) == 0 {
		return domain.Node{}, false
	}
	return s.nodes[0].Clone(), true
}

// Pin holds a node at p. The pinned position is authoritative until Unpin.
func (s *Store) Pin(id string, p domain.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	node, ok := s.index[id]
	if !ok {
		return domain.Errorf(domain.ErrInvalidReference, "node %q not found", id).WithOp("pin")
	}
	node.Pin = &domain.Point{X: p.X, Y: p.Y}
	node.Position = &domain.Point{X: p.X, Y: p.Y}
	return nil
}

// Unpin releases a pinned node. Unknown ids are ignored since the node may
// have been deleted while the release was pending.
func (s *Store) Unpin(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if node, ok := s.index[id]; ok {
		node.Pin = nil
	}
}

// Layout runs fn with write access to the live node records. fn may only
// change Position; the slices must not be retained after fn returns.
func (s *Store) Layout(fn func(nodes []*domain.Node, links []domain.Link)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.nodes, s.links)
}

func (s *Store) insertNode(name string, at *domain.Point) *domain.Node {
	id := s.newID()
	for {
		if _, taken := s.index[id]; !taken {
			break
		}
		id = s.newID()
	}

	node := domain.NewNode(id, name)
	if at != nil {
		node.Position = &domain.Point{X: at.X, Y: at.Y}
	}
	s.nodes = append(s.nodes, node)
	s.index[id] = node
	return node
}

func (s *Store) requireNodes(op string, ids ...string) error {
	for _, id := range ids {
		if _, ok := s.index[id]; !ok {
			return domain.Errorf(domain.ErrInvalidReference, "node %q not found", id).WithOp(op)
		}
	}
	return nil
}

func (s *Store) replace(snapshot domain.Snapshot) {
	s.nodes = make([]*domain.Node, 0, len(snapshot.Nodes))
	s.index = make(map[string]*domain.Node, len(snapshot.Nodes))
	for _, n := range snapshot.Nodes {
		node := n.Clone()
		s.nodes = append(s.nodes, &node)
		s.index[node.ID] = &node
	}
	s.links = make([]domain.Link, len(snapshot.Links))
	copy(s.links, snapshot.Links)
}

func (s *Store) snapshotLocked() domain.Snapshot {
	out := domain.Snapshot{
		Nodes: make([]domain.Node, len(s.nodes)),
		Links: make([]domain.Link, len(s.links)),
	}
	for i, n := range s.nodes {
		out.Nodes[i] = n.Clone()
	}
	copy(out.Links, s.links)
	return out
}

func (s *Store) notify(c Change) {
	s.obsMu.RLock()
	observers := make([]Observer, len(s.observers))
	copy(observers, s.observers)
	s.obsMu.RUnlock()

	for _, o := range observers {
		o(c)
	}
}
