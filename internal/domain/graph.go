package domain

// Snapshot is a detached copy of the graph: nodes in insertion order and
// the link collection
type Snapshot struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Links []Link `json:"links" yaml:"links"`
}

// NewSnapshot creates an empty snapshot with initialized collections
func NewSnapshot() Snapshot {
	return Snapshot{
		Nodes: make([]Node, 0),
		Links: make([]Link, 0),
	}
}

// Clone returns a deep copy
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Nodes: make([]Node, len(s.Nodes)),
		Links: make([]Link, len(s.Links)),
	}
	for i, n := range s.Nodes {
		out.Nodes[i] = n.Clone()
	}
	copy(out.Links, s.Links)
	return out
}

// Empty reports whether the snapshot has no nodes
func (s Snapshot) Empty() bool {
	return len(s.Nodes) == 0
}

// Node looks up a node by id
func (s Snapshot) Node(id string) (Node, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Sanitize drops nodes with an empty or duplicate id or a blank name, and
// links whose endpoints are missing. Names are trimmed. It returns the
// cleaned snapshot and how many nodes and links were dropped.
func (s Snapshot) Sanitize() (Snapshot, int, int) {
	out := NewSnapshot()
	seen := make(map[string]struct{}, len(s.Nodes))
	droppedNodes := 0

	for _, n := range s.Nodes {
		if n.ID == "" {
			droppedNodes++
			continue
		}
		if _, dup := seen[n.ID]; dup {
			droppedNodes++
			continue
		}
		name, err := NormalizeName(n.Name)
		if err != nil {
			droppedNodes++
			continue
		}
		seen[n.ID] = struct{}{}
		n = n.Clone()
		n.Name = name
		out.Nodes = append(out.Nodes, n)
	}

	droppedLinks := 0
	for _, l := range s.Links {
		_, okSource := seen[l.Source]
		_, okTarget := seen[l.Target]
		if !okSource || !okTarget {
			droppedLinks++
			continue
		}
		out.Links = append(out.Links, l)
	}

	return out, droppedNodes, droppedLinks
}

// DefaultSnapshot is the graph used when nothing was stored: a single root
// node placed at center
func DefaultSnapshot(rootName string, center Point) Snapshot {
	s := NewSnapshot()
	s.Nodes = append(s.Nodes, Node{
		ID:       RootID,
		Name:     rootName,
		Position: &Point{X: center.X, Y: center.Y},
	})
	return s
}
