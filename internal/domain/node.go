package domain

import "strings"

// RootID is the id of the default root node created for an empty map
const RootID = "root"

// Node is a labeled point of the mind map
type Node struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`

	// Position is nil until the node has been laid out
	Position *Point `json:"position,omitempty" yaml:"position,omitempty"`

	// Pin overrides the simulated position while set (fx/fy)
	Pin *Point `json:"pin,omitempty" yaml:"pin,omitempty"`
}

// NewNode creates a node without a position
func NewNode(id, name string) *Node {
	return &Node{ID: id, Name: name}
}

// Placed reports whether the node has a position
func (n *Node) Placed() bool {
	return n.Position != nil
}

// Pinned reports whether the node position is held by a pin
func (n *Node) Pinned() bool {
	return n.Pin != nil
}

// Clone returns a deep copy of the node
func (n Node) Clone() Node {
	out := n
	if n.Position != nil {
		p := *n.Position
		out.Position = &p
	}
	if n.Pin != nil {
		p := *n.Pin
		out.Pin = &p
	}
	return out
}

// NormalizeName trims a label and rejects labels that end up empty
func NormalizeName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", NewError(ErrValidation, "name cannot be empty")
	}
	return trimmed, nil
}
