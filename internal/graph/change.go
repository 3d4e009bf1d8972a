package graph

import "mindmap/internal/domain"

// ChangeKind identifies what a mutation did
type ChangeKind string

const (
	NodeAdded   ChangeKind = "node_added"
	LinkAdded   ChangeKind = "link_added"
	NodeRemoved ChangeKind = "node_removed"
	NodeRenamed ChangeKind = "node_renamed"
	Cleared     ChangeKind = "cleared"
	Restored    ChangeKind = "restored"
)

// Change describes one applied mutation
type Change struct {
	Kind   ChangeKind   `json:"kind"`
	NodeID string       `json:"node_id,omitempty"`
	Link   *domain.Link `json:"link,omitempty"`
	// Links counts the links removed together with a node
	Links int `json:"links,omitempty"`
}

// Observer is called after a change has been applied
type Observer func(Change)
