package domain

// Link connects two nodes by id
type Link struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

// NewLink creates a link from source to target
func NewLink(source, target string) Link {
	return Link{Source: source, Target: target}
}

// Touches reports whether the link has id as one of its endpoints
func (l Link) Touches(id string) bool {
	return l.Source == id || l.Target == id
}

// Key returns a string identity for the link
func (l Link) Key() string {
	return l.Source + "->" + l.Target
}
