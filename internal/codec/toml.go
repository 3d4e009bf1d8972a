package codec

import (
	"fmt"
	"io"

	"github.com/BurntSushi/toml"

	"mindmap/internal/domain"
)

// TOMLCodec handles TOML import/export using arrays of tables
type TOMLCodec struct{}

// NewTOMLCodec creates a new TOML codec
func NewTOMLCodec() *TOMLCodec {
	return &TOMLCodec{}
}

// Format returns the codec format identifier
func (c *TOMLCodec) Format() string {
	return "toml"
}

type tomlMap struct {
	Nodes []tomlNode `toml:"nodes"`
	Links []tomlLink `toml:"links"`
}

type tomlNode struct {
	ID   string   `toml:"id"`
	Name string   `toml:"name"`
	X    *float64 `toml:"x,omitempty"`
	Y    *float64 `toml:"y,omitempty"`
}

type tomlLink struct {
	Source string `toml:"source"`
	Target string `toml:"target"`
}

// Parse imports graph data from TOML
func (c *TOMLCodec) Parse(r io.Reader) (domain.Snapshot, error) {
	var tm tomlMap
	if _, err := toml.NewDecoder(r).Decode(&tm); err != nil {
		return domain.NewSnapshot(), parseError("TOML", err)
	}

	snap := domain.NewSnapshot()
	for _, tn := range tm.Nodes {
		node := domain.Node{ID: tn.ID, Name: tn.Name}
		if tn.X != nil && tn.Y != nil {
			node.Position = domain.NewPoint(*tn.X, *tn.Y)
		}
		snap.Nodes = append(snap.Nodes, node)
	}
	for _, tl := range tm.Links {
		snap.Links = append(snap.Links, domain.NewLink(tl.Source, tl.Target))
	}
	return snap, nil
}

// Export exports graph data to TOML
func (c *TOMLCodec) Export(snapshot domain.Snapshot, w io.Writer) error {
	tm := tomlMap{
		Nodes: make([]tomlNode, 0, len(snapshot.Nodes)),
		Links: make([]tomlLink, 0, len(snapshot.Links)),
	}
	for _, node := range snapshot.Nodes {
		tn := tomlNode{ID: node.ID, Name: node.Name}
		if node.Position != nil {
			x, y := node.Position.X, node.Position.Y
			tn.X, tn.Y = &x, &y
		}
		tm.Nodes = append(tm.Nodes, tn)
	}
	for _, link := range snapshot.Links {
		tm.Links = append(tm.Links, tomlLink{Source: link.Source, Target: link.Target})
	}

	if err := toml.NewEncoder(w).Encode(tm); err != nil {
		return fmt.Errorf("failed to encode TOML: %w", err)
	}
	return nil
}
