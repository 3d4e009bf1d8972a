package codec

import (
	"fmt"
	"io"

	"mindmap/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles YAML import/export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// yamlMap represents the YAML structure for a mind map
type yamlMap struct {
	Nodes []yamlNode `yaml:"nodes"`
	Links []yamlLink `yaml:"links"`
}

type yamlNode struct {
	ID   string   `yaml:"id"`
	Name string   `yaml:"name"`
	X    *float64 `yaml:"x,omitempty"`
	Y    *float64 `yaml:"y,omitempty"`
}

type yamlLink struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
}

// Parse imports graph data from YAML. Positions are optional; a node needs
// both coordinates to be placed.
func (c *YAMLCodec) Parse(r io.Reader) (domain.Snapshot, error) {
	var ym yamlMap
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&ym); err != nil && err != io.EOF {
		return domain.NewSnapshot(), parseError("YAML", err)
	}

	snap := domain.NewSnapshot()

	// Convert nodes
	for _, yn := range ym.Nodes {
		node := domain.Node{ID: yn.ID, Name: yn.Name}
		if yn.X != nil && yn.Y != nil {
			node.Position = domain.NewPoint(*yn.X, *yn.Y)
		}
		snap.Nodes = append(snap.Nodes, node)
	}

	// Convert links
	for _, yl := range ym.Links {
		snap.Links = append(snap.Links, domain.NewLink(yl.Source, yl.Target))
	}

	return snap, nil
}

// Export exports graph data to YAML. Pins are not exported.
func (c *YAMLCodec) Export(snapshot domain.Snapshot, w io.Writer) error {
	ym := yamlMap{
		Nodes: make([]yamlNode, 0, len(snapshot.Nodes)),
		Links: make([]yamlLink, 0, len(snapshot.Links)),
	}

	// Convert nodes
	for _, node := range snapshot.Nodes {
		yn := yamlNode{ID: node.ID, Name: node.Name}
		if node.Position != nil {
			x, y := node.Position.X, node.Position.Y
			yn.X, yn.Y = &x, &y
		}
		ym.Nodes = append(ym.Nodes, yn)
	}

	// Convert links
	for _, link := range snapshot.Links {
		ym.Links = append(ym.Links, yamlLink{Source: link.Source, Target: link.Target})
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&ym); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
