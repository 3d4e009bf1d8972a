package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"mindmap/internal/domain"
)

// JSONCodec handles JSON import/export
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Parse imports graph data from JSON
func (c *JSONCodec) Parse(r io.Reader) (domain.Snapshot, error) {
	snap := domain.NewSnapshot()
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&snap); err != nil {
		return domain.NewSnapshot(), parseError("JSON", err)
	}
	return normalize(snap), nil
}

// Export exports graph data to JSON
func (c *JSONCodec) Export(snapshot domain.Snapshot, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(normalize(snapshot)); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}

// normalize copies s with empty instead of nil collections and without
// pins, which only live for the duration of a drag
func normalize(s domain.Snapshot) domain.Snapshot {
	out := domain.NewSnapshot()
	for _, n := range s.Nodes {
		n = n.Clone()
		n.Pin = nil
		out.Nodes = append(out.Nodes, n)
	}
	out.Links = append(out.Links, s.Links...)
	return out
}
