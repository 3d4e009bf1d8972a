package codec

import (
	"fmt"
	"io"

	"mindmap/internal/domain"
)

// Importer parses a graph snapshot from a serialized form
type Importer interface {
	Parse(r io.Reader) (domain.Snapshot, error)
	Format() string
}

// Exporter writes a graph snapshot in a serialized form
type Exporter interface {
	Export(snapshot domain.Snapshot, w io.Writer) error
	Format() string
}

// Codec both imports and exports one format
type Codec interface {
	Importer
	Exporter
}

// Lookup returns the codec for a format name
func Lookup(format string) (Codec, error) {
	switch format {
	case "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	case "toml":
		return NewTOMLCodec(), nil
	default:
		return nil, domain.Errorf(domain.ErrValidation, "unsupported format %q", format).WithOp("codec")
	}
}

// Formats lists the supported format names
func Formats() []string {
	return []string{"json", "yaml", "toml"}
}

func parseError(format string, err error) error {
	return &domain.Error{
		Kind:    domain.KindValidation,
		Op:      "import",
		Message: fmt.Sprintf("failed to parse %s", format),
		Err:     err,
	}
}
