package codec

import (
	"bytes"
	_ "embed"

	"mindmap/internal/domain"
)

//go:embed testdata/languages.yaml
var languagesYAML []byte

// Demo returns the bundled sample map: a genealogy of programming
// languages
func Demo() (domain.Snapshot, error) {
	return NewYAMLCodec().Parse(bytes.NewReader(languagesYAML))
}
