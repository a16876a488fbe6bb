package debian

import (
	"fmt"
	"io"
	"strings"

	"pault.ag/go/debian/control"
)

// BinaryRecord is the subset of a Packages stanza that madison cares about.
type BinaryRecord struct {
	Package      string
	Version      string
	Source       string
	Architecture string
}

// SourceName returns the name of the source package the binary was built from.
// The Source field may carry a version in parentheses, e.g. "gcc-12 (12.2.0-14)".
func (b BinaryRecord) SourceName() string {
	src := b.Source
	if i := strings.IndexByte(src, '('); i >= 0 {
		src = src[:i]
	}
	src = strings.TrimSpace(src)
	if src == "" {
		return b.Package
	}
	return src
}

// SourceRecord is the subset of a Sources stanza that madison cares about.
type SourceRecord struct {
	Package string
	Version string
}

// ParseBinaryIndex decodes every stanza of a Packages file.
func ParseBinaryIndex(in io.Reader) ([]BinaryRecord, error) {
	dec, err := control.NewDecoder(in, nil)
	if err != nil {
		return nil, fmt.Errorf("creating decoder: %w", err)
	}
	var out []BinaryRecord
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding Packages: %w", err)
	}
	return out, nil
}

// ParseSourceIndex decodes every stanza of a Sources file.
func ParseSourceIndex(in io.Reader) ([]SourceRecord, error) {
	dec, err := control.NewDecoder(in, nil)
	if err != nil {
		return nil, fmt.Errorf("creating decoder: %w", err)
	}
	var out []SourceRecord
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding Sources: %w", err)
	}
	return out, nil
}
