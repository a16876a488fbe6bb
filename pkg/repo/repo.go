package repo

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// Repo is a source of Debian archive metadata.
type Repo interface {
	// InRelease fetches a signed description of the distribution and its indexes.
	InRelease(ctx context.Context, dist Distribution) ([]byte, error)

	// Index fetches a Packages or Sources index by its path.
	Index(ctx context.Context, dist Distribution, component Component, arch Architecture, compression Compression) ([]byte, error)

	// ByHash fetches an index by its SHA256 digest.
	ByHash(ctx context.Context, dist Distribution, component Component, arch Architecture, digest string) ([]byte, error)
}

type Distribution string

func (d Distribution) String() string { return string(d) }

type Component string

func (c Component) String() string { return string(c) }

// Architecture is a binary architecture, or ArchitectureSource for the Sources index.
type Architecture string

const ArchitectureSource Architecture = "source"

func (a Architecture) String() string { return string(a) }

// Dir is the directory holding this architecture's index within a component.
func (a Architecture) Dir() string {
	if a == ArchitectureSource {
		return string(ArchitectureSource)
	}
	return "binary-" + string(a)
}

// IndexName is the base name of this architecture's index.
func (a Architecture) IndexName() string {
	if a == ArchitectureSource {
		return "Sources"
	}
	return "Packages"
}

// IndexPath is the path of an index relative to dists/<dist>/, as listed in Release.
func IndexPath(component Component, arch Architecture, compression Compression) string {
	return string(component) + "/" + arch.Dir() + "/" + arch.IndexName() + compression.Extension()
}
