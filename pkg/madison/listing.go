package madison

import (
	"context"
	"errors"
	"iter"
)

var ErrNoListings = errors.New("no listings available")

// ListingDescriptor identifies one downloaded index.
type ListingDescriptor struct {
	// URI is the archive the listing was downloaded from.
	URI          string
	Codename     string
	Suite        string
	Component    string
	Architecture string
	// Source marks a Sources index rather than a binary Packages index.
	Source bool
}

func (l ListingDescriptor) String() string {
	arch := l.Architecture
	switch {
	case l.Source:
		arch = TypeSource
	case arch == "":
		arch = TypeUnknown
	}
	return l.Codename + "/" + l.Component + "/" + arch
}

// PackageRecord is one stanza of a listing.
type PackageRecord struct {
	Name    string
	Version string
	// SourceName is the source package a binary was built from, if declared.
	SourceName string
	Binary     bool
}

// ResolvedSource returns the name of the source package this record belongs to.
func (r PackageRecord) ResolvedSource() string {
	if r.Binary && r.SourceName != "" {
		return r.SourceName
	}
	return r.Name
}

// ListingSource supplies the listings a Mapping is built from.
type ListingSource interface {
	// Listings enumerates the currently downloaded listings.
	Listings(ctx context.Context) ([]ListingDescriptor, error)

	// Open returns the records of one listing. Iteration stops at the first error.
	Open(ctx context.Context, listing ListingDescriptor) (iter.Seq2[PackageRecord, error], error)

	// Update refreshes the listings, reporting whether anything changed.
	// Calling it repeatedly without upstream changes reports no change.
	Update(ctx context.Context) (bool, error)
}
