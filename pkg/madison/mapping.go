package madison

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
)

const (
	TypeSource  = "source"
	TypeUnknown = "unknown!"
)

// TypeSet is the set of availability labels observed for one version.
type TypeSet map[string]struct{}

func NewTypeSet(labels ...string) TypeSet {
	t := make(TypeSet, len(labels))
	for _, l := range labels {
		t[l] = struct{}{}
	}
	return t
}

func (t TypeSet) Union(other TypeSet) {
	for l := range other {
		t[l] = struct{}{}
	}
}

// String renders "source" first when present, then the remaining labels sorted.
func (t TypeSet) String() string {
	labels := make([]string, 0, len(t))
	for l := range t {
		if l != TypeSource {
			labels = append(labels, l)
		}
	}
	slices.Sort(labels)
	if _, ok := t[TypeSource]; ok {
		labels = append([]string{TypeSource}, labels...)
	}
	return strings.Join(labels, ", ")
}

// Entry is a (group key, version) pair reported for a package.
type Entry struct {
	Key     string
	Version string
}

// Mapping indexes every observed Entry by package name.
// A published Mapping is never modified.
type Mapping map[string]map[Entry]TypeSet

// Packages returns the number of distinct package names.
func (m Mapping) Packages() int {
	return len(m)
}

func (m Mapping) merge(r listingResult) {
	for name, obs := range r.observations {
		entries, ok := m[name]
		if !ok {
			entries = map[Entry]TypeSet{}
			m[name] = entries
		}
		e := Entry{Key: r.key, Version: obs.version}
		types, ok := entries[e]
		if !ok {
			types = TypeSet{}
			entries[e] = types
		}
		types.Union(obs.types)
	}
}

type observation struct {
	version string
	types   TypeSet
}

type listingResult struct {
	key          string
	observations map[string]*observation
}

// Build scans every listing of src and merges the results into a new Mapping.
// Any listing that cannot be read fails the whole build.
func Build(ctx context.Context, src ListingSource, opts ...Option) (Mapping, error) {
	o := newOptions(opts)

	listings, err := src.Listings(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerating listings: %w", err)
	}
	if len(listings) == 0 {
		return nil, ErrNoListings
	}

	results := make([]listingResult, len(listings))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, l := range listings {
		g.Go(func() error {
			res, err := scanListing(gctx, src, l, o)
			if err != nil {
				return fmt.Errorf("scanning %s: %w", l, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	m := Mapping{}
	for _, res := range results {
		m.merge(res)
	}
	slog.Debug("built mapping", slog.Int("listings", len(listings)), slog.Int("packages", len(m)))
	return m, nil
}

func scanListing(ctx context.Context, src ListingSource, l ListingDescriptor, o options) (listingResult, error) {
	if err := ctx.Err(); err != nil {
		return listingResult{}, err
	}
	records, err := src.Open(ctx, l)
	if err != nil {
		return listingResult{}, fmt.Errorf("opening listing: %w", err)
	}

	res := listingResult{key: o.key(l), observations: map[string]*observation{}}
	observe := func(name, version, label string) {
		obs, ok := res.observations[name]
		if !ok {
			res.observations[name] = &observation{version: version, types: NewTypeSet(label)}
			return
		}
		if o.compare(version, obs.version) > 0 {
			obs.version = version
		}
		// labels seen under lower versions are kept
		obs.types[label] = struct{}{}
	}

	arch := l.Architecture
	if arch == "" {
		arch = TypeUnknown
	}
	for rec, err := range records {
		if err != nil {
			return listingResult{}, fmt.Errorf("reading listing: %w", err)
		}
		observe(rec.ResolvedSource(), rec.Version, TypeSource)
		if !l.Source {
			observe(rec.Name, rec.Version, arch)
		}
	}
	return res, nil
}
