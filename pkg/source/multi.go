package source

import (
	"context"
	"fmt"
	"iter"
	"sync"

	"github.com/thepwagner/madison/pkg/madison"
)

// Multi combines several sources into one.
type Multi struct {
	sources []madison.ListingSource

	mu     sync.RWMutex
	owners map[madison.ListingDescriptor]madison.ListingSource
}

var _ madison.ListingSource = (*Multi)(nil)

func NewMulti(sources ...madison.ListingSource) *Multi {
	return &Multi{
		sources: sources,
		owners:  map[madison.ListingDescriptor]madison.ListingSource{},
	}
}

func (m *Multi) Listings(ctx context.Context) ([]madison.ListingDescriptor, error) {
	owners := map[madison.ListingDescriptor]madison.ListingSource{}
	var ret []madison.ListingDescriptor
	for _, src := range m.sources {
		ls, err := src.Listings(ctx)
		if err != nil {
			return nil, err
		}
		for _, l := range ls {
			if _, dup := owners[l]; dup {
				return nil, fmt.Errorf("listing %s provided by more than one source", l)
			}
			owners[l] = src
			ret = append(ret, l)
		}
	}

	m.mu.Lock()
	m.owners = owners
	m.mu.Unlock()
	return ret, nil
}

func (m *Multi) Open(ctx context.Context, l madison.ListingDescriptor) (iter.Seq2[madison.PackageRecord, error], error) {
	m.mu.RLock()
	src, ok := m.owners[l]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown listing %s", l)
	}
	return src.Open(ctx, l)
}

// Update updates every source, reporting a change if any of them changed.
func (m *Multi) Update(ctx context.Context) (bool, error) {
	var changed bool
	for _, src := range m.sources {
		c, err := src.Update(ctx)
		if err != nil {
			return false, err
		}
		changed = changed || c
	}
	return changed, nil
}
