package madison_test

import (
	"context"
	"errors"
	"iter"
	"sync"

	"github.com/thepwagner/madison/pkg/madison"
)

type fakeListing struct {
	desc    madison.ListingDescriptor
	records []madison.PackageRecord
	openErr error
	readErr error
}

// fakeSource serves fixed listings; Update reports the next queued change flag.
type fakeSource struct {
	mu        sync.Mutex
	listings  []fakeListing
	changes   []bool
	updateErr error
	updates   int
}

var _ madison.ListingSource = (*fakeSource)(nil)

func newFakeSource(listings ...fakeListing) *fakeSource {
	return &fakeSource{listings: listings}
}

func (f *fakeSource) set(listings ...fakeListing) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listings = listings
	f.changes = append(f.changes, true)
}

func (f *fakeSource) Listings(context.Context) ([]madison.ListingDescriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ret := make([]madison.ListingDescriptor, 0, len(f.listings))
	for _, l := range f.listings {
		ret = append(ret, l.desc)
	}
	return ret, nil
}

func (f *fakeSource) Open(_ context.Context, desc madison.ListingDescriptor) (iter.Seq2[madison.PackageRecord, error], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.listings {
		if l.desc != desc {
			continue
		}
		if l.openErr != nil {
			return nil, l.openErr
		}
		return func(yield func(madison.PackageRecord, error) bool) {
			for _, r := range l.records {
				if !yield(r, nil) {
					return
				}
			}
			if l.readErr != nil {
				yield(madison.PackageRecord{}, l.readErr)
			}
		}, nil
	}
	return nil, errors.New("unknown listing")
}

func (f *fakeSource) Update(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	if f.updateErr != nil {
		return false, f.updateErr
	}
	if len(f.changes) == 0 {
		return false, nil
	}
	changed := f.changes[0]
	f.changes = f.changes[1:]
	return changed, nil
}

func binaryListing(codename, component, arch string, records ...madison.PackageRecord) fakeListing {
	return fakeListing{
		desc:    madison.ListingDescriptor{Codename: codename, Suite: codename, Component: component, Architecture: arch},
		records: records,
	}
}

func sourceListing(codename, component string, records ...madison.PackageRecord) fakeListing {
	return fakeListing{
		desc:    madison.ListingDescriptor{Codename: codename, Suite: codename, Component: component, Source: true},
		records: records,
	}
}

func bin(name, version string) madison.PackageRecord {
	return madison.PackageRecord{Name: name, Version: version, Binary: true}
}

func binFrom(name, version, source string) madison.PackageRecord {
	return madison.PackageRecord{Name: name, Version: version, SourceName: source, Binary: true}
}

func src(name, version string) madison.PackageRecord {
	return madison.PackageRecord{Name: name, Version: version}
}
