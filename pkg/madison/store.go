package madison

import (
	"sync/atomic"
	"time"
)

// Snapshot is one published Mapping.
type Snapshot struct {
	Mapping    Mapping
	Generation uint64
	BuiltAt    time.Time
}

var uninitialized = &Snapshot{Mapping: Mapping{}}

// Store holds the current Snapshot. Readers never block; the zero value is ready to use.
type Store struct {
	current atomic.Pointer[Snapshot]
}

func NewStore() *Store {
	return &Store{}
}

// Load returns the current snapshot, or an empty generation 0 snapshot before the first Publish.
func (s *Store) Load() *Snapshot {
	if snap := s.current.Load(); snap != nil {
		return snap
	}
	return uninitialized
}

// Ready reports whether a Mapping has been published.
func (s *Store) Ready() bool {
	return s.current.Load() != nil
}

// Publish replaces the current snapshot with m.
func (s *Store) Publish(m Mapping) *Snapshot {
	for {
		prev := s.current.Load()
		next := &Snapshot{Mapping: m, Generation: 1, BuiltAt: time.Now()}
		if prev != nil {
			next.Generation = prev.Generation + 1
		}
		if s.current.CompareAndSwap(prev, next) {
			return next
		}
	}
}
