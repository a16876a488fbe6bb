package source

import (
	"cmp"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/thepwagner/madison/pkg/debian"
	"github.com/thepwagner/madison/pkg/madison"
)

// Local exposes a directory of .deb files as one binary listing per architecture.
type Local struct {
	dir       string
	uri       string
	codename  string
	component string

	mu          sync.RWMutex
	scanned     bool
	fingerprint string
	records     map[string][]debian.BinaryRecord
}

type LocalConfig struct {
	Directory string `yaml:"dir"`
	Codename  string `yaml:"codename"`
	Component string `yaml:"component"`
}

var _ madison.ListingSource = (*Local)(nil)

func NewLocal(cfg LocalConfig) *Local {
	l := &Local{
		dir:       cfg.Directory,
		codename:  cfg.Codename,
		component: cfg.Component,
		records:   map[string][]debian.BinaryRecord{},
	}
	if l.codename == "" {
		l.codename = "local"
	}
	if l.component == "" {
		l.component = "main"
	}
	if abs, err := filepath.Abs(l.dir); err == nil {
		l.uri = "file://" + abs
	} else {
		l.uri = "file://" + l.dir
	}
	return l
}

func (s *Local) Listings(_ context.Context) ([]madison.ListingDescriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ret := make([]madison.ListingDescriptor, 0, len(s.records))
	for arch := range s.records {
		ret = append(ret, s.descriptor(arch))
	}
	sortListings(ret)
	return ret, nil
}

func (s *Local) descriptor(arch string) madison.ListingDescriptor {
	return madison.ListingDescriptor{
		URI:          s.uri,
		Codename:     s.codename,
		Suite:        s.codename,
		Component:    s.component,
		Architecture: arch,
	}
}

func (s *Local) Open(_ context.Context, l madison.ListingDescriptor) (iter.Seq2[madison.PackageRecord, error], error) {
	s.mu.RLock()
	records, ok := s.records[l.Architecture]
	s.mu.RUnlock()
	if !ok || l != s.descriptor(l.Architecture) {
		return nil, fmt.Errorf("unknown listing %s", l)
	}
	return func(yield func(madison.PackageRecord, error) bool) {
		for _, r := range records {
			if !yield(binaryRecord(r), nil) {
				return
			}
		}
	}, nil
}

// Update rescans the directory when any .deb was added, removed, resized or touched.
func (s *Local) Update(_ context.Context) (bool, error) {
	var paths []string
	h := sha256.New()
	// WalkDir visits in lexical order, so the fingerprint does not depend on readdir order
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(d.Name()) != ".deb" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		fmt.Fprintf(h, "%s\x00%d\x00%d\n", path, info.Size(), info.ModTime().UnixNano())
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("walking %s: %w", s.dir, err)
	}
	fingerprint := hex.EncodeToString(h.Sum(nil))

	s.mu.RLock()
	unchanged := s.scanned && fingerprint == s.fingerprint
	s.mu.RUnlock()
	if unchanged {
		return false, nil
	}

	records := map[string][]debian.BinaryRecord{}
	for _, path := range paths {
		pkg, err := debian.RecordFromDebFile(path)
		if err != nil {
			return false, fmt.Errorf("reading %s: %w", path, err)
		} else if pkg == nil {
			slog.Warn("no control file found", slog.String("file", path))
			continue
		}
		records[pkg.Architecture] = append(records[pkg.Architecture], *pkg)
	}
	for _, rs := range records {
		slices.SortFunc(rs, func(a, b debian.BinaryRecord) int {
			return cmp.Or(strings.Compare(a.Package, b.Package), debian.CompareVersions(a.Version, b.Version))
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.scanned = true
	s.fingerprint = fingerprint
	s.records = records
	slog.Debug("scanned local packages", slog.String("dir", s.dir), slog.Int("debs", len(paths)))
	return true, nil
}
