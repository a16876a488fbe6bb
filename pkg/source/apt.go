package source

import (
	"bytes"
	"cmp"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"sync"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/thepwagner/madison/pkg/cache"
	"github.com/thepwagner/madison/pkg/debian"
	"github.com/thepwagner/madison/pkg/madison"
	"github.com/thepwagner/madison/pkg/repo"
)

var ErrDigestMismatch = errors.New("digest mismatch")

// ErrSizeMismatch is returned when a downloaded index is not the size its Release file lists.
var ErrSizeMismatch = errors.New("size mismatch")

// DefaultArchitectures is used for entries that do not name their architectures.
var DefaultArchitectures = []string{"amd64"}

type AptConfig struct {
	Entries []Entry
	// Architectures applies to entries without an arch option.
	Architectures []string
	// Keyring verifies every InRelease. Ignored when Insecure is set.
	Keyring  openpgp.EntityList
	Insecure bool
	// Storage caches indexes downloaded by hash. Optional.
	Storage cache.Storage
}

// Apt reads Packages and Sources indexes from Debian archives.
type Apt struct {
	archives []archive
	arches   []string
	insecure bool

	updateMu sync.Mutex

	mu      sync.RWMutex
	indexes map[madison.ListingDescriptor]index
}

type archive struct {
	entry   Entry
	repo    repo.Repo
	keyring openpgp.EntityList
}

type index struct {
	digest string
	data   []byte
}

var _ madison.ListingSource = (*Apt)(nil)

// NewApt prepares the archives in cfg. Nothing is downloaded until Update.
func NewApt(cfg AptConfig) (*Apt, error) {
	a := &Apt{
		arches:   cfg.Architectures,
		insecure: cfg.Insecure,
		indexes:  map[madison.ListingDescriptor]index{},
	}
	if len(a.arches) == 0 {
		a.arches = DefaultArchitectures
	}
	if a.insecure {
		slog.Warn("InRelease signature verification disabled")
	}

	for _, e := range cfg.Entries {
		u, err := url.Parse(e.URI)
		if err != nil {
			return nil, fmt.Errorf("parsing archive URI %q: %w", e.URI, err)
		}
		var r repo.Repo = repo.NewUpstream(*u)
		if cfg.Storage != nil {
			r = repo.NewCache(r, cfg.Storage)
		}

		keyring := cfg.Keyring
		if e.SignedBy != "" {
			extra, err := debian.LoadKeyring([]string{e.SignedBy})
			if err != nil {
				return nil, fmt.Errorf("loading signed-by keyring for %s: %w", e.URI, err)
			}
			keyring = append(slices.Clone(keyring), extra...)
		}
		a.archives = append(a.archives, archive{entry: e, repo: r, keyring: keyring})
	}
	return a, nil
}

func (a *Apt) Listings(_ context.Context) ([]madison.ListingDescriptor, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	ret := make([]madison.ListingDescriptor, 0, len(a.indexes))
	for l := range a.indexes {
		ret = append(ret, l)
	}
	sortListings(ret)
	return ret, nil
}

func (a *Apt) Open(_ context.Context, l madison.ListingDescriptor) (iter.Seq2[madison.PackageRecord, error], error) {
	a.mu.RLock()
	idx, ok := a.indexes[l]
	a.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("listing %s: %w", l, repo.ErrNotFound)
	}
	if l.Source {
		return sourceRecords(idx.data), nil
	}
	return binaryRecords(idx.data), nil
}

// Update fetches every InRelease and downloads the indexes whose digest changed.
// Nothing is replaced unless every archive could be read.
func (a *Apt) Update(ctx context.Context) (bool, error) {
	a.updateMu.Lock()
	defer a.updateMu.Unlock()

	a.mu.RLock()
	prev := a.indexes
	a.mu.RUnlock()

	next := map[madison.ListingDescriptor]index{}
	for _, arc := range a.archives {
		for _, suite := range arc.entry.Suites {
			if err := a.updateSuite(ctx, arc, suite, prev, next); err != nil {
				return false, fmt.Errorf("updating %s %s: %w", arc.entry.URI, suite, err)
			}
		}
	}

	changed := len(prev) != len(next)
	for l, idx := range next {
		if p, ok := prev[l]; !ok || p.digest != idx.digest {
			changed = true
			break
		}
	}
	if changed {
		a.mu.Lock()
		a.indexes = next
		a.mu.Unlock()
	}
	slog.Debug("apt update complete", slog.Int("listings", len(next)), slog.Bool("changed", changed))
	return changed, nil
}

func (a *Apt) updateSuite(ctx context.Context, arc archive, suite string, prev, next map[madison.ListingDescriptor]index) error {
	dist := repo.Distribution(suite)
	signed, err := arc.repo.InRelease(ctx, dist)
	if err != nil {
		return fmt.Errorf("fetching InRelease: %w", err)
	}
	var keyring openpgp.KeyRing
	if !a.insecure {
		keyring = arc.keyring
	}
	plain, err := debian.VerifyInRelease(signed, keyring)
	if err != nil {
		return err
	}
	rel, err := debian.ParseRelease(bytes.NewReader(plain))
	if err != nil {
		return err
	}
	codename := rel.Codename
	if codename == "" {
		codename = suite
	}

	files := rel.Indexes()
	arches := arc.entry.Architectures
	if len(arches) == 0 {
		arches = a.arches
	}
	var wanted []repo.Architecture
	if arc.entry.Binary() {
		for _, arch := range arches {
			wanted = append(wanted, repo.Architecture(arch))
		}
	}
	if arc.entry.Source() {
		wanted = append(wanted, repo.ArchitectureSource)
	}

	released := rel.ComponentList()
	releasedArches := rel.ArchitectureList()
	for _, component := range arc.entry.Components {
		if len(released) > 0 && !slices.Contains(released, component) {
			slog.Warn("component not in release", slog.String("uri", arc.entry.URI), slog.String("suite", suite), slog.String("component", component))
			continue
		}
		for _, arch := range wanted {
			if arch != repo.ArchitectureSource && len(releasedArches) > 0 && !slices.Contains(releasedArches, arch.String()) {
				slog.Debug("architecture not in release", slog.String("suite", suite), slog.Any("arch", arch))
				continue
			}
			l := madison.ListingDescriptor{
				URI:       arc.entry.URI,
				Codename:  codename,
				Suite:     suite,
				Component: component,
				Source:    arch == repo.ArchitectureSource,
			}
			if !l.Source {
				l.Architecture = arch.String()
			}

			file, compression, ok := pickIndex(files, repo.Component(component), arch)
			if !ok {
				slog.Debug("index not in release", slog.String("listing", l.String()))
				continue
			}
			if p, ok := prev[l]; ok && p.digest == file.SHA256 {
				next[l] = p
				continue
			}

			data, err := a.fetchIndex(ctx, arc.repo, dist, repo.Component(component), arch, file, compression, rel.ByHash())
			if err != nil {
				return fmt.Errorf("fetching %s: %w", file.Path, err)
			}
			slog.Debug("downloaded index", slog.String("listing", l.String()), slog.String("path", file.Path), slog.Int("bytes", len(data)))
			next[l] = index{digest: file.SHA256, data: data}
		}
	}
	return nil
}

// pickIndex returns the smallest listed variant of an index.
func pickIndex(files map[string]debian.IndexFile, component repo.Component, arch repo.Architecture) (debian.IndexFile, repo.Compression, bool) {
	for _, c := range repo.Compressions {
		if f, ok := files[repo.IndexPath(component, arch, c)]; ok {
			return f, c, true
		}
	}
	return debian.IndexFile{}, repo.CompressionNone, false
}

func (a *Apt) fetchIndex(ctx context.Context, r repo.Repo, dist repo.Distribution, component repo.Component, arch repo.Architecture, file debian.IndexFile, compression repo.Compression, byHash bool) ([]byte, error) {
	var data []byte
	var err error
	if byHash {
		data, err = r.ByHash(ctx, dist, component, arch, file.SHA256)
		if errors.Is(err, repo.ErrNotFound) {
			slog.Debug("by-hash missing, falling back to path", slog.String("path", file.Path))
			data, err = r.Index(ctx, dist, component, arch, compression)
		}
	} else {
		data, err = r.Index(ctx, dist, component, arch, compression)
	}
	if err != nil {
		return nil, err
	}

	if file.Size > 0 && int64(len(data)) != file.Size {
		return nil, fmt.Errorf("%w: %s is %d bytes, release lists %d", ErrSizeMismatch, file.Path, len(data), file.Size)
	}
	sum := sha256.Sum256(data)
	if got := hex.EncodeToString(sum[:]); got != file.SHA256 {
		return nil, fmt.Errorf("%w: %s is %s, release lists %s", ErrDigestMismatch, file.Path, got, file.SHA256)
	}
	return compression.Decompress(data)
}

func binaryRecords(data []byte) iter.Seq2[madison.PackageRecord, error] {
	return func(yield func(madison.PackageRecord, error) bool) {
		records, err := debian.ParseBinaryIndex(bytes.NewReader(data))
		if err != nil {
			yield(madison.PackageRecord{}, err)
			return
		}
		for _, r := range records {
			if !yield(binaryRecord(r), nil) {
				return
			}
		}
	}
}

func binaryRecord(r debian.BinaryRecord) madison.PackageRecord {
	return madison.PackageRecord{
		Name:       r.Package,
		Version:    r.Version,
		SourceName: r.SourceName(),
		Binary:     true,
	}
}

func sourceRecords(data []byte) iter.Seq2[madison.PackageRecord, error] {
	return func(yield func(madison.PackageRecord, error) bool) {
		records, err := debian.ParseSourceIndex(bytes.NewReader(data))
		if err != nil {
			yield(madison.PackageRecord{}, err)
			return
		}
		for _, r := range records {
			if !yield(madison.PackageRecord{Name: r.Package, Version: r.Version}, nil) {
				return
			}
		}
	}
}

func sortListings(ls []madison.ListingDescriptor) {
	slices.SortFunc(ls, func(a, b madison.ListingDescriptor) int {
		return cmp.Or(
			strings.Compare(a.URI, b.URI),
			strings.Compare(a.Suite, b.Suite),
			strings.Compare(a.String(), b.String()),
		)
	})
}
