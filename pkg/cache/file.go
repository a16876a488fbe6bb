package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStorage keeps entries as files under Path, one directory per namespace,
// expiring them by mtime. It survives restarts, so downloaded indexes are reused.
type FileStorage struct {
	Path string
	ttl  time.Duration

	mu    sync.RWMutex
	nsTTL map[Namespace]time.Duration
}

type FileConfig struct {
	Path string        `yaml:"path"`
	TTL  time.Duration `yaml:"ttl"`
}

func NewFileStorage(cfg FileConfig) *FileStorage {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = time.Hour
	}
	return &FileStorage{
		Path:  cfg.Path,
		ttl:   ttl,
		nsTTL: map[Namespace]time.Duration{},
	}
}

var _ Storage = (*FileStorage)(nil)

func (f *FileStorage) Get(_ context.Context, key Key) ([]byte, bool) {
	p := f.path(key)

	f.mu.RLock()
	ttl, ok := f.nsTTL[key.Namespace()]
	f.mu.RUnlock()
	if !ok {
		ttl = f.ttl
	}

	stat, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false
	} else if err == nil && ttl > 0 && time.Since(stat.ModTime()) > ttl {
		slog.Debug("file cache entry expired", slog.String("path", p))
		return nil, false
	}

	b, err := os.ReadFile(p)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Error("reading file cache entry", slog.String("path", p), slog.Any("error", err))
		}
		return nil, false
	}
	return b, true
}

// Add writes value beside its final path and renames it into place, so concurrent
// readers never see a partial entry.
func (f *FileStorage) Add(_ context.Context, key Key, value []byte) {
	p := f.path(key)
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Error("creating file cache directory", slog.String("path", dir), slog.Any("error", err))
		return
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		slog.Error("creating file cache entry", slog.String("path", p), slog.Any("error", err))
		return
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		slog.Error("writing file cache entry", slog.String("path", p), slog.Any("error", err))
		return
	}
	if err := tmp.Close(); err != nil {
		slog.Error("writing file cache entry", slog.String("path", p), slog.Any("error", err))
		return
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		slog.Error("renaming file cache entry", slog.String("path", p), slog.Any("error", err))
	}
}

func (f *FileStorage) NamespaceTTL(namespace Namespace, ttl time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nsTTL[namespace] = ttl
}

// path maps key to Path/<namespace>/<sha256 of key>. Keys are never used as file names.
func (f *FileStorage) path(key Key) string {
	ns := string(key.Namespace())
	if ns == "" {
		ns = "_"
	}
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(f.Path, filepath.Base(ns), hex.EncodeToString(sum[:]))
}
