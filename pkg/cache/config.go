package cache

import (
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
)

type Config struct {
	// URL selects the index storage: empty for in-memory, file:///path for disk.
	URL string `yaml:"url"`
	// Responses bounds the number of rendered responses kept per snapshot.
	Responses int `yaml:"responses"`
}

func StorageFromConfig(cfg Config) (Storage, error) {
	if cfg.URL == "" {
		slog.Debug("no cache URL specified, using in-memory")
		return NewLRUStorage(LRUConfig{}), nil
	}

	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("error parsing cache URL: %w", err)
	}
	switch u.Scheme {
	case "file":
		p := filepath.Join(u.Hostname(), u.Path)
		slog.Debug("using file cache", slog.String("path", p))
		return NewFileStorage(FileConfig{Path: p}), nil

	default:
		return nil, fmt.Errorf("unsupported cache scheme %q", u.Scheme)
	}
}
