package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/thepwagner/madison/pkg/cache"
	"github.com/thepwagner/madison/pkg/debian"
	"github.com/thepwagner/madison/pkg/madison"
	"github.com/thepwagner/madison/pkg/source"
	"gopkg.in/yaml.v3"
)

const DefaultConfigPath = "madison.yml"

var ErrNoSources = errors.New("no sources configured")

type Config struct {
	Addr            string        `yaml:"addr"`
	Key             string        `yaml:"key"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	Metrics         bool          `yaml:"metrics"`
	Log             LogConfig     `yaml:"log"`
	Cache           cache.Config  `yaml:"cache"`

	SourcesList   string               `yaml:"sources_list"`
	Sources       []source.Entry       `yaml:"sources"`
	Architectures []string             `yaml:"architectures"`
	ExtraKeyPaths []string             `yaml:"extra_key_paths"`
	Insecure      bool                 `yaml:"insecure"`
	Local         []source.LocalConfig `yaml:"local"`
}

// LoadConfig reads path, falling back to defaults when it does not exist.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	f, err := os.Open(path)
	if err == nil {
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("error decoding config: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error opening config: %w", err)
	} else {
		slog.Info("no config file found, using defaults", slog.String("path", path))
	}

	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.Key == "" {
		cfg.Key = "codename"
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = madison.DefaultRefreshInterval
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "tint"
	}
	if cfg.Cache.Responses <= 0 {
		cfg.Cache.Responses = cache.DefaultResponses
	}

	return &cfg, nil
}

// BuildSource assembles every configured archive and local directory into one ListingSource.
// Key material and sources lists are read here, so a bad path fails startup.
func BuildSource(cfg *Config) (madison.ListingSource, error) {
	var entries []source.Entry
	if cfg.SourcesList != "" {
		slog.Debug("reading sources list", slog.String("path", cfg.SourcesList))
		listed, err := source.ReadSourcesList(cfg.SourcesList)
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", cfg.SourcesList, err)
		}
		entries = append(entries, listed...)
	}
	for i, e := range cfg.Sources {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("error in sources[%d]: %w", i, err)
		}
		entries = append(entries, e)
	}

	var sources []madison.ListingSource
	if len(entries) > 0 {
		keyring, err := debian.LoadKeyring(cfg.ExtraKeyPaths)
		if err != nil {
			return nil, fmt.Errorf("error loading keyring: %w", err)
		}
		storage, err := cache.StorageFromConfig(cfg.Cache)
		if err != nil {
			return nil, err
		}
		apt, err := source.NewApt(source.AptConfig{
			Entries:       entries,
			Architectures: cfg.Architectures,
			Keyring:       keyring,
			Insecure:      cfg.Insecure,
			Storage:       storage,
		})
		if err != nil {
			return nil, fmt.Errorf("error building apt source: %w", err)
		}
		sources = append(sources, apt)
	}
	for _, l := range cfg.Local {
		slog.Debug("adding local source", slog.String("dir", l.Directory))
		sources = append(sources, source.NewLocal(l))
	}

	switch len(sources) {
	case 0:
		return nil, ErrNoSources
	case 1:
		return sources[0], nil
	default:
		return source.NewMulti(sources...), nil
	}
}
