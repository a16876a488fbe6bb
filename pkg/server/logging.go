package server

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/lmittmann/tint"
)

type LogConfig struct {
	Level string `yaml:"level"`
	// Format is tint (console), json or text.
	Format string `yaml:"format"`
}

func NewLogger(cfg LogConfig, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
	}

	switch cfg.Format {
	case "", "tint":
		return slog.New(tint.NewHandler(w, &tint.Options{Level: level})), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
}
