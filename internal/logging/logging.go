// Package logging builds the process logger.
package logging

import (
	"io"
	"time"

	"github.com/opencode-ai/nbtemplates/internal/config"
	"github.com/rs/zerolog"
)

// New returns a logger writing to w in the configured format and level.
func New(cfg config.LoggingConfig, w io.Writer) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		parsed, err := zerolog.ParseLevel(cfg.Level)
		if err != nil {
			return zerolog.Nop(), err
		}
		level = parsed
	}

	out := w
	if cfg.Format != "json" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}
