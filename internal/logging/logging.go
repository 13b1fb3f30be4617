// Package logging builds the zerolog logger used by the CLI.
package logging

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/born-ml/agents/internal/config"
)

// New returns a logger writing to w. format is config.FormatConsole or
// config.FormatJSON; level is any zerolog level name.
func New(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}

	switch format {
	case config.FormatJSON:
	case config.FormatConsole:
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q", format)
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// FromConfig builds a logger from cfg.
func FromConfig(w io.Writer, cfg config.Config) (zerolog.Logger, error) {
	return New(w, cfg.LogLevel, cfg.LogFormat)
}
