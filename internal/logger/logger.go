// Package logger builds the zerolog logger used by the crypt command.
package logger

import (
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/CLQuantizer/crypt/internal/config"
)

// Output formats accepted in config.LogConfig.Format.
const (
	FormatJSON    = "json"    // one JSON object per line
	FormatConsole = "console" // human-readable, uncolored
)

// New creates a logger writing to w. Unknown levels fall back to warn.
func New(cfg config.LogConfig, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.WarnLevel
	}

	var zl zerolog.Logger
	if strings.ToLower(cfg.Format) == FormatJSON {
		zl = zerolog.New(w)
	} else {
		zl = zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true})
	}

	return zl.Level(level).With().Timestamp().Str("service", "crypt").Logger()
}
