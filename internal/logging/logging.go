// Package logging builds the process logger. Diagnostics go to stderr so
// command output on stdout stays machine-readable.
package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger writing to w. format is "json" or "console" (default);
// an unknown level falls back to warn.
func New(w io.Writer, level string, format string, noColor bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.WarnLevel
	}

	out := w
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	}
	cw := zerolog.ConsoleWriter{Out: out, NoColor: noColor, TimeFormat: time.Kitchen}
	return zerolog.New(cw).Level(lvl).With().Timestamp().Logger()
}
