// Package logging builds the zerolog logger every component receives.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Conf - "log" section of config/.core.json
type Conf struct {
	Level  string    `json:"level"`  // trace, debug, info, warn, error
	Format string    `json:"format"` // json or console
	Output io.Writer `json:"-"`      // defaults to stderr
}

// New returns a logger stamped with the app name and a timestamp.
func New(appName string, c Conf) zerolog.Logger {
	out := c.Output
	if out == nil {
		out = os.Stderr
	}
	if c.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).
		Level(ParseLevel(c.Level)).
		With().
		Timestamp().
		Str("app", appName).
		Logger()
}

// ParseLevel maps a config level name to a zerolog level. Unknown names
// are info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
