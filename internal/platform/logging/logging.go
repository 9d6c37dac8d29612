// Package logging builds the structured process logger shared by every
// verifier.space component.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Options controls logger construction.
type Options struct {
	// Level is a zerolog level name (debug, info, warn, error). Empty means info.
	Level string
	// JSON selects machine-readable output instead of the console writer.
	JSON bool
	// Output defaults to stderr.
	Output io.Writer
}

// New returns a root logger tagged with the service name.
func New(service string, opts Options) (zerolog.Logger, error) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	levelName := strings.ToLower(strings.TrimSpace(opts.Level))
	if levelName == "" {
		levelName = zerolog.InfoLevel.String()
	}
	level, err := zerolog.ParseLevel(levelName)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("parse log level %q: %w", opts.Level, err)
	}
	if !opts.JSON {
		out = zerolog.ConsoleWriter{Out: out}
	}
	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", service).
		Logger(), nil
}

// Component derives a sub-logger for one component.
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
