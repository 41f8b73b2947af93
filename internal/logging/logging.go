// Package logging provides flowcoord's logging infrastructure built on
// charmbracelet/log.
//
// It wraps charmbracelet/log to provide a centralized logger factory with
// component prefixes and level/format configuration set once at the host's
// entrypoint. All log output goes to stderr; stdout is reserved for flow
// results printed by the CLI host.
//
// Usage:
//
//	// During host initialization:
//	logging.Setup(verbose, quiet, jsonFormat)
//
//	// In each package:
//	logger := logging.New("flow")
//	logger.Info("started", "flow_id", id)
//
// Setup must be called before New so child loggers inherit the right level
// and formatter; charmbracelet/log copies state at creation time, so later
// changes to the default logger do not propagate to existing children.
package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Level aliases re-exported so callers do not need to import
// charmbracelet/log directly.
const (
	LevelDebug = log.DebugLevel
	LevelInfo  = log.InfoLevel
	LevelWarn  = log.WarnLevel
	LevelError = log.ErrorLevel
)

// Setup configures the global logging defaults. Call once during host
// initialization, before any component logger is created with New.
func Setup(verbose, quiet, jsonFormat bool) {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	if quiet {
		level = log.ErrorLevel
	}

	log.SetLevel(level)
	log.SetOutput(os.Stderr)
	log.SetReportTimestamp(true)

	if jsonFormat {
		log.SetFormatter(log.JSONFormatter)
	} else {
		log.SetFormatter(log.TextFormatter)
	}
}

// New creates a logger with the given component prefix, e.g. "flow",
// "worker", "converge". An empty prefix produces a logger with none.
func New(component string) *log.Logger {
	return log.WithPrefix(component)
}

// SetOutput overrides the output writer for the default logger. Primarily
// useful in tests, where output can be captured with a bytes.Buffer.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

// Discard returns a logger that drops everything, for tests that don't
// want to assert on log output or pollute stderr.
func Discard() *log.Logger {
	l := log.New(io.Discard)
	return l
}
