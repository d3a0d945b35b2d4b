// Package logger builds the process-wide structured logger used by every
// SA-CCR diagnostic, the scheduler, and the HTTP API.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logger configuration.
type Config struct {
	Level  string // debug, info, warn, error
	Pretty bool   // enable pretty console output
}

// New creates a new structured logger.
func New(cfg Config) zerolog.Logger {
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	var output io.Writer = os.Stdout
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		}
	}

	return zerolog.New(output).
		With().
		Timestamp().
		Caller().
		Logger()
}

// SetGlobalLogger sets the package-level logger.
func SetGlobalLogger(l zerolog.Logger) {
	log.Logger = l
}

// EmitDiagnostic writes a domain.Diagnostic as a structured log line, at a
// level chosen from its severity. Defined here (not in internal/domain) to
// keep the domain package free of logging dependencies.
func EmitDiagnostic(l zerolog.Logger, severity, source, category, subject, action, detail string) {
	evt := l.Info()
	switch severity {
	case "warning":
		evt = l.Warn()
	case "error":
		evt = l.Error()
	}
	evt.
		Str("source", source).
		Str("category", category).
		Str("subject", subject).
		Str("action", action).
		Msg(detail)
}
