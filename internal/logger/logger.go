// Package logger configures the process-wide zerolog logger.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var defaultLogger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Config represents logger configuration.
type Config struct {
	// Level is one of debug, info, warn, error. Unknown values mean info.
	Level string
	// Pretty enables human-readable console output.
	Pretty bool
	// Output defaults to os.Stdout.
	Output io.Writer
}

// Configure replaces the default logger.
func Configure(cfg Config) {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	var w io.Writer = cfg.Output
	if cfg.Pretty {
		w = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: time.RFC3339}
	}
	defaultLogger = zerolog.New(w).With().Timestamp().Logger()
	log.Logger = defaultLogger
}

// ParseLevel maps a level name to a zerolog level.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func Debug() *zerolog.Event { return defaultLogger.Debug() }
func Info() *zerolog.Event  { return defaultLogger.Info() }
func Warn() *zerolog.Event  { return defaultLogger.Warn() }
func Error() *zerolog.Event { return defaultLogger.Error() }

// Fatal logs and exits the process.
func Fatal() *zerolog.Event { return defaultLogger.Fatal() }

// With returns a child logger carrying key=value.
func With(key, value string) zerolog.Logger {
	return defaultLogger.With().Str(key, value).Logger()
}
