package logger

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// RunIDKey is the context key for a detection run identifier.
	RunIDKey ContextKey = "run_id"
	// ComponentKey is the context key for the emitting component name.
	ComponentKey ContextKey = "component"
)

// Config holds logger configuration.
type Config struct {
	Level      string
	Format     string // "json" or "console"
	Output     string // "stdout", "stderr", or file path
	TimeFormat string
}

// New creates a new logger with the specified level and sane defaults.
func New(level string) zerolog.Logger {
	return NewWithConfig(Config{
		Level:      level,
		Format:     "json",
		Output:     "stderr",
		TimeFormat: time.RFC3339,
	})
}

// NewWithConfig creates a new logger with custom configuration.
func NewWithConfig(cfg Config) zerolog.Logger {
	if cfg.TimeFormat != "" {
		zerolog.TimeFieldFormat = cfg.TimeFormat
	} else {
		zerolog.TimeFieldFormat = time.RFC3339
	}

	var output *os.File
	switch cfg.Output {
	case "stdout":
		output = os.Stdout
	case "", "stderr":
		output = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			output = os.Stderr
		} else {
			output = f
		}
	}

	var logger zerolog.Logger
	if cfg.Format == "console" || (strings.ToLower(os.Getenv("GO_ENV")) != "production" && cfg.Format != "json") {
		consoleWriter := zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: "2006-01-02 15:04:05",
			FormatLevel: func(i interface{}) string {
				return strings.ToUpper(fmt.Sprintf("| %-5s |", i))
			},
			FormatFieldName: func(i interface{}) string {
				return fmt.Sprintf("%s:", i)
			},
		}
		logger = zerolog.New(consoleWriter).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(output).With().Timestamp().Logger()
	}

	logLevel, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	return logger.With().Str("service", "shotdetect-core").Logger()
}

// WithComponent tags a logger with the emitting component name, matching
// the teacher's practice of binding a sub-logger per subsystem rather than
// reaching for a package-level singleton.
func WithComponent(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}

// WithRunID adds a detection run identifier to the logger.
func WithRunID(logger zerolog.Logger, runID string) zerolog.Logger {
	return logger.With().Str("run_id", runID).Logger()
}

// WithContext pulls correlation fields out of ctx onto the logger, if present.
func WithContext(logger zerolog.Logger, ctx context.Context) zerolog.Logger {
	out := logger
	if runID, ok := ctx.Value(RunIDKey).(string); ok && runID != "" {
		out = out.With().Str("run_id", runID).Logger()
	}
	if component, ok := ctx.Value(ComponentKey).(string); ok && component != "" {
		out = out.With().Str("component", component).Logger()
	}
	return out
}
