// Package logger builds the structured loggers used by the htmldown CLI.
package logger

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// Logger wraps charm/log for structured logging
type Logger struct {
	*log.Logger
}

// New creates a new logger with the given output
func New(w io.Writer) *Logger {
	return NewWithLevel(w, log.InfoLevel)
}

// NewWithLevel creates a logger with a specific level
func NewWithLevel(w io.Writer, level log.Level) *Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           level,
	})
	return &Logger{Logger: l}
}

// Discard returns a logger that discards all output
func Discard() *Logger {
	return New(io.Discard)
}

// ConfigLoaded logs the config file in use
func (l *Logger) ConfigLoaded(path string) {
	l.Debug("config loaded", "file", path)
}

// ConversionStarted logs the start of a batch
func (l *Logger) ConversionStarted(sources int, workers int) {
	l.Debug("conversion started",
		"sources", sources,
		"workers", workers)
}

// DocumentConverted logs a successful conversion
func (l *Logger) DocumentConverted(source, dest string, duration time.Duration) {
	l.Info("document converted",
		"source", source,
		"dest", dest,
		"duration", duration.Round(time.Millisecond))
}

// ConversionFailed logs a conversion error
func (l *Logger) ConversionFailed(source string, err error) {
	l.Error("conversion failed",
		"source", source,
		"error", err)
}

// ConversionCompleted logs the end of a batch
func (l *Logger) ConversionCompleted(converted, failed int, duration time.Duration) {
	l.Info("conversion completed",
		"converted", converted,
		"errors", failed,
		"duration", duration.Round(time.Millisecond))
}
