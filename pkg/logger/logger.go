// Package logger provides structured logging utilities
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Fields is a set of structured log fields
type Fields = logrus.Fields

// Config holds logger configuration
type Config struct {
	Level      string `yaml:"level"`       // debug, info, warn, error
	Format     string `yaml:"format"`      // text or json
	Output     string `yaml:"output"`      // stdout, stderr, or file path
	TimeFormat string `yaml:"time_format"` // RFC3339, RFC3339Nano, etc
}

var std = logrus.New()

// Init configures the package logger
func Init(cfg Config) {
	level, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil {
		level = logrus.InfoLevel
	}
	std.SetLevel(level)

	timeFormat := time.RFC3339
	if strings.TrimSpace(cfg.TimeFormat) != "" {
		timeFormat = strings.TrimSpace(cfg.TimeFormat)
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "json":
		std.SetFormatter(&logrus.JSONFormatter{TimestampFormat: timeFormat})
	default:
		std.SetFormatter(&logrus.TextFormatter{TimestampFormat: timeFormat, FullTimestamp: true})
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Output)) {
	case "", "stdout":
		std.SetOutput(os.Stdout)
	case "stderr":
		std.SetOutput(os.Stderr)
	default:
		f, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			std.SetOutput(os.Stderr)
			std.Warnf("logger: failed to open log file %s: %v", cfg.Output, err)
		} else {
			std.SetOutput(f)
		}
	}
}

// Logger returns the package logger
func Logger() *logrus.Logger {
	return std
}

// Component returns an entry tagged with a component name
func Component(name string) *logrus.Entry {
	return std.WithField("component", name)
}

// Discard returns an entry that writes nowhere, for tests
func Discard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// Info logs info message
func Info(msg string) {
	std.Info(msg)
}

// Infof logs formatted info message
func Infof(format string, args ...interface{}) {
	std.Infof(format, args...)
}

// Warnf logs formatted warning message
func Warnf(format string, args ...interface{}) {
	std.Warnf(format, args...)
}

// Errorf logs formatted error message
func Errorf(format string, args ...interface{}) {
	std.Errorf(format, args...)
}

// Fatalf logs formatted fatal message and exits
func Fatalf(format string, args ...interface{}) {
	std.Fatalf(format, args...)
}

// WithFields returns an entry carrying structured fields
func WithFields(fields Fields) *logrus.Entry {
	return std.WithFields(fields)
}

// HTTP logs one served HTTP request
func HTTP(method, path string, status, latencyMs int) {
	std.WithFields(Fields{
		"protocol": "http",
		"method":   method,
		"path":     path,
		"status":   status,
		"latency":  latencyMs,
	}).Infof("HTTP %s %s %d - %dms", method, path, status, latencyMs)
}

type contextKey string

const requestIDKey contextKey = "request_id"

// ContextWithRequestID stores a request id for later log lines
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID returns the request id stored in ctx, if any
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithRequestID extracts request ID from context and logs with it
func WithRequestID(ctx context.Context) *logrus.Entry {
	if requestID := RequestID(ctx); requestID != "" {
		return std.WithField("request_id", requestID)
	}
	return logrus.NewEntry(std)
}
