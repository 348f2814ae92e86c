// Package debug provides debug logging functionality using log/slog
package debug

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	// logger is the global debug logger instance; silent until Init(true)
	logger = newLogger(io.Discard, false, false)
	// enabled indicates if debug logging is enabled
	enabled bool
	// mu protects the logger and enabled flag
	mu sync.RWMutex
)

// Options configure the debug logger.
type Options struct {
	// Output defaults to os.Stderr
	Output io.Writer
	// JSON switches from the text handler to the JSON handler
	JSON bool
}

// Init enables or silences debug logging on os.Stderr
func Init(enable bool) {
	Configure(enable, Options{})
}

// Configure enables or silences debug logging with explicit options
func Configure(enable bool, opts Options) {
	mu.Lock()
	defer mu.Unlock()

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	enabled = enable
	logger = newLogger(out, enable, opts.JSON)
}

func newLogger(out io.Writer, enable, json bool) *slog.Logger {
	level := slog.LevelDebug
	if !enable {
		// above any level in use
		level = slog.LevelError + 1
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	if json {
		return slog.New(slog.NewJSONHandler(out, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(out, handlerOpts))
}

// Enabled returns whether debug logging is enabled
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	Logger().Info(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	Logger().Error(msg, args...)
}

// With returns a logger with the given attributes
func With(args ...any) *slog.Logger {
	return Logger().With(args...)
}

// Logger returns the underlying slog.Logger instance
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}
