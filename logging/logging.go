// Package logging sets up the application logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options describes the options for the logger.
type Options struct {
	// File is the path to the log file. An empty path disables file logging.
	File string

	// Level is one of "debug", "info", "warn" or "error".
	Level string

	// Console also writes the logs to the standard error.
	Console bool
}

// Logger is a structured logger which writes to a rotated log file.
type Logger struct {
	*slog.Logger

	file *lumberjack.Logger
}

// ParseLevel parses a log level name.
func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level

	if level == "" {
		return slog.LevelInfo, nil
	}

	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", level)
	}

	return l, nil
}

// New returns a new logger.
func New(opts Options) (*Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	var (
		writers []io.Writer
		rotated *lumberjack.Logger
	)

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o700); err != nil {
			return nil, fmt.Errorf("cannot create log directory: %w", err)
		}

		rotated = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    5,
			MaxBackups: 3,
			MaxAge:     28,
		}
		writers = append(writers, rotated)
	}

	if opts.Console {
		writers = append(writers, os.Stderr)
	}

	var out io.Writer
	switch len(writers) {
	case 0:
		out = io.Discard

	case 1:
		out = writers[0]

	default:
		out = io.MultiWriter(writers...)
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})

	return &Logger{
		Logger: slog.New(handler),
		file:   rotated,
	}, nil
}

// Discard returns a logger which discards all logs.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}

// Close closes the log file.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}

	return l.file.Close()
}
