package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultLogMaxSizeMB  = 5
	defaultLogMaxBackups = 3
	defaultLogMaxAgeDays = 14
)

// logRotation controls the rotating debug log.
type logRotation struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// loggerResult holds the debug logger and the file it writes to.
type loggerResult struct {
	Logger   *slog.Logger
	LogFile  io.WriteCloser
	FilePath string
}

// Close closes the log file if it was opened.
func (r *loggerResult) Close() error {
	if r.LogFile != nil {
		return r.LogFile.Close()
	}
	return nil
}

// setupLogger creates a JSON logger writing to a rotating file, since the
// TUI owns the terminal.
func setupLogger(path string, level slog.Leveler, rotation logRotation) (*loggerResult, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    rotation.MaxSizeMB,
		MaxBackups: rotation.MaxBackups,
		MaxAge:     rotation.MaxAgeDays,
	}
	return &loggerResult{
		Logger:   newLoggerWithWriter(w, level),
		LogFile:  w,
		FilePath: path,
	}, nil
}

// newLoggerWithWriter creates a JSON logger writing to w.
func newLoggerWithWriter(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// parseLevel maps debug, info, warn and error to slog levels.
func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q (valid: debug, info, warn, error)", s)
	}
	return level, nil
}
