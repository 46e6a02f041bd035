// Package logging builds the slog logger. The terminal belongs to the UI, so
// records only ever go to a file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// LevelOff disables logging entirely
const LevelOff = "off"

// DefaultPath returns the log file location under the XDG state directory
func DefaultPath() (string, error) {
	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		stateDir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateDir, "stask", "stask.log"), nil
}

// ParseLevel maps a config level name to a slog level. The second result
// is false for "off".
func ParseLevel(s string) (slog.Level, bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true, nil
	case "info", "":
		return slog.LevelInfo, true, nil
	case "warn", "warning":
		return slog.LevelWarn, true, nil
	case "error":
		return slog.LevelError, true, nil
	case LevelOff:
		return slog.LevelInfo, false, nil
	}
	return slog.LevelInfo, false, fmt.Errorf("unknown log level %q", s)
}

// Logger is a slog.Logger together with the file it writes to
type Logger struct {
	*slog.Logger
	file *os.File
}

// New opens path for appending and returns a JSON logger at level. An "off"
// level discards every record without creating the file.
func New(level, path string) (*Logger, error) {
	lvl, enabled, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return Discard(), nil
	}

	if path == "" {
		if path, err = DefaultPath(); err != nil {
			return nil, fmt.Errorf("resolve log path: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	handler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: lvl})
	return &Logger{Logger: slog.New(handler), file: file}, nil
}

// Discard returns a logger that drops everything
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// Close closes the log file, if any
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
