// Package logging builds the slog loggers used by the rowedit commands:
// a stream logger for the CLI and server, and a dated file logger for the
// TUI, which owns the terminal.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	logPrefix     = "rowedit-"
	logSuffix     = ".log"
	dateLayout    = "2006-01-02"
	retentionDays = 30
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

var ErrFormatUnknown = errors.New("unknown log format")

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps debug, info, warn and error to slog levels. An empty
// string is info.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", s, err)
	}
	return level, nil
}

// New returns a logger writing format ("text" or "json") to w.
func New(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "", FormatText:
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrFormatUnknown, format)
	}
}

// FileOptions configures OpenFile.
type FileOptions struct {
	Dir   string // directory for log files, created if missing
	Level string
	Now   func() time.Time // defaults to time.Now
}

// OpenFile returns a JSON logger appending to Dir/rowedit-YYYY-MM-DD.log and
// removes files in Dir older than 30 days. The caller closes the returned
// file when done.
func OpenFile(opts FileOptions) (*slog.Logger, io.Closer, error) {
	if opts.Dir == "" {
		return nil, nil, errors.New("log dir is required")
	}
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log dir: %w", err)
	}

	// Best effort.
	cleanOldLogs(opts.Dir, now())

	filename := filepath.Join(opts.Dir, logPrefix+now().Format(dateLayout)+logSuffix)
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: lvl})), f, nil
}

// cleanOldLogs removes rowedit-YYYY-MM-DD.log files dated before the
// retention cutoff. Files not matching the pattern are left alone.
func cleanOldLogs(dir string, now time.Time) {
	cutoff := now.AddDate(0, 0, -retentionDays)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, logPrefix) || !strings.HasSuffix(name, logSuffix) {
			continue
		}
		dateStr := strings.TrimPrefix(strings.TrimSuffix(name, logSuffix), logPrefix)
		logDate, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			continue
		}
		if logDate.Before(cutoff) {
			os.Remove(filepath.Join(dir, name))
		}
	}
}
