package logger

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Output formats accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// New builds the process logger. Verbose lowers the level to debug.
func New(w io.Writer, verbose bool, format string) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if verbose {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "", FormatText:
		handler = slog.NewTextHandler(w, opts)
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q (want %s or %s)", format, FormatText, FormatJSON)
	}
	return slog.New(handler), nil
}

// Setup builds the logger and installs it as the slog default.
func Setup(w io.Writer, verbose bool, format string) (*slog.Logger, error) {
	l, err := New(w, verbose, format)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(l)
	return l, nil
}
