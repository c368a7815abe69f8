package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Opts configures a logger.
type Opts struct {
	// One of debug, info, warn, error. Defaults to info.
	Level string
	// One of text, json. Defaults to text.
	Format string
	// Log file, opened in append mode. Empty logs to stderr.
	Path string
}

// New instantiates and returns a logger. The returned closer releases the log file, if any.
func New(opts Opts) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	var w io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	if opts.Path != "" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0755); err != nil {
			return nil, nil, errors.Wrap(err, "creating log directory")
		}
		f, err := os.OpenFile(opts.Path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			return nil, nil, errors.Wrap(err, "opening log file")
		}
		w, closer = f, f
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}
	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "", "text":
		handler = slog.NewTextHandler(w, handlerOpts)
	case "json":
		handler = slog.NewJSONHandler(w, handlerOpts)
	default:
		closer.Close()
		return nil, nil, errors.Errorf("unknown log format '%s'", opts.Format)
	}
	return slog.New(handler), closer, nil
}

// ParseLevel parses a level name.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, errors.Errorf("unknown log level '%s'", level)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
