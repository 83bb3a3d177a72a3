package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Options configures a logger built by New.
type Options struct {
	Level       string
	AddSource   bool
	Environment string
	Service     string
	// File is appended to in addition to stdout. Empty disables file output.
	File string
	// Stdout overrides os.Stdout, mostly for tests.
	Stdout io.Writer
}

// New builds a logger from opts. The returned close func releases the log
// file and is always safe to call.
func New(opts Options) (*slog.Logger, func() error, error) {
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	out := stdout
	closeFn := func() error { return nil }

	if opts.File != "" {
		f, err := openFile(opts.File)
		if err != nil {
			return nil, closeFn, err
		}
		out = io.MultiWriter(stdout, f)
		closeFn = f.Close
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     parseLevel(opts.Level),
		AddSource: opts.AddSource,
	}

	var handler slog.Handler
	if strings.ToLower(opts.Environment) == "prod" {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}

	log := slog.New(handler).With(slog.String("environment", opts.Environment))
	if opts.Service != "" {
		log = log.With(slog.String("service", opts.Service))
	}

	return log, closeFn, nil
}

func openFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}

	return f, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
