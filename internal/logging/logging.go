// Package logging configures the process-wide slog logger.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Options configures Setup.
type Options struct {
	Level slog.Level
	// File, when set, also receives every record as plain text.
	File string
	// Color enables ANSI colors on the console handlers.
	Color bool

	// Stdout and Stderr default to the process streams.
	Stdout io.Writer
	Stderr io.Writer
}

// levelRouter is a slog.Handler that routes INFO/WARN to stdout and ERROR+ to
// stderr, and copies every record to an optional file handler.
type levelRouter struct {
	level  slog.Leveler
	stdout slog.Handler
	stderr slog.Handler
	file   slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= lr.level.Level()
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	if lr.file != nil {
		errs = append(errs, lr.file.Handle(ctx, r.Clone()))
	}
	if r.Level >= slog.LevelError {
		errs = append(errs, lr.stderr.Handle(ctx, r))
	} else {
		errs = append(errs, lr.stdout.Handle(ctx, r))
	}
	return errors.Join(errs...)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return lr.with(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return lr.with(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (lr *levelRouter) with(f func(slog.Handler) slog.Handler) slog.Handler {
	next := &levelRouter{
		level:  lr.level,
		stdout: f(lr.stdout),
		stderr: f(lr.stderr),
	}
	if lr.file != nil {
		next.file = f(lr.file)
	}
	return next
}

// New builds the routing handler. The returned cleanup closes the log file,
// if one was opened.
func New(opts Options) (slog.Handler, func(), error) {
	stdout, stderr := opts.Stdout, opts.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	console := func(w io.Writer) slog.Handler {
		return tint.NewHandler(w, &tint.Options{
			Level:      opts.Level,
			TimeFormat: time.DateTime,
			NoColor:    !opts.Color,
		})
	}

	lr := &levelRouter{
		level:  opts.Level,
		stdout: console(stdout),
		stderr: console(stderr),
	}

	cleanup := func() {}
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		lr.file = slog.NewTextHandler(f, &slog.HandlerOptions{Level: opts.Level})
	}

	return lr, cleanup, nil
}

// Setup installs the routing handler as the default slog logger.
func Setup(opts Options) (func(), error) {
	h, cleanup, err := New(opts)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(h))
	return cleanup, nil
}

// ParseLevel parses debug, info, warn or error, ignoring case.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}
