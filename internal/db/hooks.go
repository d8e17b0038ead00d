package db

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Hook is called around every statement. Implementations must be safe for
// concurrent use. A panicking hook is recovered and logged.
type Hook interface {
	BeforeQuery(ctx context.Context, query string, args []any)
	AfterQuery(ctx context.Context, query string, args []any, duration time.Duration, err error)
}

type hookChain struct {
	hooks []Hook
}

func newHookChain(hooks []Hook) hookChain {
	filtered := make([]Hook, 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			filtered = append(filtered, h)
		}
	}
	return hookChain{hooks: filtered}
}

func (c hookChain) Before(ctx context.Context, query string, args []any) {
	for _, h := range c.hooks {
		func() {
			defer recoverHook("BeforeQuery")
			h.BeforeQuery(ctx, query, args)
		}()
	}
}

func (c hookChain) After(ctx context.Context, query string, args []any, d time.Duration, err error) {
	for _, h := range c.hooks {
		func() {
			defer recoverHook("AfterQuery")
			h.AfterQuery(ctx, query, args, d, err)
		}()
	}
}

func recoverHook(stage string) {
	if r := recover(); r != nil {
		slog.Error("database hook panicked", "stage", stage, "panic", r)
	}
}

// LogHookConfig configures NewLogHook.
type LogHookConfig struct {
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// SlowQueryThreshold logs a warning for slower statements. Zero disables it.
	SlowQueryThreshold time.Duration
}

// NewLogHook returns a Hook that logs statements: debug on success, warn when
// slow, error on failure. ErrNotFound is not treated as a failure.
func NewLogHook(cfg LogHookConfig) Hook {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &logHook{logger: logger, slow: cfg.SlowQueryThreshold}
}

type logHook struct {
	logger *slog.Logger
	slow   time.Duration
}

func (h *logHook) BeforeQuery(context.Context, string, []any) {}

func (h *logHook) AfterQuery(ctx context.Context, query string, _ []any, d time.Duration, err error) {
	attrs := []any{"query", compactQuery(query), "duration", d}
	switch {
	case err != nil && !IsNotFound(err):
		h.logger.ErrorContext(ctx, "query failed", append(attrs, "error", err)...)
	case h.slow > 0 && d > h.slow:
		h.logger.WarnContext(ctx, "slow query", attrs...)
	default:
		h.logger.DebugContext(ctx, "query", attrs...)
	}
}

// MetricsCollector receives one observation per statement.
type MetricsCollector interface {
	RecordQuery(operation string, duration time.Duration, success bool)
}

// NewMetricsHook returns a Hook that reports statements to c, labelled by
// their leading SQL keyword.
func NewMetricsHook(c MetricsCollector) Hook {
	return &metricsHook{c: c}
}

type metricsHook struct{ c MetricsCollector }

func (h *metricsHook) BeforeQuery(context.Context, string, []any) {}

func (h *metricsHook) AfterQuery(_ context.Context, query string, _ []any, d time.Duration, err error) {
	h.c.RecordQuery(Operation(query), d, err == nil || IsNotFound(err))
}

// Operation returns the leading keyword of a statement, e.g. "SELECT".
func Operation(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return "UNKNOWN"
	}
	return strings.ToUpper(fields[0])
}

func compactQuery(q string) string {
	q = strings.Join(strings.Fields(q), " ")
	if len(q) > 200 {
		return q[:200] + "..."
	}
	return q
}
