package aaclust

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/hupe1980/aaclust/cluster"
	"github.com/hupe1980/aaclust/signature"
)

// Logger wraps slog.Logger with aaclust-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that writes JSON records to w.
func NewJSONLogger(w io.Writer, level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that writes human-readable records to w.
func NewTextLogger(w io.Writer, level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// NewLoggerFor builds a text or JSON logger writing to w.
func NewLoggerFor(w io.Writer, format, level string) (*Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, &ErrConfig{Field: "log.level", Reason: err.Error()}
	}
	switch strings.ToLower(format) {
	case "", "text":
		return NewTextLogger(w, lvl), nil
	case "json":
		return NewJSONLogger(w, lvl), nil
	}
	return nil, &ErrConfig{Field: "log.format", Reason: fmt.Sprintf("unknown format %q", format)}
}

// WithRun tags records with a run id.
func (l *Logger) WithRun(runID string) *Logger {
	return &Logger{Logger: l.Logger.With("run", runID)}
}

// WithCommand tags records with the CLI command.
func (l *Logger) WithCommand(name string) *Logger {
	return &Logger{Logger: l.Logger.With("command", name)}
}

// LogPass logs a completed clustering pass.
func (l *Logger) LogPass(ctx context.Context, st cluster.PassStats) {
	l.InfoContext(ctx, "pass completed",
		"pass", st.Pass,
		"seeded", st.Seeded,
		"assigned", st.Assigned,
		"remaining", st.Remaining,
		"clusters", st.Clusters,
		"duration", st.Duration,
	)
}

// LogMedoids logs a medoid update.
func (l *Logger) LogMedoids(ctx context.Context, mode cluster.MedoidMode, st cluster.MedoidStats, d time.Duration) {
	l.InfoContext(ctx, "medoids updated",
		"mode", mode.String(),
		"clusters", st.Updated,
		"changed", st.Changed,
		"dropped", st.Dropped,
		"duration", d,
	)
}

// LogEncode logs an encode run.
func (l *Logger) LogEncode(ctx context.Context, st signature.Stats, empty int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "encode failed",
			"sequences", st.Sequences,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "encode completed",
		"sequences", st.Sequences,
		"kmers", st.Kmers,
		"empty", empty,
		"cache_hits", st.CacheHits,
		"cache_misses", st.CacheMisses,
	)
}

// LogRank logs a ranking run.
func (l *Logger) LogRank(ctx context.Context, queries, db int, d time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "rank failed",
			"queries", queries,
			"db", db,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "rank completed",
		"queries", queries,
		"db", db,
		"duration", d,
	)
}
