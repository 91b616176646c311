// Package progress reports the advance of long-running tasks either as
// throttled log lines or as a terminal bar.
package progress

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/time/rate"
)

// DefaultInterval is the minimum time between two progress log lines.
const DefaultInterval = 5 * time.Second

// Mode selects how progress is shown.
type Mode int

const (
	// Off discards progress.
	Off Mode = iota
	// Log writes throttled info lines to the logger.
	Log
	// Bar draws a progress bar.
	Bar
)

func (m Mode) String() string {
	switch m {
	case Off:
		return "off"
	case Log:
		return "log"
	case Bar:
		return "bar"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "off", "log" or "bar".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "off", "false":
		return Off, nil
	case "log":
		return Log, nil
	case "bar", "true":
		return Bar, nil
	}
	return Off, fmt.Errorf("progress: unknown mode %q", s)
}

// Reporter creates tasks.
type Reporter struct {
	mode     Mode
	logger   *slog.Logger
	w        io.Writer
	interval time.Duration
}

// New returns a Reporter. w receives bars, logger receives log lines.
// A nil logger discards them.
func New(mode Mode, w io.Writer, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if w == nil {
		w = io.Discard
	}
	return &Reporter{mode: mode, logger: logger, w: w, interval: DefaultInterval}
}

// Discard returns a Reporter that shows nothing.
func Discard() *Reporter { return New(Off, nil, nil) }

// WithInterval returns a copy of r that logs at most once per d.
func (r *Reporter) WithInterval(d time.Duration) *Reporter {
	c := *r
	c.interval = d
	return &c
}

// Task tracks one unit of work. Its methods are safe for concurrent use.
type Task struct {
	name    string
	total   int64
	done    atomic.Int64
	mode    Mode
	logger  *slog.Logger
	limiter *rate.Limiter
	bar     *pb.ProgressBar
	started time.Time
}

// Start begins a task with the given total. A total of zero or less means
// unknown.
func (r *Reporter) Start(name string, total int64) *Task {
	t := &Task{
		name:    name,
		total:   total,
		mode:    r.mode,
		logger:  r.logger,
		started: time.Now(),
	}
	switch r.mode {
	case Log:
		t.limiter = rate.NewLimiter(rate.Every(r.interval), 1)
		// The first token is spent so the start line is not repeated.
		t.limiter.Allow()
		t.logger.Info("task started", "task", name, "total", total)
	case Bar:
		t.bar = pb.New64(total).
			SetTemplate(pb.Full).
			SetWriter(r.w).
			Set("prefix", name+" ").
			Set(pb.Bytes, false).
			Start()
	}
	return t
}

// Add advances the task by n.
func (t *Task) Add(n int64) {
	done := t.done.Add(n)
	switch t.mode {
	case Log:
		if t.limiter.Allow() {
			t.logger.Info("progress", t.attrs(done)...)
		}
	case Bar:
		t.bar.Add64(n)
	}
}

// Done returns the amount of work reported so far.
func (t *Task) Done() int64 { return t.done.Load() }

// Finish ends the task.
func (t *Task) Finish() {
	done := t.done.Load()
	switch t.mode {
	case Log:
		attrs := append(t.attrs(done), "elapsed", time.Since(t.started).Round(time.Millisecond))
		t.logger.Info("task finished", attrs...)
	case Bar:
		t.bar.Finish()
	}
}

func (t *Task) attrs(done int64) []any {
	attrs := []any{"task", t.name, "done", done}
	if t.total > 0 {
		attrs = append(attrs, "total", t.total, "percent", fmt.Sprintf("%.1f", 100*float64(done)/float64(t.total)))
	}
	return attrs
}
