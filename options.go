package aaclust

import (
	"io"
	"os"

	"github.com/hupe1980/aaclust/distance"
	"github.com/hupe1980/aaclust/internal/progress"
)

// ProgressMode selects how long-running steps report progress.
type ProgressMode = progress.Mode

const (
	// ProgressOff shows nothing.
	ProgressOff = progress.Off
	// ProgressLog writes throttled log lines.
	ProgressLog = progress.Log
	// ProgressBar draws terminal bars.
	ProgressBar = progress.Bar
)

type options struct {
	logger       *Logger
	metrics      MetricsCollector
	progressMode ProgressMode
	progressOut  io.Writer
	table        *distance.Table
}

// Option configures a Pipeline.
type Option func(*options)

// WithLogger sets the logger. Nil disables logging.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector sets the metrics sink. Nil disables metrics.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metrics = mc
	}
}

// WithProgress enables progress reporting. Bars are drawn on w, which
// defaults to stderr.
func WithProgress(mode ProgressMode, w io.Writer) Option {
	return func(o *options) {
		if w == nil {
			w = os.Stderr
		}
		o.progressMode = mode
		o.progressOut = w
	}
}

// WithTable uses table instead of building one from the distance settings.
func WithTable(table *distance.Table) Option {
	return func(o *options) {
		o.table = table
	}
}

// ParseProgressMode parses "off", "log" or "bar".
func ParseProgressMode(s string) (ProgressMode, error) {
	return progress.ParseMode(s)
}
