package aaclust

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/aaclust/cluster"
)

// MetricsCollector defines an interface for collecting pipeline metrics.
// Implement this interface to integrate with monitoring systems; package
// prom provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordPass is called after each clustering pass.
	RecordPass(st cluster.PassStats)

	// RecordMedoids is called after each medoid update.
	RecordMedoids(st cluster.MedoidStats, d time.Duration)

	// RecordEncode is called after each encode run.
	// err is nil if successful.
	RecordEncode(sequences int, d time.Duration, err error)

	// RecordQuery is called for every ranked query. d is the time since
	// the start of the rank run.
	RecordQuery(hits int, d time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordPass(cluster.PassStats)                     {}
func (NoopMetricsCollector) RecordMedoids(cluster.MedoidStats, time.Duration) {}
func (NoopMetricsCollector) RecordEncode(int, time.Duration, error)           {}
func (NoopMetricsCollector) RecordQuery(int, time.Duration)                   {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	Passes         atomic.Int64
	Seeded         atomic.Int64
	Assigned       atomic.Int64
	PassNanos      atomic.Int64
	MedoidUpdates  atomic.Int64
	MedoidsChanged atomic.Int64
	MedoidsDropped atomic.Int64
	Encodes        atomic.Int64
	EncodeErrors   atomic.Int64
	Encoded        atomic.Int64
	Queries        atomic.Int64
	Hits           atomic.Int64
}

// RecordPass implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPass(st cluster.PassStats) {
	b.Passes.Add(1)
	b.Seeded.Add(int64(st.Seeded))
	b.Assigned.Add(int64(st.Assigned))
	b.PassNanos.Add(st.Duration.Nanoseconds())
}

// RecordMedoids implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMedoids(st cluster.MedoidStats, _ time.Duration) {
	b.MedoidUpdates.Add(1)
	b.MedoidsChanged.Add(int64(st.Changed))
	b.MedoidsDropped.Add(int64(st.Dropped))
}

// RecordEncode implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEncode(sequences int, _ time.Duration, err error) {
	b.Encodes.Add(1)
	if err != nil {
		b.EncodeErrors.Add(1)
		return
	}
	b.Encoded.Add(int64(sequences))
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(hits int, _ time.Duration) {
	b.Queries.Add(1)
	b.Hits.Add(int64(hits))
}

// Stats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) Stats() BasicMetricsStats {
	s := BasicMetricsStats{
		Passes:         b.Passes.Load(),
		Seeded:         b.Seeded.Load(),
		Assigned:       b.Assigned.Load(),
		MedoidUpdates:  b.MedoidUpdates.Load(),
		MedoidsChanged: b.MedoidsChanged.Load(),
		MedoidsDropped: b.MedoidsDropped.Load(),
		Encodes:        b.Encodes.Load(),
		EncodeErrors:   b.EncodeErrors.Load(),
		Encoded:        b.Encoded.Load(),
		Queries:        b.Queries.Load(),
		Hits:           b.Hits.Load(),
	}
	if s.Passes > 0 {
		s.PassAvgNanos = b.PassNanos.Load() / s.Passes
	}
	return s
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	Passes         int64
	Seeded         int64
	Assigned       int64
	PassAvgNanos   int64
	MedoidUpdates  int64
	MedoidsChanged int64
	MedoidsDropped int64
	Encodes        int64
	EncodeErrors   int64
	Encoded        int64
	Queries        int64
	Hits           int64
}
