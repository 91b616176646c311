// Package prom exports pipeline metrics to Prometheus.
package prom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hupe1980/aaclust/cluster"
)

// Namespace prefixes every metric name.
const Namespace = "aaclust"

// Collector records pipeline metrics on a Prometheus registry.
type Collector struct {
	passes        prometheus.Counter
	passDuration  prometheus.Histogram
	seeded        prometheus.Counter
	assigned      prometheus.Counter
	remaining     prometheus.Gauge
	clusters      prometheus.Gauge
	medoids       *prometheus.CounterVec
	medoidTime    prometheus.Histogram
	encoded       prometheus.Counter
	encodeErrors  prometheus.Counter
	encodeTime    prometheus.Histogram
	queries       prometheus.Counter
	queryHits     prometheus.Histogram
	queryDuration prometheus.Histogram
}

// NewCollector registers the metrics on reg. A nil reg uses
// prometheus.DefaultRegisterer.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Collector{
		passes: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cluster_passes_total",
			Help:      "Number of completed clustering passes",
		}),
		passDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "cluster_pass_duration_seconds",
			Help:      "Duration of clustering passes in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
		}),
		seeded: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "clusters_seeded_total",
			Help:      "Number of clusters seeded",
		}),
		assigned: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "kmers_assigned_total",
			Help:      "Number of distinct k-mers assigned to a cluster",
		}),
		remaining: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "kmers_remaining",
			Help:      "Distinct k-mers still unassigned after the last pass",
		}),
		clusters: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "clusters",
			Help:      "Current number of clusters",
		}),
		medoids: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "medoid_updates_total",
			Help:      "Medoid updates by outcome",
		}, []string{"outcome"}),
		medoidTime: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "medoid_update_duration_seconds",
			Help:      "Duration of medoid updates in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		encoded: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "sequences_encoded_total",
			Help:      "Number of sequences encoded into signatures",
		}),
		encodeErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "encode_errors_total",
			Help:      "Number of failed encode runs",
		}),
		encodeTime: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "encode_duration_seconds",
			Help:      "Duration of encode runs in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		queries: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "rank_queries_total",
			Help:      "Number of ranked query signatures",
		}),
		queryHits: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "rank_hits",
			Help:      "Hits returned per query",
			Buckets:   []float64{0, 1, 10, 50, 100, 500, 1000},
		}),
		queryDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "rank_query_duration_seconds",
			Help:      "Time from the start of a rank run to each emitted result",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
	}
}

// RecordPass implements aaclust.MetricsCollector.
func (c *Collector) RecordPass(st cluster.PassStats) {
	c.passes.Inc()
	c.passDuration.Observe(st.Duration.Seconds())
	c.seeded.Add(float64(st.Seeded))
	c.assigned.Add(float64(st.Assigned))
	c.remaining.Set(float64(st.Remaining))
	c.clusters.Set(float64(st.Clusters))
}

// RecordMedoids implements aaclust.MetricsCollector.
func (c *Collector) RecordMedoids(st cluster.MedoidStats, d time.Duration) {
	c.medoids.WithLabelValues("unchanged").Add(float64(st.Updated - st.Changed))
	c.medoids.WithLabelValues("changed").Add(float64(st.Changed))
	c.medoids.WithLabelValues("dropped").Add(float64(st.Dropped))
	c.medoidTime.Observe(d.Seconds())
	c.clusters.Set(float64(st.Updated))
}

// RecordEncode implements aaclust.MetricsCollector.
func (c *Collector) RecordEncode(sequences int, d time.Duration, err error) {
	if err != nil {
		c.encodeErrors.Inc()
		return
	}
	c.encoded.Add(float64(sequences))
	c.encodeTime.Observe(d.Seconds())
}

// RecordQuery implements aaclust.MetricsCollector.
func (c *Collector) RecordQuery(hits int, d time.Duration) {
	c.queries.Inc()
	c.queryHits.Observe(float64(hits))
	c.queryDuration.Observe(d.Seconds())
}
