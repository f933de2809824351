// Package metrics tracks per-source pipeline counters in a Prometheus registry.
//
// A run is a short-lived process, so nothing is served over HTTP. The registry is written
// once at the end of a run to a node_exporter textfile when a metrics file is configured.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "chess_events"

var (
	registry = prometheus.NewRegistry()

	recordsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_total",
		Help:      "Validated records produced per source.",
	}, []string{"source"})

	droppedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "units_dropped_total",
		Help:      "Structural units that failed validation per source.",
	}, []string{"source"})

	sourceErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_errors_total",
		Help:      "Sources that produced no records because of an error, by kind.",
	}, []string{"source", "kind"})

	savedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_saved_total",
		Help:      "Records handed to the sink per source, by outcome.",
	}, []string{"source", "outcome"})

	scrapeDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "scrape_duration_seconds",
		Help:      "Time spent fetching and extracting one source.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"source"})

	lastRun = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the last run finished.",
	})
)

func init() {
	registry.MustRegister(recordsTotal, droppedTotal, sourceErrorsTotal, savedTotal, scrapeDuration, lastRun)
}

// AddRecords counts n validated records for source.
func AddRecords(source string, n int) {
	recordsTotal.WithLabelValues(source).Add(float64(n))
}

// IncDropped counts one rejected structural unit for source.
func IncDropped(source string) {
	droppedTotal.WithLabelValues(source).Inc()
}

// IncSourceError counts a failed source; kind is "config" or "retrieval".
func IncSourceError(source, kind string) {
	sourceErrorsTotal.WithLabelValues(source, kind).Inc()
}

// AddSaved counts n records with the given sink outcome ("ok" or "failed").
func AddSaved(source, outcome string, n int) {
	if n == 0 {
		return
	}
	savedTotal.WithLabelValues(source, outcome).Add(float64(n))
}

// ObserveScrape records how long one source took.
func ObserveScrape(source string, d time.Duration) {
	scrapeDuration.WithLabelValues(source).Observe(d.Seconds())
}

// MarkRun records the end of a run.
func MarkRun(t time.Time) {
	lastRun.Set(float64(t.Unix()))
}

// WriteTextfile writes all metrics to path in the text exposition format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, registry)
}
