// Package metrics exposes Prometheus collectors and rolling latency windows
// for extraction and ranking.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics holds the service collectors. Each instance owns its registry so
// several can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	ExtractionsTotal   *prometheus.CounterVec
	ExtractionDuration prometheus.Histogram
	HeadingsPerOutline prometheus.Histogram
	AnalysesTotal      *prometheus.CounterVec
	RankDuration       prometheus.Histogram
	IngestJobsTotal    *prometheus.CounterVec
	IngestQueueDepth   prometheus.Gauge

	ExtractLatency *LatencyWindow
	RankLatency    *LatencyWindow
}

// New registers all collectors on a fresh registry. window bounds the
// latency snapshots served by /api/stats.
func New(window time.Duration) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ExtractionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docpersona_extractions_total",
			Help: "Outline extractions by file format and outcome",
		}, []string{"format", "outcome"}),
		ExtractionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "docpersona_extraction_duration_seconds",
			Help:    "Time to extract one outline",
			Buckets: prometheus.DefBuckets,
		}),
		HeadingsPerOutline: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "docpersona_headings_per_outline",
			Help:    "Number of headings found per extracted outline",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		}),
		AnalysesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docpersona_analyses_total",
			Help: "Persona analyses by outcome",
		}, []string{"outcome"}),
		RankDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "docpersona_rank_duration_seconds",
			Help:    "Time to rank the sections of one analysis",
			Buckets: prometheus.DefBuckets,
		}),
		IngestJobsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docpersona_ingest_jobs_total",
			Help: "Batch ingest jobs by final status",
		}, []string{"status"}),
		IngestQueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "docpersona_ingest_queue_depth",
			Help: "Jobs waiting in the ingest queue",
		}),
		ExtractLatency: NewLatencyWindow(window),
		RankLatency:    NewLatencyWindow(window),
	}
}

// ObserveExtraction records one extraction attempt.
func (m *Metrics) ObserveExtraction(format string, d time.Duration, headings int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.ExtractionsTotal.WithLabelValues(format, OutcomeError).Inc()
		return
	}
	m.ExtractionsTotal.WithLabelValues(format, OutcomeOK).Inc()
	m.ExtractionDuration.Observe(d.Seconds())
	m.HeadingsPerOutline.Observe(float64(headings))
	m.ExtractLatency.Record(d)
}

// ObserveRank records one ranking attempt.
func (m *Metrics) ObserveRank(d time.Duration, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.AnalysesTotal.WithLabelValues(OutcomeError).Inc()
		return
	}
	m.AnalysesTotal.WithLabelValues(OutcomeOK).Inc()
	m.RankDuration.Observe(d.Seconds())
	m.RankLatency.Record(d)
}

// ObserveJob records the final status of an ingest job.
func (m *Metrics) ObserveJob(status string) {
	if m == nil {
		return
	}
	m.IngestJobsTotal.WithLabelValues(status).Inc()
}

// SetQueueDepth reports the current ingest queue length.
func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.IngestQueueDepth.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
