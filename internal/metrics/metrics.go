// Package metrics exposes Prometheus instrumentation for the upload pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for UploadsTotal.
const (
	OutcomeStored          = "stored"
	OutcomeMissingFile     = "missing_file"
	OutcomeTooLarge        = "too_large"
	OutcomeUnsupportedType = "unsupported_type"
	OutcomeStorageFailed   = "storage_failed"
)

// Recorder owns a registry and the upload collectors registered on it.
type Recorder struct {
	registry     *prometheus.Registry
	UploadsTotal *prometheus.CounterVec
	UploadBytes  prometheus.Histogram
}

// New creates a Recorder with its own registry, including Go runtime and
// process collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		UploadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ingest",
			Name:      "uploads_total",
			Help:      "Upload requests by outcome.",
		}, []string{"outcome"}),
		UploadBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ingest",
			Name:      "upload_bytes",
			Help:      "Size of stored uploads in bytes.",
			Buckets:   prometheus.ExponentialBuckets(16<<10, 2, 10), // 16KiB .. 8MiB
		}),
	}
	reg.MustRegister(
		r.UploadsTotal,
		r.UploadBytes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Observe records one finished upload attempt. size is only recorded for
// stored uploads.
func (r *Recorder) Observe(outcome string, size int64) {
	if r == nil {
		return
	}
	r.UploadsTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeStored {
		r.UploadBytes.Observe(float64(size))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
