// Package metrics exposes Prometheus counters for the media lifecycle.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the Prometheus registry for all media-service metrics.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// Handler serves Registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

const (
	OutcomeNew          = "new"
	OutcomeDeduplicated = "deduplicated"
	OutcomeFailed       = "failed"
)

// MediaMetrics holds the counters recorded by the media service. A nil
// *MediaMetrics records nothing.
type MediaMetrics struct {
	Uploads            *prometheus.CounterVec // media_uploads_total{outcome}
	UploadedBytes      prometheus.Counter     // media_uploaded_bytes_total
	ReferenceChanges   *prometheus.CounterVec // media_reference_changes_total{direction}
	ReferenceClamps    prometheus.Counter     // media_reference_clamps_total
	Purged             *prometheus.CounterVec // media_purged_total{reason}
	BlobDeleteFailures prometheus.Counter     // media_blob_delete_failures_total
}

func NewMediaMetrics(reg prometheus.Registerer) *MediaMetrics {
	if reg == nil {
		reg = Registry
	}
	return &MediaMetrics{
		Uploads: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "media_uploads_total",
			Help: "Uploads by outcome (new, deduplicated, failed)",
		}, []string{"outcome"}),

		UploadedBytes: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "media_uploaded_bytes_total",
			Help: "Bytes written to the blob store by new uploads",
		}),

		ReferenceChanges: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "media_reference_changes_total",
			Help: "Reference count changes by direction",
		}, []string{"direction"}),

		ReferenceClamps: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "media_reference_clamps_total",
			Help: "Decrements refused because the count was already zero",
		}),

		Purged: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "media_purged_total",
			Help: "Media objects physically removed, by reason (delete, cleanup)",
		}, []string{"reason"}),

		BlobDeleteFailures: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "media_blob_delete_failures_total",
			Help: "Blob deletions that failed or found no blob during a purge",
		}),
	}
}

var (
	defaultOnce    sync.Once
	defaultMetrics *MediaMetrics
)

// Default returns the process-wide MediaMetrics registered on Registry.
func Default() *MediaMetrics {
	defaultOnce.Do(func() { defaultMetrics = NewMediaMetrics(Registry) })
	return defaultMetrics
}

func (m *MediaMetrics) Upload(outcome string, bytes int64) {
	if m == nil {
		return
	}
	m.Uploads.WithLabelValues(outcome).Inc()
	if outcome == OutcomeNew {
		m.UploadedBytes.Add(float64(bytes))
	}
}

func (m *MediaMetrics) Reference(direction string) {
	if m == nil {
		return
	}
	m.ReferenceChanges.WithLabelValues(direction).Inc()
}

func (m *MediaMetrics) Clamp() {
	if m == nil {
		return
	}
	m.ReferenceClamps.Inc()
}

func (m *MediaMetrics) Purge(reason string) {
	if m == nil {
		return
	}
	m.Purged.WithLabelValues(reason).Inc()
}

func (m *MediaMetrics) BlobDeleteFailure() {
	if m == nil {
		return
	}
	m.BlobDeleteFailures.Inc()
}
