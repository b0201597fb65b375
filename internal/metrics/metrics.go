package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vbonduro/propinv/internal/domain"
)

// Metrics provides observability for the inventory engine. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Mutations by operation and outcome
	Mutations *prometheus.CounterVec

	// Image pipeline latency by target (photo, front_image)
	ImageDuration *prometheus.HistogramVec

	// Images passed through undecoded
	ImageDecodeFailures prometheus.Counter

	// HTTP request latency by method and status code
	RequestDuration *prometheus.HistogramVec

	// Export runs by outcome, and the photos they wrote
	Exports        *prometheus.CounterVec
	ExportedPhotos prometheus.Counter
}

// New creates a Metrics instance registered on its own registry, so several
// instances can coexist in one process.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "propinv_mutations_total",
			Help: "Inventory mutations by operation and outcome",
		}, []string{"operation", "outcome"}),

		ImageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "propinv_image_process_duration_seconds",
			Help:    "Duration of resize, watermark and encode per image",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"target"}),

		ImageDecodeFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "propinv_image_decode_failures_total",
			Help: "Images stored as uploaded because they could not be decoded",
		}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "propinv_http_request_duration_seconds",
			Help:    "HTTP request latency by method and status code",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "code"}),

		Exports: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "propinv_exports_total",
			Help: "Inventory exports by outcome",
		}, []string{"outcome"}),

		ExportedPhotos: factory.NewCounter(prometheus.CounterOpts{
			Name: "propinv_exported_photos_total",
			Help: "Vault photos written by exports",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveMutation records the outcome of one engine operation.
func (m *Metrics) ObserveMutation(operation string, err error) {
	if m != nil {
		m.Mutations.WithLabelValues(operation, Outcome(err)).Inc()
	}
}

func (m *Metrics) ObserveImage(target string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.ImageDuration.WithLabelValues(target).Observe(d.Seconds())
	if errors.Is(err, domain.ErrImageDecode) {
		m.ImageDecodeFailures.Inc()
	}
}

func (m *Metrics) ObserveRequest(method, code string, d time.Duration) {
	if m != nil {
		m.RequestDuration.WithLabelValues(method, code).Observe(d.Seconds())
	}
}

func (m *Metrics) ObserveExport(photos int, err error) {
	if m == nil {
		return
	}
	m.Exports.WithLabelValues(Outcome(err)).Inc()
	if err == nil {
		m.ExportedPhotos.Add(float64(photos))
	}
}

// Outcome maps an error to a bounded label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrLocked):
		return "locked"
	case errors.Is(err, domain.ErrPrecondition):
		return "precondition"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrPersistence):
		return "persistence"
	default:
		return "error"
	}
}
