package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the letter service.
type Metrics struct {
	// Lifecycle operations by operation and outcome
	Operations *prometheus.CounterVec

	// Verification attempts by result
	Verifications *prometheus.CounterVec

	// Rendering latency by purpose
	RenderLatency *prometheus.HistogramVec

	// PDF generation latency
	PDFLatency prometheus.Histogram
}

// New registers the letter service metrics with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "desa_letter_operations_total",
			Help: "Letter request lifecycle operations by operation and outcome",
		}, []string{"operation", "outcome"}), // operation: submit, approve, update_status, delete

		Verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "desa_letter_verifications_total",
			Help: "Public letter verification attempts by result",
		}, []string{"result"}),

		RenderLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "desa_letter_render_duration_seconds",
			Help:    "Duration of letter template rendering including data lookups",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		}, []string{"purpose"}), // purpose: verify, content, preview, pdf

		PDFLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "desa_letter_pdf_duration_seconds",
			Help:    "Duration of PDF conversion and upload",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

// IncrementOperation records the outcome of a lifecycle operation.
func (m *Metrics) IncrementOperation(operation, outcome string) {
	if m != nil {
		m.Operations.WithLabelValues(operation, outcome).Inc()
	}
}

// IncrementVerification records a verification result.
func (m *Metrics) IncrementVerification(result string) {
	if m != nil {
		m.Verifications.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) ObserveRender(purpose string, d time.Duration) {
	if m != nil {
		m.RenderLatency.WithLabelValues(purpose).Observe(d.Seconds())
	}
}

func (m *Metrics) ObservePDF(d time.Duration) {
	if m != nil {
		m.PDFLatency.Observe(d.Seconds())
	}
}
