package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the transcription service
type Metrics struct {
	// Transcription metrics
	TranscriptionAttempts  *prometheus.CounterVec
	TranscriptionRotations prometheus.Counter
	TranscriptionExhausted prometheus.Counter
	TranscriptionAborted   prometheus.Counter
	TranscriptionDuration  prometheus.Histogram

	// Refinement metrics
	Refinements *prometheus.CounterVec

	// Export metrics
	Exports       *prometheus.CounterVec
	FontFallbacks prometheus.Counter
}

// NewMetrics creates and registers all metrics on reg. A nil reg uses the
// default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		TranscriptionAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rtlscribe_transcription_attempts_total",
			Help: "Transcription calls by provider and outcome class",
		}, []string{"provider", "class"}),
		TranscriptionRotations: factory.NewCounter(prometheus.CounterOpts{
			Name: "rtlscribe_transcription_rotations_total",
			Help: "Times rotation advanced to the next credential after a rate limit",
		}),
		TranscriptionExhausted: factory.NewCounter(prometheus.CounterOpts{
			Name: "rtlscribe_transcription_exhausted_total",
			Help: "Requests where every credential was rate limited",
		}),
		TranscriptionAborted: factory.NewCounter(prometheus.CounterOpts{
			Name: "rtlscribe_transcription_aborted_total",
			Help: "Requests aborted by a non rate-limit failure",
		}),
		TranscriptionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "rtlscribe_transcription_duration_seconds",
			Help:    "Wall time of a full rotation, successful or not",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		Refinements: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rtlscribe_refinements_total",
			Help: "Refinement calls by outcome",
		}, []string{"outcome"}),
		Exports: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rtlscribe_exports_total",
			Help: "Document exports by format and outcome",
		}, []string{"format", "outcome"}),
		FontFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "rtlscribe_pdf_font_fallbacks_total",
			Help: "PDF exports rendered with the default font",
		}),
	}
}

// The helpers below are nil-safe so components can run without metrics.

func (m *Metrics) ObserveAttempt(provider, class string) {
	if m == nil {
		return
	}
	m.TranscriptionAttempts.WithLabelValues(provider, class).Inc()
}

func (m *Metrics) ObserveRotation() {
	if m == nil {
		return
	}
	m.TranscriptionRotations.Inc()
}

func (m *Metrics) ObserveExhausted() {
	if m == nil {
		return
	}
	m.TranscriptionExhausted.Inc()
}

func (m *Metrics) ObserveAborted() {
	if m == nil {
		return
	}
	m.TranscriptionAborted.Inc()
}

func (m *Metrics) ObserveDuration(seconds float64) {
	if m == nil {
		return
	}
	m.TranscriptionDuration.Observe(seconds)
}

func (m *Metrics) ObserveRefinement(outcome string) {
	if m == nil {
		return
	}
	m.Refinements.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveExport(format, outcome string) {
	if m == nil {
		return
	}
	m.Exports.WithLabelValues(format, outcome).Inc()
}

func (m *Metrics) ObserveFontFallback() {
	if m == nil {
		return
	}
	m.FontFallbacks.Inc()
}
