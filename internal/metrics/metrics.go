// Package metrics exposes Prometheus collectors for secure payment resolution.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for ResolutionsTotal.
const (
	OutcomeDisclosed = "disclosed"
	OutcomeDenied    = "denied"
)

type Metrics struct {
	ResolutionsTotal *prometheus.CounterVec // by outcome
	RejectionsTotal  *prometheus.CounterVec // by reason

	CardFetchDurationSeconds *prometheus.HistogramVec // by store result

	VerificationCodeDisclosedTotal prometheus.Counter

	HTTPRequestDurationSeconds *prometheus.HistogramVec // by route pattern
}

// New registers all collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ResolutionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "securepay_resolutions_total",
			Help: "Secure payment page resolutions by outcome",
		}, []string{"outcome"}),

		RejectionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "securepay_rejections_total",
			Help: "Denied resolutions by internal reason",
		}, []string{"reason"}),

		CardFetchDurationSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "securepay_card_fetch_duration_seconds",
			Help:    "Card store lookup latency",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"result"}),

		VerificationCodeDisclosedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "securepay_verification_code_disclosed_total",
			Help: "Resolutions that included the card verification code",
		}),

		HTTPRequestDurationSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "securepay_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

func (m *Metrics) RecordDisclosed(withCode bool) {
	m.ResolutionsTotal.WithLabelValues(OutcomeDisclosed).Inc()
	if withCode {
		m.VerificationCodeDisclosedTotal.Inc()
	}
}

func (m *Metrics) RecordDenied(reason string) {
	m.ResolutionsTotal.WithLabelValues(OutcomeDenied).Inc()
	m.RejectionsTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveCardFetch(result string, seconds float64) {
	m.CardFetchDurationSeconds.WithLabelValues(result).Observe(seconds)
}

func (m *Metrics) ObserveRequest(route, status string, seconds float64) {
	m.HTTPRequestDurationSeconds.WithLabelValues(route, status).Observe(seconds)
}
