package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the HTTP surface.
type Metrics struct {
	registry *prometheus.Registry

	questionsTotal  *prometheus.CounterVec
	questionSeconds prometheus.Histogram
	rebuildsTotal   *prometheus.CounterVec
	corpusMessages  prometheus.Gauge
}

// NewMetrics creates the instrument set on a private registry, so tests
// can run servers side by side without duplicate registration panics.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		questionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rosterqa_questions_total",
			Help: "Questions answered, by outcome.",
		}, []string{"outcome"}),
		questionSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "rosterqa_question_duration_seconds",
			Help:    "Question path latency.",
			Buckets: prometheus.DefBuckets,
		}),
		rebuildsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rosterqa_rebuilds_total",
			Help: "Corpus rebuilds, by outcome.",
		}, []string{"outcome"}),
		corpusMessages: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rosterqa_corpus_messages",
			Help: "Messages in the current corpus generation.",
		}),
	}
}

func (m *Metrics) observeQuestion(outcome string, seconds float64) {
	m.questionsTotal.WithLabelValues(outcome).Inc()
	m.questionSeconds.Observe(seconds)
}

func (m *Metrics) observeRebuild(outcome string, messageCount int) {
	m.rebuildsTotal.WithLabelValues(outcome).Inc()
	if outcome == "success" {
		m.corpusMessages.Set(float64(messageCount))
	}
}
