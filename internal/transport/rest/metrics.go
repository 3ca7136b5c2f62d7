package rest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var latencyBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}

type Metrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	tokens   *prometheus.CounterVec
	cost     *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "app_requests_total",
			Help: "Total HTTP requests processed",
		}, []string{"endpoint", "status"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "app_request_latency_seconds",
			Help:    "Request latency in seconds",
			Buckets: latencyBuckets,
		}, []string{"endpoint"}),
		tokens: f.NewCounterVec(prometheus.CounterOpts{
			Name: "app_tokens_total",
			Help: "Total tokens accounted",
		}, []string{"endpoint"}),
		cost: f.NewCounterVec(prometheus.CounterOpts{
			Name: "app_cost_usd_total",
			Help: "Total cost in USD (estimated)",
		}, []string{"endpoint"}),
	}
}

func (m *Metrics) observeUsage(endpoint string, tokens int, cost float64) {
	if tokens > 0 {
		m.tokens.WithLabelValues(endpoint).Add(float64(tokens))
	}
	if cost > 0 {
		m.cost.WithLabelValues(endpoint).Add(cost)
	}
}
