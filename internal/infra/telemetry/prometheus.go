package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusMetrics struct {
	dispatchDuration *prometheus.HistogramVec
	upstreamDuration *prometheus.HistogramVec
	upstreamRetries  *prometheus.CounterVec
}

func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		dispatchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "voucherify_mcp_dispatch_duration_seconds",
				Help:    "Duration of tool dispatches in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"tool", "status"},
		),
		upstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "voucherify_mcp_upstream_duration_seconds",
				Help:    "Duration of upstream API requests in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"op", "status"},
		),
		upstreamRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voucherify_mcp_upstream_retries_total",
				Help: "Total number of upstream request re-attempts",
			},
			[]string{"op"},
		),
	}
}

func (p *PrometheusMetrics) DispatchObserved(tool, status string, elapsed time.Duration) {
	p.dispatchDuration.WithLabelValues(tool, status).Observe(elapsed.Seconds())
}

func (p *PrometheusMetrics) UpstreamRequest(op, status string, elapsed time.Duration) {
	p.upstreamDuration.WithLabelValues(op, status).Observe(elapsed.Seconds())
}

func (p *PrometheusMetrics) UpstreamRetry(op string) {
	p.upstreamRetries.WithLabelValues(op).Inc()
}
