package feed

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricFeedRequestsTotal   = "feed_requests_total"
	MetricFeedRequestDuration = "feed_request_duration_seconds"
	MetricFeedCandidatePool   = "feed_candidate_pool_size"
	MetricFeedSampledPool     = "feed_sampled_pool_size"
)

// Status constants for request completion.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Metrics contains Prometheus metrics for feed generation.
// All operations are thread-safe.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	candidatePool   prometheus.Histogram
	sampledPool     prometheus.Histogram
}

// NewMetrics creates and returns a new Metrics instance with all collectors
// initialized. The metrics are not registered; call Register to register
// them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricFeedRequestsTotal,
				Help: "Total number of feed requests by variant and status",
			},
			[]string{"variant", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricFeedRequestDuration,
				Help:    "Histogram of feed request duration in seconds by variant",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"variant"},
		),
		candidatePool: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricFeedCandidatePool,
				Help:    "Histogram of candidate pool sizes before scoring",
				Buckets: []float64{0, 10, 25, 50, 100, 200, 400},
			},
		),
		sampledPool: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricFeedSampledPool,
				Help:    "Histogram of diversity-sampled pool sizes",
				Buckets: []float64{0, 5, 10, 20, 40, 80, 160},
			},
		),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.requestsTotal,
		m.requestDuration,
		m.candidatePool,
		m.sampledPool,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveRequest records the completion of one feed request.
func (m *Metrics) ObserveRequest(variant, status string, duration time.Duration) {
	m.requestsTotal.WithLabelValues(variant, status).Inc()
	m.requestDuration.WithLabelValues(variant).Observe(duration.Seconds())
}

// ObservePoolSizes records the pool sizes seen by one home feed request.
func (m *Metrics) ObservePoolSizes(candidates, sampled int) {
	m.candidatePool.Observe(float64(candidates))
	m.sampledPool.Observe(float64(sampled))
}
