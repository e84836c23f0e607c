// Package metrics exposes Prometheus metrics for the login flow.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector is what the auth service, provider client, sweeper and HTTP
// layer record against.
type MetricsCollector interface {
	RecordFlowStarted()
	RecordFlowEstablished()
	RecordFlowFailed(reason string)
	RecordProviderCall(endpoint string, statusCode int, duration time.Duration)
	RecordSweep(purged int)
	RecordHTTPStatus(statusCode int)
}

// Collector is the Prometheus backed MetricsCollector.
type Collector struct {
	flowStarted     prometheus.Counter
	flowEstablished prometheus.Counter
	flowFailed      *prometheus.CounterVec
	providerCalls   *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
	sweptTokens     prometheus.Counter
	httpStatus      *prometheus.CounterVec
}

var _ MetricsCollector = (*Collector)(nil)

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		flowStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oauth1_login_flow_started_total",
			Help: "Login flows that obtained a request token.",
		}),
		flowEstablished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oauth1_login_flow_established_total",
			Help: "Login flows that ended with a session.",
		}),
		flowFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oauth1_login_flow_failed_total",
			Help: "Login flows that failed, by reason.",
		}, []string{"reason"}),
		providerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oauth1_login_provider_calls_total",
			Help: "Calls to the identity provider by endpoint and status code.",
		}, []string{"endpoint", "status_code"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "oauth1_login_provider_latency_seconds",
			Help:    "Identity provider call latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		sweptTokens: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oauth1_login_request_tokens_swept_total",
			Help: "Expired request tokens removed by the sweeper.",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oauth1_login_http_status_total",
			Help: "HTTP responses by status code.",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.flowStarted,
		c.flowEstablished,
		c.flowFailed,
		c.providerCalls,
		c.providerLatency,
		c.sweptTokens,
		c.httpStatus,
	)
	return c
}

func (c *Collector) RecordFlowStarted() {
	c.flowStarted.Inc()
}

func (c *Collector) RecordFlowEstablished() {
	c.flowEstablished.Inc()
}

func (c *Collector) RecordFlowFailed(reason string) {
	c.flowFailed.WithLabelValues(reason).Inc()
}

// RecordProviderCall records one provider round trip. statusCode is 0 when no
// response was received.
func (c *Collector) RecordProviderCall(endpoint string, statusCode int, duration time.Duration) {
	c.providerCalls.WithLabelValues(endpoint, strconv.Itoa(statusCode)).Inc()
	c.providerLatency.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (c *Collector) RecordSweep(purged int) {
	c.sweptTokens.Add(float64(purged))
}

func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything.
type Nop struct{}

var _ MetricsCollector = Nop{}

func (Nop) RecordFlowStarted()                            {}
func (Nop) RecordFlowEstablished()                        {}
func (Nop) RecordFlowFailed(string)                       {}
func (Nop) RecordProviderCall(string, int, time.Duration) {}
func (Nop) RecordSweep(int)                               {}
func (Nop) RecordHTTPStatus(int)                          {}
