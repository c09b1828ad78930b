// Package metrics exposes Prometheus counters for the calls this service
// makes to the remote record backend and for inbound HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for record backend calls.
const (
	OutcomeOK        = "ok"
	OutcomeTransport = "transport"
	OutcomeStatus    = "status"
	OutcomeDecode    = "decode"
)

// Recorder owns a private registry so tests and multiple servers in one
// process do not collide on the global one. A nil *Recorder is a no-op.
type Recorder struct {
	registry       *prometheus.Registry
	recordRequests *prometheus.CounterVec
	recordLatency  *prometheus.HistogramVec
	httpRequests   *prometheus.CounterVec
	messagesSent   prometheus.Counter
}

// New creates a Recorder with Go runtime and process collectors attached.
// POST: Handler serves every metric registered here
func New() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		recordRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "facultyhub_records_requests_total",
			Help: "Calls to the remote record backend by collection, operation and outcome.",
		}, []string{"collection", "op", "outcome"}),
		recordLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "facultyhub_records_request_duration_seconds",
			Help:    "Latency of remote record backend calls.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"collection", "op"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "facultyhub_http_requests_total",
			Help: "Inbound HTTP requests by method and status class.",
		}, []string{"method", "code"}),
		messagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "facultyhub_hub_emails_sent_total",
			Help: "Communication hub emails handed to the email provider.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.recordRequests,
		r.recordLatency,
		r.httpRequests,
		r.messagesSent,
	)
	return r
}

// ObserveRecordCall counts one remote record call.
func (r *Recorder) ObserveRecordCall(collection, op, outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.recordRequests.WithLabelValues(collection, op, outcome).Inc()
	r.recordLatency.WithLabelValues(collection, op).Observe(d.Seconds())
}

// ObserveHTTP counts one inbound request by method and status class ("2xx").
func (r *Recorder) ObserveHTTP(method string, status int) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(method, strconv.Itoa(status/100)+"xx").Inc()
}

// AddMessagesSent counts emails accepted by the provider.
func (r *Recorder) AddMessagesSent(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.messagesSent.Add(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
