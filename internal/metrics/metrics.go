// Package metrics records upstream calls, cache activity and record outcomes
// as Prometheus counters on a private registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
)

const namespace = "lead_enrich"

// Request outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeNotFound  = "not_found"
	OutcomeTransient = "transient"
	OutcomeTerminal  = "terminal"
	OutcomeOpen      = "circuit_open"
)

// Recorder holds the run's collectors. A nil *Recorder discards everything.
type Recorder struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	cache    *prometheus.CounterVec
	tokens   *prometheus.CounterVec
	records  *prometheus.CounterVec
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Upstream HTTP attempts by service and outcome.",
		}, []string{"service", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_seconds",
			Help:      "Upstream HTTP attempt latency.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"service"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Response cache lookups by service and result.",
		}, []string{"service", "result"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_total",
			Help:      "Chat completion tokens by direction.",
		}, []string{"direction"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Processed records by status.",
		}, []string{"status"}),
	}
	r.registry.MustRegister(r.requests, r.latency, r.cache, r.tokens, r.records)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Request records one upstream attempt.
func (r *Recorder) Request(service, outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(service, outcome).Inc()
	r.latency.WithLabelValues(service).Observe(d.Seconds())
}

// CacheHit records a cache hit for service.
func (r *Recorder) CacheHit(service string) {
	if r == nil {
		return
	}
	r.cache.WithLabelValues(service, "hit").Inc()
}

// CacheMiss records a cache miss for service.
func (r *Recorder) CacheMiss(service string) {
	if r == nil {
		return
	}
	r.cache.WithLabelValues(service, "miss").Inc()
}

// Tokens records chat completion token usage.
func (r *Recorder) Tokens(input, output int) {
	if r == nil {
		return
	}
	r.tokens.WithLabelValues("input").Add(float64(input))
	r.tokens.WithLabelValues("output").Add(float64(output))
}

// Record counts a finished record under status.
func (r *Recorder) Record(status string) {
	if r == nil {
		return
	}
	r.records.WithLabelValues(status).Inc()
}

// WriteTextfile writes the registry in text exposition format, for the node
// exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return eris.Wrapf(err, "metrics: write textfile %s", path)
	}
	return nil
}
