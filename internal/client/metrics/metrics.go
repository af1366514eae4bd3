// Package metrics exposes Prometheus counters for the credential exchange,
// profile provisioning and session bootstrap flows.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Provisioning outcomes reported by RecordProvision.
const (
	ProvisionExisting = "existing"
	ProvisionCreated  = "created"
	ProvisionRace     = "race"
	ProvisionFailed   = "failed"
)

// Recorder is the metrics surface used by the services. Collector is the
// Prometheus implementation; Nop discards everything.
type Recorder interface {
	RecordAttempt(op string)
	RecordTimeout(op string)
	RecordTerminalError(op, kind string)
	RecordExchangeLatency(op string, d time.Duration)
	RecordProvision(outcome string)
	RecordBootstrap(state string)
}

type Collector struct {
	attempts     *prometheus.CounterVec
	timeouts     *prometheus.CounterVec
	terminal     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	provisioning *prometheus.CounterVec
	bootstrap    *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authboot_exchange_attempts_total",
			Help: "Credential exchange attempts, including retries.",
		}, []string{"op"}),
		timeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authboot_exchange_timeouts_total",
			Help: "Credential exchange attempts that hit their deadline.",
		}, []string{"op"}),
		terminal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authboot_exchange_terminal_errors_total",
			Help: "Credential exchanges that ended with a non-retryable error.",
		}, []string{"op", "kind"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "authboot_exchange_duration_seconds",
			Help:    "Wall time of a whole credential exchange, retries included.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		provisioning: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authboot_profile_provisioning_total",
			Help: "Profile provisioning outcomes.",
		}, []string{"outcome"}),
		bootstrap: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authboot_bootstrap_resolutions_total",
			Help: "Session state transitions resolved by the bootstrap orchestrator.",
		}, []string{"state"}),
	}

	reg.MustRegister(
		c.attempts,
		c.timeouts,
		c.terminal,
		c.latency,
		c.provisioning,
		c.bootstrap,
	)

	return c
}

func (c *Collector) RecordAttempt(op string) {
	c.attempts.WithLabelValues(op).Inc()
}

func (c *Collector) RecordTimeout(op string) {
	c.timeouts.WithLabelValues(op).Inc()
}

func (c *Collector) RecordTerminalError(op, kind string) {
	c.terminal.WithLabelValues(op, kind).Inc()
}

func (c *Collector) RecordExchangeLatency(op string, d time.Duration) {
	c.latency.WithLabelValues(op).Observe(d.Seconds())
}

func (c *Collector) RecordProvision(outcome string) {
	c.provisioning.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordBootstrap(state string) {
	c.bootstrap.WithLabelValues(state).Inc()
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return mux
}

type Nop struct{}

func (Nop) RecordAttempt(string) {}
func (Nop) RecordTimeout(string) {}
func (Nop) RecordTerminalError(string, string) {}
func (Nop) RecordExchangeLatency(string, time.Duration) {}
func (Nop) RecordProvision(string) {}
func (Nop) RecordBootstrap(string) {}
