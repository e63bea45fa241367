package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the instrument. A nil
// *Metrics is valid and records nothing, so components can be built without it.
type Metrics struct {
	registry             *prometheus.Registry
	cyclesTotal          prometheus.Counter
	activeKeys           prometheus.Gauge
	channelStarts        *prometheus.CounterVec
	channelFades         *prometheus.CounterVec
	channelStartFailures *prometheus.CounterVec
	datagramsSent        prometheus.Counter
	datagramErrors       prometheus.Counter
	datagramsRateLimited prometheus.Counter
	requestsTotal        prometheus.Counter
	errorsTotal          prometheus.Counter
}

// New creates and registers Prometheus metrics for the instrument.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		cyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "touchkeys_cycles_total",
			Help: "Total number of completed sample/render cycles",
		}),
		activeKeys: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "touchkeys_active_keys",
			Help: "Number of keys in the most recent key set",
		}),
		channelStarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "touchkeys_channel_starts_total",
			Help: "Channels started because a key became active",
		}, []string{"engine"}),
		channelFades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "touchkeys_channel_fades_total",
			Help: "Channels faded out because a key was released",
		}, []string{"engine"}),
		channelStartFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "touchkeys_channel_start_failures_total",
			Help: "Channel starts that failed and will be retried next cycle",
		}, []string{"engine"}),
		datagramsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "touchkeys_datagrams_sent_total",
			Help: "Fire grid datagrams written to the socket",
		}),
		datagramErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "touchkeys_datagram_errors_total",
			Help: "Fire grid datagrams dropped because the send failed",
		}),
		datagramsRateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "touchkeys_datagrams_rate_limited_total",
			Help: "Emit calls skipped by the fire rate limiter",
		}),
		requestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "touchkeys_http_requests_total",
			Help: "Total number of admin HTTP requests received",
		}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "touchkeys_http_errors_total",
			Help: "Total number of admin HTTP responses with error status (4xx or 5xx)",
		}),
	}

	registry.MustRegister(
		m.cyclesTotal,
		m.activeKeys,
		m.channelStarts,
		m.channelFades,
		m.channelStartFailures,
		m.datagramsSent,
		m.datagramErrors,
		m.datagramsRateLimited,
		m.requestsTotal,
		m.errorsTotal,
	)

	return m
}

// ObserveCycle records a finished cycle and the size of its key set.
func (m *Metrics) ObserveCycle(keys int) {
	if m == nil {
		return
	}
	m.cyclesTotal.Inc()
	m.activeKeys.Set(float64(keys))
}

// IncChannelStarts increments the channel start counter for engine.
func (m *Metrics) IncChannelStarts(engine string) {
	if m == nil {
		return
	}
	m.channelStarts.WithLabelValues(engine).Inc()
}

// IncChannelFades increments the channel fade counter for engine.
func (m *Metrics) IncChannelFades(engine string) {
	if m == nil {
		return
	}
	m.channelFades.WithLabelValues(engine).Inc()
}

// IncChannelStartFailures increments the failed start counter for engine.
func (m *Metrics) IncChannelStartFailures(engine string) {
	if m == nil {
		return
	}
	m.channelStartFailures.WithLabelValues(engine).Inc()
}

// IncDatagramsSent increments the sent datagram counter.
func (m *Metrics) IncDatagramsSent() {
	if m == nil {
		return
	}
	m.datagramsSent.Inc()
}

// IncDatagramErrors increments the failed datagram counter.
func (m *Metrics) IncDatagramErrors() {
	if m == nil {
		return
	}
	m.datagramErrors.Inc()
}

// IncDatagramsRateLimited increments the rate-limited emit counter.
func (m *Metrics) IncDatagramsRateLimited() {
	if m == nil {
		return
	}
	m.datagramsRateLimited.Inc()
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	if m == nil {
		return
	}
	m.requestsTotal.Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	if m == nil {
		return
	}
	m.errorsTotal.Inc()
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an http.Handler that serves Prometheus metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
