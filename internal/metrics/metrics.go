package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the service's Prometheus collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	cacheLookups  *prometheus.CounterVec
	providerCalls *prometheus.CounterVec
	responses     *prometheus.CounterVec
}

// New registers the collectors, plus Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather",
			Name:      "cache_lookups_total",
			Help:      "Summary cache lookups by result.",
		}, []string{"result"}),
		providerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather",
			Name:      "provider_calls_total",
			Help:      "Outbound provider calls by provider and outcome.",
		}, []string{"provider", "outcome"}),
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather",
			Name:      "summary_responses_total",
			Help:      "Responses served by the /weather endpoint by status code.",
		}, []string{"status"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.cacheLookups,
		m.providerCalls,
		m.responses,
	)

	return m
}

// CacheLookup counts a hit or a miss.
func (m *Metrics) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ProviderCall counts one outbound call and how it ended.
func (m *Metrics) ProviderCall(provider, outcome string) {
	m.providerCalls.WithLabelValues(provider, outcome).Inc()
}

// Response counts one /weather response.
func (m *Metrics) Response(status int) {
	m.responses.WithLabelValues(strconv.Itoa(status)).Inc()
}
