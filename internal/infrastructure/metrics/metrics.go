package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricPrefix = "rims_gateway_"

// Snapshot carries one reading of the gateway counters.
type Snapshot struct {
	CommandsSent uint64
	Errors       uint64
	DeviceCount  int
}

// Metrics exposes the gateway counters as Prometheus collectors.
//
// The collectors read through a snapshot func at scrape time, so the
// exposition always reflects the loop's current counters without a
// push path. Collectors live on a private registry; Handler serves
// only the gateway's own series.
type Metrics struct {
	registry *prometheus.Registry
}

// New constructs and registers the gateway collectors over snapshot.
func New(snapshot func() Snapshot) *Metrics {
	registry := prometheus.NewRegistry()

	registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: metricPrefix + "commands_sent_total",
			Help: "Commands delivered to every connected device",
		},
		func() float64 { return float64(snapshot().CommandsSent) },
	))

	registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: metricPrefix + "errors_total",
			Help: "Command source poll failures",
		},
		func() float64 { return float64(snapshot().Errors) },
	))

	registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "device_count",
			Help: "Serial devices currently connected",
		},
		func() float64 { return float64(snapshot().DeviceCount) },
	))

	return &Metrics{registry: registry}
}

// Handler returns the exposition handler for mounting at /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
