// Package metrics exposes receiver counters to prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/d21d3q/wmbusc1/internal/radio"
)

// Decode outcomes.
const (
	OutcomeDecoded = "decoded"
	OutcomePartial = "partial"
	OutcomeUnknown = "unknown_driver"
	OutcomeError   = "error"
)

// Metrics contains all prometheus metrics of the receiver.
type Metrics struct {
	registry *prometheus.Registry

	BytesReceived prometheus.Counter
	SyncEvents    *prometheus.CounterVec
	Telegrams     *prometheus.CounterVec
	TotalVolume   *prometheus.GaugeVec
}

// New creates the metrics on a dedicated registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		BytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "wmbusc1_radio_bytes_received_total",
			Help: "Total number of bytes read from the radio modem",
		}),
		SyncEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wmbusc1_sync_events_total",
			Help: "Frame synchronizer events by kind",
		}, []string{"event"}),
		Telegrams: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wmbusc1_telegrams_total",
			Help: "Telegrams handed to the decoder by driver and outcome",
		}, []string{"driver", "outcome"}),
		TotalVolume: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "wmbusc1_meter_total_m3",
			Help: "Last reported total volume per meter",
		}, []string{"meter_id"}),
	}
}

// ObserveSync is a radio.Observer.
func (m *Metrics) ObserveSync(ev radio.Event) {
	m.SyncEvents.WithLabelValues(ev.String()).Inc()
}

// ObserveTelegram counts one decode outcome.
func (m *Metrics) ObserveTelegram(driver, outcome string) {
	m.Telegrams.WithLabelValues(driver, outcome).Inc()
}

// ObserveVolume records the latest total volume of a meter.
func (m *Metrics) ObserveVolume(meterID string, m3 float64) {
	m.TotalVolume.WithLabelValues(meterID).Set(m3)
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
