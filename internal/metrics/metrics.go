// Package metrics exposes simulation counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "premarket"

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Ticks         prometheus.Counter
	MarketUpdates prometheus.Counter
	Trades        *prometheus.CounterVec
	Fills         *prometheus.CounterVec
	Retirements   prometheus.Counter
	ResellsTaken  prometheus.Counter
	IndexFailures *prometheus.CounterVec
	SideEffectErr *prometheus.CounterVec
	WSClients     prometheus.Gauge
}

// New creates the collectors on a private registry, along with the Go runtime
// and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "live_ticks_total",
			Help:      "Live update scheduler ticks.",
		}),
		MarketUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "market_updates_total",
			Help:      "Markets perturbed across all ticks.",
		}),
		Trades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_total",
			Help:      "Synthetic trades emitted by the trade feeds.",
		}, []string{"market", "side"}),
		Fills: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "book_fills_total",
			Help:      "Order book fill increments.",
		}, []string{"market", "side"}),
		Retirements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "book_retirements_total",
			Help:      "Fully filled orders removed from a book.",
		}),
		ResellsTaken: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "book_resells_taken_total",
			Help:      "Resell listings bought.",
		}),
		IndexFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_fetch_failures_total",
			Help:      "Failed market index fetches.",
		}, []string{"source"}),
		SideEffectErr: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "side_effect_errors_total",
			Help:      "Cache, bus or store writes that failed and were skipped.",
		}, []string{"target"}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_clients",
			Help:      "Connected WebSocket clients.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Ticks, m.MarketUpdates, m.Trades, m.Fills, m.Retirements,
		m.ResellsTaken, m.IndexFailures, m.SideEffectErr, m.WSClients,
	)
	return m
}

// Handler serves the registry at /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Tick(updated int) {
	if m == nil {
		return
	}
	m.Ticks.Inc()
	m.MarketUpdates.Add(float64(updated))
}

func (m *Metrics) Trade(market, side string) {
	if m == nil {
		return
	}
	m.Trades.WithLabelValues(market, side).Inc()
}

func (m *Metrics) Fill(market, side string) {
	if m == nil {
		return
	}
	m.Fills.WithLabelValues(market, side).Inc()
}

func (m *Metrics) Retired() {
	if m == nil {
		return
	}
	m.Retirements.Inc()
}

func (m *Metrics) ResellTaken() {
	if m == nil {
		return
	}
	m.ResellsTaken.Inc()
}

func (m *Metrics) IndexFailure(source string) {
	if m == nil {
		return
	}
	m.IndexFailures.WithLabelValues(source).Inc()
}

// SideEffectFailed counts a swallowed cache/bus/store error.
func (m *Metrics) SideEffectFailed(target string) {
	if m == nil {
		return
	}
	m.SideEffectErr.WithLabelValues(target).Inc()
}

func (m *Metrics) ClientConnected() {
	if m == nil {
		return
	}
	m.WSClients.Inc()
}

func (m *Metrics) ClientDisconnected() {
	if m == nil {
		return
	}
	m.WSClients.Dec()
}
