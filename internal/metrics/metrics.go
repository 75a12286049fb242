// Package metrics exposes lifecycle counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "license_shop"

// Recorder is what the services report into. A nil *Metrics is a valid no-op Recorder.
type Recorder interface {
	OrderCreated(tier string)
	OrderCancelled(reason string)
	PaymentConfirmed(tier string, amount int)
	LicenseChecked(op, outcome string)
}

type Metrics struct {
	registry   *prometheus.Registry
	orders     *prometheus.CounterVec
	cancelled  *prometheus.CounterVec
	payments   *prometheus.CounterVec
	revenue    *prometheus.CounterVec
	licenseOps *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Orders created, by tier.",
		}, []string{"tier"}),
		cancelled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_cancelled_total",
			Help:      "Orders cancelled, by reason.",
		}, []string{"reason"}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_confirmed_total",
			Help:      "Confirmed payments, by tier.",
		}, []string{"tier"}),
		revenue: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revenue_total",
			Help:      "Revenue from confirmed payments, by tier.",
		}, []string{"tier"}),
		licenseOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "license_checks_total",
			Help:      "License validate/activate calls, by operation and outcome.",
		}, []string{"op", "outcome"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.orders, m.cancelled, m.payments, m.revenue, m.licenseOps,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) OrderCreated(tier string) {
	if m == nil {
		return
	}
	m.orders.WithLabelValues(tier).Inc()
}

func (m *Metrics) OrderCancelled(reason string) {
	if m == nil {
		return
	}
	m.cancelled.WithLabelValues(reason).Inc()
}

func (m *Metrics) PaymentConfirmed(tier string, amount int) {
	if m == nil {
		return
	}
	m.payments.WithLabelValues(tier).Inc()
	m.revenue.WithLabelValues(tier).Add(float64(amount))
}

func (m *Metrics) LicenseChecked(op, outcome string) {
	if m == nil {
		return
	}
	m.licenseOps.WithLabelValues(op, outcome).Inc()
}
