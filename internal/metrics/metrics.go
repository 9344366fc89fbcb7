package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the business counters of the order core. A nil *Metrics is
// valid and records nothing, which keeps unit tests free of registries.
type Metrics struct {
	registry *prometheus.Registry

	OrdersCreated      *prometheus.CounterVec
	StatusTransitions  *prometheus.CounterVec
	VoucherRedemptions *prometheus.CounterVec
	Notifications      *prometheus.CounterVec
}

func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,
		OrdersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "laundry",
			Name:      "orders_created_total",
			Help:      "Orders persisted, by creation source.",
		}, []string{"source"}),
		StatusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "laundry",
			Name:      "status_transitions_total",
			Help:      "Applied status transitions, by track and target status.",
		}, []string{"track", "status"}),
		VoucherRedemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "laundry",
			Name:      "voucher_redemptions_total",
			Help:      "Voucher redemption attempts, by result.",
		}, []string{"result"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "laundry",
			Name:      "notifications_created_total",
			Help:      "Notification records created, by type.",
		}, []string{"type"}),
	}
	reg.MustRegister(m.OrdersCreated, m.StatusTransitions, m.VoucherRedemptions, m.Notifications)
	return m
}

// NewWithRuntime registers the business counters together with the Go and
// process collectors.
func NewWithRuntime() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return New(reg)
}

func (m *Metrics) OrderCreated(source string) {
	if m == nil {
		return
	}
	m.OrdersCreated.WithLabelValues(source).Inc()
}

func (m *Metrics) Transition(track, status string) {
	if m == nil {
		return
	}
	m.StatusTransitions.WithLabelValues(track, status).Inc()
}

func (m *Metrics) VoucherRedeemed(result string) {
	if m == nil {
		return
	}
	m.VoucherRedemptions.WithLabelValues(result).Inc()
}

func (m *Metrics) NotificationCreated(kind string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(kind).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
