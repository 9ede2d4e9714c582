package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "inbox_live"

// Metrics groups the prometheus collectors of the server.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	MessagesSent        prometheus.Counter
	SendFailures        *prometheus.CounterVec
	Pushes              *prometheus.CounterVec
	OnlineUsers         prometheus.Gauge
	LiveConnections     prometheus.Gauge
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	WorkerRestarts      *prometheus.CounterVec
}

// NewMetrics registers every collector on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MessagesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Messages persisted by the send operation",
		}),
		SendFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_failures_total",
			Help:      "Send operations rejected or failed",
		}, []string{"reason"}),
		Pushes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pushes_total",
			Help:      "Live push attempts by outcome",
		}, []string{"outcome"}),
		OnlineUsers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_users",
			Help:      "Users holding at least one live connection",
		}),
		LiveConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_connections",
			Help:      "Open live connections",
		}),
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"method", "path"}),
		WorkerRestarts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_restarts_total",
			Help:      "Background worker restarts after a panic or an error",
		}, []string{"worker"}),
	}
}

func (m *Metrics) MessageSent() {
	if m == nil {
		return
	}
	m.MessagesSent.Inc()
}

func (m *Metrics) SendFailed(reason string) {
	if m == nil {
		return
	}
	m.SendFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) PushDelivered() {
	if m == nil {
		return
	}
	m.Pushes.WithLabelValues("delivered").Inc()
}

func (m *Metrics) PushSkipped() {
	if m == nil {
		return
	}
	m.Pushes.WithLabelValues("offline").Inc()
}

func (m *Metrics) PushFailed(reason string) {
	if m == nil {
		return
	}
	m.Pushes.WithLabelValues(reason).Inc()
}

func (m *Metrics) SetPresence(users, connections int) {
	if m == nil {
		return
	}
	m.OnlineUsers.Set(float64(users))
	m.LiveConnections.Set(float64(connections))
}

func (m *Metrics) ObserveRequest(method, path, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(seconds)
}

func (m *Metrics) WorkerRestarted(worker string) {
	if m == nil {
		return
	}
	m.WorkerRestarts.WithLabelValues(worker).Inc()
}
