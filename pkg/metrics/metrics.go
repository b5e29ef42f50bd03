// Package metrics exposes the counters the messaging layer increments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	KindPublish = "publish"
	KindParse   = "parse"
	KindHandler = "handler"
	KindNotify  = "notify"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	sent     *prometheus.CounterVec
	received *prometheus.CounterVec
	failed   *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		sent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rabbitmq_messages_sent_total",
			Help: "Total messages sent to queue",
		}, []string{"queue"}),
		received: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rabbitmq_messages_received_total",
			Help: "Total messages received from queue",
		}, []string{"queue"}),
		failed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rabbitmq_messages_failed_total",
			Help: "Total messages that failed to publish or to be handled",
		}, []string{"queue", "kind"}),
	}
}

func (m *Metrics) MessageSent(queue string) {
	if m == nil {
		return
	}
	m.sent.WithLabelValues(queue).Inc()
}

func (m *Metrics) MessageReceived(queue string) {
	if m == nil {
		return
	}
	m.received.WithLabelValues(queue).Inc()
}

func (m *Metrics) MessageFailed(queue, kind string) {
	if m == nil {
		return
	}
	m.failed.WithLabelValues(queue, kind).Inc()
}

// Sent counts published messages by routing key.
func (m *Metrics) Sent() *prometheus.CounterVec { return m.sent }

// Received counts acknowledged deliveries by queue.
func (m *Metrics) Received() *prometheus.CounterVec { return m.received }

// Failed counts failures by queue or routing key and kind.
func (m *Metrics) Failed() *prometheus.CounterVec { return m.failed }
