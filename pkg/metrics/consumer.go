package metrics

import "github.com/prometheus/client_golang/prometheus"

// Inbound outcomes reported by the consumers.
const (
	OutcomeProcessed  = "processed"
	OutcomeDuplicate  = "duplicate"
	OutcomeDeadLetter = "dead_letter"
	OutcomeRequeued   = "requeued"
	OutcomeIgnored    = "ignored"
)

// ConsumerMetrics counts inbound messages by how they were settled.
type ConsumerMetrics struct {
	messages *prometheus.CounterVec
}

func NewConsumerMetrics(reg prometheus.Registerer, service string) *ConsumerMetrics {
	if reg == nil {
		return &ConsumerMetrics{}
	}
	messages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "inbound_messages_total",
		Help:        "Inbound broker messages by outcome.",
		ConstLabels: serviceLabels(service),
	}, []string{"queue", "outcome"})
	reg.MustRegister(messages)
	return &ConsumerMetrics{messages: messages}
}

func (m *ConsumerMetrics) Inc(queue, outcome string) {
	if m == nil || m.messages == nil {
		return
	}
	m.messages.WithLabelValues(normalizeLabel(queue), normalizeLabel(outcome)).Inc()
}
