// Package messaging is the broker-neutral surface the relay and the inbound
// consumers are written against. pkg/rabbitmq and pkg/pubsub implement it.
package messaging

import (
	"context"
	"strconv"
	"time"
)

const (
	HeaderEventType = "event_type"
	HeaderOutboxID  = "outbox_id"
	HeaderProducer  = "producer"
	HeaderCreatedAt = "created_at"

	ContentTypeJSON = "application/json"
)

// Message is one event on the wire.
type Message struct {
	ID          string
	EventType   string
	Body        []byte
	Headers     map[string]string
	Redelivered bool
}

// Header returns "" when the header is absent.
func (m Message) Header(key string) string {
	if m.Headers == nil {
		return ""
	}
	return m.Headers[key]
}

// OutboxID parses the outbox_id header; ok is false when absent or malformed.
func (m Message) OutboxID() (int64, bool) {
	raw := m.Header(HeaderOutboxID)
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// CreatedAt parses the created_at header written by the relay.
func (m Message) CreatedAt() (time.Time, bool) {
	raw := m.Header(HeaderCreatedAt)
	if raw == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// Outcome tells the subscriber how to settle a delivery.
type Outcome int

const (
	// Ack removes the message from the queue.
	Ack Outcome = iota
	// Requeue returns the message for redelivery.
	Requeue
)

func (o Outcome) String() string {
	if o == Requeue {
		return "requeue"
	}
	return "ack"
}

// Handler processes a single delivery.
type Handler func(ctx context.Context, msg Message) Outcome

// Publisher hands a message to the broker and returns once the broker has
// confirmed it, or with an error.
type Publisher interface {
	Publish(ctx context.Context, queue string, msg Message) error
}

// Subscriber delivers messages from queue to handler one at a time until ctx
// is cancelled. Connection loss is retried internally.
type Subscriber interface {
	Consume(ctx context.Context, queue string, handler Handler) error
}

// Broker is a full broker client owned by one service process.
type Broker interface {
	Publisher
	Subscriber
	Ping(ctx context.Context) error
	Close() error
}
