package pubsub

import (
	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/DarkRecklessness/ShopService/pkg/messaging"
)

// attribute carrying the producer's message id; Pub/Sub assigns its own ID
const attrMessageID = "message_id"

func toPubSubMessage(msg messaging.Message) *pubsub.Message {
	attrs := make(map[string]string, len(msg.Headers)+2)
	for k, v := range msg.Headers {
		attrs[k] = v
	}
	if msg.EventType != "" {
		attrs[messaging.HeaderEventType] = msg.EventType
	}
	if msg.ID != "" {
		attrs[attrMessageID] = msg.ID
	}
	return &pubsub.Message{Data: msg.Body, Attributes: attrs}
}

func fromPubSubMessage(m *pubsub.Message) messaging.Message {
	headers := make(map[string]string, len(m.Attributes))
	for k, v := range m.Attributes {
		headers[k] = v
	}
	id := headers[attrMessageID]
	if id == "" {
		id = m.ID
	}
	return messaging.Message{
		ID:          id,
		EventType:   headers[messaging.HeaderEventType],
		Body:        m.Data,
		Headers:     headers,
		Redelivered: m.DeliveryAttempt != nil && *m.DeliveryAttempt > 1,
	}
}
