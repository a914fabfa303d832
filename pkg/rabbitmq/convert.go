package rabbitmq

import (
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/DarkRecklessness/ShopService/pkg/messaging"
)

func toPublishing(msg messaging.Message) amqp.Publishing {
	headers := amqp.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	if msg.EventType != "" {
		headers[messaging.HeaderEventType] = msg.EventType
	}

	timestamp := time.Now().UTC()
	if created, ok := msg.CreatedAt(); ok {
		timestamp = created
	}

	return amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  messaging.ContentTypeJSON,
		MessageId:    msg.ID,
		Type:         msg.EventType,
		Timestamp:    timestamp,
		Headers:      headers,
		Body:         msg.Body,
	}
}

func fromDelivery(d amqp.Delivery) messaging.Message {
	headers := make(map[string]string, len(d.Headers))
	for k, v := range d.Headers {
		switch typed := v.(type) {
		case string:
			headers[k] = typed
		case []byte:
			headers[k] = string(typed)
		default:
			headers[k] = fmt.Sprint(typed)
		}
	}

	eventType := headers[messaging.HeaderEventType]
	if eventType == "" {
		eventType = d.Type
	}

	return messaging.Message{
		ID:          d.MessageId,
		EventType:   eventType,
		Body:        d.Body,
		Headers:     headers,
		Redelivered: d.Redelivered,
	}
}
