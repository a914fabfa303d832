package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DarkRecklessness/ShopService/pkg/config"
	"github.com/DarkRecklessness/ShopService/pkg/enums"
	"github.com/DarkRecklessness/ShopService/pkg/messaging"
	"github.com/DarkRecklessness/ShopService/pkg/outbox/payloads"
)

func newTestRegistry(t *testing.T) *EventRegistry {
	t.Helper()
	reg, err := NewEventRegistry(config.BrokerConfig{
		OrdersQueue:         "orders_queue",
		PaymentResultsQueue: "payment_results_queue",
	})
	require.NoError(t, err)
	return reg
}

func requireReason(t *testing.T, err error, reason enums.DeadLetterReason) {
	t.Helper()
	var nonRetryable NonRetryableError
	require.True(t, errors.As(err, &nonRetryable), "expected NonRetryableError, got %v", err)
	require.Equal(t, reason, nonRetryable.Reason)
}

func TestNewEventRegistryValidatesQueues(t *testing.T) {
	_, err := NewEventRegistry(config.BrokerConfig{PaymentResultsQueue: "results"})
	require.Error(t, err)
	_, err = NewEventRegistry(config.BrokerConfig{OrdersQueue: "same", PaymentResultsQueue: "same"})
	require.Error(t, err)
}

func TestResolveRoutesEventTypes(t *testing.T) {
	reg := newTestRegistry(t)

	desc, err := reg.Resolve(enums.EventOrderCreated)
	require.NoError(t, err)
	require.Equal(t, "orders_queue", desc.Queue)

	queue, err := reg.QueueFor(enums.EventPaymentResult)
	require.NoError(t, err)
	require.Equal(t, "payment_results_queue", queue)

	_, err = reg.Resolve("ORDER_SHIPPED")
	requireReason(t, err, enums.DeadLetterUnsupportedEvent)

	require.Equal(t, []enums.EventType{enums.EventOrderCreated, enums.EventPaymentResult}, reg.EventTypes())
}

func TestDecodeOrderCreated(t *testing.T) {
	reg := newTestRegistry(t)
	payload, err := reg.Decode("orders_queue", messaging.Message{
		EventType: "ORDER_CREATED",
		Body:      []byte(`{"order_id":5,"user_id":7,"amount":40}`),
	})
	require.NoError(t, err)

	event, ok := payload.(*payloads.OrderCreatedEvent)
	require.True(t, ok, "unexpected payload type %T", payload)
	require.Equal(t, payloads.OrderCreatedEvent{OrderID: 5, UserID: 7, Amount: 40}, *event)
}

func TestDecodeWithoutEventTypeHeaderUsesQueue(t *testing.T) {
	reg := newTestRegistry(t)
	payload, err := reg.Decode("payment_results_queue", messaging.Message{
		Body: []byte(`{"order_id":5,"status":"PAID"}`),
	})
	require.NoError(t, err)
	require.Equal(t, enums.PaymentResultPaid, payload.(*payloads.PaymentResultEvent).Status)
}

func TestDecodeRejections(t *testing.T) {
	reg := newTestRegistry(t)

	tests := []struct {
		name   string
		queue  string
		msg    messaging.Message
		reason enums.DeadLetterReason
	}{
		{"unknown queue", "audit", messaging.Message{Body: []byte(`{}`)}, enums.DeadLetterUnsupportedEvent},
		{"wrong event type", "orders_queue", messaging.Message{EventType: "PAYMENT_RESULT", Body: []byte(`{"order_id":1,"status":"PAID"}`)}, enums.DeadLetterUnsupportedEvent},
		{"empty body", "orders_queue", messaging.Message{Body: []byte("  ")}, enums.DeadLetterDecodeFailed},
		{"null body", "orders_queue", messaging.Message{Body: []byte("null")}, enums.DeadLetterDecodeFailed},
		{"malformed json", "orders_queue", messaging.Message{Body: []byte(`{"order_id":`)}, enums.DeadLetterDecodeFailed},
		{"wrong field type", "orders_queue", messaging.Message{Body: []byte(`{"order_id":"one","user_id":1,"amount":1}`)}, enums.DeadLetterDecodeFailed},
		{"non-positive amount", "orders_queue", messaging.Message{Body: []byte(`{"order_id":1,"user_id":1,"amount":0}`)}, enums.DeadLetterInvalidPayload},
		{"bad status", "payment_results_queue", messaging.Message{Body: []byte(`{"order_id":1,"status":"MAYBE"}`)}, enums.DeadLetterInvalidPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Decode(tt.queue, tt.msg)
			requireReason(t, err, tt.reason)
		})
	}
}
