package pubsub

import (
	"context"
	"testing"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/stretchr/testify/require"

	"github.com/DarkRecklessness/ShopService/pkg/config"
	"github.com/DarkRecklessness/ShopService/pkg/messaging"
)

func TestResourceNames(t *testing.T) {
	require.Equal(t, "projects/shop/topics/orders_queue", resourceName("shop", "topics", "orders_queue"))
	require.Equal(t, "projects/shop/subscriptions/orders_queue-sub", resourceName("shop", "subscriptions", subscriptionID("orders_queue", "-sub")))
	require.Equal(t, "projects/other/topics/x", resourceName("shop", "topics", "projects/other/topics/x"))
	require.Equal(t, "", resourceName("", "topics", "orders_queue"))
	require.Equal(t, "", resourceName("shop", "topics", "  "))
}

func TestSubscriptionNames(t *testing.T) {
	names := subscriptionNames([]string{"orders_queue", "", "payment_results_queue"}, "-sub")
	require.Equal(t, []string{"orders_queue-sub", "payment_results_queue-sub"}, names)
}

func TestMessageRoundTrip(t *testing.T) {
	out := toPubSubMessage(messaging.Message{
		ID:        "order-service-8",
		EventType: "ORDER_CREATED",
		Body:      []byte(`{"order_id":8}`),
		Headers:   map[string]string{messaging.HeaderOutboxID: "8"},
	})
	require.Equal(t, "ORDER_CREATED", out.Attributes[messaging.HeaderEventType])
	require.Equal(t, "order-service-8", out.Attributes[attrMessageID])

	attempt := 2
	in := fromPubSubMessage(&pubsub.Message{
		ID:              "server-id",
		Data:            out.Data,
		Attributes:      out.Attributes,
		DeliveryAttempt: &attempt,
	})
	require.Equal(t, "order-service-8", in.ID)
	require.Equal(t, "ORDER_CREATED", in.EventType)
	require.True(t, in.Redelivered)
	id, ok := in.OutboxID()
	require.True(t, ok)
	require.EqualValues(t, 8, id)
}

func TestFromPubSubMessageFallsBackToServerID(t *testing.T) {
	in := fromPubSubMessage(&pubsub.Message{ID: "server-id", Data: []byte("{}")})
	require.Equal(t, "server-id", in.ID)
	require.False(t, in.Redelivered)
}

func TestNewClientRequiresProject(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{}, config.BrokerConfig{}, nil)
	require.ErrorIs(t, err, errProjectIDRequired)
}
