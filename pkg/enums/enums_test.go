package enums

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("PAID")
	require.NoError(t, err)
	require.Equal(t, OrderStatusPaid, status)
	require.True(t, status.IsTerminal())
	require.False(t, OrderStatusNew.IsTerminal())

	_, err = ParseOrderStatus("paid")
	require.Error(t, err)
}

func TestPaymentResultMapsToOrderStatus(t *testing.T) {
	require.Equal(t, OrderStatusPaid, PaymentResultPaid.OrderStatus())
	require.Equal(t, OrderStatusFailed, PaymentResultFailed.OrderStatus())
	require.False(t, PaymentResultStatus("PENDING").IsValid())
}

func TestEventTypes(t *testing.T) {
	eventType, err := ParseEventType("ORDER_CREATED")
	require.NoError(t, err)
	require.Equal(t, EventOrderCreated, eventType)
	require.False(t, EventType("ORDER_SHIPPED").IsValid())
}

func TestServiceKindTables(t *testing.T) {
	kind, err := ParseServiceKind(" Payments ")
	require.NoError(t, err)
	require.Equal(t, ServicePayments, kind)
	require.Equal(t, "payment_outbox", kind.OutboxTable())
	require.Equal(t, "payment_dead_letters", kind.DeadLetterTable())
	require.Equal(t, "payment-service", kind.Producer())

	require.Equal(t, "order_outbox", ServiceOrders.OutboxTable())
	require.Equal(t, "order-service", ServiceOrders.Producer())

	_, err = ParseServiceKind("billing")
	require.Error(t, err)
}
