package payloads

import (
	"fmt"

	"github.com/DarkRecklessness/ShopService/pkg/enums"
)

// OrderCreatedEvent is emitted by the order service for every new order.
type OrderCreatedEvent struct {
	OrderID int64 `json:"order_id"`
	UserID  int64 `json:"user_id"`
	Amount  int64 `json:"amount"`
}

func (e OrderCreatedEvent) Validate() error {
	if e.OrderID <= 0 {
		return fmt.Errorf("order_id must be positive")
	}
	if e.UserID <= 0 {
		return fmt.Errorf("user_id must be positive")
	}
	if e.Amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	return nil
}

// InboxKey is the natural deduplication key the payment inbox stores.
func (e OrderCreatedEvent) InboxKey() string {
	return InboxKey(e.OrderID)
}

func InboxKey(orderID int64) string {
	return fmt.Sprintf("order_%d", orderID)
}

// PaymentResultEvent reports the outcome of debiting an order's amount.
type PaymentResultEvent struct {
	OrderID int64                     `json:"order_id"`
	Status  enums.PaymentResultStatus `json:"status"`
}

func (e PaymentResultEvent) Validate() error {
	if e.OrderID <= 0 {
		return fmt.Errorf("order_id must be positive")
	}
	if !e.Status.IsValid() {
		return fmt.Errorf("invalid status %q", e.Status)
	}
	return nil
}
