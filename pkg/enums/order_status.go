package enums

import "fmt"

// OrderStatus is the lifecycle state of an order. NEW is the only state a
// payment result may move out of.
type OrderStatus string

const (
	OrderStatusNew    OrderStatus = "NEW"
	OrderStatusPaid   OrderStatus = "PAID"
	OrderStatusFailed OrderStatus = "FAILED"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusNew,
	OrderStatusPaid,
	OrderStatusFailed,
}

func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the order already received its payment result.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusPaid || s == OrderStatusFailed
}

func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
