package enums

import "fmt"

// PaymentResultStatus is the outcome carried by a PAYMENT_RESULT event.
type PaymentResultStatus string

const (
	PaymentResultPaid   PaymentResultStatus = "PAID"
	PaymentResultFailed PaymentResultStatus = "FAILED"
)

var validPaymentResultStatuses = []PaymentResultStatus{
	PaymentResultPaid,
	PaymentResultFailed,
}

func (s PaymentResultStatus) String() string {
	return string(s)
}

func (s PaymentResultStatus) IsValid() bool {
	for _, candidate := range validPaymentResultStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// OrderStatus maps the payment outcome onto the order it settles.
func (s PaymentResultStatus) OrderStatus() OrderStatus {
	if s == PaymentResultPaid {
		return OrderStatusPaid
	}
	return OrderStatusFailed
}

func ParsePaymentResultStatus(value string) (PaymentResultStatus, error) {
	for _, candidate := range validPaymentResultStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment result status %q", value)
}
