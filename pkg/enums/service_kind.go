package enums

import (
	"fmt"
	"strings"
)

// ServiceKind identifies which service owns a database and its outbox.
type ServiceKind string

const (
	ServiceOrders   ServiceKind = "orders"
	ServicePayments ServiceKind = "payments"
)

var validServiceKinds = []ServiceKind{
	ServiceOrders,
	ServicePayments,
}

func (k ServiceKind) String() string {
	return string(k)
}

func (k ServiceKind) IsValid() bool {
	for _, candidate := range validServiceKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// OutboxTable is the outbox owned by the service.
func (k ServiceKind) OutboxTable() string {
	if k == ServicePayments {
		return "payment_outbox"
	}
	return "order_outbox"
}

// DeadLetterTable stores messages the service's consumer could not process.
func (k ServiceKind) DeadLetterTable() string {
	if k == ServicePayments {
		return "payment_dead_letters"
	}
	return "order_dead_letters"
}

// Producer is the name stamped on outgoing message metadata.
func (k ServiceKind) Producer() string {
	if k == ServicePayments {
		return "payment-service"
	}
	return "order-service"
}

func ParseServiceKind(value string) (ServiceKind, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validServiceKinds {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid service kind %q", value)
}
