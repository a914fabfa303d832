package enums

import "fmt"

// EventType names the integration events stored in the outboxes.
type EventType string

const (
	EventOrderCreated  EventType = "ORDER_CREATED"
	EventPaymentResult EventType = "PAYMENT_RESULT"
)

var validEventTypes = []EventType{
	EventOrderCreated,
	EventPaymentResult,
}

func (e EventType) String() string {
	return string(e)
}

// IsValid reports whether the value matches a known event type.
func (e EventType) IsValid() bool {
	for _, candidate := range validEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

func ParseEventType(value string) (EventType, error) {
	for _, candidate := range validEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
