package registry

import (
	"fmt"
	"slices"

	"github.com/DarkRecklessness/ShopService/pkg/config"
	"github.com/DarkRecklessness/ShopService/pkg/enums"
	"github.com/DarkRecklessness/ShopService/pkg/outbox/payloads"
)

// Payload is implemented by every registered event body.
type Payload interface {
	Validate() error
}

// EventDescriptor links an event type to its queue and payload schema.
type EventDescriptor struct {
	EventType      enums.EventType
	Queue          string
	PayloadFactory func() Payload
}

// EventRegistry maps each supported event type to its descriptor.
type EventRegistry struct {
	byType  map[enums.EventType]EventDescriptor
	byQueue map[string]EventDescriptor
}

// NonRetryableError marks a message that will never process successfully.
type NonRetryableError struct {
	Reason enums.DeadLetterReason
	Err    error
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error {
	return e.Err
}

func NewNonRetryableError(reason enums.DeadLetterReason, err error) NonRetryableError {
	return NonRetryableError{Reason: reason, Err: err}
}

// NewEventRegistry builds the registry with the configured queue names.
func NewEventRegistry(cfg config.BrokerConfig) (*EventRegistry, error) {
	if cfg.OrdersQueue == "" {
		return nil, fmt.Errorf("orders queue is required")
	}
	if cfg.PaymentResultsQueue == "" {
		return nil, fmt.Errorf("payment results queue is required")
	}
	if cfg.OrdersQueue == cfg.PaymentResultsQueue {
		return nil, fmt.Errorf("orders and payment results queues must differ")
	}

	reg := &EventRegistry{
		byType:  make(map[enums.EventType]EventDescriptor),
		byQueue: make(map[string]EventDescriptor),
	}
	reg.register(EventDescriptor{
		EventType:      enums.EventOrderCreated,
		Queue:          cfg.OrdersQueue,
		PayloadFactory: func() Payload { return &payloads.OrderCreatedEvent{} },
	})
	reg.register(EventDescriptor{
		EventType:      enums.EventPaymentResult,
		Queue:          cfg.PaymentResultsQueue,
		PayloadFactory: func() Payload { return &payloads.PaymentResultEvent{} },
	})
	return reg, nil
}

func (r *EventRegistry) register(desc EventDescriptor) {
	r.byType[desc.EventType] = desc
	r.byQueue[desc.Queue] = desc
}

// Resolve returns the routing for an outbox row's event type.
func (r *EventRegistry) Resolve(eventType enums.EventType) (EventDescriptor, error) {
	desc, ok := r.byType[eventType]
	if !ok {
		return EventDescriptor{}, NewNonRetryableError(enums.DeadLetterUnsupportedEvent, fmt.Errorf("unsupported event type %q", eventType))
	}
	return desc, nil
}

// EventTypes lists every routable event type in a stable order.
func (r *EventRegistry) EventTypes() []enums.EventType {
	types := make([]enums.EventType, 0, len(r.byType))
	for eventType := range r.byType {
		types = append(types, eventType)
	}
	slices.Sort(types)
	return types
}

// QueueFor returns the queue consumed for the given inbound event type.
func (r *EventRegistry) QueueFor(eventType enums.EventType) (string, error) {
	desc, err := r.Resolve(eventType)
	if err != nil {
		return "", err
	}
	return desc.Queue, nil
}
