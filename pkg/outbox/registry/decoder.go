package registry

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/DarkRecklessness/ShopService/pkg/enums"
	"github.com/DarkRecklessness/ShopService/pkg/messaging"
)

// Decode turns a delivery from queue into its validated payload. Every error
// it returns is a NonRetryableError carrying the dead-letter reason.
func (r *EventRegistry) Decode(queue string, msg messaging.Message) (Payload, error) {
	desc, ok := r.byQueue[queue]
	if !ok {
		return nil, NewNonRetryableError(enums.DeadLetterUnsupportedEvent, fmt.Errorf("no event registered for queue %q", queue))
	}

	// producers that predate the event_type header are routed by queue alone
	if msg.EventType != "" && msg.EventType != string(desc.EventType) {
		return nil, NewNonRetryableError(enums.DeadLetterUnsupportedEvent,
			fmt.Errorf("unexpected event type %q on %s (want %s)", msg.EventType, queue, desc.EventType))
	}

	trimmed := bytes.TrimSpace(msg.Body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, NewNonRetryableError(enums.DeadLetterDecodeFailed, fmt.Errorf("payload missing for %s", desc.EventType))
	}

	payload := desc.PayloadFactory()
	if err := json.Unmarshal(trimmed, payload); err != nil {
		return nil, NewNonRetryableError(enums.DeadLetterDecodeFailed, fmt.Errorf("decode %s payload: %w", desc.EventType, err))
	}
	if err := payload.Validate(); err != nil {
		return nil, NewNonRetryableError(enums.DeadLetterInvalidPayload, fmt.Errorf("invalid %s payload: %w", desc.EventType, err))
	}
	return payload, nil
}
