package enums

// DeadLetterReason records why a consumer parked a message instead of
// processing it.
type DeadLetterReason string

const (
	DeadLetterDecodeFailed     DeadLetterReason = "decode_failed"
	DeadLetterInvalidPayload   DeadLetterReason = "invalid_payload"
	DeadLetterUnsupportedEvent DeadLetterReason = "unsupported_event"
)

var validDeadLetterReasons = []DeadLetterReason{
	DeadLetterDecodeFailed,
	DeadLetterInvalidPayload,
	DeadLetterUnsupportedEvent,
}

func (r DeadLetterReason) IsValid() bool {
	for _, candidate := range validDeadLetterReasons {
		if candidate == r {
			return true
		}
	}
	return false
}
