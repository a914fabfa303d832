package orders

import (
	"context"
	"fmt"

	"github.com/DarkRecklessness/ShopService/internal/consumers"
	pkgerrors "github.com/DarkRecklessness/ShopService/pkg/errors"
	"github.com/DarkRecklessness/ShopService/pkg/messaging"
	"github.com/DarkRecklessness/ShopService/pkg/metrics"
	"github.com/DarkRecklessness/ShopService/pkg/outbox/payloads"
	"github.com/DarkRecklessness/ShopService/pkg/outbox/registry"
)

// PaymentResultApplier returns the inbound step for payment_results_queue.
func PaymentResultApplier(svc Service) consumers.ApplyFunc {
	return func(ctx context.Context, _ messaging.Message, payload registry.Payload) (string, error) {
		event, ok := payload.(*payloads.PaymentResultEvent)
		if !ok {
			return "", pkgerrors.New(pkgerrors.CodeInvalidMessage, fmt.Sprintf("unexpected payload %T", payload))
		}
		outcome, err := svc.ApplyPaymentResult(ctx, *event)
		if err != nil {
			return "", err
		}
		return outcomeLabel(outcome), nil
	}
}

func outcomeLabel(outcome FinalizeOutcome) string {
	switch outcome {
	case FinalizeApplied:
		return metrics.OutcomeProcessed
	case FinalizeAlreadyApplied:
		return metrics.OutcomeDuplicate
	default:
		return metrics.OutcomeIgnored
	}
}
