package payments

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

// OrderCreatedApplier returns the inbound step for orders_queue.
func OrderCreatedApplier(svc Service) consumers.ApplyFunc {
	return func(ctx context.Context, _ messaging.Message, payload registry.Payload) (string, error) {
		event, ok := payload.(*payloads.OrderCreatedEvent)
		if !ok {
			return "", pkgerrors.New(pkgerrors.CodeInvalidMessage, fmt.Sprintf("unexpected payload %T", payload))
		}
		result, err := svc.ProcessOrderCreated(ctx, *event)
		if err != nil {
			return "", err
		}
		if result.Duplicate {
			return metrics.OutcomeDuplicate, nil
		}
		return metrics.OutcomeProcessed, nil
	}
}
