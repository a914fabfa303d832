package orders

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/DarkRecklessness/ShopService/pkg/db/models"
	"github.com/DarkRecklessness/ShopService/pkg/enums"
	pkgerrors "github.com/DarkRecklessness/ShopService/pkg/errors"
	"github.com/DarkRecklessness/ShopService/pkg/logger"
	"github.com/DarkRecklessness/ShopService/pkg/outbox"
	"github.com/DarkRecklessness/ShopService/pkg/outbox/payloads"
)

const maxDescriptionLen = 1024

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) (int64, error)
}

// Service defines the order commands and the payment-result finalizer.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error)
	GetOrder(ctx context.Context, id int64) (*OrderDTO, error)
	ListUserOrders(ctx context.Context, userID int64) ([]OrderDTO, error)
	ApplyPaymentResult(ctx context.Context, event payloads.PaymentResultEvent) (FinalizeOutcome, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
}

// NewService builds the order service with the required dependencies.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:   repo,
		tx:     tx,
		outbox: outbox,
		logg:   logg,
	}, nil
}

// CreateOrder stores a NEW order and its ORDER_CREATED event in one
// transaction.
func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:      input.UserID,
		Amount:      input.Amount,
		Description: input.Description,
		Status:      enums.OrderStatusNew,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := s.repo.WithTx(tx).Create(ctx, order)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order")
		}
		_, err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType: enums.EventOrderCreated,
			Data: payloads.OrderCreatedEvent{
				OrderID: created.ID,
				UserID:  created.UserID,
				Amount:  created.Amount,
			},
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue order created event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithOrderID(s.logg.WithUserID(ctx, order.UserID), order.ID)
	s.logg.Info(s.logg.WithField(logCtx, "amount", order.Amount), "order created")
	return &CreateOrderResult{OrderID: order.ID, Status: order.Status}, nil
}

func validateCreate(input CreateOrderInput) error {
	details := map[string]string{}
	if input.UserID <= 0 {
		details["user_id"] = "must be a positive integer"
	}
	if input.Amount <= 0 {
		details["amount"] = "must be a positive integer"
	}
	if utf8.RuneCountInString(input.Description) > maxDescriptionLen {
		details["description"] = fmt.Sprintf("must be at most %d characters", maxDescriptionLen)
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid order").WithDetails(details)
	}
	return nil
}

func (s *service) GetOrder(ctx context.Context, id int64) (*OrderDTO, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id must be positive")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	dto := FromModel(*order)
	return &dto, nil
}

func (s *service) ListUserOrders(ctx context.Context, userID int64) ([]OrderDTO, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id must be positive")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	out := make([]OrderDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, nil
}

// ApplyPaymentResult finalizes a NEW order. Results for orders that already
// left NEW never change them; the outcome says why.
func (s *service) ApplyPaymentResult(ctx context.Context, event payloads.PaymentResultEvent) (FinalizeOutcome, error) {
	if err := event.Validate(); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment result")
	}
	target := event.Status.OrderStatus()

	var outcome FinalizeOutcome
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		updated, err := repo.UpdateStatusIfNew(ctx, event.OrderID, target)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if updated {
			outcome = FinalizeApplied
			return nil
		}

		current, err := repo.FindByID(ctx, event.OrderID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			outcome = FinalizeMissing
		case err != nil:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		case current.Status == target:
			outcome = FinalizeAlreadyApplied
		default:
			outcome = FinalizeStale
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	logCtx := s.logg.WithFields(s.logg.WithOrderID(ctx, event.OrderID), map[string]any{
		"payment_status": event.Status,
		"outcome":        outcome,
	})
	switch outcome {
	case FinalizeApplied:
		s.logg.Info(logCtx, "order finalized")
	case FinalizeAlreadyApplied:
		s.logg.Info(logCtx, "payment result already applied")
	case FinalizeStale:
		s.logg.Warn(logCtx, "stale payment result ignored")
	case FinalizeMissing:
		s.logg.Warn(logCtx, "payment result for missing order dropped")
	}
	return outcome, nil
}
