package payments

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/DarkRecklessness/ShopService/pkg/enums"
	pkgerrors "github.com/DarkRecklessness/ShopService/pkg/errors"
	"github.com/DarkRecklessness/ShopService/pkg/logger"
	"github.com/DarkRecklessness/ShopService/pkg/outbox"
	"github.com/DarkRecklessness/ShopService/pkg/outbox/payloads"
)

// ConsumerName scopes the inbox hint keys written by this service.
const ConsumerName = "payments"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) (int64, error)
}

type inboxClaimer interface {
	ClaimTx(tx *gorm.DB, key string) (bool, error)
}

type hintCache interface {
	Seen(ctx context.Context, consumer, key string) (bool, error)
	MarkProcessed(ctx context.Context, consumer, key string) error
}

// Service defines account commands and the ORDER_CREATED processor.
type Service interface {
	CreateAccount(ctx context.Context, userID int64) (*CreateAccountResult, error)
	TopUp(ctx context.Context, input TopUpInput) (*AccountDTO, error)
	GetBalance(ctx context.Context, userID int64) (*AccountDTO, error)
	ProcessOrderCreated(ctx context.Context, event payloads.OrderCreatedEvent) (*ProcessResult, error)
}

type ServiceParams struct {
	Repository Repository
	Tx         txRunner
	Inbox      inboxClaimer
	Outbox     outboxPublisher
	Logger     *logger.Logger
	// Hints is optional. Without it every delivery goes to the database inbox.
	Hints hintCache
}

type service struct {
	repo   Repository
	tx     txRunner
	inbox  inboxClaimer
	outbox outboxPublisher
	logg   *logger.Logger
	hints  hintCache
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("accounts repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Inbox == nil {
		return nil, fmt.Errorf("inbox repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:   params.Repository,
		tx:     params.Tx,
		inbox:  params.Inbox,
		outbox: params.Outbox,
		logg:   params.Logger,
		hints:  params.Hints,
	}, nil
}

// CreateAccount opens a zero-balance account. An existing account is left
// untouched and returned with Created=false.
func (s *service) CreateAccount(ctx context.Context, userID int64) (*CreateAccountResult, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id must be positive")
	}
	created, err := s.repo.CreateAccount(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create account")
	}
	account, err := s.repo.FindAccount(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}
	if created {
		s.logg.Info(s.logg.WithUserID(ctx, userID), "account created")
	}
	return &CreateAccountResult{AccountDTO: FromModel(*account), Created: created}, nil
}

func (s *service) TopUp(ctx context.Context, input TopUpInput) (*AccountDTO, error) {
	details := map[string]string{}
	if input.UserID <= 0 {
		details["user_id"] = "must be a positive integer"
	}
	if input.Amount <= 0 {
		details["amount"] = "must be a positive integer"
	}
	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid top up").WithDetails(details)
	}

	var dto AccountDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ok, err := repo.Credit(ctx, input.UserID, input.Amount)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit account")
		}
		account, err := repo.FindAccount(ctx, input.UserID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid top up").
				WithDetails(map[string]string{"amount": "would overflow the account balance"})
		}
		dto = FromModel(*account)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(s.logg.WithUserID(ctx, input.UserID), map[string]any{
		"amount":  input.Amount,
		"balance": dto.Balance,
	})
	s.logg.Info(logCtx, "account topped up")
	return &dto, nil
}

func (s *service) GetBalance(ctx context.Context, userID int64) (*AccountDTO, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id must be positive")
	}
	account, err := s.repo.FindAccount(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}
	dto := FromModel(*account)
	return &dto, nil
}

// ProcessOrderCreated claims the order's inbox key, attempts the debit and
// queues the PAYMENT_RESULT, all in one transaction. A claimed key means the
// order was handled before and nothing is changed.
func (s *service) ProcessOrderCreated(ctx context.Context, event payloads.OrderCreatedEvent) (*ProcessResult, error) {
	if err := event.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order created event")
	}
	key := event.InboxKey()
	logCtx := s.logg.WithFields(s.logg.WithOrderID(s.logg.WithUserID(ctx, event.UserID), event.OrderID), map[string]any{
		"inbox_key": key,
		"amount":    event.Amount,
	})

	if s.seen(logCtx, key) {
		s.logg.Info(logCtx, "order already processed (hint)")
		return &ProcessResult{OrderID: event.OrderID, Duplicate: true}, nil
	}

	result := &ProcessResult{OrderID: event.OrderID}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		claimed, err := s.inbox.ClaimTx(tx, key)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim inbox key")
		}
		if !claimed {
			result.Duplicate = true
			return nil
		}

		debited, err := s.repo.WithTx(tx).Debit(ctx, event.UserID, event.Amount)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit account")
		}
		result.Status = enums.PaymentResultFailed
		if debited {
			result.Status = enums.PaymentResultPaid
		}

		result.OutboxID, err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType: enums.EventPaymentResult,
			Data: payloads.PaymentResultEvent{
				OrderID: event.OrderID,
				Status:  result.Status,
			},
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue payment result")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.markSeen(logCtx, key)
	if result.Duplicate {
		s.logg.Info(logCtx, "order already processed")
		return result, nil
	}
	s.logg.Info(s.logg.WithField(logCtx, "payment_status", result.Status), "order payment processed")
	return result, nil
}

func (s *service) seen(ctx context.Context, key string) bool {
	if s.hints == nil {
		return false
	}
	seen, err := s.hints.Seen(ctx, ConsumerName, key)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "inbox hint lookup failed")
		return false
	}
	return seen
}

func (s *service) markSeen(ctx context.Context, key string) {
	if s.hints == nil {
		return
	}
	if err := s.hints.MarkProcessed(ctx, ConsumerName, key); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "inbox hint write failed")
	}
}
