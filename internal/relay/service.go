package relay

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/DarkRecklessness/ShopService/pkg/db/models"
	"github.com/DarkRecklessness/ShopService/pkg/enums"
	"github.com/DarkRecklessness/ShopService/pkg/logger"
	"github.com/DarkRecklessness/ShopService/pkg/messaging"
	"github.com/DarkRecklessness/ShopService/pkg/metrics"
	"github.com/DarkRecklessness/ShopService/pkg/outbox/registry"
)

const (
	defaultPollInterval = 500 * time.Millisecond
	defaultErrorBackoff = 5 * time.Second
	jitterWindow        = 250 * time.Millisecond
)

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type outboxRepository interface {
	ClaimNextTx(tx *gorm.DB, eventTypes ...enums.EventType) (*models.OutboxEntry, error)
	MarkProcessedTx(tx *gorm.DB, id int64, at time.Time) error
	MarkFailedTx(tx *gorm.DB, id int64, cause error) error
}

type registryResolver interface {
	Resolve(enums.EventType) (registry.EventDescriptor, error)
	EventTypes() []enums.EventType
}

type ServiceParams struct {
	Kind         enums.ServiceKind
	Logger       *logger.Logger
	DB           dbClient
	Broker       messaging.Publisher
	Repository   outboxRepository
	Registry     registryResolver
	Metrics      *metrics.RelayMetrics
	PollInterval time.Duration
	ErrorBackoff time.Duration
	// Name distinguishes relay instances in logs.
	Name string
}

// Service moves committed outbox rows to the broker one at a time. Several
// instances may run against the same table.
type Service struct {
	kind         enums.ServiceKind
	name         string
	logg         *logger.Logger
	db           dbClient
	broker       messaging.Publisher
	repo         outboxRepository
	registry     registryResolver
	routable     []enums.EventType
	metrics      *metrics.RelayMetrics
	pollInterval time.Duration
	errorBackoff time.Duration
	now          func() time.Time
}

var errPublishFailed = errors.New("outbox publish failed")

func NewService(params ServiceParams) (*Service, error) {
	if !params.Kind.IsValid() {
		return nil, fmt.Errorf("unsupported service kind %q", params.Kind)
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Broker == nil {
		return nil, errors.New("broker is required")
	}
	if params.Repository == nil {
		return nil, errors.New("outbox repository is required")
	}
	if params.Registry == nil {
		return nil, errors.New("event registry is required")
	}

	poll := params.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}
	backoff := params.ErrorBackoff
	if backoff <= 0 {
		backoff = defaultErrorBackoff
	}
	name := params.Name
	if name == "" {
		name = "relay-" + string(params.Kind)
	}

	return &Service{
		kind:         params.Kind,
		name:         name,
		logg:         params.Logger,
		db:           params.DB,
		broker:       params.Broker,
		repo:         params.Repository,
		registry:     params.Registry,
		routable:     params.Registry.EventTypes(),
		metrics:      params.Metrics,
		pollInterval: poll,
		errorBackoff: backoff,
		now:          func() time.Time { return time.Now().UTC() },
	}, nil
}

// Run loops until ctx is cancelled. Failed iterations are logged and retried
// after the fixed error backoff; an empty outbox sleeps for the poll interval.
func (s *Service) Run(ctx context.Context) error {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"relay":        s.name,
		"service_kind": string(s.kind),
	})
	s.logg.Info(ctx, "outbox relay started")

	for {
		if ctx.Err() != nil {
			s.logg.Info(ctx, "outbox relay stopped")
			return ctx.Err()
		}

		published, err := s.relayNext(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			if !errors.Is(err, errPublishFailed) {
				s.logg.Error(ctx, "outbox relay iteration failed", err)
			}
			_ = s.sleep(ctx, s.errorBackoff)
			continue
		}
		if !published {
			_ = s.sleep(ctx, withJitter(s.pollInterval))
		}
	}
}

// relayNext claims the oldest pending row it can route, publishes it and waits for the
// broker's confirmation, then marks it processed, all in one transaction. A
// failed publish is recorded on the row and committed so the lock is released.
func (s *Service) relayNext(ctx context.Context) (bool, error) {
	claimed := false
	var publishErr error

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		entry, err := s.repo.ClaimNextTx(tx, s.routable...)
		if err != nil {
			return fmt.Errorf("claim outbox row: %w", err)
		}
		if entry == nil {
			return nil
		}
		claimed = true

		logCtx := s.logg.WithFields(ctx, entryFields(*entry))

		desc, err := s.registry.Resolve(entry.EventType)
		if err != nil {
			publishErr = err
			s.logg.Error(logCtx, "outbox row has no route", err)
			if markErr := s.repo.MarkFailedTx(tx, entry.ID, err); markErr != nil {
				return fmt.Errorf("mark failure %d: %w", entry.ID, markErr)
			}
			return nil
		}
		logCtx = s.logg.WithField(logCtx, "queue", desc.Queue)

		start := time.Now()
		if err := s.broker.Publish(ctx, desc.Queue, s.buildMessage(*entry)); err != nil {
			publishErr = err
			s.metrics.IncFailure(string(entry.EventType))
			s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "outbox publish failed")
			if markErr := s.repo.MarkFailedTx(tx, entry.ID, err); markErr != nil {
				return fmt.Errorf("mark failure %d: %w", entry.ID, markErr)
			}
			return nil
		}
		s.metrics.ObservePublish(time.Since(start))

		if err := s.repo.MarkProcessedTx(tx, entry.ID, s.now()); err != nil {
			return fmt.Errorf("mark processed %d: %w", entry.ID, err)
		}
		s.metrics.IncPublished(string(entry.EventType))
		s.logg.Info(logCtx, "outbox event published")
		return nil
	})
	if err != nil {
		return claimed, err
	}
	if publishErr != nil {
		return claimed, fmt.Errorf("%w: %w", errPublishFailed, publishErr)
	}
	return claimed, nil
}

func (s *Service) buildMessage(entry models.OutboxEntry) messaging.Message {
	producer := s.kind.Producer()
	return messaging.Message{
		ID:        fmt.Sprintf("%s-%d", producer, entry.ID),
		EventType: string(entry.EventType),
		Body:      []byte(entry.Payload),
		Headers: map[string]string{
			messaging.HeaderEventType: string(entry.EventType),
			messaging.HeaderOutboxID:  strconv.FormatInt(entry.ID, 10),
			messaging.HeaderProducer:  producer,
			messaging.HeaderCreatedAt: entry.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	}
}

func entryFields(entry models.OutboxEntry) map[string]any {
	fields := map[string]any{
		"outbox_id":     entry.ID,
		"event_type":    entry.EventType,
		"attempt_count": entry.AttemptCount,
	}
	if entry.LastError != nil {
		fields["last_error"] = *entry.LastError
	}
	return fields
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// withJitter spreads idle polls of concurrent relays by up to half of d,
// capped at jitterWindow.
func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	window := min(d/2, jitterWindow)
	if window <= 0 {
		return d
	}
	return d + time.Duration(rand.Int64N(int64(window)))
}
