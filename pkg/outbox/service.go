package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/DarkRecklessness/ShopService/pkg/db/models"
	"github.com/DarkRecklessness/ShopService/pkg/enums"
	"github.com/DarkRecklessness/ShopService/pkg/logger"
)

// DomainEvent is what command handlers and consumers hand to Emit.
type DomainEvent struct {
	EventType enums.EventType
	Data      any
}

// Service writes integration events into the outbox of the caller's
// transaction, so they commit or roll back with the business change.
type Service struct {
	repo *Repository
	logg *logger.Logger
}

func NewService(repo *Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg}
}

// Emit returns the id assigned to the new outbox row.
func (s *Service) Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) (int64, error) {
	if tx == nil {
		return 0, errTxRequired
	}
	if !event.EventType.IsValid() {
		return 0, fmt.Errorf("unsupported event type %q", event.EventType)
	}
	if event.Data == nil {
		return 0, fmt.Errorf("payload missing for %s", event.EventType)
	}

	payload, err := json.Marshal(event.Data)
	if err != nil {
		return 0, fmt.Errorf("encode %s payload: %w", event.EventType, err)
	}

	entry := models.OutboxEntry{
		EventType: event.EventType,
		Payload:   datatypes.JSON(payload),
	}
	if err := s.repo.Insert(tx, &entry); err != nil {
		return 0, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"outbox_id":    entry.ID,
			"outbox_table": s.repo.Table(),
			"event_type":   event.EventType,
		})
		s.logg.Info(logCtx, "outbox event queued")
	}
	return entry.ID, nil
}
