package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/DarkRecklessness/ShopService/pkg/enums"
)

// OutboxEntry is one pending or relayed integration event. Each service owns
// its own outbox table, so queries pick the table via ServiceKind.OutboxTable.
type OutboxEntry struct {
	ID           int64           `gorm:"column:id;primaryKey;autoIncrement"`
	EventType    enums.EventType `gorm:"column:event_type;type:varchar(64);not null"`
	Payload      datatypes.JSON  `gorm:"column:payload;not null"`
	Processed    bool            `gorm:"column:processed;not null;default:false;index:idx_outbox_pending,priority:1"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime;index:idx_outbox_pending,priority:2"`
	ProcessedAt  *time.Time      `gorm:"column:processed_at"`
	AttemptCount int             `gorm:"column:attempt_count;not null;default:0"`
	LastError    *string         `gorm:"column:last_error"`
}
