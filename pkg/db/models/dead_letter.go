package models

import (
	"time"

	"github.com/DarkRecklessness/ShopService/pkg/enums"
)

// DeadLetter keeps an inbound message that can never be processed so it can
// be acknowledged without being lost.
type DeadLetter struct {
	ID           int64                  `gorm:"column:id;primaryKey;autoIncrement"`
	Queue        string                 `gorm:"column:queue;not null"`
	MessageID    string                 `gorm:"column:message_id"`
	EventType    string                 `gorm:"column:event_type"`
	Body         string                 `gorm:"column:body;type:text;not null"`
	ErrorReason  enums.DeadLetterReason `gorm:"column:error_reason;type:varchar(32);not null"`
	ErrorMessage *string                `gorm:"column:error_message"`
	ReceivedAt   time.Time              `gorm:"column:received_at;autoCreateTime"`
}
