package models

import "time"

// InboxEntry marks an inbound message as consumed. The primary key is the
// idempotency key, so a second insert for the same message is a no-op.
type InboxEntry struct {
	MessageID  string    `gorm:"column:message_id;primaryKey;type:varchar(255)"`
	ReceivedAt time.Time `gorm:"column:received_at;autoCreateTime;index"`
}

func (InboxEntry) TableName() string {
	return "payment_inbox"
}
