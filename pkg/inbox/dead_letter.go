package inbox

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/DarkRecklessness/ShopService/pkg/db/models"
	"github.com/DarkRecklessness/ShopService/pkg/enums"
)

const (
	maxDeadLetterErrorLen = 1024
	maxDeadLetterBodyLen  = 64 * 1024
)

// DeadLetterRepository parks inbound messages that can never be processed.
type DeadLetterRepository struct {
	db    *gorm.DB
	table string
}

func NewDeadLetterRepository(db *gorm.DB, kind enums.ServiceKind) *DeadLetterRepository {
	return &DeadLetterRepository{db: db, table: kind.DeadLetterTable()}
}

func (r *DeadLetterRepository) Insert(ctx context.Context, entry models.DeadLetter) error {
	if entry.ErrorMessage != nil {
		msg := truncate(*entry.ErrorMessage, maxDeadLetterErrorLen)
		entry.ErrorMessage = &msg
	}
	entry.Body = truncate(entry.Body, maxDeadLetterBodyLen)
	return r.db.WithContext(ctx).Table(r.table).Create(&entry).Error
}

// List returns the newest dead letters first.
func (r *DeadLetterRepository) List(ctx context.Context, limit int) ([]models.DeadLetter, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.DeadLetter
	err := r.db.WithContext(ctx).
		Table(r.table).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *DeadLetterRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Table(r.table).Count(&count).Error
	return count, err
}

// truncate cuts message to at most max bytes without splitting a rune.
func truncate(message string, max int) string {
	if len(message) <= max {
		return message
	}
	return strings.ToValidUTF8(message[:max], "")
}
