package outbox

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	dbpkg "github.com/DarkRecklessness/ShopService/pkg/db"
	"github.com/DarkRecklessness/ShopService/pkg/db/models"
	"github.com/DarkRecklessness/ShopService/pkg/enums"
)

const maxLastErrorLen = 1024

var errTxRequired = errors.New("transaction required")

// Repository reads and writes the outbox table owned by one service.
type Repository struct {
	db    *gorm.DB
	table string
}

func NewRepository(db *gorm.DB, kind enums.ServiceKind) *Repository {
	return &Repository{db: db, table: kind.OutboxTable()}
}

func (r *Repository) Table() string {
	return r.table
}

// Insert appends entry inside the caller's transaction and fills its id.
func (r *Repository) Insert(tx *gorm.DB, entry *models.OutboxEntry) error {
	if tx == nil {
		return errTxRequired
	}
	return tx.Table(r.table).Create(entry).Error
}

// ClaimNextTx locks the oldest unprocessed row for the lifetime of tx. Rows
// locked by other relays are skipped, and so are rows whose event type is not
// in eventTypes when any are given. It returns nil when nothing is pending.
func (r *Repository) ClaimNextTx(tx *gorm.DB, eventTypes ...enums.EventType) (*models.OutboxEntry, error) {
	if tx == nil {
		return nil, errTxRequired
	}
	query := tx.Table(r.table).Where("processed = ?", false)
	if len(eventTypes) > 0 {
		query = query.Where("event_type IN ?", eventTypes)
	}
	var rows []models.OutboxEntry
	err := dbpkg.SkipLocked(query).
		Order("id ASC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *Repository) MarkProcessedTx(tx *gorm.DB, id int64, at time.Time) error {
	if tx == nil {
		return errTxRequired
	}
	return tx.Table(r.table).
		Where("id = ? AND processed = ?", id, false).
		Updates(map[string]any{
			"processed":    true,
			"processed_at": at,
		}).Error
}

func (r *Repository) MarkFailedTx(tx *gorm.DB, id int64, cause error) error {
	if tx == nil {
		return errTxRequired
	}
	msg := "unknown error"
	if cause != nil {
		msg = truncateError(cause.Error())
	}
	return tx.Table(r.table).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_error":    msg,
			"attempt_count": gorm.Expr("attempt_count + 1"),
		}).Error
}

// BacklogStats describes the rows still waiting for the relay.
type BacklogStats struct {
	Pending      int64
	OldestID     int64
	OldestQueued time.Time
}

// OldestAge is zero when nothing is pending.
func (b BacklogStats) OldestAge(now time.Time) time.Duration {
	if b.Pending == 0 || b.OldestQueued.IsZero() {
		return 0
	}
	if age := now.Sub(b.OldestQueued); age > 0 {
		return age
	}
	return 0
}

func (r *Repository) Backlog(ctx context.Context) (BacklogStats, error) {
	var stats BacklogStats
	base := r.db.WithContext(ctx).Table(r.table).Where("processed = ?", false)

	if err := base.Session(&gorm.Session{}).Count(&stats.Pending).Error; err != nil {
		return stats, err
	}
	if stats.Pending == 0 {
		return stats, nil
	}

	var rows []models.OutboxEntry
	if err := base.Session(&gorm.Session{}).Order("id ASC").Limit(1).Find(&rows).Error; err != nil {
		return stats, err
	}
	if len(rows) > 0 {
		stats.OldestID = rows[0].ID
		stats.OldestQueued = rows[0].CreatedAt
	}
	return stats, nil
}

func truncateError(message string) string {
	if len(message) <= maxLastErrorLen {
		return message
	}
	return message[:maxLastErrorLen]
}
