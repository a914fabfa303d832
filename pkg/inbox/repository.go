package inbox

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/DarkRecklessness/ShopService/pkg/db/models"
)

var errTxRequired = errors.New("transaction required")

// Repository guards inbound processing with the payment_inbox table. A key
// that exists means the message was already applied.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ClaimTx inserts key inside tx. It returns false when the key was already
// present, in which case the caller must not apply any side effect.
func (r *Repository) ClaimTx(tx *gorm.DB, key string) (bool, error) {
	if tx == nil {
		return false, errTxRequired
	}
	if key == "" {
		return false, errors.New("inbox key is required")
	}
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_id"}},
		DoNothing: true,
	}).Create(&models.InboxEntry{MessageID: key})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeleteBefore removes keys received before cutoff and returns how many were
// removed. Replays older than the retention window are no longer deduplicated.
func (r *Repository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("received_at < ?", cutoff).Delete(&models.InboxEntry{})
	return res.RowsAffected, res.Error
}
