package payments

import (
	"context"

	"gorm.io/gorm"

	"github.com/DarkRecklessness/ShopService/pkg/db/models"
)

// Repository defines persistence operations for the accounts table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// CreateAccount reports false when the account already existed.
	CreateAccount(ctx context.Context, userID int64) (bool, error)
	FindAccount(ctx context.Context, userID int64) (*models.Account, error)
	// Credit reports false when no account matched or the new balance would
	// overflow.
	Credit(ctx context.Context, userID, amount int64) (bool, error)
	// Debit subtracts amount only when the balance covers it and reports
	// whether it did.
	Debit(ctx context.Context, userID, amount int64) (bool, error)
}
