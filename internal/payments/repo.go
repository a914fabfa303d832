package payments

import (
	"context"
	"math"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/DarkRecklessness/ShopService/internal/repo"
	"github.com/DarkRecklessness/ShopService/pkg/db/models"
)

type repository struct {
	repo.Base
}

// NewRepository builds an accounts repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Bind(tx)}
}

func (r *repository) CreateAccount(ctx context.Context, userID int64) (bool, error) {
	res := r.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&models.Account{UserID: userID, Balance: 0})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) FindAccount(ctx context.Context, userID int64) (*models.Account, error) {
	var account models.Account
	if err := r.DB(ctx).Where("user_id = ?", userID).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) Credit(ctx context.Context, userID, amount int64) (bool, error) {
	res := r.DB(ctx).
		Model(&models.Account{}).
		Where("user_id = ? AND balance <= ?", userID, math.MaxInt64-amount).
		Update("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) Debit(ctx context.Context, userID, amount int64) (bool, error) {
	res := r.DB(ctx).
		Model(&models.Account{}).
		Where("user_id = ? AND balance >= ?", userID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
