package models

import "time"

// Account holds one user's balance. The check constraint keeps the balance
// from going negative even if a conditional debit is bypassed.
type Account struct {
	UserID    int64     `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	Balance   int64     `gorm:"column:balance;not null;default:0;check:chk_accounts_balance_non_negative,balance >= 0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Account) TableName() string {
	return "accounts"
}
