package models

import (
	"time"

	"github.com/DarkRecklessness/ShopService/pkg/enums"
)

// Order is owned by the order service. Amount is in minor currency units.
type Order struct {
	ID          int64             `gorm:"column:id;primaryKey;autoIncrement"`
	UserID      int64             `gorm:"column:user_id;not null;index"`
	Amount      int64             `gorm:"column:amount;not null"`
	Description string            `gorm:"column:description;not null;default:''"`
	Status      enums.OrderStatus `gorm:"column:status;type:varchar(16);not null;default:'NEW'"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string {
	return "orders"
}
