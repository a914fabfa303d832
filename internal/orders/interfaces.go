package orders

import (
	"context"

	"gorm.io/gorm"

	"github.com/DarkRecklessness/ShopService/pkg/db/models"
	"github.com/DarkRecklessness/ShopService/pkg/enums"
)

// Repository defines persistence operations for the orders table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id int64) (*models.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Order, error)
	// UpdateStatusIfNew moves a NEW order to status and reports whether a
	// row changed.
	UpdateStatusIfNew(ctx context.Context, id int64, status enums.OrderStatus) (bool, error)
}
