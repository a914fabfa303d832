package orders

import (
	"time"

	"github.com/DarkRecklessness/ShopService/pkg/db/models"
	"github.com/DarkRecklessness/ShopService/pkg/enums"
)

// CreateOrderInput carries a validated create-order command.
type CreateOrderInput struct {
	UserID      int64
	Amount      int64
	Description string
}

// CreateOrderResult is returned once the order and its ORDER_CREATED outbox
// row are committed.
type CreateOrderResult struct {
	OrderID int64             `json:"order_id"`
	Status  enums.OrderStatus `json:"status"`
}

type OrderDTO struct {
	ID          int64             `json:"id"`
	UserID      int64             `json:"user_id"`
	Amount      int64             `json:"amount"`
	Description string            `json:"description"`
	Status      enums.OrderStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func FromModel(m models.Order) OrderDTO {
	return OrderDTO{
		ID:          m.ID,
		UserID:      m.UserID,
		Amount:      m.Amount,
		Description: m.Description,
		Status:      m.Status,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// FinalizeOutcome classifies what a payment result did to its order.
type FinalizeOutcome string

const (
	FinalizeApplied        FinalizeOutcome = "applied"
	FinalizeAlreadyApplied FinalizeOutcome = "already_applied"
	FinalizeStale          FinalizeOutcome = "stale"
	FinalizeMissing        FinalizeOutcome = "missing"
)
