package payments

import (
	"github.com/DarkRecklessness/ShopService/pkg/db/models"
	"github.com/DarkRecklessness/ShopService/pkg/enums"
)

type AccountDTO struct {
	UserID  int64 `json:"user_id"`
	Balance int64 `json:"balance"`
}

func FromModel(m models.Account) AccountDTO {
	return AccountDTO{UserID: m.UserID, Balance: m.Balance}
}

// CreateAccountResult reports whether the call created the account.
type CreateAccountResult struct {
	AccountDTO
	Created bool `json:"created"`
}

type TopUpInput struct {
	UserID int64
	Amount int64
}

// ProcessResult describes what handling one ORDER_CREATED did.
type ProcessResult struct {
	OrderID int64
	// Duplicate is set when the order was already handled; Status is empty.
	Duplicate bool
	Status    enums.PaymentResultStatus
	OutboxID  int64
}
