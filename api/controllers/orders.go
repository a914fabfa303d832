package controllers

import (
	"net/http"

	"github.com/DarkRecklessness/ShopService/api/responses"
	"github.com/DarkRecklessness/ShopService/api/validators"
	"github.com/DarkRecklessness/ShopService/internal/orders"
	"github.com/DarkRecklessness/ShopService/pkg/logger"
)

type createOrderRequest struct {
	UserID      int64  `json:"user_id" validate:"required,gt=0"`
	Amount      int64  `json:"amount" validate:"required,gt=0"`
	Description string `json:"description" validate:"max=1024"`
}

// CreateOrder handles POST /orders.
func CreateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOrderRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.CreateOrder(r.Context(), orders.CreateOrderInput{
			UserID:      req.UserID,
			Amount:      req.Amount,
			Description: req.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// GetOrder handles GET /orders/{orderId}.
func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.GetOrder(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// ListUserOrders handles GET /orders/user/{userId}.
func ListUserOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.ParsePathID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListUserOrders(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if list == nil {
			list = []orders.OrderDTO{}
		}
		responses.WriteSuccess(w, list)
	}
}
