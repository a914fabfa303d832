package controllers

import (
	"net/http"

	"github.com/DarkRecklessness/ShopService/api/responses"
	"github.com/DarkRecklessness/ShopService/api/validators"
	"github.com/DarkRecklessness/ShopService/internal/payments"
	"github.com/DarkRecklessness/ShopService/pkg/logger"
)

type createAccountRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

type topUpRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

// CreateAccount handles POST /account. Repeating it for an existing user is
// answered with 200 and created=false.
func CreateAccount(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createAccountRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.CreateAccount(r.Context(), req.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := http.StatusOK
		if result.Created {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}

// TopUp handles POST /account/topup.
func TopUp(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req topUpRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		account, err := svc.TopUp(r.Context(), payments.TopUpInput{UserID: req.UserID, Amount: req.Amount})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, account)
	}
}

// Balance handles GET /account/balance?user_id=.
func Balance(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.ParseQueryID(r, "user_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		account, err := svc.GetBalance(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, account)
	}
}
