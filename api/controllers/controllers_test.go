package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/DarkRecklessness/ShopService/api/responses"
	"github.com/DarkRecklessness/ShopService/internal/orders"
	"github.com/DarkRecklessness/ShopService/internal/payments"
	"github.com/DarkRecklessness/ShopService/pkg/enums"
	pkgerrors "github.com/DarkRecklessness/ShopService/pkg/errors"
	"github.com/DarkRecklessness/ShopService/pkg/logger"
	"github.com/DarkRecklessness/ShopService/pkg/outbox/payloads"
)

type fakeOrders struct {
	created []orders.CreateOrderInput
	order   *orders.OrderDTO
	list    []orders.OrderDTO
	err     error
}

func (f *fakeOrders) CreateOrder(_ context.Context, input orders.CreateOrderInput) (*orders.CreateOrderResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, input)
	return &orders.CreateOrderResult{OrderID: int64(len(f.created)), Status: enums.OrderStatusNew}, nil
}

func (f *fakeOrders) GetOrder(context.Context, int64) (*orders.OrderDTO, error) {
	if f.order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return f.order, nil
}

func (f *fakeOrders) ListUserOrders(context.Context, int64) ([]orders.OrderDTO, error) {
	return f.list, f.err
}

func (f *fakeOrders) ApplyPaymentResult(context.Context, payloads.PaymentResultEvent) (orders.FinalizeOutcome, error) {
	return orders.FinalizeApplied, nil
}

type fakePayments struct {
	accounts map[int64]int64
}

func (f *fakePayments) CreateAccount(_ context.Context, userID int64) (*payments.CreateAccountResult, error) {
	balance, ok := f.accounts[userID]
	if !ok {
		f.accounts[userID] = 0
	}
	return &payments.CreateAccountResult{
		AccountDTO: payments.AccountDTO{UserID: userID, Balance: balance},
		Created:    !ok,
	}, nil
}

func (f *fakePayments) TopUp(_ context.Context, input payments.TopUpInput) (*payments.AccountDTO, error) {
	balance, ok := f.accounts[input.UserID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
	}
	f.accounts[input.UserID] = balance + input.Amount
	return &payments.AccountDTO{UserID: input.UserID, Balance: balance + input.Amount}, nil
}

func (f *fakePayments) GetBalance(_ context.Context, userID int64) (*payments.AccountDTO, error) {
	balance, ok := f.accounts[userID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
	}
	return &payments.AccountDTO{UserID: userID, Balance: balance}, nil
}

func (f *fakePayments) ProcessOrderCreated(context.Context, payloads.OrderCreatedEvent) (*payments.ProcessResult, error) {
	return nil, errors.New("not used")
}

func serve(t *testing.T, r chi.Router, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func orderRouter(svc orders.Service) chi.Router {
	r := chi.NewRouter()
	r.Post("/orders", CreateOrder(svc, logger.Nop()))
	r.Get("/orders/{orderId}", GetOrder(svc, logger.Nop()))
	r.Get("/orders/user/{userId}", ListUserOrders(svc, logger.Nop()))
	return r
}

func accountRouter(svc payments.Service) chi.Router {
	r := chi.NewRouter()
	r.Post("/account", CreateAccount(svc, logger.Nop()))
	r.Post("/account/topup", TopUp(svc, logger.Nop()))
	r.Get("/account/balance", Balance(svc, logger.Nop()))
	return r
}

func TestCreateOrderReturns201(t *testing.T) {
	svc := &fakeOrders{}
	rec := serve(t, orderRouter(svc), http.MethodPost, "/orders", `{"user_id":7,"amount":100,"description":"book"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.JSONEq(t, `{"data":{"order_id":1,"status":"NEW"}}`, rec.Body.String())
	require.Equal(t, []orders.CreateOrderInput{{UserID: 7, Amount: 100, Description: "book"}}, svc.created)
}

func TestCreateOrderRejectsInvalidBodies(t *testing.T) {
	svc := &fakeOrders{}
	for _, body := range []string{
		`{"amount":100}`,
		`{"user_id":7}`,
		`{"user_id":7,"amount":0}`,
		`{"user_id":"7","amount":100}`,
		`not json`,
	} {
		rec := serve(t, orderRouter(svc), http.MethodPost, "/orders", body)
		require.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	require.Empty(t, svc.created)
}

func TestGetOrder(t *testing.T) {
	svc := &fakeOrders{order: &orders.OrderDTO{ID: 3, UserID: 7, Amount: 40, Status: enums.OrderStatusPaid}}
	rec := serve(t, orderRouter(svc), http.MethodGet, "/orders/3", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data orders.OrderDTO `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, enums.OrderStatusPaid, body.Data.Status)

	rec = serve(t, orderRouter(&fakeOrders{}), http.MethodGet, "/orders/3", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, orderRouter(svc), http.MethodGet, "/orders/abc", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListUserOrdersReturnsEmptyArray(t *testing.T) {
	rec := serve(t, orderRouter(&fakeOrders{}), http.MethodGet, "/orders/user/7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"data":[]}`, rec.Body.String())
}

func TestListUserOrdersDependencyFailure(t *testing.T) {
	svc := &fakeOrders{err: pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("db down"), "list orders")}
	rec := serve(t, orderRouter(svc), http.MethodGet, "/orders/user/7", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAccountLifecycle(t *testing.T) {
	r := accountRouter(&fakePayments{accounts: map[int64]int64{}})

	rec := serve(t, r, http.MethodPost, "/account", `{"user_id":7}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.JSONEq(t, `{"data":{"user_id":7,"balance":0,"created":true}}`, rec.Body.String())

	rec = serve(t, r, http.MethodPost, "/account", `{"user_id":7}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"data":{"user_id":7,"balance":0,"created":false}}`, rec.Body.String())

	rec = serve(t, r, http.MethodPost, "/account/topup", `{"user_id":7,"amount":50}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"data":{"user_id":7,"balance":50}}`, rec.Body.String())

	rec = serve(t, r, http.MethodGet, "/account/balance?user_id=7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"data":{"user_id":7,"balance":50}}`, rec.Body.String())
}

func TestAccountErrors(t *testing.T) {
	r := accountRouter(&fakePayments{accounts: map[int64]int64{}})

	rec := serve(t, r, http.MethodPost, "/account/topup", `{"user_id":999,"amount":5}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, r, http.MethodPost, "/account/topup", `{"user_id":7,"amount":-5}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, r, http.MethodGet, "/account/balance?user_id=999", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	var body responses.ErrorEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "NOT_FOUND", body.Error.Code)

	rec = serve(t, r, http.MethodGet, "/account/balance", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = serve(t, r, http.MethodGet, "/account/balance?user_id=x", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthReady(t *testing.T) {
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("refused") })

	rec := httptest.NewRecorder()
	HealthReady(logger.Nop(), ReadinessCheck{Name: "db", Pinger: ok}, ReadinessCheck{Name: "redis"})(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"data":{"status":"ready","checks":{"db":"ok"}}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	HealthReady(logger.Nop(), ReadinessCheck{Name: "db", Pinger: ok}, ReadinessCheck{Name: "broker", Pinger: down})(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body responses.ErrorEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "DEPENDENCY_ERROR", body.Error.Code)
	require.Equal(t, map[string]any{"checks": map[string]any{"db": "ok", "broker": "down"}}, body.Error.Details)
}

func TestHealthLive(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthLive("orders")(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"data":{"status":"live","service":"orders"}}`, rec.Body.String())
}
