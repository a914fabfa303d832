package routes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/DarkRecklessness/ShopService/api/controllers"
	"github.com/DarkRecklessness/ShopService/internal/orders"
	"github.com/DarkRecklessness/ShopService/internal/payments"
	dbpkg "github.com/DarkRecklessness/ShopService/pkg/db"
	"github.com/DarkRecklessness/ShopService/pkg/enums"
	"github.com/DarkRecklessness/ShopService/pkg/inbox"
	"github.com/DarkRecklessness/ShopService/pkg/logger"
	"github.com/DarkRecklessness/ShopService/pkg/metrics"
	"github.com/DarkRecklessness/ShopService/pkg/migrate"
	"github.com/DarkRecklessness/ShopService/pkg/outbox"
)

func newSQLiteDB(t *testing.T, kind enums.ServiceKind) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_") + "_" + string(kind)
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, migrate.AutoMigrate(context.Background(), conn, kind))
	return conn
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestOrderRouter(t *testing.T) {
	conn := newSQLiteDB(t, enums.ServiceOrders)
	svc, err := orders.NewService(
		orders.NewRepository(conn),
		dbpkg.Wrap(conn),
		outbox.NewService(outbox.NewRepository(conn, enums.ServiceOrders), logger.Nop()),
		logger.Nop(),
	)
	require.NoError(t, err)
	h := NewOrderRouter(Common{Service: "orders", Logger: logger.Nop(), Gatherer: prometheus.NewRegistry()}, svc)

	rec := do(t, h, http.MethodPost, "/orders", `{"user_id":7,"amount":40}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	var created struct {
		Data orders.CreateOrderResult `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	require.Equal(t, enums.OrderStatusNew, created.Data.Status)

	rec = do(t, h, http.MethodPost, "/orders", `{"user_id":7,"amount":60,"description":"second"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodGet, fmt.Sprintf("/orders/%d", created.Data.OrderID), "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/orders/user/7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Data []orders.OrderDTO `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list.Data, 2)
	require.Less(t, list.Data[0].ID, list.Data[1].ID)

	rec = do(t, h, http.MethodGet, "/orders/999", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var pending int64
	require.NoError(t, conn.Table(enums.ServiceOrders.OutboxTable()).Where("processed = ?", false).Count(&pending).Error)
	require.EqualValues(t, 2, pending)
}

func TestPaymentRouter(t *testing.T) {
	conn := newSQLiteDB(t, enums.ServicePayments)
	svc, err := payments.NewService(payments.ServiceParams{
		Repository: payments.NewRepository(conn),
		Tx:         dbpkg.Wrap(conn),
		Inbox:      inbox.NewRepository(conn),
		Outbox:     outbox.NewService(outbox.NewRepository(conn, enums.ServicePayments), logger.Nop()),
		Logger:     logger.Nop(),
	})
	require.NoError(t, err)
	h := NewPaymentRouter(Common{Service: "payments", Logger: logger.Nop(), Gatherer: prometheus.NewRegistry()}, svc)

	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/account", `{"user_id":7}`).Code)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/account", `{"user_id":7}`).Code)

	rec := do(t, h, http.MethodPost, "/account/topup", `{"user_id":7,"amount":50}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"data":{"user_id":7,"balance":50}}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/account/balance?user_id=7", "")
	require.JSONEq(t, `{"data":{"user_id":7,"balance":50}}`, rec.Body.String())

	require.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/account/balance?user_id=999", "").Code)
	require.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/account/topup", `{"user_id":999,"amount":1}`).Code)
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthAndMetricsRoutes(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.NewRelayMetrics(reg, "orders").IncPublished("ORDER_CREATED")

	healthy := true
	broker := pingFunc(func(context.Context) error {
		if healthy {
			return nil
		}
		return errors.New("connection closed")
	})
	h := NewOrderRouter(Common{
		Service:  "orders",
		Logger:   logger.Nop(),
		Gatherer: reg,
		Checks:   []controllers.ReadinessCheck{{Name: "broker", Pinger: broker}},
	}, nil)

	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health/live", "").Code)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health/ready", "").Code)
	healthy = false
	require.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/health/ready", "").Code)

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `outbox_published_total{event_type="ORDER_CREATED",service="orders"} 1`)
}
