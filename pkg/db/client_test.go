package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/DarkRecklessness/ShopService/pkg/config"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testModel struct {
	ID   int
	Name string `gorm:"uniqueIndex"`
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), gormConfig())
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, conn.AutoMigrate(&testModel{}))
	return conn
}

func TestWithTxCommitsAndRollsBack(t *testing.T) {
	conn := newTestDB(t)
	client := Wrap(conn)
	ctx := context.Background()

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}))

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, conn.Model(&testModel{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	conn := newTestDB(t)
	client := Wrap(conn)

	require.Panics(t, func() {
		_ = client.WithTx(context.Background(), func(tx *gorm.DB) error {
			if err := tx.Create(&testModel{Name: "panicky"}).Error; err != nil {
				return err
			}
			panic("kaboom")
		})
	})

	var count int64
	require.NoError(t, conn.Model(&testModel{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestPingAndClose(t *testing.T) {
	client := Wrap(newTestDB(t))
	require.NoError(t, client.Ping(context.Background()))
	require.NoError(t, client.Close())
	require.Error(t, client.Ping(context.Background()))
}

func TestNewOpensSQLite(t *testing.T) {
	cfg := config.DBConfig{
		Driver:       config.DBDriverSQLite,
		DSN:          "file:new_opens_sqlite?mode=memory&cache=shared",
		MaxOpenConns: 1,
	}
	client, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.False(t, IsPostgres(client.DB()))
}

func TestConnectStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := config.DBConfig{
		Driver:               config.DBDriverPostgres,
		DSN:                  "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1",
		ConnectRetryInterval: 10 * time.Millisecond,
	}
	_, err := Connect(ctx, cfg, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSkipLockedLeavesSQLiteUntouched(t *testing.T) {
	conn := newTestDB(t)
	stmt := SkipLocked(conn.Session(&gorm.Session{DryRun: true})).Find(&[]testModel{}).Statement
	require.NotContains(t, stmt.SQL.String(), "SKIP LOCKED")
}
