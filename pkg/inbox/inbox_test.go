package inbox

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/DarkRecklessness/ShopService/pkg/db/models"
	"github.com/DarkRecklessness/ShopService/pkg/enums"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, conn.AutoMigrate(&models.InboxEntry{}))
	require.NoError(t, conn.Table(enums.ServicePayments.DeadLetterTable()).AutoMigrate(&models.DeadLetter{}))
	return conn
}

func keyStored(conn *gorm.DB, key string) (bool, error) {
	var count int64
	err := conn.Model(&models.InboxEntry{}).Where("message_id = ?", key).Count(&count).Error
	return count > 0, err
}

func claim(t *testing.T, conn *gorm.DB, repo *Repository, key string) bool {
	t.Helper()
	var claimed bool
	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		var err error
		claimed, err = repo.ClaimTx(tx, key)
		return err
	}))
	return claimed
}

func TestClaimTxIsIdempotent(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)

	require.True(t, claim(t, conn, repo, "order_1"))
	for i := 0; i < 4; i++ {
		require.False(t, claim(t, conn, repo, "order_1"))
	}
	require.True(t, claim(t, conn, repo, "order_2"))

	exists, err := keyStored(conn, "order_1")
	require.NoError(t, err)
	require.True(t, exists)
}

func TestClaimTxRollsBackWithCaller(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)

	err := conn.Transaction(func(tx *gorm.DB) error {
		claimed, err := repo.ClaimTx(tx, "order_9")
		require.NoError(t, err)
		require.True(t, claimed)
		return fmt.Errorf("debit failed")
	})
	require.Error(t, err)

	exists, err := keyStored(conn, "order_9")
	require.NoError(t, err)
	require.False(t, exists)
	require.True(t, claim(t, conn, repo, "order_9"))
}

func TestClaimTxValidatesInput(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)

	_, err := repo.ClaimTx(nil, "order_1")
	require.Error(t, err)
	_, err = repo.ClaimTx(conn, "")
	require.Error(t, err)
}

func TestDeleteBefore(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, conn.Create(&models.InboxEntry{MessageID: "order_old", ReceivedAt: old}).Error)
	require.True(t, claim(t, conn, repo, "order_new"))

	removed, err := repo.DeleteBefore(context.Background(), time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	exists, err := keyStored(conn, "order_new")
	require.NoError(t, err)
	require.True(t, exists)
}

func TestDeadLetterInsertTruncates(t *testing.T) {
	conn := newTestDB(t)
	repo := NewDeadLetterRepository(conn, enums.ServicePayments)
	ctx := context.Background()

	long := strings.Repeat("e", 5000)
	require.NoError(t, repo.Insert(ctx, models.DeadLetter{
		Queue:        "orders_queue",
		MessageID:    "order-service-3",
		EventType:    "ORDER_CREATED",
		Body:         "{not json",
		ErrorReason:  enums.DeadLetterDecodeFailed,
		ErrorMessage: &long,
	}))

	rows, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, enums.DeadLetterDecodeFailed, rows[0].ErrorReason)
	require.Len(t, *rows[0].ErrorMessage, maxDeadLetterErrorLen)
	require.Equal(t, "{not json", rows[0].Body)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestDeadLetterInsertKeepsRunesWhole(t *testing.T) {
	conn := newTestDB(t)
	repo := NewDeadLetterRepository(conn, enums.ServicePayments)
	ctx := context.Background()

	// a 2-byte rune straddles the cut
	body := strings.Repeat("a", maxDeadLetterBodyLen-1) + "é"
	require.NoError(t, repo.Insert(ctx, models.DeadLetter{
		Queue:       "orders_queue",
		Body:        body,
		ErrorReason: enums.DeadLetterDecodeFailed,
	}))

	rows, err := repo.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.True(t, utf8.ValidString(rows[0].Body))
	require.Equal(t, strings.Repeat("a", maxDeadLetterBodyLen-1), rows[0].Body)
}
