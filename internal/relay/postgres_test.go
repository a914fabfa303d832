package relay

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/DarkRecklessness/ShopService/pkg/config"
	dbpkg "github.com/DarkRecklessness/ShopService/pkg/db"
	"github.com/DarkRecklessness/ShopService/pkg/enums"
	"github.com/DarkRecklessness/ShopService/pkg/logger"
	"github.com/DarkRecklessness/ShopService/pkg/messaging/messagingtest"
	"github.com/DarkRecklessness/ShopService/pkg/migrate"
	"github.com/DarkRecklessness/ShopService/pkg/outbox"
)

const postgresDSNEnv = "SHOP_TEST_POSTGRES_DSN"

// Concurrent relays on Postgres must never claim the same row twice.
func TestConcurrentRelaysNeverDoubleClaim(t *testing.T) {
	dsn := os.Getenv(postgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", postgresDSNEnv)
	}

	ctx := context.Background()
	client, err := dbpkg.New(ctx, config.DBConfig{Driver: config.DBDriverPostgres, DSN: dsn, MaxOpenConns: 16}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	kind := enums.ServiceOrders
	require.NoError(t, migrate.AutoMigrate(ctx, client.DB(), kind))
	require.NoError(t, client.DB().Exec("TRUNCATE TABLE "+kind.OutboxTable()+" RESTART IDENTITY").Error)

	repo := outbox.NewRepository(client.DB(), kind)
	emitter := outbox.NewService(repo, logger.Nop())
	const rows = 200
	for i := 1; i <= rows; i++ {
		require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
			_, err := emitter.Emit(ctx, tx, outbox.DomainEvent{
				EventType: enums.EventOrderCreated,
				Data:      map[string]int{"order_id": i, "user_id": 1, "amount": 1},
			})
			return err
		}))
	}

	broker := messagingtest.NewBroker()
	reg := mustRegistry(t)
	runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	for range 4 {
		svc, err := NewService(ServiceParams{
			Kind:       kind,
			Logger:     logger.Nop(),
			DB:         client,
			Broker:     broker,
			Repository: repo,
			Registry:   reg,
		})
		require.NoError(t, err)
		g.Go(func() error {
			for gctx.Err() == nil {
				published, err := svc.relayNext(gctx)
				if err != nil {
					return err
				}
				if !published {
					return nil
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	seen := map[string]int{}
	for _, p := range broker.Published() {
		seen[p.Message.ID]++
	}
	require.Len(t, seen, rows)
	for id, count := range seen {
		require.Equal(t, 1, count, "message %s published more than once", id)
	}

	stats, err := repo.Backlog(ctx)
	require.NoError(t, err)
	require.Zero(t, stats.Pending)
}
