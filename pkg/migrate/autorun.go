package migrate

import (
	"context"
	"fmt"

	"github.com/DarkRecklessness/ShopService/pkg/config"
	"github.com/DarkRecklessness/ShopService/pkg/db"
	"github.com/DarkRecklessness/ShopService/pkg/enums"
	"github.com/DarkRecklessness/ShopService/pkg/logger"
)

// MaybeRunDev prepares the schema on boot. The sqlite driver is always
// auto-migrated; Postgres runs goose only in dev with the feature flag on.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client, kind enums.ServiceKind) error {
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "service_kind": kind.String()})

	if cfg.DB.IsSQLite() {
		logg.Info(ctx, "auto-migrating sqlite schema")
		return AutoMigrate(ctx, client.DB(), kind)
	}

	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	logg.Info(ctx, "running goose migrations (dev auto-run)")
	if err := Run(ctx, sqlDB, kind, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}
	logg.Info(ctx, "goose migrations completed")
	return nil
}
