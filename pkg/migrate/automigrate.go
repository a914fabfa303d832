package migrate

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/DarkRecklessness/ShopService/pkg/db/models"
	"github.com/DarkRecklessness/ShopService/pkg/enums"
)

// AutoMigrate builds the schema of kind from the GORM models. It backs the
// sqlite dev driver and tests, where the Postgres DDL does not apply.
func AutoMigrate(ctx context.Context, conn *gorm.DB, kind enums.ServiceKind) error {
	if !kind.IsValid() {
		return fmt.Errorf("unknown service kind %q", kind)
	}
	conn = conn.WithContext(ctx)

	var err error
	switch kind {
	case enums.ServiceOrders:
		err = conn.AutoMigrate(&models.Order{})
	case enums.ServicePayments:
		err = conn.AutoMigrate(&models.Account{}, &models.InboxEntry{})
	}
	if err != nil {
		return fmt.Errorf("auto-migrating %s tables: %w", kind, err)
	}

	if err := conn.Table(kind.OutboxTable()).AutoMigrate(&models.OutboxEntry{}); err != nil {
		return fmt.Errorf("auto-migrating %s: %w", kind.OutboxTable(), err)
	}
	if err := conn.Table(kind.DeadLetterTable()).AutoMigrate(&models.DeadLetter{}); err != nil {
		return fmt.Errorf("auto-migrating %s: %w", kind.DeadLetterTable(), err)
	}
	return nil
}
