package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"path"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/pressly/goose/v3"

	"github.com/DarkRecklessness/ShopService/pkg/enums"
)

// DefaultDir is where `migrate -cmd=create` writes new files on disk.
const DefaultDir = "pkg/migrate/migrations"

//go:embed migrations
var embedded embed.FS

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

// Dir is the embedded migration directory for a service.
func Dir(kind enums.ServiceKind) string {
	return path.Join("migrations", string(kind))
}

// SourceDir is the on-disk directory for a service relative to the repo root.
func SourceDir(kind enums.ServiceKind) string {
	return filepath.Join(DefaultDir, string(kind))
}

// Run executes a goose command against the embedded migrations of kind.
func Run(ctx context.Context, db *sql.DB, kind enums.ServiceKind, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	if !kind.IsValid() {
		return fmt.Errorf("unknown service kind %q", kind)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()
	if err := useEmbedded(); err != nil {
		return err
	}
	defer goose.SetBaseFS(nil)

	if err := goose.RunContext(ctx, command, db, Dir(kind), args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// MigrateToVersion migrates up/down to the requested version by comparing current DB version.
func MigrateToVersion(ctx context.Context, db *sql.DB, kind enums.ServiceKind, targetVersion string) error {
	if targetVersion == "" {
		return fmt.Errorf("targetVersion is required")
	}
	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()
	if err := useEmbedded(); err != nil {
		return err
	}
	defer goose.SetBaseFS(nil)

	current, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	switch {
	case current == target:
		return nil
	case current < target:
		if err := goose.UpToContext(ctx, db, Dir(kind), target); err != nil {
			return fmt.Errorf("goose up-to %d: %w", target, err)
		}
	default:
		if err := goose.DownToContext(ctx, db, Dir(kind), target); err != nil {
			return fmt.Errorf("goose down-to %d: %w", target, err)
		}
	}
	return nil
}

func useEmbedded() error {
	goose.SetBaseFS(embedded)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return nil
}
