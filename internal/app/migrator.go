package app

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// Migrator применяет встроенные SQL миграции через goose
type Migrator struct {
	db       *sql.DB
	provider *goose.Provider
	logger   *zap.Logger
}

// NewMigrator создаёт мигратор поверх пула; миграции читаются из migrations
func NewMigrator(pool *pgxpool.Pool, migrations fs.FS, logger *zap.Logger) (*Migrator, error) {
	// Goose работает с *sql.DB, поэтому создаём его из пула
	db := stdlib.OpenDBFromPool(pool)

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create goose provider: %w", err)
	}

	return &Migrator{db: db, provider: provider, logger: logger}, nil
}

// Run применяет все pending миграции
func (mg *Migrator) Run(ctx context.Context) error {
	mg.logger.Info("🔄 Applying database migrations...")

	results, err := mg.provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	for _, r := range results {
		mg.logger.Info("Migration applied",
			zap.Int64("version", r.Source.Version),
			zap.Duration("duration", r.Duration))
	}

	version, err := mg.Version(ctx)
	if err != nil {
		return err
	}

	mg.logger.Info("✅ Migrations applied successfully", zap.Int64("version", version))
	return nil
}

// Version показывает текущую версию миграций
func (mg *Migrator) Version(ctx context.Context) (int64, error) {
	version, err := mg.provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("get version: %w", err)
	}
	return version, nil
}

// Close закрывает соединение мигратора, пул остаётся открытым
func (mg *Migrator) Close() error {
	return mg.db.Close()
}
