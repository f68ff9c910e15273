package auth

import (
	"context"
	"database/sql"
	"io/fs"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// RegisterModels registers every model this package persists. Call it before
// building the persistence client so relations resolve during migration.
func RegisterModels() {
	persistence.RegisterModel((*User)(nil))
	persistence.RegisterModel((*RefreshToken)(nil))
	persistence.RegisterModel((*RevokedToken)(nil))
}

// NewPersistence opens the database, builds the persistence client with the
// embedded migrations registered, validates and runs them, and returns both
// the client and a bun handle over the same pool.
func NewPersistence(ctx context.Context, cfg persistence.Config, dsn string) (*persistence.Client, *bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, nil, err
	}

	RegisterModels()

	dialect := sqlitedialect.New()
	client, err := persistence.New(cfg, sqldb, dialect)
	if err != nil {
		return nil, nil, err
	}

	migrations, err := fs.Sub(GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return nil, nil, err
	}

	client.RegisterDialectMigrations(
		migrations,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)

	if err := client.ValidateDialects(ctx); err != nil {
		return nil, nil, err
	}

	if err := client.Migrate(ctx); err != nil {
		return nil, nil, err
	}

	return client, bun.NewDB(sqldb, dialect), nil
}
