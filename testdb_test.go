package auth_test

import (
	"context"
	"database/sql"
	"testing"

	auth "github.com/clinware/go-auth"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// setupTestDB opens an in-memory SQLite database with the package schema.
func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	// a single connection keeps the in-memory database alive for the test
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	for _, model := range []any{
		(*auth.User)(nil),
		(*auth.RefreshToken)(nil),
		(*auth.RevokedToken)(nil),
	} {
		_, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx)
		require.NoError(t, err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func seedUser(t *testing.T, db *bun.DB, username, email, password string) *auth.User {
	t.Helper()

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	repo := auth.NewUsersRepository(db)
	user, err := repo.Register(context.Background(), &auth.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	})
	require.NoError(t, err)

	return user
}
