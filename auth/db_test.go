package auth

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) (*bun.DB, func()) {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	for _, model := range []any{(*User)(nil), (*SingleUseToken)(nil)} {
		_, err = db.NewCreateTable().Model(model).IfNotExists().Exec(ctx)
		require.NoError(t, err)
	}

	cleanup := func() {
		_ = db.Close()
	}
	return db, cleanup
}

func setupRepo(t *testing.T) (RepositoryManager, func()) {
	t.Helper()
	db, cleanup := setupTestDB(t)
	return NewRepositoryManager(db), cleanup
}

func createTestUser(t *testing.T, repo RepositoryManager, email string) *User {
	t.Helper()

	hash, err := HashPassword("correct-horse-battery")
	require.NoError(t, err)

	user := &User{
		Email:        email,
		PasswordHash: hash,
		Name:         "Test User",
		Role:         RoleUser,
		IsActive:     true,
	}
	_, err = repo.Users().Create(context.Background(), user)
	require.NoError(t, err)
	require.NotZero(t, user.ID)
	return user
}
