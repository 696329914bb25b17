package user

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/foodpal/foodpal/pkg/errors"
	"github.com/foodpal/foodpal/pkg/identity"
)

func setupTestDatabase(t *testing.T) (*pgxpool.Pool, func()) {
	ctx := context.Background()

	dbName := "foodpal_db"
	dbUser := "foodpal"
	dbPassword := "pwd"

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithInitScripts(filepath.Join("../../migrations", "foodpal_db.sql")),
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	require.NoError(t, err)

	connString, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	poolConfig, err := pgxpool.ParseConfig(connString)
	require.NoError(t, err)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			slog.Error("Failed to terminate container", "err", err)
		}
	}

	return pool, cleanup
}

func TestPostgresUserStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	pool, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPostgresUserStore(pool)

	ident := identity.Normalized{
		Provider:    "azure",
		Subject:     "az-1",
		Email:       "person@example.com",
		DisplayName: "Pat Person",
	}

	t.Run("create and find", func(t *testing.T) {
		created, err := store.CreateUser(ctx, ident)
		require.NoError(t, err)
		assert.True(t, created.HasProviderLink("azure", "az-1"))

		byIdentity, err := store.FindByProviderIdentity(ctx, "azure", "az-1")
		require.NoError(t, err)
		assert.Equal(t, created.ID, byIdentity.ID)
		assert.Equal(t, "person@example.com", byIdentity.Email)

		byEmail, err := store.FindByEmail(ctx, "person@example.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, byEmail.ID)
	})

	t.Run("missing lookups return not found", func(t *testing.T) {
		_, err := store.FindByProviderIdentity(ctx, "azure", "nobody")
		assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))

		_, err = store.FindByEmail(ctx, "nobody@example.com")
		assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
	})

	t.Run("duplicate email maps to a conflict", func(t *testing.T) {
		dup := ident
		dup.Provider = "google"
		dup.Subject = "g-2"
		_, err := store.CreateUser(ctx, dup)
		assert.True(t, errors.IsCode(err, errors.ErrCodeUserStoreConflict))
	})

	t.Run("provider link lifecycle", func(t *testing.T) {
		existing, err := store.FindByEmail(ctx, "person@example.com")
		require.NoError(t, err)

		linked, err := store.AddProviderLink(ctx, existing.ID, "google", "g-2")
		require.NoError(t, err)
		assert.True(t, linked.HasProviderLink("google", "g-2"))

		// the unique index on (provider, subject) surfaces as a conflict
		other, err := store.CreateUser(ctx, identity.Normalized{
			Provider: "acme-id", Subject: "u-9", Email: "other@example.com",
		})
		require.NoError(t, err)
		_, err = store.AddProviderLink(ctx, other.ID, "google", "g-2")
		assert.True(t, errors.IsCode(err, errors.ErrCodeUserStoreConflict))
	})
}
