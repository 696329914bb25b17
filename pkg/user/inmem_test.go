package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodpal/foodpal/pkg/errors"
	"github.com/foodpal/foodpal/pkg/identity"
)

func TestInMemUserStore(t *testing.T) {
	ctx := context.Background()
	ident := identity.Normalized{
		Provider:    "azure",
		Subject:     "az-1",
		Email:       "person@example.com",
		DisplayName: "Pat Person",
	}

	t.Run("create and find", func(t *testing.T) {
		store := NewInMemUserStore()

		created, err := store.CreateUser(ctx, ident)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, created.ID)
		assert.True(t, created.HasProviderLink("azure", "az-1"))

		byIdentity, err := store.FindByProviderIdentity(ctx, "azure", "az-1")
		require.NoError(t, err)
		assert.Equal(t, created.ID, byIdentity.ID)

		byEmail, err := store.FindByEmail(ctx, "person@example.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, byEmail.ID)
	})

	t.Run("missing lookups return not found", func(t *testing.T) {
		store := NewInMemUserStore()

		_, err := store.FindByProviderIdentity(ctx, "azure", "nobody")
		assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))

		_, err = store.FindByEmail(ctx, "nobody@example.com")
		assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
	})

	t.Run("duplicate identity conflicts", func(t *testing.T) {
		store := NewInMemUserStore()
		_, err := store.CreateUser(ctx, ident)
		require.NoError(t, err)

		_, err = store.CreateUser(ctx, ident)
		assert.True(t, errors.IsCode(err, errors.ErrCodeUserStoreConflict))
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		store := NewInMemUserStore()
		_, err := store.CreateUser(ctx, ident)
		require.NoError(t, err)

		other := ident
		other.Provider = "google"
		other.Subject = "g-2"
		_, err = store.CreateUser(ctx, other)
		assert.True(t, errors.IsCode(err, errors.ErrCodeUserStoreConflict))
	})

	t.Run("add provider link", func(t *testing.T) {
		store := NewInMemUserStore()
		created, err := store.CreateUser(ctx, ident)
		require.NoError(t, err)

		linked, err := store.AddProviderLink(ctx, created.ID, "google", "g-2")
		require.NoError(t, err)
		assert.True(t, linked.HasProviderLink("azure", "az-1"))
		assert.True(t, linked.HasProviderLink("google", "g-2"))

		// linking the same identity to the same user is a no-op
		again, err := store.AddProviderLink(ctx, created.ID, "google", "g-2")
		require.NoError(t, err)
		assert.Len(t, again.ProviderLinks, 2)
	})

	t.Run("link owned by another account conflicts", func(t *testing.T) {
		store := NewInMemUserStore()
		first, err := store.CreateUser(ctx, ident)
		require.NoError(t, err)

		second, err := store.CreateUser(ctx, identity.Normalized{
			Provider: "google", Subject: "g-2", Email: "other@example.com",
		})
		require.NoError(t, err)

		_, err = store.AddProviderLink(ctx, second.ID, "azure", "az-1")
		assert.True(t, errors.IsCode(err, errors.ErrCodeUserStoreConflict))
		_ = first
	})

	t.Run("returned users are detached copies", func(t *testing.T) {
		store := NewInMemUserStore()
		created, err := store.CreateUser(ctx, ident)
		require.NoError(t, err)

		created.Email = "mutated@example.com"
		created.ProviderLinks[0].Subject = "mutated"

		fresh, err := store.FindByEmail(ctx, "person@example.com")
		require.NoError(t, err)
		assert.Equal(t, "person@example.com", fresh.Email)
		assert.Equal(t, "az-1", fresh.ProviderLinks[0].Subject)
	})
}
