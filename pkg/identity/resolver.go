package identity

import (
	"context"
	"log/slog"

	"github.com/foodpal/foodpal/pkg/errors"
)

// Resolver maps a normalized external identity to an application user,
// provisioning the account on first sight. It is the only place where
// identity-to-user mapping logic lives.
type Resolver struct {
	store UserStore
}

// NewResolver creates a Resolver backed by the given store
func NewResolver(store UserStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the application user for the given identity. Lookup order:
// (provider, subject) first, then email-based linking for an account created
// through another provider, then account creation. Lookup-then-create is not
// atomic in the store; a concurrent first login can make the create or link
// collide with one of the store's unique indexes. That conflict is
// recoverable: the whole lookup chain runs once more, so the retry finds the
// concurrently inserted row whether the collision was on (provider, subject)
// or on the email, and that row wins. A second conflict surfaces as-is.
func (r *Resolver) Resolve(ctx context.Context, ident Normalized) (*User, error) {
	user, err := r.lookupOrProvision(ctx, ident)
	if err != nil && errors.IsCode(err, errors.ErrCodeUserStoreConflict) {
		slog.Info("Concurrent provisioning detected, retrying lookup",
			"provider", ident.Provider, "subject", ident.Subject)
		return r.lookupOrProvision(ctx, ident)
	}
	return user, err
}

func (r *Resolver) lookupOrProvision(ctx context.Context, ident Normalized) (*User, error) {
	user, err := r.store.FindByProviderIdentity(ctx, ident.Provider, ident.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.IsCode(err, errors.ErrCodeNotFound) {
		return nil, err
	}

	// New (provider, subject). Link to an existing account that shares the
	// verified email before creating a fresh one.
	user, err = r.store.FindByEmail(ctx, ident.Email)
	if err == nil {
		slog.Info("Linking new provider identity to existing user",
			"user_id", user.ID, "provider", ident.Provider)
		return r.store.AddProviderLink(ctx, user.ID, ident.Provider, ident.Subject)
	}
	if !errors.IsCode(err, errors.ErrCodeNotFound) {
		return nil, err
	}

	slog.Info("Provisioning new user for external identity",
		"provider", ident.Provider, "email", ident.Email)
	return r.store.CreateUser(ctx, ident)
}
