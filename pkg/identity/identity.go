package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Normalized is the canonical, provider-agnostic identity every claim set is
// converted into before resolution. (Provider, Subject) is the stable external
// identity key; Email is a secondary linking signal and must never be treated
// as unique across providers.
type Normalized struct {
	Provider    string `json:"provider"`
	Subject     string `json:"subject"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
}

// ProviderLink ties a user to one external identity
type ProviderLink struct {
	Provider string `json:"provider"`
	Subject  string `json:"subject"`
}

// User represents an application user account. Provider links are added as the
// same person signs in through additional providers; accounts are never
// deleted by the login flow.
type User struct {
	ID            uuid.UUID      `json:"id"`
	Email         string         `json:"email"`
	DisplayName   string         `json:"display_name,omitempty"`
	ProviderLinks []ProviderLink `json:"provider_links"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// HasProviderLink reports whether the user is already linked to the given
// external identity
func (u *User) HasProviderLink(provider, subject string) bool {
	for _, l := range u.ProviderLinks {
		if l.Provider == provider && l.Subject == subject {
			return true
		}
	}
	return false
}

// UserStore is the persistence contract the resolver depends on.
// Implementations live in pkg/user. Lookups return a coded NOT_FOUND error
// when no user matches; writes surface unique-constraint races as
// USER_STORE_CONFLICT and everything else as USER_STORE_FAILED.
type UserStore interface {
	FindByProviderIdentity(ctx context.Context, provider, subject string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, ident Normalized) (*User, error)
	AddProviderLink(ctx context.Context, userID uuid.UUID, provider, subject string) (*User, error)
}
