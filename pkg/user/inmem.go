package user

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/foodpal/foodpal/pkg/errors"
	"github.com/foodpal/foodpal/pkg/identity"
)

// InMemUserStore is a map-backed identity.UserStore for tests and local
// development. It enforces the same uniqueness rules as the database schema:
// one row per (provider, subject) and one account per email.
type InMemUserStore struct {
	mu         sync.RWMutex
	users      map[uuid.UUID]*identity.User
	byIdentity map[string]uuid.UUID
	byEmail    map[string]uuid.UUID
}

// NewInMemUserStore creates an empty in-memory user store
func NewInMemUserStore() *InMemUserStore {
	return &InMemUserStore{
		users:      make(map[uuid.UUID]*identity.User),
		byIdentity: make(map[string]uuid.UUID),
		byEmail:    make(map[string]uuid.UUID),
	}
}

func identityKey(provider, subject string) string {
	return provider + "\x00" + subject
}

// copyUser returns a detached copy so callers never alias store state
func copyUser(u *identity.User) *identity.User {
	c := *u
	c.ProviderLinks = append([]identity.ProviderLink(nil), u.ProviderLinks...)
	return &c
}

func (s *InMemUserStore) FindByProviderIdentity(ctx context.Context, provider, subject string) (*identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byIdentity[identityKey(provider, subject)]
	if !ok {
		return nil, errors.NotFound("user", provider+"/"+subject)
	}
	return copyUser(s.users[id]), nil
}

func (s *InMemUserStore) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, errors.NotFound("user", email)
	}
	return copyUser(s.users[id]), nil
}

func (s *InMemUserStore) CreateUser(ctx context.Context, ident identity.Normalized) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := identityKey(ident.Provider, ident.Subject)
	if _, exists := s.byIdentity[key]; exists {
		return nil, errors.Newf(errors.ErrCodeUserStoreConflict,
			"identity %s/%s already exists", ident.Provider, ident.Subject)
	}
	if _, exists := s.byEmail[ident.Email]; exists {
		return nil, errors.Newf(errors.ErrCodeUserStoreConflict,
			"email %s already belongs to another account", ident.Email)
	}

	now := time.Now().UTC()
	u := &identity.User{
		ID:            uuid.New(),
		Email:         ident.Email,
		DisplayName:   ident.DisplayName,
		ProviderLinks: []identity.ProviderLink{{Provider: ident.Provider, Subject: ident.Subject}},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.users[u.ID] = u
	s.byIdentity[key] = u.ID
	s.byEmail[u.Email] = u.ID
	return copyUser(u), nil
}

func (s *InMemUserStore) AddProviderLink(ctx context.Context, userID uuid.UUID, provider, subject string) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, errors.NotFound("user", userID.String())
	}

	key := identityKey(provider, subject)
	if existing, exists := s.byIdentity[key]; exists {
		if existing == userID {
			return copyUser(u), nil
		}
		return nil, errors.Newf(errors.ErrCodeUserStoreConflict,
			"identity %s/%s already linked to another account", provider, subject)
	}

	u.ProviderLinks = append(u.ProviderLinks, identity.ProviderLink{Provider: provider, Subject: subject})
	u.UpdatedAt = time.Now().UTC()
	s.byIdentity[key] = userID
	return copyUser(u), nil
}
