package user

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/foodpal/foodpal/pkg/errors"
	"github.com/foodpal/foodpal/pkg/identity"
)

const uniqueViolationCode = "23505"

// PostgresUserStore implements identity.UserStore using PostgreSQL
type PostgresUserStore struct {
	pool *pgxpool.Pool
}

// NewPostgresUserStore creates a new PostgreSQL user store
func NewPostgresUserStore(pool *pgxpool.Pool) *PostgresUserStore {
	return &PostgresUserStore{pool: pool}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return stderrors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

func (s *PostgresUserStore) FindByProviderIdentity(ctx context.Context, provider, subject string) (*identity.User, error) {
	query := `
		SELECT u.id, u.email, u.display_name, u.created_at, u.updated_at
		FROM users u
		JOIN provider_links pl ON pl.user_id = u.id
		WHERE pl.provider = $1 AND pl.subject = $2
	`

	u := &identity.User{}
	err := s.pool.QueryRow(ctx, query, provider, subject).Scan(
		&u.ID, &u.Email, &u.DisplayName, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFound("user", provider+"/"+subject)
		}
		return nil, errors.Wrap(err, errors.ErrCodeUserStoreFailed, "failed to look up user by provider identity")
	}

	if err := s.loadProviderLinks(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *PostgresUserStore) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	query := `
		SELECT id, email, display_name, created_at, updated_at
		FROM users
		WHERE email = $1
	`

	u := &identity.User{}
	err := s.pool.QueryRow(ctx, query, email).Scan(
		&u.ID, &u.Email, &u.DisplayName, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFound("user", email)
		}
		return nil, errors.Wrap(err, errors.ErrCodeUserStoreFailed, "failed to look up user by email")
	}

	if err := s.loadProviderLinks(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *PostgresUserStore) CreateUser(ctx context.Context, ident identity.Normalized) (*identity.User, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeUserStoreFailed, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	u := &identity.User{Email: ident.Email, DisplayName: ident.DisplayName}
	err = tx.QueryRow(ctx, `
		INSERT INTO users (id, email, display_name, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, email, display_name, created_at, updated_at
	`, uuid.New(), ident.Email, ident.DisplayName).Scan(
		&u.ID, &u.Email, &u.DisplayName, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errors.Wrapf(err, errors.ErrCodeUserStoreConflict,
				"email %s already belongs to another account", ident.Email)
		}
		return nil, errors.Wrap(err, errors.ErrCodeUserStoreFailed, "failed to create user")
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO provider_links (user_id, provider, subject, created_at)
		VALUES ($1, $2, $3, NOW())
	`, u.ID, ident.Provider, ident.Subject)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errors.Wrapf(err, errors.ErrCodeUserStoreConflict,
				"identity %s/%s already exists", ident.Provider, ident.Subject)
		}
		return nil, errors.Wrap(err, errors.ErrCodeUserStoreFailed, "failed to create provider link")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeUserStoreFailed, "failed to commit transaction")
	}

	u.ProviderLinks = []identity.ProviderLink{{Provider: ident.Provider, Subject: ident.Subject}}
	return u, nil
}

func (s *PostgresUserStore) AddProviderLink(ctx context.Context, userID uuid.UUID, provider, subject string) (*identity.User, error) {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO provider_links (user_id, provider, subject, created_at)
		VALUES ($1, $2, $3, NOW())
	`, userID, provider, subject)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errors.Wrapf(err, errors.ErrCodeUserStoreConflict,
				"identity %s/%s already linked", provider, subject)
		}
		return nil, errors.Wrap(err, errors.ErrCodeUserStoreFailed, "failed to add provider link")
	}

	return s.findByID(ctx, userID)
}

func (s *PostgresUserStore) findByID(ctx context.Context, userID uuid.UUID) (*identity.User, error) {
	u := &identity.User{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, email, display_name, created_at, updated_at
		FROM users
		WHERE id = $1
	`, userID).Scan(&u.ID, &u.Email, &u.DisplayName, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFound("user", userID.String())
		}
		return nil, errors.Wrap(err, errors.ErrCodeUserStoreFailed, "failed to look up user")
	}

	if err := s.loadProviderLinks(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *PostgresUserStore) loadProviderLinks(ctx context.Context, u *identity.User) error {
	rows, err := s.pool.Query(ctx, `
		SELECT provider, subject
		FROM provider_links
		WHERE user_id = $1
		ORDER BY created_at
	`, u.ID)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeUserStoreFailed, "failed to load provider links")
	}
	defer rows.Close()

	for rows.Next() {
		var link identity.ProviderLink
		if err := rows.Scan(&link.Provider, &link.Subject); err != nil {
			return errors.Wrap(err, errors.ErrCodeUserStoreFailed, "failed to scan provider link")
		}
		u.ProviderLinks = append(u.ProviderLinks, link)
	}
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeUserStoreFailed, "failed to iterate provider links")
	}
	return nil
}
