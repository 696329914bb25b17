package meal

import (
	"context"
	stderrors "errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/foodpal/foodpal/pkg/errors"
)

// Repository is the persistence contract for meals
type Repository interface {
	Create(ctx context.Context, m *Meal) (*Meal, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Meal, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Meal, error)
	Update(ctx context.Context, m *Meal) (*Meal, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL meal repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const mealColumns = "id, user_id, name, description, meal_type, category, serving_count, prep_time_minutes, is_favorite, created_at, updated_at"

func scanMeal(row pgx.Row) (*Meal, error) {
	m := &Meal{}
	err := row.Scan(&m.ID, &m.UserID, &m.Name, &m.Description, &m.MealType, &m.Category,
		&m.ServingCount, &m.PrepTimeMinutes, &m.Favorite, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *PostgresRepository) Create(ctx context.Context, m *Meal) (*Meal, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO meals (id, user_id, name, description, meal_type, category, serving_count, prep_time_minutes, is_favorite, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING `+mealColumns,
		uuid.New(), m.UserID, m.Name, m.Description, m.MealType, m.Category,
		m.ServingCount, m.PrepTimeMinutes, m.Favorite)

	created, err := scanMeal(row)
	if err != nil {
		return nil, errors.Internal("failed to create meal", err)
	}
	return created, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Meal, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+mealColumns+` FROM meals WHERE id = $1`, id)
	m, err := scanMeal(row)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFound("meal", id.String())
		}
		return nil, errors.Internal("failed to get meal", err)
	}
	return m, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Meal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+mealColumns+` FROM meals WHERE user_id = $1 ORDER BY name`, userID)
	if err != nil {
		return nil, errors.Internal("failed to list meals", err)
	}
	defer rows.Close()

	var meals []Meal
	for rows.Next() {
		m, err := scanMeal(rows)
		if err != nil {
			return nil, errors.Internal("failed to scan meal", err)
		}
		meals = append(meals, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Internal("failed to iterate meals", err)
	}
	return meals, nil
}

func (r *PostgresRepository) Update(ctx context.Context, m *Meal) (*Meal, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE meals
		SET name = $2, description = $3, meal_type = $4, category = $5,
		    serving_count = $6, prep_time_minutes = $7, is_favorite = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING `+mealColumns,
		m.ID, m.Name, m.Description, m.MealType, m.Category,
		m.ServingCount, m.PrepTimeMinutes, m.Favorite)

	updated, err := scanMeal(row)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFound("meal", m.ID.String())
		}
		return nil, errors.Internal("failed to update meal", err)
	}
	return updated, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM meals WHERE id = $1`, id)
	if err != nil {
		return errors.Internal("failed to delete meal", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("meal", id.String())
	}
	return nil
}

// InMemRepository is a map-backed Repository for tests and local development
type InMemRepository struct {
	mu    sync.RWMutex
	meals map[uuid.UUID]Meal
}

// NewInMemRepository creates an empty in-memory meal repository
func NewInMemRepository() *InMemRepository {
	return &InMemRepository{meals: make(map[uuid.UUID]Meal)}
}

func (r *InMemRepository) Create(ctx context.Context, m *Meal) (*Meal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	created := *m
	created.ID = uuid.New()
	created.CreatedAt = now
	created.UpdatedAt = now
	r.meals[created.ID] = created
	return &created, nil
}

func (r *InMemRepository) GetByID(ctx context.Context, id uuid.UUID) (*Meal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.meals[id]
	if !ok {
		return nil, errors.NotFound("meal", id.String())
	}
	return &m, nil
}

func (r *InMemRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Meal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var meals []Meal
	for _, m := range r.meals {
		if m.UserID == userID {
			meals = append(meals, m)
		}
	}
	sort.Slice(meals, func(i, j int) bool { return meals[i].Name < meals[j].Name })
	return meals, nil
}

func (r *InMemRepository) Update(ctx context.Context, m *Meal) (*Meal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.meals[m.ID]
	if !ok {
		return nil, errors.NotFound("meal", m.ID.String())
	}

	updated := *m
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	r.meals[m.ID] = updated
	return &updated, nil
}

func (r *InMemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.meals[id]; !ok {
		return errors.NotFound("meal", id.String())
	}
	delete(r.meals, id)
	return nil
}
