package rating

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/foodpal/foodpal/pkg/errors"
)

// Repository is the persistence contract for ratings
type Repository interface {
	Upsert(ctx context.Context, rating *Rating) (*Rating, error)
	GetByMealAndUser(ctx context.Context, mealID, userID uuid.UUID) (*Rating, error)
	SummaryForMeal(ctx context.Context, mealID uuid.UUID) (*Summary, error)
	Delete(ctx context.Context, mealID, userID uuid.UUID) error
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL rating repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const ratingColumns = "id, meal_id, user_id, score, comment, created_at, updated_at"

func scanRating(row pgx.Row) (*Rating, error) {
	rt := &Rating{}
	err := row.Scan(&rt.ID, &rt.MealID, &rt.UserID, &rt.Score, &rt.Comment, &rt.CreatedAt, &rt.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return rt, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, rating *Rating) (*Rating, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO meal_ratings (id, meal_id, user_id, score, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (meal_id, user_id)
		DO UPDATE SET score = EXCLUDED.score, comment = EXCLUDED.comment, updated_at = NOW()
		RETURNING `+ratingColumns,
		uuid.New(), rating.MealID, rating.UserID, rating.Score, rating.Comment)

	saved, err := scanRating(row)
	if err != nil {
		return nil, errors.Internal("failed to save rating", err)
	}
	return saved, nil
}

func (r *PostgresRepository) GetByMealAndUser(ctx context.Context, mealID, userID uuid.UUID) (*Rating, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+ratingColumns+` FROM meal_ratings WHERE meal_id = $1 AND user_id = $2`, mealID, userID)
	rt, err := scanRating(row)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFound("rating", mealID.String())
		}
		return nil, errors.Internal("failed to get rating", err)
	}
	return rt, nil
}

func (r *PostgresRepository) SummaryForMeal(ctx context.Context, mealID uuid.UUID) (*Summary, error) {
	summary := &Summary{MealID: mealID}
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(AVG(score), 0), COUNT(*)
		FROM meal_ratings
		WHERE meal_id = $1`, mealID).Scan(&summary.Average, &summary.Count)
	if err != nil {
		return nil, errors.Internal("failed to summarize ratings", err)
	}
	return summary, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, mealID, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM meal_ratings WHERE meal_id = $1 AND user_id = $2`, mealID, userID)
	if err != nil {
		return errors.Internal("failed to delete rating", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("rating", mealID.String())
	}
	return nil
}

// InMemRepository is a map-backed Repository for tests and local development
type InMemRepository struct {
	mu      sync.RWMutex
	ratings map[string]Rating
}

// NewInMemRepository creates an empty in-memory rating repository
func NewInMemRepository() *InMemRepository {
	return &InMemRepository{ratings: make(map[string]Rating)}
}

func ratingKey(mealID, userID uuid.UUID) string {
	return mealID.String() + "/" + userID.String()
}

func (r *InMemRepository) Upsert(ctx context.Context, rating *Rating) (*Rating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	key := ratingKey(rating.MealID, rating.UserID)
	saved := *rating
	if existing, ok := r.ratings[key]; ok {
		saved.ID = existing.ID
		saved.CreatedAt = existing.CreatedAt
	} else {
		saved.ID = uuid.New()
		saved.CreatedAt = now
	}
	saved.UpdatedAt = now
	r.ratings[key] = saved
	return &saved, nil
}

func (r *InMemRepository) GetByMealAndUser(ctx context.Context, mealID, userID uuid.UUID) (*Rating, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rt, ok := r.ratings[ratingKey(mealID, userID)]
	if !ok {
		return nil, errors.NotFound("rating", mealID.String())
	}
	return &rt, nil
}

func (r *InMemRepository) SummaryForMeal(ctx context.Context, mealID uuid.UUID) (*Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summary := &Summary{MealID: mealID}
	total := 0
	for _, rt := range r.ratings {
		if rt.MealID == mealID {
			total += rt.Score
			summary.Count++
		}
	}
	if summary.Count > 0 {
		summary.Average = float64(total) / float64(summary.Count)
	}
	return summary, nil
}

func (r *InMemRepository) Delete(ctx context.Context, mealID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := ratingKey(mealID, userID)
	if _, ok := r.ratings[key]; !ok {
		return errors.NotFound("rating", mealID.String())
	}
	delete(r.ratings, key)
	return nil
}
