package mealplan

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

// Repository is the persistence contract for plan entries
type Repository interface {
	Create(ctx context.Context, e *Entry) (*Entry, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Entry, error)
	ListByUserRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]Entry, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Entry, error)
	Delete(ctx context.Context, id uuid.UUID) error
	StatisticsForRange(ctx context.Context, userID uuid.UUID, from, to time.Time) (*Statistics, error)
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL plan repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const entryColumns = "id, user_id, meal_id, plan_date, meal_type, status, created_at, updated_at"

func scanEntry(row pgx.Row) (*Entry, error) {
	e := &Entry{}
	err := row.Scan(&e.ID, &e.UserID, &e.MealID, &e.PlanDate, &e.MealType, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *PostgresRepository) Create(ctx context.Context, e *Entry) (*Entry, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO meal_plan_entries (id, user_id, meal_id, plan_date, meal_type, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING `+entryColumns,
		uuid.New(), e.UserID, e.MealID, e.PlanDate, e.MealType, StatusPlanned)

	created, err := scanEntry(row)
	if err != nil {
		return nil, errors.Internal("failed to create plan entry", err)
	}
	return created, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Entry, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM meal_plan_entries WHERE id = $1`, id)
	e, err := scanEntry(row)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFound("plan entry", id.String())
		}
		return nil, errors.Internal("failed to get plan entry", err)
	}
	return e, nil
}

func (r *PostgresRepository) ListByUserRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+entryColumns+`
		FROM meal_plan_entries
		WHERE user_id = $1 AND plan_date BETWEEN $2 AND $3
		ORDER BY plan_date, meal_type`, userID, from, to)
	if err != nil {
		return nil, errors.Internal("failed to list plan entries", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, errors.Internal("failed to scan plan entry", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Internal("failed to iterate plan entries", err)
	}
	return entries, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Entry, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE meal_plan_entries
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+entryColumns, id, status)

	updated, err := scanEntry(row)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFound("plan entry", id.String())
		}
		return nil, errors.Internal("failed to update plan entry", err)
	}
	return updated, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM meal_plan_entries WHERE id = $1`, id)
	if err != nil {
		return errors.Internal("failed to delete plan entry", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("plan entry", id.String())
	}
	return nil
}

func (r *PostgresRepository) StatisticsForRange(ctx context.Context, userID uuid.UUID, from, to time.Time) (*Statistics, error) {
	stats := &Statistics{From: from, To: to}

	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*)
		FROM meal_plan_entries
		WHERE user_id = $1 AND plan_date BETWEEN $2 AND $3
		GROUP BY status`, userID, from, to)
	if err != nil {
		return nil, errors.Internal("failed to count plan entries", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, errors.Internal("failed to scan plan statistics", err)
		}
		stats.TotalPlanned += count
		switch status {
		case StatusPrepared:
			stats.PreparedCount = count
		case StatusSkipped:
			stats.SkippedCount = count
		case StatusReplaced:
			stats.ReplacedCount = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Internal("failed to iterate plan statistics", err)
	}

	var favorite uuid.UUID
	err = r.pool.QueryRow(ctx, `
		SELECT meal_id
		FROM meal_plan_entries
		WHERE user_id = $1 AND plan_date BETWEEN $2 AND $3 AND status = $4
		GROUP BY meal_id
		ORDER BY COUNT(*) DESC, meal_id
		LIMIT 1`, userID, from, to, StatusPrepared).Scan(&favorite)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return stats, nil
		}
		return nil, errors.Internal("failed to find most prepared meal", err)
	}
	stats.FavoriteMealID = &favorite
	return stats, nil
}

// InMemRepository is a map-backed Repository for tests and local development
type InMemRepository struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]Entry
}

// NewInMemRepository creates an empty in-memory plan repository
func NewInMemRepository() *InMemRepository {
	return &InMemRepository{entries: make(map[uuid.UUID]Entry)}
}

func (r *InMemRepository) Create(ctx context.Context, e *Entry) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	created := *e
	created.ID = uuid.New()
	created.Status = StatusPlanned
	created.CreatedAt = now
	created.UpdatedAt = now
	r.entries[created.ID] = created
	return &created, nil
}

func (r *InMemRepository) GetByID(ctx context.Context, id uuid.UUID) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, errors.NotFound("plan entry", id.String())
	}
	return &e, nil
}

func (r *InMemRepository) ListByUserRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var entries []Entry
	for _, e := range r.entries {
		if e.UserID == userID && !e.PlanDate.Before(from) && !e.PlanDate.After(to) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].PlanDate.Equal(entries[j].PlanDate) {
			return entries[i].PlanDate.Before(entries[j].PlanDate)
		}
		return entries[i].MealType < entries[j].MealType
	})
	return entries, nil
}

func (r *InMemRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, errors.NotFound("plan entry", id.String())
	}
	e.Status = status
	e.UpdatedAt = time.Now().UTC()
	r.entries[id] = e
	return &e, nil
}

func (r *InMemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; !ok {
		return errors.NotFound("plan entry", id.String())
	}
	delete(r.entries, id)
	return nil
}

func (r *InMemRepository) StatisticsForRange(ctx context.Context, userID uuid.UUID, from, to time.Time) (*Statistics, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &Statistics{From: from, To: to}
	preparedPerMeal := make(map[uuid.UUID]int)
	for _, e := range r.entries {
		if e.UserID != userID || e.PlanDate.Before(from) || e.PlanDate.After(to) {
			continue
		}
		stats.TotalPlanned++
		switch e.Status {
		case StatusPrepared:
			stats.PreparedCount++
			preparedPerMeal[e.MealID]++
		case StatusSkipped:
			stats.SkippedCount++
		case StatusReplaced:
			stats.ReplacedCount++
		}
	}

	best := 0
	for mealID, count := range preparedPerMeal {
		if count > best || (count == best && stats.FavoriteMealID != nil && mealID.String() < stats.FavoriteMealID.String()) {
			best = count
			id := mealID
			stats.FavoriteMealID = &id
		}
	}
	return stats, nil
}
