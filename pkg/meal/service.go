package meal

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/foodpal/foodpal/pkg/errors"
)

// MealService owns the meal catalog rules. Every operation is scoped to the
// calling user; a meal belonging to someone else is indistinguishable from a
// missing one.
type MealService struct {
	repo Repository
}

// NewMealService creates a new meal service
func NewMealService(repo Repository) *MealService {
	return &MealService{repo: repo}
}

// Create adds a meal to the user's catalog
func (s *MealService) Create(ctx context.Context, userID uuid.UUID, params CreateMealParams) (*Meal, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	servings := params.ServingCount
	if servings == 0 {
		servings = 1
	}

	created, err := s.repo.Create(ctx, &Meal{
		UserID:          userID,
		Name:            params.Name,
		Description:     params.Description,
		MealType:        params.MealType,
		Category:        params.Category,
		ServingCount:    servings,
		PrepTimeMinutes: params.PrepTimeMinutes,
		Favorite:        params.Favorite,
	})
	if err != nil {
		slog.Error("Failed to create meal", "user_id", userID, "err", err)
		return nil, err
	}
	return created, nil
}

// Get returns one of the user's meals
func (s *MealService) Get(ctx context.Context, userID, mealID uuid.UUID) (*Meal, error) {
	m, err := s.repo.GetByID(ctx, mealID)
	if err != nil {
		return nil, err
	}
	if m.UserID != userID {
		return nil, errors.NotFound("meal", mealID.String())
	}
	return m, nil
}

// List returns the user's meal catalog
func (s *MealService) List(ctx context.Context, userID uuid.UUID) ([]Meal, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Update replaces the mutable fields of one of the user's meals
func (s *MealService) Update(ctx context.Context, userID, mealID uuid.UUID, params UpdateMealParams) (*Meal, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.Get(ctx, userID, mealID)
	if err != nil {
		return nil, err
	}

	existing.Name = params.Name
	existing.Description = params.Description
	existing.MealType = params.MealType
	existing.Category = params.Category
	existing.ServingCount = params.ServingCount
	if existing.ServingCount == 0 {
		existing.ServingCount = 1
	}
	existing.PrepTimeMinutes = params.PrepTimeMinutes
	existing.Favorite = params.Favorite
	return s.repo.Update(ctx, existing)
}

// Delete removes one of the user's meals
func (s *MealService) Delete(ctx context.Context, userID, mealID uuid.UUID) error {
	if _, err := s.Get(ctx, userID, mealID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, mealID)
}
