package rating

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/foodpal/foodpal/pkg/meal"
)

// RatingService records how meals turned out. Ratings feed the average shown
// next to each catalog entry.
type RatingService struct {
	repo  Repository
	meals *meal.MealService
}

// NewRatingService creates a new rating service
func NewRatingService(repo Repository, meals *meal.MealService) *RatingService {
	return &RatingService{repo: repo, meals: meals}
}

// Rate records or replaces the user's score for one of their meals
func (s *RatingService) Rate(ctx context.Context, userID, mealID uuid.UUID, params RateParams) (*Rating, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.meals.Get(ctx, userID, mealID); err != nil {
		return nil, err
	}

	saved, err := s.repo.Upsert(ctx, &Rating{
		MealID:  mealID,
		UserID:  userID,
		Score:   params.Score,
		Comment: params.Comment,
	})
	if err != nil {
		slog.Error("Failed to save rating", "user_id", userID, "meal_id", mealID, "err", err)
		return nil, err
	}
	return saved, nil
}

// Get returns the user's rating for a meal
func (s *RatingService) Get(ctx context.Context, userID, mealID uuid.UUID) (*Rating, error) {
	if _, err := s.meals.Get(ctx, userID, mealID); err != nil {
		return nil, err
	}
	return s.repo.GetByMealAndUser(ctx, mealID, userID)
}

// Summary returns the aggregate rating for one of the user's meals
func (s *RatingService) Summary(ctx context.Context, userID, mealID uuid.UUID) (*Summary, error) {
	if _, err := s.meals.Get(ctx, userID, mealID); err != nil {
		return nil, err
	}
	return s.repo.SummaryForMeal(ctx, mealID)
}

// Remove deletes the user's rating for a meal
func (s *RatingService) Remove(ctx context.Context, userID, mealID uuid.UUID) error {
	if _, err := s.meals.Get(ctx, userID, mealID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, mealID, userID)
}
