package mealplan

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/foodpal/foodpal/pkg/errors"
	"github.com/foodpal/foodpal/pkg/meal"
)

// PlanService schedules meals from a user's catalog onto calendar days
type PlanService struct {
	repo  Repository
	meals *meal.MealService
}

// NewPlanService creates a new plan service
func NewPlanService(repo Repository, meals *meal.MealService) *PlanService {
	return &PlanService{repo: repo, meals: meals}
}

// Schedule puts one of the user's meals on the plan
func (s *PlanService) Schedule(ctx context.Context, userID uuid.UUID, params CreateEntryParams) (*Entry, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	// only meals from the caller's own catalog can be planned
	if _, err := s.meals.Get(ctx, userID, params.MealID); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, &Entry{
		UserID:   userID,
		MealID:   params.MealID,
		PlanDate: params.PlanDate,
		MealType: params.MealType,
	})
	if err != nil {
		slog.Error("Failed to schedule meal", "user_id", userID, "meal_id", params.MealID, "err", err)
		return nil, err
	}
	return created, nil
}

// Week returns the user's plan entries for the seven days starting at from
func (s *PlanService) Week(ctx context.Context, userID uuid.UUID, from time.Time) ([]Entry, error) {
	return s.repo.ListByUserRange(ctx, userID, from, from.AddDate(0, 0, 6))
}

// SetStatus marks what happened to a planned meal
func (s *PlanService) SetStatus(ctx context.Context, userID, entryID uuid.UUID, status Status) (*Entry, error) {
	if !ValidStatus(status) {
		return nil, errors.InvalidInput("status", "must be planned, prepared, skipped or replaced")
	}

	if _, err := s.getOwned(ctx, userID, entryID); err != nil {
		return nil, err
	}
	return s.repo.UpdateStatus(ctx, entryID, status)
}

// Remove deletes a plan entry
func (s *PlanService) Remove(ctx context.Context, userID, entryID uuid.UUID) error {
	if _, err := s.getOwned(ctx, userID, entryID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, entryID)
}

// Statistics summarizes the user's plan over the period starting at from:
// status counts plus the meal prepared most often in that window.
func (s *PlanService) Statistics(ctx context.Context, userID uuid.UUID, from time.Time, period Period) (*Statistics, error) {
	days, err := period.Days()
	if err != nil {
		return nil, err
	}

	stats, err := s.repo.StatisticsForRange(ctx, userID, from, from.AddDate(0, 0, days))
	if err != nil {
		slog.Error("Failed to compute plan statistics", "user_id", userID, "err", err)
		return nil, err
	}
	stats.Period = period

	if stats.FavoriteMealID != nil {
		m, err := s.meals.Get(ctx, userID, *stats.FavoriteMealID)
		if err != nil {
			return nil, err
		}
		stats.FavoriteMealName = m.Name
	}
	return stats, nil
}

func (s *PlanService) getOwned(ctx context.Context, userID, entryID uuid.UUID) (*Entry, error) {
	e, err := s.repo.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if e.UserID != userID {
		return nil, errors.NotFound("plan entry", entryID.String())
	}
	return e, nil
}
