package mealplan

import (
	"time"

	"github.com/google/uuid"

	"github.com/foodpal/foodpal/pkg/errors"
	"github.com/foodpal/foodpal/pkg/meal"
)

// Status tracks what happened to a planned meal
type Status string

const (
	StatusPlanned  Status = "planned"
	StatusPrepared Status = "prepared"
	StatusSkipped  Status = "skipped"
	StatusReplaced Status = "replaced"
)

var validStatuses = map[Status]bool{
	StatusPlanned:  true,
	StatusPrepared: true,
	StatusSkipped:  true,
	StatusReplaced: true,
}

// Entry schedules one meal for one slot of one day
type Entry struct {
	ID        uuid.UUID     `json:"id"`
	UserID    uuid.UUID     `json:"user_id"`
	MealID    uuid.UUID     `json:"meal_id"`
	PlanDate  time.Time     `json:"plan_date"`
	MealType  meal.MealType `json:"meal_type"`
	Status    Status        `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// CreateEntryParams are the caller-supplied fields for a new plan entry
type CreateEntryParams struct {
	MealID   uuid.UUID     `json:"meal_id"`
	PlanDate time.Time     `json:"plan_date"`
	MealType meal.MealType `json:"meal_type"`
}

func (p CreateEntryParams) Validate() error {
	if p.MealID == uuid.Nil {
		return errors.InvalidInput("meal_id", "must not be empty")
	}
	if p.PlanDate.IsZero() {
		return errors.InvalidInput("plan_date", "must not be empty")
	}
	if !meal.ValidMealType(p.MealType) {
		return errors.InvalidInput("meal_type", "must be breakfast, lunch, dinner or snack")
	}
	return nil
}

// ValidStatus reports whether the given status is known
func ValidStatus(s Status) bool {
	return validStatuses[s]
}

// Period selects the window a statistics query covers
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// Days returns the number of days after the start date the period spans.
// The month window is a fixed 30 days.
func (p Period) Days() (int, error) {
	switch p {
	case PeriodDay:
		return 0, nil
	case PeriodWeek:
		return 6, nil
	case PeriodMonth:
		return 30, nil
	default:
		return 0, errors.InvalidInput("period", "must be day, week or month")
	}
}

// Statistics summarizes how a stretch of the plan went: how much was
// planned, what actually got cooked, and which meal got prepared most often.
type Statistics struct {
	Period           Period     `json:"period"`
	From             time.Time  `json:"from"`
	To               time.Time  `json:"to"`
	TotalPlanned     int        `json:"total_planned"`
	PreparedCount    int        `json:"prepared_count"`
	SkippedCount     int        `json:"skipped_count"`
	ReplacedCount    int        `json:"replaced_count"`
	FavoriteMealID   *uuid.UUID `json:"favorite_meal_id,omitempty"`
	FavoriteMealName string     `json:"favorite_meal_name,omitempty"`
}
