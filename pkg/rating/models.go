package rating

import (
	"time"

	"github.com/google/uuid"

	"github.com/foodpal/foodpal/pkg/errors"
)

// Rating is one user's score for one meal. A user holds at most one rating
// per meal; rating again overwrites the previous score.
type Rating struct {
	ID        uuid.UUID `json:"id"`
	MealID    uuid.UUID `json:"meal_id"`
	UserID    uuid.UUID `json:"user_id"`
	Score     int       `json:"score"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary aggregates the ratings of one meal
type Summary struct {
	MealID  uuid.UUID `json:"meal_id"`
	Average float64   `json:"average"`
	Count   int       `json:"count"`
}

// RateParams are the caller-supplied fields for a rating
type RateParams struct {
	Score   int    `json:"score"`
	Comment string `json:"comment"`
}

func (p RateParams) Validate() error {
	if p.Score < 1 || p.Score > 5 {
		return errors.InvalidInput("score", "must be between 1 and 5")
	}
	return nil
}
