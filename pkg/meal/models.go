package meal

import (
	"time"

	"github.com/google/uuid"

	"github.com/foodpal/foodpal/pkg/errors"
)

// MealType slots a meal into a part of the day
type MealType string

const (
	MealTypeBreakfast MealType = "breakfast"
	MealTypeLunch     MealType = "lunch"
	MealTypeDinner    MealType = "dinner"
	MealTypeSnack     MealType = "snack"
)

// MealCategory is a coarse cuisine grouping used for filtering and rotation
type MealCategory string

const (
	CategoryVegetarian MealCategory = "vegetarian"
	CategoryMeat       MealCategory = "meat"
	CategoryFish       MealCategory = "fish"
	CategoryPasta      MealCategory = "pasta"
	CategorySoup       MealCategory = "soup"
	CategorySalad      MealCategory = "salad"
	CategoryDessert    MealCategory = "dessert"
	CategoryOther      MealCategory = "other"
)

// Meal is a dish in a user's personal catalog
type Meal struct {
	ID              uuid.UUID    `json:"id"`
	UserID          uuid.UUID    `json:"user_id"`
	Name            string       `json:"name"`
	Description     string       `json:"description,omitempty"`
	MealType        MealType     `json:"meal_type"`
	Category        MealCategory `json:"category"`
	ServingCount    int          `json:"serving_count"`
	PrepTimeMinutes int          `json:"prep_time_minutes,omitempty"`
	Favorite        bool         `json:"is_favorite"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// CreateMealParams are the caller-supplied fields for a new meal. A zero
// serving count defaults to one serving.
type CreateMealParams struct {
	Name            string       `json:"name"`
	Description     string       `json:"description"`
	MealType        MealType     `json:"meal_type"`
	Category        MealCategory `json:"category"`
	ServingCount    int          `json:"serving_count"`
	PrepTimeMinutes int          `json:"prep_time_minutes"`
	Favorite        bool         `json:"is_favorite"`
}

// UpdateMealParams are the mutable fields of a meal
type UpdateMealParams struct {
	Name            string       `json:"name"`
	Description     string       `json:"description"`
	MealType        MealType     `json:"meal_type"`
	Category        MealCategory `json:"category"`
	ServingCount    int          `json:"serving_count"`
	PrepTimeMinutes int          `json:"prep_time_minutes"`
	Favorite        bool         `json:"is_favorite"`
}

var validMealTypes = map[MealType]bool{
	MealTypeBreakfast: true,
	MealTypeLunch:     true,
	MealTypeDinner:    true,
	MealTypeSnack:     true,
}

var validCategories = map[MealCategory]bool{
	CategoryVegetarian: true,
	CategoryMeat:       true,
	CategoryFish:       true,
	CategoryPasta:      true,
	CategorySoup:       true,
	CategorySalad:      true,
	CategoryDessert:    true,
	CategoryOther:      true,
}

// ValidMealType reports whether the given meal type is known
func ValidMealType(t MealType) bool {
	return validMealTypes[t]
}

func (p CreateMealParams) Validate() error {
	if p.Name == "" {
		return errors.InvalidInput("name", "must not be empty")
	}
	if !validMealTypes[p.MealType] {
		return errors.InvalidInput("meal_type", "must be breakfast, lunch, dinner or snack")
	}
	if !validCategories[p.Category] {
		return errors.InvalidInput("category", "unknown category")
	}
	if p.ServingCount < 0 {
		return errors.InvalidInput("serving_count", "must not be negative")
	}
	if p.PrepTimeMinutes < 0 {
		return errors.InvalidInput("prep_time_minutes", "must not be negative")
	}
	return nil
}

func (p UpdateMealParams) Validate() error {
	return CreateMealParams(p).Validate()
}
