package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"

	"github.com/foodpal/foodpal/pkg/client"
	"github.com/foodpal/foodpal/pkg/errors"
	"github.com/foodpal/foodpal/pkg/meal"
)

// Handle handles HTTP requests for the meal catalog
type Handle struct {
	mealService *meal.MealService
}

// NewHandle creates a new meal API handler
func NewHandle(mealService *meal.MealService) *Handle {
	return &Handle{mealService: mealService}
}

// MealResponse represents a meal in API responses
type MealResponse struct {
	ID              uuid.UUID         `json:"id"`
	Name            string            `json:"name"`
	Description     string            `json:"description,omitempty"`
	MealType        meal.MealType     `json:"meal_type"`
	Category        meal.MealCategory `json:"category"`
	ServingCount    int               `json:"serving_count"`
	PrepTimeMinutes int               `json:"prep_time_minutes,omitempty"`
	Favorite        bool              `json:"is_favorite"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// ListMealsResponse represents the meal catalog listing
type ListMealsResponse struct {
	Meals []MealResponse `json:"meals"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Routes mounts the meal catalog endpoints. The router must already carry the
// session token middleware chain.
func (h *Handle) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{mealID}", h.Get)
	r.Put("/{mealID}", h.Update)
	r.Delete("/{mealID}", h.Delete)
	return r
}

func toMealResponse(m *meal.Meal) MealResponse {
	var resp MealResponse
	if err := copier.Copy(&resp, m); err != nil {
		slog.Error("Failed to map meal response", "err", err)
	}
	return resp
}

// List handles listing the user's meal catalog
func (h *Handle) List(w http.ResponseWriter, r *http.Request) {
	authUser, ok := client.FromContext(r.Context())
	if !ok {
		renderError(w, r, errors.Unauthorized("missing session"))
		return
	}

	meals, err := h.mealService.List(r.Context(), authUser.UserID)
	if err != nil {
		slog.Error("Failed to list meals", "user", authUser, "err", err)
		renderError(w, r, err)
		return
	}

	resp := ListMealsResponse{Meals: make([]MealResponse, 0, len(meals))}
	for i := range meals {
		resp.Meals = append(resp.Meals, toMealResponse(&meals[i]))
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}

// Create handles adding a meal to the catalog
func (h *Handle) Create(w http.ResponseWriter, r *http.Request) {
	authUser, ok := client.FromContext(r.Context())
	if !ok {
		renderError(w, r, errors.Unauthorized("missing session"))
		return
	}

	var params meal.CreateMealParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		renderError(w, r, errors.InvalidInput("request body", "must be valid JSON"))
		return
	}

	created, err := h.mealService.Create(r.Context(), authUser.UserID, params)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toMealResponse(created))
}

// Get handles fetching a single meal
func (h *Handle) Get(w http.ResponseWriter, r *http.Request) {
	authUser, ok := client.FromContext(r.Context())
	if !ok {
		renderError(w, r, errors.Unauthorized("missing session"))
		return
	}

	mealID, err := uuid.Parse(chi.URLParam(r, "mealID"))
	if err != nil {
		renderError(w, r, errors.InvalidInput("mealID", "must be a UUID"))
		return
	}

	m, err := h.mealService.Get(r.Context(), authUser.UserID, mealID)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, toMealResponse(m))
}

// Update handles replacing a meal's fields
func (h *Handle) Update(w http.ResponseWriter, r *http.Request) {
	authUser, ok := client.FromContext(r.Context())
	if !ok {
		renderError(w, r, errors.Unauthorized("missing session"))
		return
	}

	mealID, err := uuid.Parse(chi.URLParam(r, "mealID"))
	if err != nil {
		renderError(w, r, errors.InvalidInput("mealID", "must be a UUID"))
		return
	}

	var params meal.UpdateMealParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		renderError(w, r, errors.InvalidInput("request body", "must be valid JSON"))
		return
	}

	updated, err := h.mealService.Update(r.Context(), authUser.UserID, mealID, params)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, toMealResponse(updated))
}

// Delete handles removing a meal from the catalog
func (h *Handle) Delete(w http.ResponseWriter, r *http.Request) {
	authUser, ok := client.FromContext(r.Context())
	if !ok {
		renderError(w, r, errors.Unauthorized("missing session"))
		return
	}

	mealID, err := uuid.Parse(chi.URLParam(r, "mealID"))
	if err != nil {
		renderError(w, r, errors.InvalidInput("mealID", "must be a UUID"))
		return
	}

	if err := h.mealService.Delete(r.Context(), authUser.UserID, mealID); err != nil {
		renderError(w, r, err)
		return
	}
	render.Status(r, http.StatusNoContent)
	render.NoContent(w, r)
}

func renderError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	render.Status(r, errors.MapErrorCodeToHTTPStatus(code))
	render.JSON(w, r, ErrorResponse{
		Status:  "error",
		Code:    string(code),
		Message: err.Error(),
	})
}
