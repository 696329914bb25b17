package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/foodpal/foodpal/pkg/client"
	"github.com/foodpal/foodpal/pkg/errors"
	"github.com/foodpal/foodpal/pkg/rating"
)

// Handle handles HTTP requests for meal ratings
type Handle struct {
	ratingService *rating.RatingService
}

// NewHandle creates a new rating API handler
func NewHandle(ratingService *rating.RatingService) *Handle {
	return &Handle{ratingService: ratingService}
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Routes mounts the rating endpoints under a meal. The router must already
// carry the session token middleware chain.
func (h *Handle) Routes() chi.Router {
	r := chi.NewRouter()
	r.Put("/{mealID}/rating", h.Rate)
	r.Get("/{mealID}/rating", h.Get)
	r.Get("/{mealID}/rating/summary", h.Summary)
	r.Delete("/{mealID}/rating", h.Remove)
	return r
}

func (h *Handle) withIDs(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	authUser, ok := client.FromContext(r.Context())
	if !ok {
		renderError(w, r, errors.Unauthorized("missing session"))
		return uuid.Nil, uuid.Nil, false
	}
	mealID, err := uuid.Parse(chi.URLParam(r, "mealID"))
	if err != nil {
		renderError(w, r, errors.InvalidInput("mealID", "must be a UUID"))
		return uuid.Nil, uuid.Nil, false
	}
	return authUser.UserID, mealID, true
}

// Rate handles recording a score for a meal
func (h *Handle) Rate(w http.ResponseWriter, r *http.Request) {
	userID, mealID, ok := h.withIDs(w, r)
	if !ok {
		return
	}

	var params rating.RateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		renderError(w, r, errors.InvalidInput("request body", "must be valid JSON"))
		return
	}

	saved, err := h.ratingService.Rate(r.Context(), userID, mealID, params)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, saved)
}

// Get handles reading the caller's rating for a meal
func (h *Handle) Get(w http.ResponseWriter, r *http.Request) {
	userID, mealID, ok := h.withIDs(w, r)
	if !ok {
		return
	}

	rt, err := h.ratingService.Get(r.Context(), userID, mealID)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, rt)
}

// Summary handles reading the aggregate rating for a meal
func (h *Handle) Summary(w http.ResponseWriter, r *http.Request) {
	userID, mealID, ok := h.withIDs(w, r)
	if !ok {
		return
	}

	summary, err := h.ratingService.Summary(r.Context(), userID, mealID)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, summary)
}

// Remove handles deleting the caller's rating for a meal
func (h *Handle) Remove(w http.ResponseWriter, r *http.Request) {
	userID, mealID, ok := h.withIDs(w, r)
	if !ok {
		return
	}

	if err := h.ratingService.Remove(r.Context(), userID, mealID); err != nil {
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
