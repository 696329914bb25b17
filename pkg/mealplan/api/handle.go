package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/foodpal/foodpal/pkg/client"
	"github.com/foodpal/foodpal/pkg/errors"
	"github.com/foodpal/foodpal/pkg/meal"
	"github.com/foodpal/foodpal/pkg/mealplan"
)

const dateLayout = "2006-01-02"

// Handle handles HTTP requests for the weekly meal plan
type Handle struct {
	planService *mealplan.PlanService
}

// NewHandle creates a new plan API handler
func NewHandle(planService *mealplan.PlanService) *Handle {
	return &Handle{planService: planService}
}

// ScheduleRequest represents the request body for scheduling a meal
type ScheduleRequest struct {
	MealID   uuid.UUID     `json:"meal_id"`
	PlanDate string        `json:"plan_date"`
	MealType meal.MealType `json:"meal_type"`
}

// SetStatusRequest represents the request body for a status update
type SetStatusRequest struct {
	Status mealplan.Status `json:"status"`
}

// WeekResponse represents one week of plan entries
type WeekResponse struct {
	From    string           `json:"from"`
	Entries []mealplan.Entry `json:"entries"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Routes mounts the plan endpoints. The router must already carry the session
// token middleware chain.
func (h *Handle) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/week", h.Week)
	r.Get("/statistics/{period}", h.Statistics)
	r.Post("/", h.Schedule)
	r.Put("/{entryID}/status", h.SetStatus)
	r.Delete("/{entryID}", h.Remove)
	return r
}

// Statistics handles summarizing the plan for a period starting at the from
// query date (today when absent)
func (h *Handle) Statistics(w http.ResponseWriter, r *http.Request) {
	authUser, ok := client.FromContext(r.Context())
	if !ok {
		renderError(w, r, errors.Unauthorized("missing session"))
		return
	}

	period := mealplan.Period(chi.URLParam(r, "period"))

	from := time.Now().UTC().Truncate(24 * time.Hour)
	if fromParam := r.URL.Query().Get("from"); fromParam != "" {
		parsed, err := time.Parse(dateLayout, fromParam)
		if err != nil {
			renderError(w, r, errors.InvalidInput("from", "must be a YYYY-MM-DD date"))
			return
		}
		from = parsed
	}

	stats, err := h.planService.Statistics(r.Context(), authUser.UserID, from, period)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, stats)
}

// Week handles listing the plan for the week starting at the from query date
func (h *Handle) Week(w http.ResponseWriter, r *http.Request) {
	authUser, ok := client.FromContext(r.Context())
	if !ok {
		renderError(w, r, errors.Unauthorized("missing session"))
		return
	}

	fromParam := r.URL.Query().Get("from")
	from, err := time.Parse(dateLayout, fromParam)
	if err != nil {
		renderError(w, r, errors.InvalidInput("from", "must be a YYYY-MM-DD date"))
		return
	}

	entries, err := h.planService.Week(r.Context(), authUser.UserID, from)
	if err != nil {
		renderError(w, r, err)
		return
	}
	if entries == nil {
		entries = []mealplan.Entry{}
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, WeekResponse{From: fromParam, Entries: entries})
}

// Schedule handles adding a meal to the plan
func (h *Handle) Schedule(w http.ResponseWriter, r *http.Request) {
	authUser, ok := client.FromContext(r.Context())
	if !ok {
		renderError(w, r, errors.Unauthorized("missing session"))
		return
	}

	var req ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, errors.InvalidInput("request body", "must be valid JSON"))
		return
	}
	planDate, err := time.Parse(dateLayout, req.PlanDate)
	if err != nil {
		renderError(w, r, errors.InvalidInput("plan_date", "must be a YYYY-MM-DD date"))
		return
	}

	entry, err := h.planService.Schedule(r.Context(), authUser.UserID, mealplan.CreateEntryParams{
		MealID:   req.MealID,
		PlanDate: planDate,
		MealType: req.MealType,
	})
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, entry)
}

// SetStatus handles marking what happened to a planned meal
func (h *Handle) SetStatus(w http.ResponseWriter, r *http.Request) {
	authUser, ok := client.FromContext(r.Context())
	if !ok {
		renderError(w, r, errors.Unauthorized("missing session"))
		return
	}

	entryID, err := uuid.Parse(chi.URLParam(r, "entryID"))
	if err != nil {
		renderError(w, r, errors.InvalidInput("entryID", "must be a UUID"))
		return
	}

	var req SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, errors.InvalidInput("request body", "must be valid JSON"))
		return
	}

	entry, err := h.planService.SetStatus(r.Context(), authUser.UserID, entryID, req.Status)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, entry)
}

// Remove handles deleting a plan entry
func (h *Handle) Remove(w http.ResponseWriter, r *http.Request) {
	authUser, ok := client.FromContext(r.Context())
	if !ok {
		renderError(w, r, errors.Unauthorized("missing session"))
		return
	}

	entryID, err := uuid.Parse(chi.URLParam(r, "entryID"))
	if err != nil {
		renderError(w, r, errors.InvalidInput("entryID", "must be a UUID"))
		return
	}

	if err := h.planService.Remove(r.Context(), authUser.UserID, entryID); err != nil {
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
