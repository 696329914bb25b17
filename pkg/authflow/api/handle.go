package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"

	"github.com/foodpal/foodpal/pkg/authflow"
	"github.com/foodpal/foodpal/pkg/errors"
	"github.com/foodpal/foodpal/pkg/identity"
	"github.com/foodpal/foodpal/pkg/sessiontoken"
)

// Handle handles HTTP requests for the login flow
type Handle struct {
	flowService    *authflow.Service
	sessionService *sessiontoken.Service
}

// NewHandle creates a new login flow handler
func NewHandle(flowService *authflow.Service, sessionService *sessiontoken.Service) *Handle {
	return &Handle{
		flowService:    flowService,
		sessionService: sessionService,
	}
}

// CallbackRequest represents the request body for the authorization-code callback
type CallbackRequest struct {
	Code string `json:"code"`
}

// TokenLoginRequest represents the request body for the bearer token login
type TokenLoginRequest struct {
	IDToken string `json:"id_token"`
}

// LoginResponse represents the response body for a completed login
type LoginResponse struct {
	Status    string        `json:"status"`
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	User      identity.User `json:"user"`
}

// ProvidersResponse lists the configured identity providers
type ProvidersResponse struct {
	Providers []string `json:"providers"`
}

// ErrorResponse represents an error response. Class tells the client whether
// to retry the same login, restart from provider selection, or give up.
type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Class   string `json:"class"`
	Message string `json:"message"`
}

// Routes mounts the login flow endpoints
func (h *Handle) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/providers", h.ListProviders)
	r.Post("/{provider}/callback", h.Callback)
	r.Post("/{provider}/token", h.TokenLogin)

	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(h.sessionService.TokenAuth()))
		r.Use(jwtauth.Authenticator(h.sessionService.TokenAuth()))
		r.Get("/me", h.Me)
	})
	return r
}

// ListProviders handles listing the configured providers
func (h *Handle) ListProviders(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, ProvidersResponse{Providers: h.flowService.Providers()})
}

// Callback handles the authorization-code callback for a provider
func (h *Handle) Callback(w http.ResponseWriter, r *http.Request) {
	providerName := chi.URLParam(r, "provider")

	var req CallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, errors.InvalidInput("request body", "must be valid JSON"))
		return
	}

	result, err := h.flowService.LoginWithCode(r.Context(), providerName, req.Code)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderLogin(w, r, result)
}

// TokenLogin handles the bearer identity token login for a provider
func (h *Handle) TokenLogin(w http.ResponseWriter, r *http.Request) {
	providerName := chi.URLParam(r, "provider")

	var req TokenLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, errors.InvalidInput("request body", "must be valid JSON"))
		return
	}

	result, err := h.flowService.LoginWithIDToken(r.Context(), providerName, req.IDToken)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderLogin(w, r, result)
}

// Me returns the session claims of the authenticated user
func (h *Handle) Me(w http.ResponseWriter, r *http.Request) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		slog.Error("Failed to read session claims", "err", err)
		renderError(w, r, errors.Unauthorized("invalid session"))
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, claims)
}

func renderLogin(w http.ResponseWriter, r *http.Request, result *authflow.LoginResult) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, LoginResponse{
		Status:    "success",
		Token:     result.Credential.Token,
		ExpiresAt: result.Credential.ExpiresAt,
		User:      *result.User,
	})
}

func renderError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	render.Status(r, errors.MapErrorCodeToHTTPStatus(code))
	render.JSON(w, r, ErrorResponse{
		Status:  "error",
		Code:    string(code),
		Class:   string(errors.Classify(err)),
		Message: err.Error(),
	})
}
