package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/tendant/chi-demo/app"

	"github.com/foodpal/foodpal/pkg/authflow"
	authflowapi "github.com/foodpal/foodpal/pkg/authflow/api"
	"github.com/foodpal/foodpal/pkg/client"
	"github.com/foodpal/foodpal/pkg/config"
	"github.com/foodpal/foodpal/pkg/identity"
	"github.com/foodpal/foodpal/pkg/meal"
	mealapi "github.com/foodpal/foodpal/pkg/meal/api"
	"github.com/foodpal/foodpal/pkg/mealplan"
	mealplanapi "github.com/foodpal/foodpal/pkg/mealplan/api"
	"github.com/foodpal/foodpal/pkg/provider"
	"github.com/foodpal/foodpal/pkg/rating"
	ratingapi "github.com/foodpal/foodpal/pkg/rating/api"
	"github.com/foodpal/foodpal/pkg/sessiontoken"
	"github.com/foodpal/foodpal/pkg/user"
)

// Config aggregates all service configuration read from the environment
type Config struct {
	DatabaseConfig config.DatabaseConfig
	SessionConfig  config.SessionConfig
	ProviderConfig config.ExternalProviderConfig
	AppConfig      app.AppConfig
}

func loadEnvFile() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		return
	}

	slog.Info("Loading configuration from .env file", "path", envFile)
	if err := godotenv.Load(envFile); err != nil {
		slog.Error("Failed to load .env file", "err", err, "path", envFile)
	}
}

// buildProviderRegistry turns the environment settings into the immutable set
// of trusted identity providers
func buildProviderRegistry(cfg config.ExternalProviderConfig) (*provider.Registry, error) {
	var configs []provider.Config

	if cfg.IsAzureConfigured() {
		configs = append(configs, provider.Config{
			Name:          provider.ProviderAzure,
			IssuerURL:     cfg.AzureIssuerURL(),
			ClientID:      cfg.AzureClientID,
			ClientSecret:  cfg.AzureClientSecret,
			JWKSURI:       cfg.AzureJWKSURI(),
			TokenEndpoint: cfg.AzureTokenEndpoint(),
			RedirectURI:   cfg.AzureRedirectURI,
			Flow:          provider.FlowAuthorizationCode,
		})
	}

	if cfg.IsGoogleConfigured() {
		configs = append(configs, provider.Config{
			Name:       provider.ProviderGoogle,
			IssuerURL:  "https://accounts.google.com",
			AltIssuers: []string{"accounts.google.com"},
			ClientID:   cfg.GoogleClientID,
			JWKSURI:    "https://www.googleapis.com/oauth2/v3/certs",
			Flow:       provider.FlowBearerIDToken,
		})
	}

	return provider.NewRegistry(configs...)
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
	}))
	slog.SetDefault(logger)

	loadEnvFile()

	cfg := Config{}
	cleanenv.ReadEnv(&cfg)

	server := app.DefaultApp()
	app.RoutesHealthz(server.R)

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseConfig.ToDatabaseURL())
	if err != nil {
		slog.Error("Failed to create database pool", "err", err)
		os.Exit(-1)
	}

	sessionService, err := sessiontoken.NewServiceFromConfig(cfg.SessionConfig)
	if err != nil {
		slog.Error("Failed to configure session tokens", "err", err)
		os.Exit(-1)
	}

	registry, err := buildProviderRegistry(cfg.ProviderConfig)
	if err != nil {
		slog.Error("Failed to configure identity providers", "err", err)
		os.Exit(-1)
	}
	slog.Info("Identity providers configured", "providers", registry.Names())

	keySetTTL, err := config.ParseDurationISO8601(cfg.ProviderConfig.KeySetTTL)
	if err != nil {
		slog.Error("Invalid provider key set TTL", "err", err)
		os.Exit(-1)
	}

	providerTimeout, err := config.ParseDurationISO8601(cfg.ProviderConfig.HTTPTimeout)
	if err != nil {
		slog.Error("Invalid provider HTTP timeout", "err", err)
		os.Exit(-1)
	}
	providerClient := &http.Client{Timeout: providerTimeout}

	flowService := authflow.NewService(
		registry,
		provider.NewExchanger(provider.WithExchangeHTTPClient(providerClient)),
		provider.NewVerifier(provider.NewKeySetCache(keySetTTL, provider.WithHTTPClient(providerClient))),
		identity.NewResolver(user.NewPostgresUserStore(pool)),
		sessionService,
	)

	mealService := meal.NewMealService(meal.NewPostgresRepository(pool))
	planService := mealplan.NewPlanService(mealplan.NewPostgresRepository(pool), mealService)
	ratingService := rating.NewRatingService(rating.NewPostgresRepository(pool), mealService)

	server.R.Mount("/auth", authflowapi.NewHandle(flowService, sessionService).Routes())

	server.R.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(sessionService.TokenAuth()))
		r.Use(jwtauth.Authenticator(sessionService.TokenAuth()))
		r.Use(client.AuthUserMiddleware)

		r.Mount("/meals", mealapi.NewHandle(mealService).Routes())
		r.Mount("/plan", mealplanapi.NewHandle(planService).Routes())
		r.Mount("/ratings", ratingapi.NewHandle(ratingService).Routes())
	})

	server.Run()
}
