// Package main provides the entrypoint for the SurveyRoute API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/surveyroute/surveyroute/internal/api"
	"github.com/surveyroute/surveyroute/internal/api/middleware"
	"github.com/surveyroute/surveyroute/internal/database"
	"github.com/surveyroute/surveyroute/internal/planner"
	"github.com/surveyroute/surveyroute/internal/prefs"
	"github.com/surveyroute/surveyroute/internal/provider/resilience"
	"github.com/surveyroute/surveyroute/internal/routing"
	"github.com/surveyroute/surveyroute/internal/routing/openrouteservice"
	"github.com/surveyroute/surveyroute/internal/telemetry"
	"github.com/surveyroute/surveyroute/internal/weather"
	"github.com/surveyroute/surveyroute/internal/weather/openweathermap"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "surveyroute-api"

	// Load .env if present (local development)
	_ = godotenv.Load()

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting SurveyRoute API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Provider health registry
	registry := resilience.NewRegistry()

	// Initialize weather provider and service
	owmKey := os.Getenv("OPENWEATHERMAP_API_KEY")
	if owmKey == "" {
		log.Warn().Msg("OPENWEATHERMAP_API_KEY not set - weather lookups will fail")
	}
	weatherService := weather.NewService(weather.ServiceConfig{
		Provider: openweathermap.NewClient(openweathermap.ClientConfig{
			APIKey:   owmKey,
			Registry: registry,
			Logger:   log,
		}),
		Logger: log,
	})
	log.Info().Msg("weather service initialized")

	// Initialize directions provider and service. Optional: without an
	// API key the planner estimates legs from great-circle distance.
	var directions planner.DirectionsSource
	if orsKey := os.Getenv("OPENROUTESERVICE_API_KEY"); orsKey != "" {
		routingService := routing.NewService(routing.ServiceConfig{
			Provider: openrouteservice.NewClient(openrouteservice.ClientConfig{
				APIKey:   orsKey,
				Registry: registry,
				Logger:   log,
			}),
			Logger: log,
		})
		directions = routingService
		log.Info().Msg("directions service initialized")
	} else {
		log.Warn().Msg("OPENROUTESERVICE_API_KEY not set - driving legs will be estimated")
	}

	// Initialize survey plan repository and service
	prefsService := prefs.NewService(prefs.NewPostgresRepository(pool))
	log.Info().Msg("survey plan service initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:     Version,
		BuildTime:   BuildTime,
		Logger:      log,
		ServiceName: serviceName,
		Metrics:     metrics,
		Planner: planner.ServiceConfig{
			Weather:    weatherService,
			Directions: directions,
			UseSunrise: os.Getenv("USE_SUNRISE_DAY_START") == "true",
			Logger:     log,
		},
		PrefsService: prefsService,
		DB:           pool,
		Registry:     registry,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
