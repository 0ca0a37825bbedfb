// Package api provides the HTTP API for SurveyRoute.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/surveyroute/surveyroute/internal/api/handler"
	"github.com/surveyroute/surveyroute/internal/api/middleware"
	"github.com/surveyroute/surveyroute/internal/planner"
	"github.com/surveyroute/surveyroute/internal/prefs"
	"github.com/surveyroute/surveyroute/internal/provider/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	// Planner is the base planner configuration shared by planning
	// requests.
	Planner planner.ServiceConfig

	// PrefsService backs the saved survey plan endpoints.
	PrefsService *prefs.Service

	// DB is pinged by readiness and status checks. Optional.
	DB handler.Pinger

	// Registry reports external provider health. Optional.
	Registry *resilience.Registry
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "surveyroute-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.DB, cfg.Registry)
	planHandler := handler.NewPlanHandler(cfg.Planner)
	prefsHandler := handler.NewPrefsHandler(cfg.PrefsService)

	// Rate limit middleware for different endpoint categories
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		// Planning endpoints - expensive compute, strict rate limiting
		r.With(expensiveRateLimit).Post("/routes:optimize", planHandler.OptimizeRoute)

		// Audit and realign are pure recomputation - standard rate limiting
		r.With(standardRateLimit).Post("/routes:audit", planHandler.AuditRoute)
		r.With(standardRateLimit).Post("/routes:realign", planHandler.RealignRoute)

		// Saved survey plans - standard rate limiting
		r.Route("/plans", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/", prefsHandler.ListPlans)
			r.Post("/", prefsHandler.CreatePlan)
			r.Route("/{planId}", func(r chi.Router) {
				r.Get("/", prefsHandler.GetPlan)
				r.Put("/", prefsHandler.UpdatePlan)
				r.Delete("/", prefsHandler.DeletePlan)
			})
		})
	})

	return r
}
