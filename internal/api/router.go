// Package api provides the HTTP API for AirWise.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/airwise/airwise/internal/airquality"
	"github.com/airwise/airwise/internal/api/handler"
	"github.com/airwise/airwise/internal/api/middleware"
	"github.com/airwise/airwise/internal/api/response"
	"github.com/airwise/airwise/internal/provider/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics
	RequireTLS  bool
	Clock       clockwork.Clock

	// AirQualityService serves location lookups. When nil a service without
	// a provider is used and lookups return 503.
	AirQualityService *airquality.Service

	// Registry reports upstream provider health on /v1/ops/status.
	Registry *resilience.Registry

	// EngineMetrics records indices computed by POST /v1/aqi:compute.
	EngineMetrics airquality.EngineMetrics
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "airwise-api"
	}

	airQualityService := cfg.AirQualityService
	if airQualityService == nil {
		airQualityService = airquality.NewService(airquality.ServiceConfig{Logger: cfg.Logger, Clock: cfg.Clock})
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))                     // Structured logging
	r.Use(middleware.Recovery(cfg.Logger))                   // Panic recovery
	r.Use(chimiddleware.RealIP)                              // Real IP extraction
	r.Use(middleware.SecurityHeaders)                        // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS, "/v1/ops/")) // TLS enforcement behind the load balancer
	r.Use(middleware.ContentTypeJSON)                        // JSON content type

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, r, "no route for "+r.URL.Path)
	})

	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:    cfg.Version,
		BuildTime:  cfg.BuildTime,
		Registry:   cfg.Registry,
		AirQuality: airQualityService,
		Clock:      cfg.Clock,
	})
	aqiHandler := handler.NewAQIHandler(cfg.EngineMetrics, cfg.Clock)
	airQualityHandler := handler.NewAirQualityHandler(airQualityService, cfg.Logger)
	metadataHandler := handler.NewMetadataHandler()

	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public, no rate limit for health checks)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.With(standardRateLimit).Get("/status", opsHandler.SystemStatus)
		})

		// Index computation from caller-supplied concentrations
		r.With(expensiveRateLimit, middleware.RequireJSON).Post("/aqi:compute", aqiHandler.Compute)
		r.With(standardRateLimit).Get("/pollutants/{pollutant}/status", aqiHandler.PollutantStatus)
		r.With(standardRateLimit).Get("/provider-index/{ordinal}", aqiHandler.ProviderIndex)

		// Location lookups reach the upstream provider on cache miss
		r.Route("/air-quality", func(r chi.Router) {
			r.Use(expensiveRateLimit)
			r.Get("/current", airQualityHandler.Current)
			r.Get("/forecast", airQualityHandler.Forecast)
		})

		// Static tables
		r.Route("/metadata", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/enums", metadataHandler.GetEnums)
			r.Get("/breakpoints", metadataHandler.GetBreakpoints)
			r.Get("/thresholds", metadataHandler.GetThresholds)
		})
	})

	return r
}
