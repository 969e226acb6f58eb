// Package main provides the entrypoint for the AirWise API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/airwise/airwise/internal/airquality"
	"github.com/airwise/airwise/internal/airquality/openweathermap"
	"github.com/airwise/airwise/internal/api"
	"github.com/airwise/airwise/internal/api/middleware"
	"github.com/airwise/airwise/internal/config"
	"github.com/airwise/airwise/internal/provider/resilience"
	"github.com/airwise/airwise/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "airwise-api"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	log = log.Level(cfg.Level())

	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Env).
		Msg("starting AirWise API")

	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTELEnabled,
		SampleRatio:    cfg.OTELSampleRatio,
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

	if cfg.OTELEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	meter := telemetry.Meter("github.com/airwise/airwise")
	engineMetrics, err := telemetry.NewEngineMetrics(meter)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize engine metrics")
	}
	providerMetrics, err := telemetry.NewProviderMetrics(meter)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize provider metrics")
	}

	registry := resilience.NewRegistry()

	var provider airquality.Provider
	if cfg.OWMAPIKey != "" {
		httpCfg := resilience.DefaultClientConfig(openweathermap.ProviderName)
		httpCfg.Timeout = cfg.OWMTimeout
		httpCfg.Registry = registry
		httpCfg.Logger = log

		provider = openweathermap.NewClient(openweathermap.ClientConfig{
			APIKey:     cfg.OWMAPIKey,
			BaseURL:    cfg.OWMBaseURL,
			HTTPClient: resilience.NewClient(httpCfg),
			Logger:     log,
		})
		log.Info().Str("provider", openweathermap.ProviderName).Msg("air quality provider configured")
	} else {
		log.Warn().Msg("OWM_API_KEY not set - air quality lookups will be unavailable")
	}

	aqService := airquality.NewService(airquality.ServiceConfig{
		Provider:        provider,
		Logger:          log,
		CacheTTL:        cfg.CacheTTL,
		CacheGridSize:   cfg.CacheGridSize,
		StaleIfErrorTTL: cfg.StaleIfErrorTTL,
		ProviderMetrics: providerMetrics,
		EngineMetrics:   engineMetrics,
	})

	router := api.NewRouter(api.RouterConfig{
		Version:           Version,
		BuildTime:         BuildTime,
		Logger:            log,
		ServiceName:       serviceName,
		Metrics:           metrics,
		RequireTLS:        cfg.RequireTLS,
		AirQualityService: aqService,
		Registry:          registry,
		EngineMetrics:     engineMetrics,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
