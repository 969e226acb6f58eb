// Package main provides the entrypoint for the AirWise refresh worker.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/airwise/airwise/internal/airquality"
	"github.com/airwise/airwise/internal/airquality/openweathermap"
	"github.com/airwise/airwise/internal/api/response"
	"github.com/airwise/airwise/internal/config"
	"github.com/airwise/airwise/internal/provider/resilience"
	"github.com/airwise/airwise/internal/telemetry"
	"github.com/airwise/airwise/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "airwise-worker"

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
		Msg("starting AirWise worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	meter := telemetry.Meter("github.com/airwise/airwise/worker")
	engineMetrics, err := telemetry.NewEngineMetrics(meter)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize engine metrics")
	}
	providerMetrics, err := telemetry.NewProviderMetrics(meter)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize provider metrics")
	}

	if cfg.OWMAPIKey == "" {
		log.Fatal().Msg("OWM_API_KEY is required for the worker")
	}

	registry := resilience.NewRegistry()
	httpCfg := resilience.DefaultClientConfig(openweathermap.ProviderName)
	httpCfg.Timeout = cfg.OWMTimeout
	httpCfg.Registry = registry
	httpCfg.Logger = log

	aqService := airquality.NewService(airquality.ServiceConfig{
		Provider: openweathermap.NewClient(openweathermap.ClientConfig{
			APIKey:     cfg.OWMAPIKey,
			BaseURL:    cfg.OWMBaseURL,
			HTTPClient: resilience.NewClient(httpCfg),
			Logger:     log,
		}),
		Logger:          log,
		CacheTTL:        cfg.CacheTTL,
		CacheGridSize:   cfg.CacheGridSize,
		StaleIfErrorTTL: cfg.StaleIfErrorTTL,
		ProviderMetrics: providerMetrics,
		EngineMetrics:   engineMetrics,
	})

	var publisher worker.Publisher
	if cfg.KafkaEnabled() {
		publisher = worker.NewKafkaPublisher(worker.KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
		})
		log.Info().
			Strs("brokers", cfg.KafkaBrokers).
			Str("topic", cfg.KafkaTopic).
			Msg("publishing assessments to kafka")
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close kafka publisher")
			}
		}()
	}

	refreshCfg := worker.DefaultRefreshConfig()
	refreshCfg.Concurrency = cfg.RefreshConcurrency

	refreshJob := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:    refreshCfg,
		Logger:    log,
		Source:    aqService,
		Publisher: publisher,
	})

	// Health endpoint for the container platform.
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		circuits := make(map[string]string)
		for _, h := range registry.GetAllHealth() {
			circuits[h.Name] = h.CircuitState.String()
		}
		response.JSON(w, req, http.StatusOK, map[string]interface{}{
			"status":   registry.Status(),
			"version":  Version,
			"circuits": circuits,
			"refresh":  refreshJob.MetricsSnapshot(),
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	done := make(chan struct{})
	if cfg.PubSubEnabled() {
		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        cfg.PubSubProjectID,
			SubscriptionName: cfg.PubSubSubscription,
			RefreshJob:       refreshJob,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer func() {
			if err := handler.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close pubsub client")
			}
		}()

		go func() {
			defer close(done)
			if err := handler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("pubsub handler stopped")
			}
		}()
	} else {
		go func() {
			defer close(done)
			runTicker(ctx, log, refreshJob, cfg.RefreshInterval)
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	select {
	case <-done:
	case <-shutdownCtx.Done():
		log.Warn().Msg("refresh loop did not stop before shutdown timeout")
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}

// runTicker refreshes immediately and then every interval until ctx ends.
func runTicker(ctx context.Context, log zerolog.Logger, job *worker.RefreshJob, interval time.Duration) {
	log.Info().Dur("interval", interval).Msg("running refresh on a ticker")

	runner := worker.NewJobRunner(job, log)
	refresh := func() {
		if err := runner.ProviderRefresh(ctx, false); err != nil {
			log.Warn().Err(err).Msg("refresh run failed")
		}
	}

	refresh()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		}
	}
}
