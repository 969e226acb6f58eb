package airquality

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// Provider defines the interface for air quality data providers.
type Provider interface {
	// GetCurrent fetches the current observation for a location.
	GetCurrent(ctx context.Context, lat, lon float64) (*Observation, error)

	// GetForecast fetches hourly forecast observations for a location.
	GetForecast(ctx context.Context, lat, lon float64) ([]*Observation, error)

	// Name returns the provider name for logging.
	Name() string
}

// ProviderMetrics records upstream calls and cache behaviour.
type ProviderMetrics interface {
	RecordRequest(provider, operation string, duration time.Duration, err error)
	RecordCacheHit(provider, operation string)
	RecordCacheMiss(provider, operation string)
}

// EngineMetrics records computed indices.
type EngineMetrics interface {
	RecordIndex(ctx context.Context, index int, category string, invalid bool, extrapolated int)
}

// ServiceConfig holds configuration for the air quality service.
type ServiceConfig struct {
	// Provider is the air quality data provider. When nil every lookup
	// returns ErrProviderUnavailable.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// Clock drives cache expiry (default: real clock).
	Clock clockwork.Clock

	// CacheTTL is how long to cache observations (default: 10 minutes).
	CacheTTL time.Duration

	// CacheGridSize is the size of cache grid cells in degrees (default: 0.1).
	// Points within the same grid cell share cached data.
	CacheGridSize float64

	// StaleIfErrorTTL allows serving stale data on provider errors (default: 1 hour).
	StaleIfErrorTTL time.Duration

	ProviderMetrics ProviderMetrics
	EngineMetrics   EngineMetrics
}

// Service turns provider observations into assessments, with caching.
type Service struct {
	provider        Provider
	logger          zerolog.Logger
	clock           clockwork.Clock
	cacheTTL        time.Duration
	cacheGridSize   float64
	staleIfErrorTTL time.Duration
	providerMetrics ProviderMetrics
	engineMetrics   EngineMetrics

	mu              sync.RWMutex
	currentCache    map[string]*cachedObservation
	forecastCache   map[string]*cachedForecast
	lastCleanup     time.Time
	cleanupInterval time.Duration
}

type cachedObservation struct {
	observation *Observation
	fetchedAt   time.Time
	expiresAt   time.Time
}

type cachedForecast struct {
	observations []*Observation
	fetchedAt    time.Time
	expiresAt    time.Time
}

const (
	operationCurrent  = "current"
	operationForecast = "forecast"
)

// NewService creates a new air quality service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 10 * time.Minute
	}

	cacheGridSize := cfg.CacheGridSize
	if cacheGridSize <= 0 {
		cacheGridSize = 0.1 // ~11km at equator
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 1 * time.Hour
	}

	clk := cfg.Clock
	if clk == nil {
		clk = clockwork.NewRealClock()
	}

	return &Service{
		provider:        cfg.Provider,
		logger:          cfg.Logger,
		clock:           clk,
		cacheTTL:        cacheTTL,
		cacheGridSize:   cacheGridSize,
		staleIfErrorTTL: staleIfErrorTTL,
		providerMetrics: cfg.ProviderMetrics,
		engineMetrics:   cfg.EngineMetrics,
		currentCache:    make(map[string]*cachedObservation),
		forecastCache:   make(map[string]*cachedForecast),
		cleanupInterval: 5 * time.Minute,
	}
}

// ProviderName returns the configured provider's name, or "" when none is set.
func (s *Service) ProviderName() string {
	if s.provider == nil {
		return ""
	}
	return s.provider.Name()
}

// GetAssessment returns the assessment for a location.
func (s *Service) GetAssessment(ctx context.Context, lat, lon float64) (*Assessment, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}
	if s.provider == nil {
		return nil, ErrProviderUnavailable
	}

	obs, err := s.currentObservation(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	assessment := s.assess(ctx, obs)
	return &assessment, nil
}

// GetForecast returns hourly assessments for a location.
func (s *Service) GetForecast(ctx context.Context, lat, lon float64) ([]*Assessment, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}
	if s.provider == nil {
		return nil, ErrProviderUnavailable
	}

	observations, err := s.forecastObservations(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	assessments := make([]*Assessment, 0, len(observations))
	for _, obs := range observations {
		a := s.assess(ctx, obs)
		assessments = append(assessments, &a)
	}
	return assessments, nil
}

func (s *Service) assess(ctx context.Context, obs *Observation) Assessment {
	a := Assess(*obs, s.clock.Now())

	if a.ReadingError != nil {
		s.logger.Warn().
			Err(a.ReadingError).
			Str("provider", obs.Provider).
			Float64("lat", obs.Lat).
			Float64("lon", obs.Lon).
			Msg("provider reading failed validation, using best-effort index")
	}
	if err := ValidateProviderIndex(obs.ProviderIndex); err != nil {
		s.logger.Warn().
			Err(err).
			Str("provider", obs.Provider).
			Msg("provider index out of contract, using neutral band")
	}

	if s.engineMetrics != nil {
		s.engineMetrics.RecordIndex(ctx, a.Index.Value, a.Status, a.ReadingError != nil, len(a.Index.Extrapolated))
	}
	return a
}

func (s *Service) currentObservation(ctx context.Context, lat, lon float64) (*Observation, error) {
	cacheKey := s.cacheKey(lat, lon)

	s.mu.RLock()
	if cached, ok := s.currentCache[cacheKey]; ok && s.clock.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		s.recordCacheHit(operationCurrent)
		return cached.observation, nil
	}
	s.mu.RUnlock()

	return s.fetchCurrent(ctx, lat, lon, cacheKey)
}

func (s *Service) forecastObservations(ctx context.Context, lat, lon float64) ([]*Observation, error) {
	cacheKey := s.cacheKey(lat, lon)

	s.mu.RLock()
	if cached, ok := s.forecastCache[cacheKey]; ok && s.clock.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		s.recordCacheHit(operationForecast)
		return cached.observations, nil
	}
	s.mu.RUnlock()

	return s.fetchForecast(ctx, lat, lon, cacheKey)
}

// fetchCurrent fetches from the provider and updates the cache.
func (s *Service) fetchCurrent(ctx context.Context, lat, lon float64, cacheKey string) (*Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check: another goroutine might have refreshed while we waited
	if cached, ok := s.currentCache[cacheKey]; ok && s.clock.Now().Before(cached.expiresAt) {
		s.recordCacheHit(operationCurrent)
		return cached.observation, nil
	}
	s.recordCacheMiss(operationCurrent)

	s.logger.Debug().
		Float64("lat", lat).
		Float64("lon", lon).
		Str("provider", s.provider.Name()).
		Msg("fetching air quality from provider")

	start := s.clock.Now()
	obs, err := s.provider.GetCurrent(ctx, lat, lon)
	s.recordRequest(operationCurrent, s.clock.Since(start), err)
	if err != nil {
		s.logger.Error().Err(err).
			Float64("lat", lat).
			Float64("lon", lon).
			Msg("failed to fetch air quality")

		if cached, ok := s.currentCache[cacheKey]; ok && s.clock.Now().Before(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
			s.logger.Warn().
				Time("fetched_at", cached.fetchedAt).
				Msg("serving stale air quality data due to provider error")
			return cached.observation, nil
		}

		return nil, providerError(err)
	}

	now := s.clock.Now()
	s.currentCache[cacheKey] = &cachedObservation{
		observation: obs,
		fetchedAt:   now,
		expiresAt:   now.Add(s.cacheTTL),
	}

	s.cleanupIfNeeded()

	return obs, nil
}

// fetchForecast fetches a forecast from the provider and updates the cache.
func (s *Service) fetchForecast(ctx context.Context, lat, lon float64, cacheKey string) ([]*Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.forecastCache[cacheKey]; ok && s.clock.Now().Before(cached.expiresAt) {
		s.recordCacheHit(operationForecast)
		return cached.observations, nil
	}
	s.recordCacheMiss(operationForecast)

	s.logger.Debug().
		Float64("lat", lat).
		Float64("lon", lon).
		Str("provider", s.provider.Name()).
		Msg("fetching air quality forecast from provider")

	start := s.clock.Now()
	observations, err := s.provider.GetForecast(ctx, lat, lon)
	s.recordRequest(operationForecast, s.clock.Since(start), err)
	if err != nil {
		s.logger.Error().Err(err).
			Float64("lat", lat).
			Float64("lon", lon).
			Msg("failed to fetch air quality forecast")

		if cached, ok := s.forecastCache[cacheKey]; ok && s.clock.Now().Before(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
			s.logger.Warn().
				Time("fetched_at", cached.fetchedAt).
				Msg("serving stale air quality forecast due to provider error")
			return cached.observations, nil
		}

		return nil, providerError(err)
	}

	now := s.clock.Now()
	s.forecastCache[cacheKey] = &cachedForecast{
		observations: observations,
		fetchedAt:    now,
		expiresAt:    now.Add(s.cacheTTL),
	}

	s.cleanupIfNeeded()

	return observations, nil
}

// providerError keeps ErrNoMeasurements visible and folds everything else
// into ErrProviderUnavailable.
func providerError(err error) error {
	if errors.Is(err, ErrNoMeasurements) {
		return ErrNoMeasurements
	}
	return fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
}

// cacheKey groups nearby points into grid cells to reduce API calls.
func (s *Service) cacheKey(lat, lon float64) string {
	gridLat := math.Floor(lat/s.cacheGridSize) * s.cacheGridSize
	gridLon := math.Floor(lon/s.cacheGridSize) * s.cacheGridSize
	return fmt.Sprintf("%.2f:%.2f", gridLat, gridLon)
}

// cleanupIfNeeded removes entries past the stale window. Callers hold s.mu.
func (s *Service) cleanupIfNeeded() {
	now := s.clock.Now()
	if now.Sub(s.lastCleanup) < s.cleanupInterval {
		return
	}

	s.lastCleanup = now
	expired := 0

	for key, cached := range s.currentCache {
		if now.After(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
			delete(s.currentCache, key)
			expired++
		}
	}

	for key, cached := range s.forecastCache {
		if now.After(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
			delete(s.forecastCache, key)
			expired++
		}
	}

	if expired > 0 {
		s.logger.Debug().
			Int("expired_entries", expired).
			Msg("cleaned up expired air quality cache entries")
	}
}

// InvalidateCache clears all cached data.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentCache = make(map[string]*cachedObservation)
	s.forecastCache = make(map[string]*cachedForecast)
}

// CacheStats represents the current state of the cache.
type CacheStats struct {
	CurrentEntries  int
	CurrentFresh    int
	ForecastEntries int
	ForecastFresh   int
	Provider        string
}

// CacheStats returns cache statistics.
func (s *Service) CacheStats() CacheStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.clock.Now()
	stats := CacheStats{
		CurrentEntries:  len(s.currentCache),
		ForecastEntries: len(s.forecastCache),
		Provider:        s.ProviderName(),
	}

	for _, c := range s.currentCache {
		if now.Before(c.expiresAt) {
			stats.CurrentFresh++
		}
	}
	for _, c := range s.forecastCache {
		if now.Before(c.expiresAt) {
			stats.ForecastFresh++
		}
	}

	return stats
}

func (s *Service) recordRequest(operation string, d time.Duration, err error) {
	if s.providerMetrics != nil {
		s.providerMetrics.RecordRequest(s.provider.Name(), operation, d, err)
	}
}

func (s *Service) recordCacheHit(operation string) {
	if s.providerMetrics != nil {
		s.providerMetrics.RecordCacheHit(s.provider.Name(), operation)
	}
}

func (s *Service) recordCacheMiss(operation string) {
	if s.providerMetrics != nil {
		s.providerMetrics.RecordCacheMiss(s.provider.Name(), operation)
	}
}
