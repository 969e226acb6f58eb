package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/airwise/airwise/internal/airquality"
)

// AssessmentSource is the part of airquality.Service the refresh job needs.
type AssessmentSource interface {
	GetAssessment(ctx context.Context, lat, lon float64) (*airquality.Assessment, error)
	GetForecast(ctx context.Context, lat, lon float64) ([]*airquality.Assessment, error)
}

var errNoSource = errors.New("no assessment source configured")

// RefreshJob assesses every configured point, warming the service cache
// and publishing the results.
type RefreshJob struct {
	config    RefreshConfig
	logger    zerolog.Logger
	clock     clockwork.Clock
	source    AssessmentSource
	publisher Publisher

	metrics *RefreshMetrics
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	TotalRefreshes    int64
	SuccessfulRefresh int64
	FailedRefreshes   int64
	Published         int64
	PublishFailures   int64

	// Category counts of the latest current assessments.
	Categories map[string]int64

	LastRefreshAt       time.Time
	LastRefreshDuration time.Duration
	TotalDuration       time.Duration
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config RefreshConfig
	Logger zerolog.Logger
	Clock  clockwork.Clock

	// Source is usually an *airquality.Service.
	Source AssessmentSource

	// Publisher is optional; without one the job only warms the cache.
	Publisher Publisher
}

// NewRefreshJob creates a new refresh job.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	config := cfg.Config
	if len(config.Targets) == 0 {
		config.Targets = DefaultRefreshTargets()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 3
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	clk := cfg.Clock
	if clk == nil {
		clk = clockwork.NewRealClock()
	}

	return &RefreshJob{
		config:    config,
		logger:    cfg.Logger,
		clock:     clk,
		source:    cfg.Source,
		publisher: cfg.Publisher,
		metrics:   &RefreshMetrics{Categories: make(map[string]int64)},
	}
}

// RefreshResult contains the result of a refresh run.
type RefreshResult struct {
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
	TotalPoints int
	Successful  int
	Failed      int
	Published   int
	Errors      []RefreshError

	// Categories counts current assessments by index category.
	Categories map[string]int
}

// RefreshError represents a failure for one point.
type RefreshError struct {
	Stage string
	Point Point
	Error string
}

// Run refreshes all configured points.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	startTime := j.clock.Now()
	result := &RefreshResult{
		StartTime:   startTime,
		TotalPoints: j.config.TotalPoints(),
		Categories:  make(map[string]int),
	}

	j.logger.Info().
		Int("total_points", result.TotalPoints).
		Int("concurrency", j.config.Concurrency).
		Msg("starting refresh job")

	points := j.config.AllPoints()

	pointsChan := make(chan Point, len(points))
	resultsChan := make(chan pointResult, len(points))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.refreshWorker(ctx, pointsChan, resultsChan)
		}()
	}

	for _, p := range points {
		pointsChan <- p
	}
	close(pointsChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	var events []AssessmentEvent
	for pr := range resultsChan {
		if pr.success {
			result.Successful++
		} else {
			result.Failed++
		}
		if pr.category != "" {
			result.Categories[pr.category]++
		}
		result.Errors = append(result.Errors, pr.errors...)
		events = append(events, pr.events...)
	}

	// Points skipped after cancellation count as failures.
	if skipped := result.TotalPoints - result.Successful - result.Failed; skipped > 0 {
		result.Failed += skipped
	}

	publishFailed := false
	if j.publisher != nil && len(events) > 0 {
		if err := j.publisher.Publish(ctx, events); err != nil {
			publishFailed = true
			j.logger.Error().Err(err).Int("events", len(events)).Msg("failed to publish assessments")
			result.Errors = append(result.Errors, RefreshError{Stage: "publish", Error: err.Error()})
		} else {
			result.Published = len(events)
		}
	}

	result.EndTime = j.clock.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result, publishFailed)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Int("published", result.Published).
		Msg("refresh job completed")

	return result
}

type pointResult struct {
	success  bool
	category string
	events   []AssessmentEvent
	errors   []RefreshError
}

func (j *RefreshJob) refreshWorker(ctx context.Context, points <-chan Point, results chan<- pointResult) {
	for point := range points {
		select {
		case <-ctx.Done():
			return
		default:
			results <- j.refreshPoint(ctx, point)
		}
	}
}

func (j *RefreshJob) refreshPoint(ctx context.Context, point Point) pointResult {
	result := pointResult{success: true}

	pointCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	if j.source == nil {
		result.success = false
		result.errors = append(result.errors, RefreshError{Stage: "current", Point: point, Error: errNoSource.Error()})
		return result
	}

	current, err := j.source.GetAssessment(pointCtx, point.Lat, point.Lon)
	if err != nil {
		result.success = false
		result.errors = append(result.errors, RefreshError{Stage: "current", Point: point, Error: err.Error()})
	} else {
		result.category = string(current.Index.Category)
		result.events = append(result.events, NewAssessmentEvent(point, current, false))
	}

	if j.config.IncludeForecast {
		forecast, err := j.source.GetForecast(pointCtx, point.Lat, point.Lon)
		if err != nil {
			// Forecast failures do not fail the point.
			result.errors = append(result.errors, RefreshError{Stage: "forecast", Point: point, Error: err.Error()})
		} else {
			for _, a := range forecast {
				result.events = append(result.events, NewAssessmentEvent(point, a, true))
			}
		}
	}

	return result
}

func (j *RefreshJob) updateMetrics(result *RefreshResult, publishFailed bool) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRefreshes++
	j.metrics.SuccessfulRefresh += int64(result.Successful)
	j.metrics.FailedRefreshes += int64(result.Failed)
	j.metrics.Published += int64(result.Published)
	if publishFailed {
		j.metrics.PublishFailures++
	}
	j.metrics.Categories = make(map[string]int64, len(result.Categories))
	for c, n := range result.Categories {
		j.metrics.Categories[c] = int64(n)
	}
	j.metrics.LastRefreshAt = result.EndTime
	j.metrics.LastRefreshDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	categories := make(map[string]int64, len(j.metrics.Categories))
	for c, n := range j.metrics.Categories {
		categories[c] = n
	}

	return RefreshMetrics{
		TotalRefreshes:      j.metrics.TotalRefreshes,
		SuccessfulRefresh:   j.metrics.SuccessfulRefresh,
		FailedRefreshes:     j.metrics.FailedRefreshes,
		Published:           j.metrics.Published,
		PublishFailures:     j.metrics.PublishFailures,
		Categories:          categories,
		LastRefreshAt:       j.metrics.LastRefreshAt,
		LastRefreshDuration: j.metrics.LastRefreshDuration,
		TotalDuration:       j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns the current metrics as a JSON-friendly map.
func (j *RefreshJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_refreshes":       m.TotalRefreshes,
		"successful_refreshes":  m.SuccessfulRefresh,
		"failed_refreshes":      m.FailedRefreshes,
		"published":             m.Published,
		"publish_failures":      m.PublishFailures,
		"categories":            m.Categories,
		"last_refresh_at":       m.LastRefreshAt,
		"last_refresh_duration": m.LastRefreshDuration.String(),
		"total_duration":        m.TotalDuration.String(),
	}
}

// SinglePoint returns a job over one point that shares this job's source
// but never publishes.
func (j *RefreshJob) SinglePoint(p Point, timeout time.Duration) *RefreshJob {
	return NewRefreshJob(RefreshJobConfig{
		Config: RefreshConfig{
			Targets:     []RefreshTarget{{Name: "health-check", Priority: 1, Points: []Point{p}}},
			Concurrency: 1,
			Timeout:     timeout,
		},
		Logger: j.logger,
		Clock:  j.clock,
		Source: j.source,
	})
}

// Err summarises a run as an error when more points failed than succeeded.
func (r *RefreshResult) Err() error {
	if r.Failed > r.Successful {
		return fmt.Errorf("too many refresh failures: %d/%d", r.Failed, r.TotalPoints)
	}
	return nil
}
