package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// Job types accepted on the subscription.
const (
	JobProviderRefresh = "provider_refresh"
	JobHealthCheck     = "health_check"
)

// HealthCheckPoint is the location assessed by health_check jobs.
var HealthCheckPoint = Point{Lat: 34.0522, Lon: -118.2437} // Los Angeles

// PubSubHandler consumes refresh jobs from a Pub/Sub subscription.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	jobs             *JobRunner
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	RefreshJob       *RefreshJob
	Logger           zerolog.Logger
}

// RefreshMessage is the body of a job message.
type RefreshMessage struct {
	JobType string `json:"job_type"`

	// IncludeForecast also refreshes and publishes forecasts for this run.
	IncludeForecast bool `json:"include_forecast,omitempty"`
}

// ErrUnknownJob is returned for job types the worker does not handle.
var ErrUnknownJob = errors.New("unknown job type")

// JobRunner executes decoded job messages. It is independent of the
// transport so it can be driven by Pub/Sub or a local ticker.
type JobRunner struct {
	refreshJob *RefreshJob
	logger     zerolog.Logger
}

// NewJobRunner creates a runner over a refresh job.
func NewJobRunner(job *RefreshJob, logger zerolog.Logger) *JobRunner {
	return &JobRunner{refreshJob: job, logger: logger}
}

// Handle decodes and runs one job message.
func (r *JobRunner) Handle(ctx context.Context, data []byte) (string, error) {
	var msg RefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return "", fmt.Errorf("parsing job message: %w", err)
	}

	switch msg.JobType {
	case JobProviderRefresh:
		return msg.JobType, r.ProviderRefresh(ctx, msg.IncludeForecast)
	case JobHealthCheck:
		return msg.JobType, r.HealthCheck(ctx)
	default:
		return msg.JobType, fmt.Errorf("%w: %q", ErrUnknownJob, msg.JobType)
	}
}

// ProviderRefresh runs the full refresh job.
func (r *JobRunner) ProviderRefresh(ctx context.Context, includeForecast bool) error {
	job := r.refreshJob
	if includeForecast && !job.config.IncludeForecast {
		cfg := job.config
		cfg.IncludeForecast = true
		job = NewRefreshJob(RefreshJobConfig{
			Config:    cfg,
			Logger:    job.logger,
			Clock:     job.clock,
			Source:    job.source,
			Publisher: job.publisher,
		})
		job.metrics = r.refreshJob.metrics
	}

	result := job.Run(ctx)
	return result.Err()
}

// HealthCheck assesses a single point to verify provider connectivity.
func (r *JobRunner) HealthCheck(ctx context.Context) error {
	result := r.refreshJob.SinglePoint(HealthCheckPoint, 10*time.Second).Run(ctx)
	if result.Failed > 0 {
		return fmt.Errorf("health check failed: %d errors", result.Failed)
	}
	r.logger.Debug().Msg("health check passed")
	return nil
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		jobs:             NewJobRunner(cfg.RefreshJob, cfg.Logger),
		logger:           cfg.Logger,
	}, nil
}

// Start processes messages until ctx is cancelled.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if h.handleMessage(ctx, msg.ID, msg.PublishTime, msg.Data) {
			msg.Ack()
		} else {
			msg.Nack()
		}
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

// handleMessage runs a job and reports whether the message should be acked.
// Unknown job types are acked to prevent redelivery.
func (h *PubSubHandler) handleMessage(ctx context.Context, id string, published time.Time, data []byte) bool {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", id).
		Str("publish_time", published.Format(time.RFC3339)).
		Logger()

	jobType, err := h.jobs.Handle(ctx, data)
	switch {
	case errors.Is(err, ErrUnknownJob):
		logger.Warn().Str("job_type", jobType).Msg("unknown job type")
		return true
	case err != nil:
		logger.Error().Err(err).Str("job_type", jobType).Msg("job failed")
		return false
	}

	logger.Info().
		Str("job_type", jobType).
		Dur("duration", time.Since(startTime)).
		Msg("job completed successfully")
	return true
}
