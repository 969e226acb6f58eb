// Package handler provides HTTP handlers for the AirWise API.
package handler

import (
	"fmt"
	"net/http"

	"github.com/jonboulle/clockwork"

	"github.com/airwise/airwise/internal/airquality"
	"github.com/airwise/airwise/internal/api/models"
	"github.com/airwise/airwise/internal/api/response"
	"github.com/airwise/airwise/internal/provider/resilience"
)

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version    string
	buildTime  string
	registry   *resilience.Registry
	airQuality *airquality.Service
	clock      clockwork.Clock
}

// OpsConfig holds the dependencies of OpsHandler.
type OpsConfig struct {
	Version    string
	BuildTime  string
	Registry   *resilience.Registry
	AirQuality *airquality.Service
	Clock      clockwork.Clock
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	clk := cfg.Clock
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	return &OpsHandler{
		version:    cfg.Version,
		buildTime:  cfg.BuildTime,
		registry:   cfg.Registry,
		airQuality: cfg.AirQuality,
		clock:      clk,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.clock.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
// Not ready when a provider is configured but its circuit is open.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.clock.Now()),
	}
	if h.registry != nil && h.registry.Status() == resilience.StatusUnhealthy {
		health.Status = models.HealthStatusFail
		health.Details = map[string]interface{}{"reason": "upstream provider circuit open"}
		response.JSON(w, r, http.StatusServiceUnavailable, health)
		return
	}
	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - provider and subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(h.clock.Now()),
		Subsystems: h.subsystems(),
		Providers:  h.providers(),
	}

	for _, s := range status.Subsystems {
		status.Status = worst(status.Status, s.Status)
	}
	for _, p := range status.Providers {
		status.Status = worst(status.Status, p.Status)
	}

	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) subsystems() []models.SubsystemStatus {
	if h.airQuality == nil {
		detail := "air quality service not configured"
		return []models.SubsystemStatus{
			{Name: "air-quality-provider", Status: models.HealthStatusFail, Detail: &detail},
		}
	}

	stats := h.airQuality.CacheStats()
	cacheDetail := fmt.Sprintf("%d/%d current fresh, %d/%d forecast fresh",
		stats.CurrentFresh, stats.CurrentEntries, stats.ForecastFresh, stats.ForecastEntries)

	provider := models.SubsystemStatus{Name: "air-quality-provider", Status: models.HealthStatusOK}
	if stats.Provider == "" {
		detail := "no provider configured"
		provider.Status = models.HealthStatusDegraded
		provider.Detail = &detail
	} else {
		detail := stats.Provider
		provider.Detail = &detail
	}

	return []models.SubsystemStatus{
		provider,
		{Name: "air-quality-cache", Status: models.HealthStatusOK, Detail: &cacheDetail},
	}
}

func (h *OpsHandler) providers() []models.ProviderStatus {
	if h.registry == nil {
		return []models.ProviderStatus{}
	}

	all := h.registry.GetAllHealth()
	out := make([]models.ProviderStatus, 0, len(all))
	for _, ph := range all {
		ps := models.ProviderStatus{
			Provider:         ph.Name,
			Status:           models.HealthStatusOK,
			CircuitState:     ph.CircuitState.String(),
			ConsecutiveFails: int(ph.Counts.ConsecutiveFailures),
			LastSuccessAt:    timestampPtr(ph.LastSuccessAt),
			LastFailureAt:    timestampPtr(ph.LastFailureAt),
		}
		switch {
		case ph.IsUnhealthy():
			ps.Status = models.HealthStatusFail
		case ph.IsDegraded():
			ps.Status = models.HealthStatusDegraded
		}
		if ph.LastError != "" {
			msg := ph.LastError
			ps.Message = &msg
		}
		out = append(out, ps)
	}
	return out
}

var healthRank = map[models.HealthStatus]int{
	models.HealthStatusOK:       0,
	models.HealthStatusDegraded: 1,
	models.HealthStatusFail:     2,
}

func worst(a, b models.HealthStatus) models.HealthStatus {
	if healthRank[b] > healthRank[a] {
		return b
	}
	return a
}
