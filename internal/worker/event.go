package worker

import (
	"context"
	"math"
	"time"

	"github.com/airwise/airwise/internal/airquality"
)

// Publisher delivers assessment events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, events []AssessmentEvent) error
	Close() error
}

// AssessmentEvent is the published form of one assessment.
type AssessmentEvent struct {
	Point         string              `json:"point"`
	Lat           float64             `json:"lat"`
	Lon           float64             `json:"lon"`
	Forecast      bool                `json:"forecast"`
	AQI           int                 `json:"aqi"`
	Category      string              `json:"category"`
	Dominant      string              `json:"dominant,omitempty"`
	Extrapolated  []string            `json:"extrapolated,omitempty"`
	ProviderIndex int                 `json:"providerIndex"`
	PossibleSmoke bool                `json:"possibleSmoke"`
	Invalid       bool                `json:"invalid"`
	Components    map[string]*float64 `json:"components"`
	ObservedAt    time.Time           `json:"observedAt"`
	ComputedAt    time.Time           `json:"computedAt"`
	Provider      string              `json:"provider"`
}

// NewAssessmentEvent flattens an assessment for publishing. Non-finite
// concentrations are published as null.
func NewAssessmentEvent(point Point, a *airquality.Assessment, forecast bool) AssessmentEvent {
	components := make(map[string]*float64, len(a.Pollutants))
	for _, ps := range a.Pollutants {
		var v *float64
		if !math.IsNaN(ps.Value) && !math.IsInf(ps.Value, 0) {
			value := ps.Value
			v = &value
		}
		components[string(ps.Pollutant)] = v
	}

	var extrapolated []string
	for _, p := range a.Index.Extrapolated {
		extrapolated = append(extrapolated, string(p))
	}

	return AssessmentEvent{
		Point:         point.Key(),
		Lat:           a.Lat,
		Lon:           a.Lon,
		Forecast:      forecast,
		AQI:           a.Index.Value,
		Category:      string(a.Index.Category),
		Dominant:      string(a.Index.Dominant),
		Extrapolated:  extrapolated,
		ProviderIndex: a.ProviderIndex,
		PossibleSmoke: a.PossibleSmoke,
		Invalid:       a.ReadingError != nil,
		Components:    components,
		ObservedAt:    a.ObservedAt,
		ComputedAt:    a.ComputedAt,
		Provider:      a.Provider,
	}
}
