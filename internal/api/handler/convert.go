package handler

import (
	"math"
	"time"

	"github.com/airwise/airwise/internal/airquality"
	"github.com/airwise/airwise/internal/api/models"
)

func toBand(b airquality.CategoryBand) models.Band {
	return models.Band{Label: b.Label, Color: b.Color}
}

// finite returns nil for NaN and infinities, which JSON cannot carry.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// roundExact keeps two decimals. The engine caps Exact, but the cap is
// applied here too so scaling can never overflow to Inf.
func roundExact(v float64) float64 {
	v = math.Min(v, airquality.MaxSubIndex)
	return math.Round(v*100) / 100
}

func toAQI(c airquality.ComputedIndex) models.AQI {
	subIndices := make([]models.SubIndex, 0, len(c.SubIndices))
	for _, si := range c.SubIndices {
		table, _ := airquality.TableFor(si.Pollutant)
		subIndices = append(subIndices, models.SubIndex{
			Pollutant:     models.Pollutant(si.Pollutant),
			Concentration: si.Concentration,
			Converted:     si.Converted,
			Unit:          table.Unit(),
			Exact:         roundExact(si.Exact),
			Index:         si.Index,
			Extrapolated:  si.Extrapolated,
		})
	}

	var extrapolated []models.Pollutant
	for _, p := range c.Extrapolated {
		extrapolated = append(extrapolated, models.Pollutant(p))
	}

	return models.AQI{
		Value:        c.Value,
		Category:     string(c.Category),
		Band:         toBand(c.Band),
		Dominant:     models.Pollutant(c.Dominant),
		SubIndices:   subIndices,
		Extrapolated: extrapolated,
	}
}

// toAssessment converts a domain assessment. location is omitted from the
// response when nil.
func toAssessment(a *airquality.Assessment, location *models.Point) models.Assessment {
	pollutants := make([]models.PollutantStatus, 0, len(a.Pollutants))
	for _, ps := range a.Pollutants {
		status := models.PollutantStatus{
			Pollutant: models.Pollutant(ps.Pollutant),
			Value:     finite(ps.Value),
			Band:      toBand(ps.Band),
		}
		if status.Value != nil {
			status.Formatted = ps.Formatted
		}
		pollutants = append(pollutants, status)
	}

	var warnings []string
	if a.ReadingError != nil {
		warnings = append(warnings, a.ReadingError.Error())
	}
	if a.ProviderIndex != 0 {
		if err := airquality.ValidateProviderIndex(a.ProviderIndex); err != nil {
			warnings = append(warnings, err.Error())
		}
	}

	var observedAt *models.Timestamp
	if !a.ObservedAt.IsZero() {
		ts := models.Timestamp(a.ObservedAt)
		observedAt = &ts
	}

	return models.Assessment{
		Location:       location,
		AQI:            toAQI(a.Index),
		Status:         a.Status,
		Recommendation: a.Recommendation,
		ProviderIndex:  a.ProviderIndex,
		ProviderBand:   toBand(a.ProviderBand),
		Pollutants:     pollutants,
		PossibleSmoke:  a.PossibleSmoke,
		Warnings:       warnings,
		ObservedAt:     observedAt,
		ComputedAt:     models.Timestamp(a.ComputedAt),
		Provider:       a.Provider,
	}
}

func timestampPtr(t *time.Time) *models.Timestamp {
	if t == nil {
		return nil
	}
	ts := models.Timestamp(*t)
	return &ts
}
