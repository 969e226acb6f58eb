package handler

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"

	"github.com/airwise/airwise/internal/airquality"
	"github.com/airwise/airwise/internal/api/models"
	"github.com/airwise/airwise/internal/api/response"
)

// AQIHandler serves the stateless index computations.
type AQIHandler struct {
	metrics airquality.EngineMetrics
	clock   clockwork.Clock
}

// NewAQIHandler creates a new AQIHandler. metrics may be nil; a nil clock
// means the real clock.
func NewAQIHandler(metrics airquality.EngineMetrics, clock clockwork.Clock) *AQIHandler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &AQIHandler{metrics: metrics, clock: clock}
}

// Compute handles POST /v1/aqi:compute - assess caller-supplied concentrations.
func (h *AQIHandler) Compute(w http.ResponseWriter, r *http.Request) {
	var input models.ComputeRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	reading, componentErrors := readingFromComponents(input.Components)
	var fieldErrors []models.FieldError
	if input.ProviderIndex != nil {
		if err := airquality.ValidateProviderIndex(*input.ProviderIndex); err != nil {
			fieldErrors = append(fieldErrors, models.OutOfRangeField("providerIndex", "must be between 1 and 5"))
		}
	}
	if input.Location != nil {
		fieldErrors = append(fieldErrors, validatePoint("location", input.Location.Lat, input.Location.Lon)...)
	}
	switch {
	case len(componentErrors) > 0:
		response.InvalidReading(w, r, "invalid components", append(componentErrors, fieldErrors...))
		return
	case len(fieldErrors) > 0:
		response.BadRequest(w, r, "invalid request", fieldErrors)
		return
	}

	obs := airquality.Observation{Reading: reading}
	if input.ProviderIndex != nil {
		obs.ProviderIndex = *input.ProviderIndex
	}
	if input.Location != nil {
		obs.Lat, obs.Lon = input.Location.Lat, input.Location.Lon
	}

	a := airquality.Assess(obs, h.clock.Now())
	if h.metrics != nil {
		h.metrics.RecordIndex(r.Context(), a.Index.Value, a.Status, a.ReadingError != nil, len(a.Index.Extrapolated))
	}

	response.JSON(w, r, http.StatusOK, toAssessment(&a, input.Location))
}

// readingFromComponents rejects missing and negative concentrations at the boundary.
func readingFromComponents(c models.Components) (airquality.Reading, []models.FieldError) {
	var reading airquality.Reading
	var fieldErrors []models.FieldError

	fields := []struct {
		name string
		src  *float64
		dst  *float64
	}{
		{"co", c.CO, &reading.CO},
		{"no", c.NO, &reading.NO},
		{"no2", c.NO2, &reading.NO2},
		{"o3", c.O3, &reading.O3},
		{"so2", c.SO2, &reading.SO2},
		{"pm2_5", c.PM25, &reading.PM25},
		{"pm10", c.PM10, &reading.PM10},
		{"nh3", c.NH3, &reading.NH3},
	}
	for _, f := range fields {
		switch {
		case f.src == nil:
			fieldErrors = append(fieldErrors, models.RequiredField("components."+f.name))
		case *f.src < 0:
			fieldErrors = append(fieldErrors, models.OutOfRangeField("components."+f.name, "must be non-negative"))
		default:
			*f.dst = *f.src
		}
	}
	return reading, fieldErrors
}

// PollutantStatus handles GET /v1/pollutants/{pollutant}/status - classify one concentration.
func (h *AQIHandler) PollutantStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := airquality.ParsePollutant(chi.URLParam(r, "pollutant"))
	if !ok {
		response.UnknownPollutant(w, r, chi.URLParam(r, "pollutant"))
		return
	}

	raw := r.URL.Query().Get("value")
	if raw == "" {
		response.BadRequest(w, r, "value is required", []models.FieldError{models.RequiredField("value")})
		return
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		response.BadRequest(w, r, "value must be a number", []models.FieldError{
			models.InvalidField("value", "must be a number"),
		})
		return
	}
	if value < 0 {
		response.InvalidReading(w, r, "value must be non-negative", []models.FieldError{
			models.OutOfRangeField("value", "must be non-negative"),
		})
		return
	}

	response.JSON(w, r, http.StatusOK, models.PollutantBand{
		Pollutant: models.Pollutant(p),
		Value:     value,
		Formatted: airquality.FormatConcentration(p, value),
		Band:      toBand(airquality.ClassifyPollutant(p, value)),
	})
}

// ProviderIndex handles GET /v1/provider-index/{ordinal} - band for a provider ordinal.
// Ordinals outside 1-5 get the neutral band.
func (h *AQIHandler) ProviderIndex(w http.ResponseWriter, r *http.Request) {
	ordinal, err := strconv.Atoi(chi.URLParam(r, "ordinal"))
	if err != nil {
		response.BadRequest(w, r, "ordinal must be an integer", []models.FieldError{
			models.InvalidField("ordinal", "must be an integer"),
		})
		return
	}

	response.JSON(w, r, http.StatusOK, models.ProviderIndexBand{
		Ordinal: ordinal,
		Valid:   !errors.Is(airquality.ValidateProviderIndex(ordinal), airquality.ErrInvalidOrdinal),
		Band:    toBand(airquality.CategorizeProviderIndex(ordinal)),
	})
}
