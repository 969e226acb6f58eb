package handler

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/airwise/airwise/internal/airquality"
	"github.com/airwise/airwise/internal/api/middleware"
	"github.com/airwise/airwise/internal/api/models"
	"github.com/airwise/airwise/internal/api/response"
)

// AirQualityHandler serves assessments for locations.
type AirQualityHandler struct {
	service *airquality.Service
	logger  zerolog.Logger
}

// NewAirQualityHandler creates a new AirQualityHandler.
func NewAirQualityHandler(service *airquality.Service, logger zerolog.Logger) *AirQualityHandler {
	return &AirQualityHandler{service: service, logger: logger}
}

// Current handles GET /v1/air-quality/current - assessment for a location.
func (h *AirQualityHandler) Current(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := parseLocation(w, r)
	if !ok {
		return
	}

	a, err := h.service.GetAssessment(r.Context(), lat, lon)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	response.JSON(w, r, http.StatusOK, toAssessment(a, &models.Point{Lat: a.Lat, Lon: a.Lon}))
}

// Forecast handles GET /v1/air-quality/forecast - hourly assessments for a location.
func (h *AirQualityHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := parseLocation(w, r)
	if !ok {
		return
	}

	assessments, err := h.service.GetForecast(r.Context(), lat, lon)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	forecast := models.Forecast{
		Location: models.Point{Lat: lat, Lon: lon},
		Provider: h.service.ProviderName(),
		Items:    make([]models.Assessment, 0, len(assessments)),
	}
	for _, a := range assessments {
		forecast.Items = append(forecast.Items, toAssessment(a, nil))
	}

	w.Header().Set("Cache-Control", "public, max-age=900")
	response.JSON(w, r, http.StatusOK, forecast)
}

func (h *AirQualityHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch response.AirQualityError(w, r, err) {
	case models.KindProviderUnavailable:
		h.logger.Warn().Err(err).Str("request_id", middleware.GetRequestID(r.Context())).Msg("air quality provider unavailable")
	case models.KindInternal:
		h.logger.Error().Err(err).Str("request_id", middleware.GetRequestID(r.Context())).Msg("air quality lookup failed")
	}
}

// parseLocation reads lat/lon query parameters, writing a 400 on failure.
func parseLocation(w http.ResponseWriter, r *http.Request) (float64, float64, bool) {
	q := r.URL.Query()
	var fieldErrors []models.FieldError

	parse := func(name string) float64 {
		raw := q.Get(name)
		if raw == "" {
			fieldErrors = append(fieldErrors, models.RequiredField(name))
			return 0
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			fieldErrors = append(fieldErrors, models.InvalidField(name, "must be a number"))
			return 0
		}
		return v
	}

	lat := parse("lat")
	lon := parse("lon")
	if len(fieldErrors) == 0 {
		fieldErrors = validatePoint("", lat, lon)
	}
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "invalid location", fieldErrors)
		return 0, 0, false
	}
	return lat, lon, true
}

// validatePoint range-checks a coordinate pair. prefix namespaces the field names.
func validatePoint(prefix string, lat, lon float64) []models.FieldError {
	if airquality.ValidateCoordinates(lat, lon) == nil {
		return nil
	}
	if prefix != "" {
		prefix += "."
	}

	var fieldErrors []models.FieldError
	if airquality.ValidateCoordinates(lat, 0) != nil {
		fieldErrors = append(fieldErrors, models.OutOfRangeField(prefix+"lat", "must be between -90 and 90"))
	}
	if airquality.ValidateCoordinates(0, lon) != nil {
		fieldErrors = append(fieldErrors, models.OutOfRangeField(prefix+"lon", "must be between -180 and 180"))
	}
	return fieldErrors
}
