// Package response writes JSON bodies and RFC 7807 problems for the API
// handlers, tagging each with the request ID.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/airwise/airwise/internal/airquality"
	"github.com/airwise/airwise/internal/api/middleware"
	"github.com/airwise/airwise/internal/api/models"
)

// JSON writes data as a JSON body with the given status. A nil data writes
// no body.
func JSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	if id := middleware.GetRequestID(r.Context()); id != "" {
		w.Header().Set("X-Request-Id", id)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Problem writes a problem of the given kind for r.
func Problem(w http.ResponseWriter, r *http.Request, kind models.ProblemKind, detail string, errs ...models.FieldError) {
	models.NewProblem(kind, middleware.GetRequestID(r.Context()), r.URL.Path, detail, errs...).Write(w)
}

// BadRequest writes a 400 validation problem.
func BadRequest(w http.ResponseWriter, r *http.Request, detail string, errs []models.FieldError) {
	Problem(w, r, models.KindValidation, detail, errs...)
}

// InvalidReading writes a 400 for pollutant concentrations that cannot be
// assessed.
func InvalidReading(w http.ResponseWriter, r *http.Request, detail string, errs []models.FieldError) {
	Problem(w, r, models.KindInvalidReading, detail, errs...)
}

// UnknownPollutant writes a 404 naming the pollutant as the caller sent it.
func UnknownPollutant(w http.ResponseWriter, r *http.Request, name string) {
	Problem(w, r, models.KindUnknownPollutant, "unknown pollutant: "+name)
}

// NotFound writes a 404 for a missing resource.
func NotFound(w http.ResponseWriter, r *http.Request, detail string) {
	Problem(w, r, models.KindNotFound, detail)
}

// AirQualityError writes the problem for an error returned by the air
// quality service and returns the kind it chose.
func AirQualityError(w http.ResponseWriter, r *http.Request, err error) models.ProblemKind {
	kind, detail := classifyAirQualityError(err)
	Problem(w, r, kind, detail)
	return kind
}

func classifyAirQualityError(err error) (models.ProblemKind, string) {
	switch {
	case errors.Is(err, airquality.ErrInvalidCoordinates):
		return models.KindValidation, err.Error()
	case errors.Is(err, airquality.ErrInvalidReading):
		return models.KindInvalidReading, err.Error()
	case errors.Is(err, airquality.ErrNoMeasurements):
		return models.KindNoMeasurements, "no measurements available for this location"
	case errors.Is(err, airquality.ErrProviderUnavailable):
		return models.KindProviderUnavailable, "air quality data is temporarily unavailable"
	default:
		return models.KindInternal, "failed to load air quality"
	}
}
