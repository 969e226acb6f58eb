package models_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airwise/airwise/internal/api/models"
)

func TestNewProblem(t *testing.T) {
	p := models.NewProblem(models.KindInvalidReading, "req_123", "/v1/aqi:compute", "invalid components",
		models.RequiredField("components.co"),
		models.OutOfRangeField("components.pm10", "must be non-negative"),
	)

	assert.Equal(t, "https://api.airwise.dev/problems/invalid-reading", p.Type)
	assert.Equal(t, "Invalid pollutant reading", p.Title)
	assert.Equal(t, http.StatusBadRequest, p.Status)
	assert.Equal(t, "invalid components", p.Detail)
	assert.Equal(t, "/v1/aqi:compute", p.Instance)
	assert.Equal(t, "req_123", p.TraceID)
	assert.True(t, p.Is(models.KindInvalidReading))
	assert.False(t, p.Is(models.KindValidation))

	require.Len(t, p.Errors, 2)
	assert.Equal(t, models.FieldError{Field: "components.co", Message: "required", Code: models.CodeRequired}, p.Errors[0])
	assert.Equal(t, models.CodeOutOfRange, p.Errors[1].Code)
}

func TestNewProblem_NoFieldErrors(t *testing.T) {
	p := models.NewProblem(models.KindUnknownPollutant, "req_123", "/v1/pollutants/xyz/status", "unknown pollutant: xyz")

	assert.Nil(t, p.Errors)
	assert.Equal(t, http.StatusNotFound, p.Status)
}

func TestFieldErrorConstructors(t *testing.T) {
	tests := []struct {
		name     string
		got      models.FieldError
		expected models.FieldError
	}{
		{
			name:     "required",
			got:      models.RequiredField("lat"),
			expected: models.FieldError{Field: "lat", Message: "required", Code: "REQUIRED"},
		},
		{
			name:     "invalid",
			got:      models.InvalidField("value", "must be a number"),
			expected: models.FieldError{Field: "value", Message: "must be a number", Code: "INVALID"},
		},
		{
			name:     "out of range",
			got:      models.OutOfRangeField("providerIndex", "must be between 1 and 5"),
			expected: models.FieldError{Field: "providerIndex", Message: "must be between 1 and 5", Code: "OUT_OF_RANGE"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.got)
		})
	}
}

func TestProblemKinds_AreDistinct(t *testing.T) {
	kinds := []models.ProblemKind{
		models.KindValidation,
		models.KindInvalidReading,
		models.KindUnknownPollutant,
		models.KindNoMeasurements,
		models.KindNotFound,
		models.KindTLSRequired,
		models.KindUnsupportedMedia,
		models.KindTooManyRequests,
		models.KindInternal,
		models.KindProviderUnavailable,
	}

	seen := make(map[string]bool)
	for _, k := range kinds {
		assert.False(t, seen[k.Type], "duplicate problem type %s", k.Type)
		seen[k.Type] = true
		assert.NotEmpty(t, k.Title)
		assert.GreaterOrEqual(t, k.Status, 400)
	}
}

func TestProblem_Write(t *testing.T) {
	p := models.NewProblem(models.KindProviderUnavailable, "req_123", "/v1/air-quality/current",
		"air quality data is temporarily unavailable")

	w := httptest.NewRecorder()
	p.Write(w)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	assert.Equal(t, "req_123", w.Header().Get("X-Request-Id"))

	var result models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, *p, result)
}

func TestProblem_WriteWithoutTraceID(t *testing.T) {
	w := httptest.NewRecorder()
	models.NewProblem(models.KindNotFound, "", "/nowhere", "").Write(w)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, w.Header().Get("X-Request-Id"))
	assert.NotContains(t, w.Body.String(), `"detail"`)
}
