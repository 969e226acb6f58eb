package models

import (
	"encoding/json"
	"net/http"
)

// Problem is an RFC 7807 error body, served as application/problem+json.
type Problem struct {
	Type     string       `json:"type"`
	Title    string       `json:"title"`
	Status   int          `json:"status"`
	Detail   string       `json:"detail,omitempty"`
	Instance string       `json:"instance,omitempty"`
	TraceID  string       `json:"traceId"`
	Errors   []FieldError `json:"errors,omitempty"`
}

// FieldError describes a rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Field error codes.
const (
	CodeRequired   = "REQUIRED"
	CodeInvalid    = "INVALID"
	CodeOutOfRange = "OUT_OF_RANGE"
)

// RequiredField reports a missing field.
func RequiredField(field string) FieldError {
	return FieldError{Field: field, Message: "required", Code: CodeRequired}
}

// InvalidField reports a field that could not be parsed.
func InvalidField(field, message string) FieldError {
	return FieldError{Field: field, Message: message, Code: CodeInvalid}
}

// OutOfRangeField reports a parsed field outside its allowed range.
func OutOfRangeField(field, message string) FieldError {
	return FieldError{Field: field, Message: message, Code: CodeOutOfRange}
}

// ProblemKind is a registered problem type with its fixed title and status.
type ProblemKind struct {
	Type   string
	Title  string
	Status int
}

const problemBase = "https://api.airwise.dev/problems/"

// Problem kinds served by the API.
var (
	KindValidation          = ProblemKind{problemBase + "validation-error", "Validation error", http.StatusBadRequest}
	KindInvalidReading      = ProblemKind{problemBase + "invalid-reading", "Invalid pollutant reading", http.StatusBadRequest}
	KindUnknownPollutant    = ProblemKind{problemBase + "unknown-pollutant", "Unknown pollutant", http.StatusNotFound}
	KindNoMeasurements      = ProblemKind{problemBase + "no-measurements", "No measurements", http.StatusNotFound}
	KindNotFound            = ProblemKind{problemBase + "not-found", "Not found", http.StatusNotFound}
	KindTLSRequired         = ProblemKind{problemBase + "tls-required", "TLS required", http.StatusForbidden}
	KindUnsupportedMedia    = ProblemKind{problemBase + "unsupported-media-type", "Unsupported media type", http.StatusUnsupportedMediaType}
	KindTooManyRequests     = ProblemKind{problemBase + "too-many-requests", "Too many requests", http.StatusTooManyRequests}
	KindInternal            = ProblemKind{problemBase + "internal-error", "Internal server error", http.StatusInternalServerError}
	KindProviderUnavailable = ProblemKind{problemBase + "provider-unavailable", "Air quality provider unavailable", http.StatusServiceUnavailable}
)

// NewProblem creates a problem of the given kind for one request.
func NewProblem(kind ProblemKind, traceID, instance, detail string, errs ...FieldError) *Problem {
	return &Problem{
		Type:     kind.Type,
		Title:    kind.Title,
		Status:   kind.Status,
		Detail:   detail,
		Instance: instance,
		TraceID:  traceID,
		Errors:   errs,
	}
}

// Is reports whether the problem is of the given kind.
func (p *Problem) Is(kind ProblemKind) bool {
	return p.Type == kind.Type
}

// Write writes the problem with its status and the request ID header.
func (p *Problem) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/problem+json")
	if p.TraceID != "" {
		w.Header().Set("X-Request-Id", p.TraceID)
	}
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}
